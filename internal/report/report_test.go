package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondar-aleksandr/netinspect/internal/device"
)

func TestAssemble(t *testing.T) {
	d := &device.Descriptor{Platform: "ios", IP: "10.0.0.1", Username: "admin", Password: "x"}
	results := []device.CommandResult{
		{Command: "show version", Status: device.StatusSuccess, Output: "Cisco IOS"},
		{Command: "show bogus-command", Status: device.StatusError, Error: "rejected"},
	}

	r := Assemble(d, results)

	require.Len(t, r.Results, 2)
	assert.Equal(t, "show version", r.Results[0].Command)
	assert.Equal(t, "show bogus-command", r.Results[1].Command)
	assert.Equal(t, *d, r.Device)

	// inputs are copied, not aliased
	results[0].Output = "mutated"
	assert.Equal(t, "Cisco IOS", r.Results[0].Output)
}

func TestAssembleEmpty(t *testing.T) {
	d := &device.Descriptor{Platform: "ios", IP: "10.0.0.1", Username: "admin", Password: "x"}
	r := Assemble(d, nil)
	assert.NotNil(t, r)
	assert.Empty(t, r.Results)
}
