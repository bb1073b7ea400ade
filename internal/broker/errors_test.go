package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp 10.0.0.99:22: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestClassifyConnErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ConnKind
	}{
		{"net timeout", timeoutErr{}, KindTimeout},
		{"wrapped net timeout", fmt.Errorf("dial: %w", timeoutErr{}), KindTimeout},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"io timeout text", errors.New("read tcp: i/o timeout"), KindTimeout},
		{"auth failure", errors.New("ssh: unable to authenticate, attempted methods [none password]"), KindAuthFailure},
		{"refused", errors.New("dial tcp 10.0.0.1:22: connect: connection refused"), KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := classifyConnErr("10.0.0.99", tt.err)
			assert.Equal(t, tt.want, cerr.Kind)
			assert.Equal(t, "10.0.0.99", cerr.Host)
		})
	}
}

func TestConnectionErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	cerr := classifyConnErr("10.0.0.1", inner)
	require.ErrorIs(t, cerr, inner)
	var target *ConnectionError
	assert.True(t, errors.As(fmt.Errorf("connect: %w", cerr), &target))
}
