package report

import (
	"github.com/bondar-aleksandr/netinspect/internal/device"
)

// Assemble composes the final per-device report. Pure: inputs are copied,
// not mutated.
func Assemble(d *device.Descriptor, results []device.CommandResult) *device.ExecutionReport {
	out := make([]device.CommandResult, len(results))
	copy(out, results)
	return &device.ExecutionReport{
		Device:  *d,
		Results: out,
	}
}
