package executor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bondar-aleksandr/netinspect/internal/broker"
	"github.com/bondar-aleksandr/netinspect/internal/device"
	"github.com/bondar-aleksandr/netinspect/internal/parser"
)

// parseFunc matches parser.Parse; replaceable in tests.
type parseFunc func(platform, command, raw string) (map[string]any, error)

// Executor runs an ordered command batch over one open session. Commands
// are independent: a failed command becomes an error entry and the batch
// moves on.
type Executor struct {
	logger *zap.SugaredLogger
	parse  parseFunc
}

func New(logger *zap.SugaredLogger) *Executor {
	return &Executor{logger: logger, parse: parser.Parse}
}

// Run executes the commands in input order and returns one result per
// command, in that same order. No command is retried, and no failure short
// of a closed process aborts the batch.
func (e *Executor) Run(ctx context.Context, s broker.Session, commands []device.CommandSpec) []device.CommandResult {
	results := make([]device.CommandResult, 0, len(commands))
	for _, c := range commands {
		results = append(results, e.runOne(ctx, s, c))
	}
	return results
}

func (e *Executor) runOne(ctx context.Context, s broker.Session, c device.CommandSpec) device.CommandResult {
	out, err := s.Run(ctx, c.Command)
	if err != nil {
		e.logger.Warnf("Command %q failed: %v", c.Command, err)
		// rejections come back with the device's own error text attached;
		// keep it in the report like any other raw output
		return device.CommandResult{
			Command: c.Command,
			Status:  device.StatusError,
			Output:  out,
			Error:   err.Error(),
		}
	}
	if rejection, found := detectCliError(out); found {
		e.logger.Warnf("Command %q rejected by device: %s", c.Command, rejection)
		return device.CommandResult{
			Command: c.Command,
			Status:  device.StatusError,
			Output:  out,
			Error:   rejection,
		}
	}

	res := device.CommandResult{
		Command: c.Command,
		Status:  device.StatusSuccess,
		Output:  out,
	}
	if s.SupportsParsing() {
		parsed, perr := e.parse(s.Platform(), c.Command, out)
		if perr != nil {
			// recoverable: keep the raw output only
			e.logger.Debugf("Parsing output of %q failed: %v", c.Command, perr)
		} else {
			res.Parsed = parsed
		}
	}
	return res
}

// detectCliError scans the first lines of command output for a CLI
// rejection. Error messages sit in the first lines right after the echoed
// command, so only those are checked.
func detectCliError(output string) (string, bool) {
	lines := strings.Split(output, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "Command rejected:") {
			return trimmed, true
		}
	}
	return "", false
}
