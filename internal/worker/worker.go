package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bondar-aleksandr/netinspect/internal/app"
	"github.com/bondar-aleksandr/netinspect/internal/broker"
	"github.com/bondar-aleksandr/netinspect/internal/device"
)

// inspector is the inspection pipeline surface the worker drives.
type inspector interface {
	Execute(ctx context.Context, d *device.Descriptor, commands []device.CommandSpec) (*device.ExecutionReport, error)
}

// Entry is one inventory row scheduled for inspection, and its outcome.
type Entry struct {
	Descriptor device.Descriptor
	Commands   []device.CommandSpec
	State      string
	Report     *device.ExecutionReport
}

// worker runs the strictly-serial inspection pipeline for one device. Each
// device gets its own worker goroutine; sessions are never shared between
// workers.
type worker struct {
	ctx      context.Context
	entry    *Entry
	insp     inspector
	globalWg *sync.WaitGroup
	app      *app.App
}

// constructor for worker
func NewWorker(ctx context.Context, e *Entry, wg *sync.WaitGroup, a *app.App, insp inspector) *worker {
	return &worker{
		ctx:      ctx,
		entry:    e,
		insp:     insp,
		globalWg: wg,
		app:      a,
	}
}

// main process for worker
func (w *worker) Run() {
	defer w.globalWg.Done()

	report, err := w.insp.Execute(w.ctx, &w.entry.Descriptor, w.entry.Commands)
	if err != nil {
		w.entry.State = stateFromError(err)
		return
	}
	w.entry.Report = report
	w.entry.State = device.Ok
	for _, r := range report.Results {
		if !r.Succeeded() {
			w.entry.State = device.CmdPartiallyAccepted
			w.app.Logger.Warnf("Got error, device: %q, cmd: %q, error: %q",
				w.entry.Descriptor.IP, r.Command, r.Error)
		}
	}
	w.storeReport(report)
}

// stateFromError maps a fatal pipeline error to the summary-table state.
func stateFromError(err error) string {
	var vErr *device.ValidationError
	if errors.As(err, &vErr) {
		return device.InvalidEntry
	}
	var cErr *broker.ConnectionError
	if errors.As(err, &cErr) {
		if cErr.Kind == broker.KindAuthFailure {
			return device.SshAuthFailure
		}
		return device.Unreachable
	}
	return device.Unknown
}

// this func stores the per-device report to a JSON file in the output folder
func (w *worker) storeReport(report *device.ExecutionReport) {
	w.app.Logger.Infof("Storing device %q report to file...", w.entry.Descriptor.IP)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		w.app.Logger.Errorf("Unable to encode report for device %q because of: %s", w.entry.Descriptor.IP, err)
		return
	}
	name := filepath.Join(w.app.Config.Data.OutputFolder, w.entry.Descriptor.IP+"_report.json")
	if err = os.WriteFile(name, data, 0o644); err != nil {
		w.app.Logger.Errorf("Unable to write report for device %q to file %q because of: %s",
			w.entry.Descriptor.IP, name, err)
		return
	}
	w.app.Logger.Infof("Stored device %q report to file successfully", w.entry.Descriptor.IP)
}
