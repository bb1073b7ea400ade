package inspect

import (
	"context"

	"go.uber.org/zap"

	"github.com/bondar-aleksandr/netinspect/internal/broker"
	"github.com/bondar-aleksandr/netinspect/internal/device"
	"github.com/bondar-aleksandr/netinspect/internal/executor"
	"github.com/bondar-aleksandr/netinspect/internal/report"
	"github.com/bondar-aleksandr/netinspect/internal/testbed"
)

// connector and runner cover the broker and executor surface the inspector
// needs; tests inject fakes here.
type connector interface {
	Connect(ctx context.Context, p *testbed.Profile) (broker.Session, error)
	Disconnect(ctx context.Context, s broker.Session)
}

type runner interface {
	Run(ctx context.Context, s broker.Session, commands []device.CommandSpec) []device.CommandResult
}

// Inspector is the device inspection pipeline: descriptor validation,
// profile building, session open, ordered command execution, session close,
// report assembly.
type Inspector struct {
	builder *testbed.Builder
	broker  connector
	exec    runner
	logger  *zap.SugaredLogger
}

type Option func(*Inspector)

// WithBuilder replaces the default profile builder, e.g. to impose a vendor
// family constraint or a different generic dial timeout.
func WithBuilder(b *testbed.Builder) Option {
	return func(i *Inspector) { i.builder = b }
}

// WithBroker replaces the connection broker (transcript sink wiring, tests).
func WithBroker(c connector) Option {
	return func(i *Inspector) { i.broker = c }
}

// WithExecutor replaces the command executor.
func WithExecutor(r runner) Option {
	return func(i *Inspector) { i.exec = r }
}

func New(logger *zap.SugaredLogger, opts ...Option) *Inspector {
	i := &Inspector{
		builder: testbed.New(),
		broker:  broker.New(logger),
		exec:    executor.New(logger),
		logger:  logger,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Execute runs the ordered command batch against one device and returns the
// assembled report. Validation and connection failures are fatal: no partial
// report is produced, though an opened session is always released.
func (i *Inspector) Execute(ctx context.Context, d *device.Descriptor, commands []device.CommandSpec) (*device.ExecutionReport, error) {
	profile, err := i.builder.BuildProfile(d)
	if err != nil {
		i.logger.Warnf("Rejecting device %s: %v", d.IP, err)
		return nil, err
	}

	session, err := i.broker.Connect(ctx, profile)
	if err != nil {
		i.logger.Warnf("Unable to connect to device %s: %v", d.IP, err)
		return nil, err
	}
	defer i.broker.Disconnect(ctx, session)

	results := i.exec.Run(ctx, session, commands)
	return report.Assemble(d, results), nil
}
