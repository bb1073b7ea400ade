package broker

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bondar-aleksandr/netinspect/internal/device"
	"github.com/bondar-aleksandr/netinspect/internal/testbed"
)

// Session is an open interactive transport to one device. A session is
// exclusively owned by the request that opened it and must be closed exactly
// once, on every exit path.
type Session interface {
	// Run sends one command and returns its raw textual output.
	Run(ctx context.Context, command string) (string, error)
	// Close releases the underlying transport.
	Close(ctx context.Context) error
	// Platform returns the platform identifier the session was opened for.
	Platform() string
	// SupportsParsing reports whether structured-output parsing may be
	// attempted on this session's output.
	SupportsParsing() bool
}

// TranscriptSink provides per-device transcript writers for backends that
// persist the full session dialogue. The name is the device's IP address.
type TranscriptSink interface {
	Open(name string) (io.WriteCloser, error)
}

// DirSink writes transcripts to <dir>/<ip>.log, appending across runs.
type DirSink struct {
	Dir string
}

func (s DirSink) Open(name string) (io.WriteCloser, error) {
	return os.OpenFile(filepath.Join(s.Dir, name+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// discardSink keeps the Huawei backend functional when no transcript
// directory is configured.
type discardSink struct{}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (discardSink) Open(string) (io.WriteCloser, error) {
	return nopCloser{io.Discard}, nil
}

// Broker opens and closes device sessions, dispatching on the vendor family
// resolved into the connection profile.
type Broker struct {
	logger      *zap.SugaredLogger
	transcripts TranscriptSink
	dial        dialFunc // direct-SSH dialer, replaceable in tests
}

type Option func(*Broker)

// WithTranscriptSink routes Huawei session transcripts to the given sink
// instead of discarding them.
func WithTranscriptSink(s TranscriptSink) Option {
	return func(b *Broker) {
		if s != nil {
			b.transcripts = s
		}
	}
}

func withDialFunc(d dialFunc) Option {
	return func(b *Broker) { b.dial = d }
}

func New(logger *zap.SugaredLogger, opts ...Option) *Broker {
	b := &Broker{
		logger:      logger,
		transcripts: discardSink{},
		dial:        sshDial,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Connect opens a session for the profile. The returned session must be
// released with Disconnect (or Close) exactly once.
func (b *Broker) Connect(ctx context.Context, p *testbed.Profile) (Session, error) {
	b.logger.Infof("Connecting to device %s (%s, driver %q)...", p.IP, p.Family, p.Driver)
	var (
		s   Session
		err error
	)
	switch p.Family {
	case device.FamilyHuawei:
		s, err = b.connectHuawei(ctx, p)
	default:
		s, err = b.connectGeneric(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	b.logger.Infof("Connected to device %s successfully", p.IP)
	return s, nil
}

// Disconnect releases the session and logs the outcome. Close errors are not
// propagated: by this point the command results already exist.
func (b *Broker) Disconnect(ctx context.Context, s Session) {
	if s == nil {
		return
	}
	if err := s.Close(ctx); err != nil {
		b.logger.Warnf("Error while closing session: %v", err)
	}
}
