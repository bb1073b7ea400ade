package broker

import (
	"context"

	"github.com/bondar-aleksandr/netrasp/pkg/netrasp"
	"go.uber.org/zap"

	"github.com/bondar-aleksandr/netinspect/internal/testbed"
)

// connectGeneric drives the multi-platform CLI automation backend. The
// device is registered as a single-entry topology inside netrasp (driver
// name selects the dialect), the prompt is auto-discovered during Dial, and
// the legacy algorithm overrides are applied up front so older firmware
// negotiates on the first attempt.
func (b *Broker) connectGeneric(ctx context.Context, p *testbed.Profile) (Session, error) {
	opts := []netrasp.ConfigOpt{
		netrasp.WithUsernamePassword(p.Username, p.Password),
		netrasp.WithDriver(p.Driver),
		netrasp.WithInsecureIgnoreHostKey(),
		netrasp.WithSSHPort(p.Port),
		netrasp.WithDialTimeout(p.ConnectTimeout),
	}
	for _, kex := range p.LegacyKeyExchanges {
		opts = append(opts, netrasp.WithSSHKeyExchange(kex))
	}
	for _, cipher := range p.LegacyCiphers {
		opts = append(opts, netrasp.WithSSHCipher(cipher))
	}

	conn, err := netrasp.New(p.IP, opts...)
	if err != nil {
		return nil, &ConnectionError{Kind: KindTransport, Host: p.IP, Err: err}
	}
	if err = conn.Dial(ctx); err != nil {
		return nil, classifyConnErr(p.IP, err)
	}
	return &genericSession{
		conn:     conn,
		platform: p.Platform,
		parsing:  p.Parsing,
		verbose:  p.Verbose,
		logger:   b.logger,
	}, nil
}

type genericSession struct {
	conn     netrasp.Platform
	platform string
	parsing  bool
	verbose  bool
	logger   *zap.SugaredLogger
}

func (s *genericSession) Run(ctx context.Context, command string) (string, error) {
	out, err := s.conn.Run(ctx, command)
	if err != nil {
		return "", err
	}
	if s.verbose {
		s.logger.Debugf("device output for %q:\n%s", command, out)
	}
	return out, nil
}

func (s *genericSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func (s *genericSession) Platform() string {
	return s.platform
}

func (s *genericSession) SupportsParsing() bool {
	return s.parsing
}
