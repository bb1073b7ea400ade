package broker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/bondar-aleksandr/netinspect/internal/testbed"
)

// vrpDriver holds the per-generation dialect knobs of the direct-SSH
// backend. The prompt is anchored at the end of the accumulated output.
type vrpDriver struct {
	prompt *regexp.Regexp
	setup  []string
}

var vrpDrivers = map[string]vrpDriver{
	"vrp": {
		prompt: regexp.MustCompile(`[<\[][\w.\-]+[>\]][ ]*$`),
		setup:  []string{"screen-length 0 temporary"},
	},
	// variant-8 control plane adds the two-stage candidate-config prompt
	"vrpv8": {
		prompt: regexp.MustCompile(`[<\[~][\w.\-/*]+[>\]][ ]*$`),
		setup:  []string{"screen-length 0 temporary"},
	},
}

var passwordPrompt = regexp.MustCompile(`(?i)password:\s*$`)

const huaweiReadTimeout = 60 * time.Second

// remoteShell is the interactive channel of one SSH session.
type remoteShell interface {
	io.Reader
	io.Writer
	Close() error
}

// sshConn wraps an established SSH client so tests can substitute fakes.
type sshConn interface {
	OpenShell() (remoteShell, error)
	Close() error
}

type dialFunc func(ctx context.Context, addr string, cfg *ssh.ClientConfig) (sshConn, error)

// sshDial is the production dialer: TCP dial with the profile timeout, then
// the SSH handshake on top of the raw connection.
func sshDial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (sshConn, error) {
	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &sshDialClient{client: ssh.NewClient(c, chans, reqs)}, nil
}

type sshDialClient struct {
	client *ssh.Client
}

func (c *sshDialClient) OpenShell() (remoteShell, error) {
	sess, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err = sess.RequestPty("vt100", 24, 200, modes); err != nil {
		sess.Close()
		return nil, err
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	if err = sess.Shell(); err != nil {
		sess.Close()
		return nil, err
	}
	return &sshShell{sess: sess, in: stdin, out: stdout}, nil
}

func (c *sshDialClient) Close() error {
	return c.client.Close()
}

type sshShell struct {
	sess *ssh.Session
	in   io.WriteCloser
	out  io.Reader
}

func (s *sshShell) Read(p []byte) (int, error)  { return s.out.Read(p) }
func (s *sshShell) Write(p []byte) (int, error) { return s.in.Write(p) }

func (s *sshShell) Close() error {
	s.in.Close()
	return s.sess.Close()
}

// connectHuawei opens a direct SSH session to a VRP device. The full session
// transcript goes to the broker's sink under the device IP.
func (b *Broker) connectHuawei(ctx context.Context, p *testbed.Profile) (Session, error) {
	driver, ok := vrpDrivers[p.Driver]
	if !ok {
		driver = vrpDrivers["vrp"]
	}

	cfg := &ssh.ClientConfig{
		User:            p.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(p.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         p.ConnectTimeout,
	}
	if len(p.LegacyKeyExchanges) > 0 {
		cfg.Config.KeyExchanges = p.LegacyKeyExchanges
	}
	if len(p.LegacyCiphers) > 0 {
		cfg.Config.Ciphers = p.LegacyCiphers
	}
	if len(p.LegacyHostKeys) > 0 {
		cfg.HostKeyAlgorithms = p.LegacyHostKeys
	}

	addr := net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
	conn, err := b.dial(ctx, addr, cfg)
	if err != nil {
		return nil, classifyConnErr(p.IP, err)
	}

	transcript, err := b.transcripts.Open(p.IP)
	if err != nil {
		conn.Close()
		return nil, &ConnectionError{Kind: KindTransport, Host: p.IP, Err: fmt.Errorf("transcript sink: %w", err)}
	}

	shell, err := conn.OpenShell()
	if err != nil {
		transcript.Close()
		conn.Close()
		return nil, classifyConnErr(p.IP, err)
	}

	s := &huaweiSession{
		conn:        conn,
		shell:       shell,
		transcript:  transcript,
		prompt:      driver.prompt,
		chunks:      make(chan string, 1),
		done:        make(chan struct{}),
		readTimeout: huaweiReadTimeout,
		platform:    p.Platform,
		verbose:     p.Verbose,
		logger:      b.logger,
	}
	go s.reader()

	if err = s.prepare(ctx, driver, p.EnableSecret); err != nil {
		s.Close(ctx)
		return nil, classifyConnErr(p.IP, err)
	}
	return s, nil
}

type huaweiSession struct {
	conn        sshConn
	shell       remoteShell
	transcript  io.WriteCloser
	prompt      *regexp.Regexp
	chunks      chan string
	done        chan struct{}
	readErr     error
	buf         bytes.Buffer
	readTimeout time.Duration
	platform    string
	verbose     bool
	logger      *zap.SugaredLogger
	closed      bool
}

// reader streams shell output into the session and tees it to the
// transcript sink. It exits when the transport closes or the session is
// released: devices emit unsolicited output (VRP log lines) that no
// readUntil may ever consume, so the send must not outlive Close.
func (s *huaweiSession) reader() {
	defer close(s.chunks)
	b := make([]byte, 4096)
	for {
		n, err := s.shell.Read(b)
		if n > 0 {
			s.transcript.Write(b[:n])
			select {
			case s.chunks <- string(b[:n]):
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

// prepare consumes the login banner, escalates privileges when a secret is
// present, and disables output paging.
func (s *huaweiSession) prepare(ctx context.Context, driver vrpDriver, secret *string) error {
	if _, err := s.readUntil(ctx, s.prompt); err != nil {
		return fmt.Errorf("waiting for login prompt: %w", err)
	}
	if secret != nil {
		if err := s.escalate(ctx, *secret); err != nil {
			return err
		}
	}
	for _, cmd := range driver.setup {
		if _, err := s.Run(ctx, cmd); err != nil {
			return fmt.Errorf("session setup: %w", err)
		}
	}
	return nil
}

// escalate enters the privileged mode with "super". Devices that grant the
// level without a password challenge come back with a plain prompt.
func (s *huaweiSession) escalate(ctx context.Context, secret string) error {
	promptOrPassword := regexp.MustCompile(passwordPrompt.String() + "|" + s.prompt.String())
	if _, err := io.WriteString(s.shell, "super\n"); err != nil {
		return err
	}
	out, err := s.readUntil(ctx, promptOrPassword)
	if err != nil {
		return fmt.Errorf("privilege escalation: %w", err)
	}
	if passwordPrompt.MatchString(out) {
		if _, err = io.WriteString(s.shell, secret+"\n"); err != nil {
			return err
		}
		if _, err = s.readUntil(ctx, s.prompt); err != nil {
			return fmt.Errorf("privilege escalation: %w", err)
		}
	}
	return nil
}

func (s *huaweiSession) Run(ctx context.Context, command string) (string, error) {
	if _, err := io.WriteString(s.shell, command+"\n"); err != nil {
		return "", fmt.Errorf("command %q: %w", command, err)
	}
	raw, err := s.readUntil(ctx, s.prompt)
	if err != nil {
		return "", fmt.Errorf("command %q: %w", command, err)
	}
	out := cleanOutput(raw, command)
	if s.verbose {
		s.logger.Debugf("device output for %q:\n%s", command, out)
	}
	if rejection, found := vrpRejection(out); found {
		return out, fmt.Errorf("command %q rejected: %s", command, rejection)
	}
	return out, nil
}

// readUntil accumulates output until the pattern matches the end of the
// buffer. A hung device surfaces here as a read timeout.
func (s *huaweiSession) readUntil(ctx context.Context, re *regexp.Regexp) (string, error) {
	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()
	for {
		if re.MatchString(s.buf.String()) {
			out := s.buf.String()
			s.buf.Reset()
			return out, nil
		}
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return "", fmt.Errorf("session closed: %w", s.readErr)
			}
			s.buf.WriteString(chunk)
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "", fmt.Errorf("timed out waiting for device prompt")
		}
	}
}

func (s *huaweiSession) Close(_ context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	// release a reader parked on the chunk send before tearing down the
	// transport; shell.Close only unblocks a reader parked in Read
	close(s.done)
	// best effort, the device drops the channel right after
	io.WriteString(s.shell, "quit\n")
	err := s.shell.Close()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	if terr := s.transcript.Close(); err == nil {
		err = terr
	}
	return err
}

func (s *huaweiSession) Platform() string {
	return s.platform
}

// SupportsParsing is false: structured grammars cover the generic backend
// dialects only.
func (s *huaweiSession) SupportsParsing() bool {
	return false
}

// cleanOutput drops the echoed command line and the trailing prompt from the
// captured output.
func cleanOutput(raw, command string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && strings.Contains(lines[0], command) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 {
		last := strings.TrimSpace(lines[n-1])
		if strings.HasPrefix(last, "<") || strings.HasPrefix(last, "[") {
			lines = lines[:n-1]
		}
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n ")
}

// vrpRejection detects VRP command rejections, which arrive as regular
// output on the shell channel.
func vrpRejection(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Error:") || strings.HasPrefix(trimmed, "^") {
			return trimmed, true
		}
	}
	return "", false
}
