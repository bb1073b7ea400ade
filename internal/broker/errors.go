package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ConnKind distinguishes why a session could not be established, so callers
// can report a precise cause instead of one generic message.
type ConnKind string

const (
	KindTimeout     ConnKind = "timeout"
	KindAuthFailure ConnKind = "authentication failure"
	KindTransport   ConnKind = "transport failure"
)

// ConnectionError means the session to a device could not be established.
// It is fatal to the whole request.
type ConnectionError struct {
	Kind ConnKind
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %s: %v", e.Host, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// classifyConnErr wraps a dial error with its cause. Both backends surface
// auth failures with the x/crypto "unable to authenticate" text, so the
// substring check covers netrasp too.
func classifyConnErr(host string, err error) *ConnectionError {
	kind := KindTransport
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded),
		strings.Contains(err.Error(), "i/o timeout"):
		kind = KindTimeout
	case strings.Contains(err.Error(), "unable to authenticate"):
		kind = KindAuthFailure
	}
	return &ConnectionError{Kind: kind, Host: host, Err: err}
}
