// Package host opens SSH connections to deployment hosts.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/pkg/sshutil"
)

// DefaultTimeout is the SSH connect timeout when none is configured.
const DefaultTimeout = 10 * time.Second

// Dialer opens a connection to one host address.
type Dialer interface {
	Dial(ctx context.Context, address string) (sshutil.SSHClient, error)
}

// ConnectionEvent reports progress while dialing.
type ConnectionEvent struct {
	Type    ConnectionEventType
	Address string
	Message string
	Error   error
	Latency time.Duration
}

// ConnectionEventType categorizes connection events.
type ConnectionEventType int

const (
	// EventTrying indicates a connection attempt is starting.
	EventTrying ConnectionEventType = iota
	// EventFailed indicates a connection attempt failed.
	EventFailed
	// EventConnected indicates a successful connection.
	EventConnected
)

// String returns a human-readable description of the event type.
func (t ConnectionEventType) String() string {
	switch t {
	case EventTrying:
		return "trying"
	case EventFailed:
		return "failed"
	case EventConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// EventHandler is a callback for connection events.
type EventHandler func(event ConnectionEvent)

// SSHDialer dials hosts with pkg/sshutil.
type SSHDialer struct {
	Timeout  time.Duration
	Log      logger.Logger
	OnEvent  EventHandler
	dialFunc func(address string, timeout time.Duration) (sshutil.SSHClient, error)
}

// NewSSHDialer returns a dialer with the given connect timeout. Host key
// checking follows strict.
func NewSSHDialer(timeout time.Duration, strict bool, log logger.Logger) *SSHDialer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Noop()
	}
	sshutil.StrictHostKeyChecking = strict
	sshutil.WarningHandler = func(msg string) { log.Warn("%s", msg) }
	return &SSHDialer{
		Timeout: timeout,
		Log:     log,
		dialFunc: func(address string, timeout time.Duration) (sshutil.SSHClient, error) {
			c, err := sshutil.Dial(address, timeout)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

func (d *SSHDialer) emit(event ConnectionEvent) {
	if d.OnEvent != nil {
		d.OnEvent(event)
	}
}

type dialResult struct {
	client sshutil.SSHClient
	err    error
}

// Dial connects to address. The context aborts the wait; a connection that
// completes after cancellation is closed.
func (d *SSHDialer) Dial(ctx context.Context, address string) (sshutil.SSHClient, error) {
	d.emit(ConnectionEvent{Type: EventTrying, Address: address, Message: "connecting to " + address})
	d.Log.Debug("dialing %s (timeout %s)", address, d.Timeout)

	start := time.Now()
	done := make(chan dialResult, 1)
	go func() {
		client, err := d.dialFunc(address, d.Timeout)
		done <- dialResult{client: client, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.client != nil {
				r.client.Close()
			}
		}()
		return nil, errors.WrapWithCode(ctx.Err(), errors.ErrAborted,
			fmt.Sprintf("Gave up connecting to %s", address),
			"The command was interrupted before the connection finished.")
	case r := <-done:
		if r.err != nil {
			probeErr := categorizeProbeError(address, r.err)
			d.emit(ConnectionEvent{Type: EventFailed, Address: address, Message: probeErr.Reason.String(), Error: r.err})
			return nil, connectFailure(address, probeErr, r.err)
		}

		latency := time.Since(start)
		d.emit(ConnectionEvent{
			Type:    EventConnected,
			Address: address,
			Message: fmt.Sprintf("connected to %s", address),
			Latency: latency,
		})
		return r.client, nil
	}
}

// connectFailure keeps structured errors from sshutil intact and wraps
// anything else with a suggestion chosen by failure reason.
func connectFailure(address string, probeErr *ProbeError, err error) error {
	if errors.CodeOf(err) != "" {
		return err
	}

	suggestion := "Check you can reach it by hand: ssh " + address
	switch probeErr.Reason {
	case ProbeFailTimeout, ProbeFailUnreachable:
		suggestion = "The host might be down or firewalled. Check your VPN and network."
	case ProbeFailAuth:
		suggestion = "Check your keys are loaded: ssh-add -l"
	case ProbeFailHostKey:
		suggestion = "Connect once by hand to verify the host key: ssh " + address
	}

	return errors.WrapWithCode(probeErr, errors.ErrSSH,
		fmt.Sprintf("Couldn't connect to %s", address),
		suggestion)
}
