// Package testing provides an SSH client double that records every command it
// is asked to run and answers from canned responses.
package testing

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/commoncode/vhdeploy/pkg/sshutil"
)

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

type rule struct {
	pattern string
	re      *regexp.Regexp
	resp    CommandResponse
}

// MockClient simulates an SSH connection for testing. Commands with no
// matching response succeed with empty output.
type MockClient struct {
	mu      sync.Mutex
	host    string
	address string
	closed  bool
	rules   []rule
	history []string
}

// NewMockClient creates a new mock SSH client.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:    host,
		address: host + ":22",
	}
}

// Exec records cmd and returns the first matching canned response.
// Exact matches win over patterns; patterns are tried in registration order.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}
	m.history = append(m.history, cmd)

	for _, r := range m.rules {
		if r.pattern == cmd {
			return r.resp.Stdout, r.resp.Stderr, r.resp.ExitCode, r.resp.Error
		}
	}
	for _, r := range m.rules {
		if r.re != nil && r.re.MatchString(cmd) {
			return r.resp.Stdout, r.resp.Stderr, r.resp.ExitCode, r.resp.Error
		}
	}

	return nil, nil, 0, nil
}

// ExecStream runs a command and writes output to the provided writers.
func (m *MockClient) ExecStream(cmd string, stdout, stderr io.Writer) (exitCode int, err error) {
	return m.ExecStreamContext(context.Background(), cmd, stdout, stderr)
}

// ExecStreamContext runs a command with context cancellation support.
func (m *MockClient) ExecStreamContext(ctx context.Context, cmd string, stdout, stderr io.Writer) (exitCode int, err error) {
	select {
	case <-ctx.Done():
		return 130, ctx.Err()
	default:
	}

	out, errOut, code, execErr := m.Exec(cmd)
	if execErr != nil {
		return -1, execErr
	}

	if stdout != nil && len(out) > 0 {
		stdout.Write(out)
	}
	if stderr != nil && len(errOut) > 0 {
		stderr.Write(errOut)
	}

	return code, nil
}

// Close marks the connection as closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// GetAddress returns the host:port address.
func (m *MockClient) GetAddress() string {
	return m.address
}

// SetCommandResponse registers a canned response. The pattern is matched as
// an exact string first, then as a regular expression.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	m.rules = append(m.rules, rule{pattern: pattern, re: re, resp: resp})
}

// History returns every command passed to Exec, in order.
func (m *MockClient) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// CountMatching returns how many recorded commands contain substr.
func (m *MockClient) CountMatching(substr string) int {
	n := 0
	for _, cmd := range m.History() {
		if strings.Contains(cmd, substr) {
			n++
		}
	}
	return n
}

type mockSession struct{}

func (s *mockSession) Close() error { return nil }

// NewSession fails once the client is closed.
func (m *MockClient) NewSession() (sshutil.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("connection closed")
	}
	return &mockSession{}, nil
}

// MockDialer hands out MockClients keyed by address, creating them on first
// use so tests can inspect each host's history afterwards.
type MockDialer struct {
	mu      sync.Mutex
	clients map[string]*MockClient
	fail    map[string]error
	order   []string
}

// NewMockDialer returns an empty MockDialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		clients: make(map[string]*MockClient),
		fail:    make(map[string]error),
	}
}

// Client returns the mock for address, creating it if needed.
func (d *MockDialer) Client(address string) *MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.clients[address]
	if !ok {
		c = NewMockClient(address)
		d.clients[address] = c
	}
	return c
}

// FailDial makes Dial return err for address.
func (d *MockDialer) FailDial(address string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[address] = err
}

// Dial returns the mock client for address.
func (d *MockDialer) Dial(ctx context.Context, address string) (sshutil.SSHClient, error) {
	d.mu.Lock()
	d.order = append(d.order, address)
	err := d.fail[address]
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return d.Client(address), nil
}

// Dialed returns every address passed to Dial, in order.
func (d *MockDialer) Dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}
