// Package remote runs deployment commands on one host over an established
// SSH connection.
package remote

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/exec"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/util"
	"github.com/commoncode/vhdeploy/pkg/sshutil"
)

// Runner is the command surface pipeline steps use. Session implements it;
// tests can substitute their own.
type Runner interface {
	// Run executes cmd as the login user, in dir when dir is non-empty.
	Run(ctx context.Context, dir, cmd string) (string, error)
	// Sudo executes cmd as root, in dir when dir is non-empty.
	Sudo(ctx context.Context, dir, cmd string) (string, error)
	// Host is the address commands run on.
	Host() string
}

// Session is a Runner over an SSH client.
type Session struct {
	client sshutil.SSHClient
	host   string
	log    logger.Logger

	// Echo, when set, receives every command line and its output.
	Echo io.Writer
}

// NewSession wraps client. host is the address used in error messages.
func NewSession(client sshutil.SSHClient, host string, log logger.Logger) *Session {
	if log == nil {
		log = logger.Noop()
	}
	return &Session{client: client, host: host, log: log}
}

// Host returns the address this session runs on.
func (s *Session) Host() string {
	return s.host
}

// Run executes cmd as the login user.
func (s *Session) Run(ctx context.Context, dir, cmd string) (string, error) {
	return s.exec(ctx, cmd, RunLine(dir, cmd))
}

// Sudo executes cmd as root without prompting for a password.
func (s *Session) Sudo(ctx context.Context, dir, cmd string) (string, error) {
	return s.exec(ctx, cmd, SudoLine(dir, cmd))
}

func (s *Session) exec(ctx context.Context, cmd, line string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrAborted,
			"Deployment interrupted",
			"Nothing was rolled back. Re-run the command to finish.")
	}

	s.log.Debug("[%s] %s", s.host, line)
	if s.Echo != nil {
		fmt.Fprintf(s.Echo, "[%s] run: %s\n", s.host, cmd)
	}

	stdout, stderr, exitCode, err := s.client.Exec(line)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Lost the connection to %s", s.host),
			"Check the host is still up, then re-run the command.")
	}

	if s.Echo != nil {
		echoOutput(s.Echo, s.host, stdout)
		echoOutput(s.Echo, s.host, stderr)
	}

	if exitCode != 0 {
		return string(stdout), exec.RemoteFailure(s.host, cmd, string(stderr), exitCode)
	}
	return string(stdout), nil
}

// RunLine is the shell line Run sends for cmd in dir.
func RunLine(dir, cmd string) string {
	if dir == "" {
		return cmd
	}
	return "cd " + util.ShellQuote(dir) + " && " + cmd
}

// SudoLine is the shell line Sudo sends for cmd in dir. The whole command,
// including the cd, runs under sudo so root-only directories work.
func SudoLine(dir, cmd string) string {
	return "sudo -n sh -c " + util.ShellQuote(RunLine(dir, cmd))
}

func echoOutput(w io.Writer, host string, out []byte) {
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "[%s] out: %s\n", host, line)
	}
}
