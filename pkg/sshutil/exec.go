package sshutil

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/commoncode/vhdeploy/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// ForwardAgent controls whether sessions forward the local SSH agent.
// Deploy hosts fetch from origin with the operator's credentials, so this
// is on by default.
var ForwardAgent = true

// setupAgentForwarding registers the local agent with the connection so
// sessions can request forwarding. Returns false when there is no agent.
func setupAgentForwarding(client *ssh.Client) bool {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return false
	}
	if err := agent.ForwardToRemote(client, socket); err != nil {
		emitWarning(fmt.Sprintf("couldn't forward the SSH agent: %v", err))
		return false
	}
	return true
}

// Exec runs a command on the remote host and returns the output.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode, err = c.ExecStream(cmd, &stdoutBuf, &stderrBuf)
	if err != nil {
		return nil, nil, exitCode, err
	}
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitCode, nil
}

// ExecStream runs a command and streams output to the provided writers.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) ExecStream(cmd string, stdout, stderr io.Writer) (exitCode int, err error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	if c.forwarding {
		if err := agent.RequestAgentForwarding(session); err != nil {
			emitWarning(fmt.Sprintf("agent forwarding refused by %s: %v", c.Host, err))
		}
	}

	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Run(cmd); err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return exitErr.ExitStatus(), nil
		}
		return -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"The connection dropped or the remote shell couldn't start.")
	}

	return 0, nil
}
