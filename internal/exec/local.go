package exec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/commoncode/vhdeploy/internal/errors"
)

// ExecuteLocal runs a shell command locally, streaming output to the provided writers.
// Returns the exit code and any execution error. A non-zero exit code with a
// nil error means the command ran but failed.
func ExecuteLocal(ctx context.Context, cmd string, workDir string, stdout, stderr io.Writer) (exitCode int, err error) {
	command := exec.CommandContext(ctx, shell(), "-c", cmd)

	if workDir != "" {
		command.Dir = workDir
	}

	command.Stdout = stdout
	command.Stderr = stderr

	return exitStatus(command.Run(), "Couldn't run the command locally")
}

// ExecuteLocalCapture runs a shell command locally and captures all output.
// Returns stdout, stderr, exit code, and any execution error.
func ExecuteLocalCapture(ctx context.Context, cmd string, workDir string) (stdout, stderr []byte, exitCode int, err error) {
	var outBuf, errBuf bytes.Buffer
	exitCode, err = ExecuteLocal(ctx, cmd, workDir, &outBuf, &errBuf)
	return outBuf.Bytes(), errBuf.Bytes(), exitCode, err
}

// Command runs a program directly (no shell) and captures its output.
// Used for git plumbing where arguments must not be re-split.
func Command(ctx context.Context, workDir string, name string, args ...string) (stdout, stderr []byte, exitCode int, err error) {
	command := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		command.Dir = workDir
	}

	var outBuf, errBuf bytes.Buffer
	command.Stdout = &outBuf
	command.Stderr = &errBuf

	exitCode, err = exitStatus(command.Run(), "Couldn't run "+name)
	return outBuf.Bytes(), errBuf.Bytes(), exitCode, err
}

func shell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// exitStatus separates "ran and exited non-zero" from "couldn't run at all".
func exitStatus(runErr error, message string) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return -1, errors.WrapWithCode(runErr, errors.ErrExec,
		message,
		"Make sure the command exists and is executable.")
}
