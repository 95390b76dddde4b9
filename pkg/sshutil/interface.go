package sshutil

import "io"

// SSHClient is the part of a host connection the deploy pipeline uses.
// *Client and testing.MockClient implement it.
type SSHClient interface {
	// Exec runs cmd and collects its output. A non-zero exitCode with a nil
	// err means the command ran and failed; -1 means it never ran.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecStream runs cmd, copying its output as it arrives.
	ExecStream(cmd string, stdout, stderr io.Writer) (exitCode int, err error)

	Close() error

	// GetHost is the host as given in the roles file.
	GetHost() string
	GetAddress() string

	NewSession() (Session, error)
}

// Session is an open channel on the connection.
type Session interface {
	io.Closer
}
