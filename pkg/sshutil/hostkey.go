package sshutil

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// HostKeyMismatchError reports a host whose key differs from known_hosts.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion explains how to refresh known_hosts. Puppet rebuilds of a
// deployment host are the usual cause.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	want := make([]string, 0, len(e.Want))
	for _, k := range e.Want {
		want = append(want, k.Key.Type())
	}
	known := "unknown"
	if len(want) > 0 {
		known = strings.Join(want, ", ")
	}

	return fmt.Sprintf(
		"The host's key doesn't match known_hosts (known: %s, sent: %s).\n"+
			"  If the host was rebuilt, drop the old entry and reconnect:\n"+
			"    ssh-keygen -R %s\n"+
			"    ssh-keyscan -t rsa,ecdsa,ed25519 %s >> %s",
		known, e.ReceivedType, host, host, e.KnownHosts)
}

// hostKeyCallback verifies against path, creating an empty known_hosts if
// there is none, and turns key mismatches into HostKeyMismatchError.
func hostKeyCallback(path string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	check, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := check(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   path,
				Want:         keyErr.Want,
			}
		}
		return err
	}, nil
}
