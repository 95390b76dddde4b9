// Package sshutil connects to deployment hosts over SSH. Addresses come
// straight from the roles file, so a bare IP must work with no ssh config
// entry, while aliases still pick up HostName/User/Port/IdentityFile from
// ~/.ssh/config.
package sshutil

import (
	stderrors "errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/commoncode/vhdeploy/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Client is a connection to one deployment host.
type Client struct {
	*ssh.Client
	Host    string // as written in the roles file
	Address string // resolved host:port

	// forwarding is set when the local agent was registered with the
	// connection and sessions should request agent forwarding.
	forwarding bool
}

// WarningHandler receives non-fatal problems (unusable ssh config, agent
// forwarding refused). Nil means the standard logger.
var WarningHandler func(message string)

func emitWarning(message string) {
	if WarningHandler != nil {
		WarningHandler(message)
		return
	}
	log.Printf("Warning: %s", message)
}

// Dial connects to a deployment host. host may be an address, user@address,
// address:port or an ssh config alias.
func Dial(host string, timeout time.Duration) (*Client, error) {
	t := resolveTarget(host)

	cfg, err := clientConfig(t, timeout)
	if err != nil {
		if errors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", host),
			"Check your keys are loaded: ssh-add -l")
	}

	address := t.address()
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", host, address),
			suggestionForDialError(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, cfg)
	if err != nil {
		conn.Close()

		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", host),
			suggestionForHandshakeError(err, t.encryptedKeys))
	}

	client := &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    host,
		Address: address,
	}
	if ForwardAgent {
		client.forwarding = setupAgentForwarding(client.Client)
	}
	return client, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetHost returns the host as it was passed to Dial.
func (c *Client) GetHost() string {
	return c.Host
}

// GetAddress returns the resolved host:port address.
func (c *Client) GetAddress() string {
	return c.Address
}

// NewSession opens a session on the connection.
func (c *Client) NewSession() (Session, error) {
	return c.Client.NewSession()
}
