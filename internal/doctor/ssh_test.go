package doctor

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh/agent"
)

// serveAgent runs an in-memory agent on a unix socket and returns its path.
func serveAgent(t *testing.T, keyring agent.Agent) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "agent")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	socket := filepath.Join(dir, "sock")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_ = agent.ServeAgent(keyring, conn)
			}()
		}
	}()
	return socket
}

func TestSSHAgentCheck(t *testing.T) {
	keyring := agent.NewKeyring()
	socket := serveAgent(t, keyring)

	r := (&SSHAgentCheck{Socket: socket}).Run(context.Background())
	assert.Equal(t, StatusWarn, r.Status)
	assert.Contains(t, r.Message, "no keys loaded")

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: priv}))

	r = (&SSHAgentCheck{Socket: socket}).Run(context.Background())
	assert.Equal(t, StatusPass, r.Status)
	assert.Equal(t, "SSH agent running with 1 key loaded", r.Message)
}

func TestSSHAgentCheck_NotRunning(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	r := (&SSHAgentCheck{}).Run(context.Background())
	assert.Equal(t, StatusFail, r.Status)

	r = (&SSHAgentCheck{Socket: filepath.Join(t.TempDir(), "missing")}).Run(context.Background())
	assert.Equal(t, StatusFail, r.Status)
	assert.Contains(t, r.Message, "not accessible")
}

func TestSSHKeyCheck(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))

	r := (&SSHKeyCheck{Home: home}).Run(context.Background())
	assert.Equal(t, StatusWarn, r.Status)

	key := filepath.Join(home, ".ssh", "id_rsa")
	require.NoError(t, os.WriteFile(key, []byte("key"), 0o644))
	r = (&SSHKeyCheck{Home: home}).Run(context.Background())
	assert.Equal(t, StatusWarn, r.Status)
	assert.Contains(t, r.Message, "Insecure permissions")

	require.NoError(t, os.Chmod(key, 0o600))
	r = (&SSHKeyCheck{Home: home}).Run(context.Background())
	assert.Equal(t, StatusPass, r.Status)
	assert.Equal(t, "SSH key found: ~/.ssh/id_rsa", r.Message)
}
