package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/commoncode/vhdeploy/internal/util"
	"golang.org/x/crypto/ssh/agent"
)

var keyNames = []string{"id_ed25519", "id_rsa", "id_ecdsa"}

// SSHKeyCheck verifies a key pair exists and isn't readable by others.
type SSHKeyCheck struct {
	Home string // defaults to the user's home directory
}

func (c *SSHKeyCheck) Name() string     { return "ssh_key" }
func (c *SSHKeyCheck) Category() string { return "SSH" }

func (c *SSHKeyCheck) Run(ctx context.Context) CheckResult {
	home := c.Home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return CheckResult{
				Status:     StatusFail,
				Message:    "Cannot determine home directory",
				Suggestion: "Check HOME environment variable",
			}
		}
	}

	var found, badPerms []string
	for _, name := range keyNames {
		keyPath := filepath.Join(home, ".ssh", name)
		info, err := os.Stat(keyPath)
		if err != nil {
			continue
		}
		found = append(found, name)
		if info.Mode().Perm()&0o077 != 0 {
			badPerms = append(badPerms, name)
		}
	}

	switch {
	case len(found) == 0:
		// Keys held only by an agent are fine.
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No SSH key found in ~/.ssh",
			Suggestion: "Generate one with: ssh-keygen -t ed25519",
		}
	case len(badPerms) > 0:
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Insecure permissions on: %v", badPerms),
			Suggestion: "Fix: chmod 600 ~/.ssh/<keyfile>",
		}
	default:
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("SSH key found: ~/.ssh/%s", found[0]),
		}
	}
}

// SSHAgentCheck verifies the agent is reachable and holds keys. Deploys
// forward the agent so hosts can fetch from the git remote.
type SSHAgentCheck struct {
	Socket string // defaults to SSH_AUTH_SOCK
}

func (c *SSHAgentCheck) Name() string     { return "ssh_agent" }
func (c *SSHAgentCheck) Category() string { return "SSH" }

func (c *SSHAgentCheck) Run(ctx context.Context) CheckResult {
	socket := c.Socket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket == "" {
		return CheckResult{
			Status:     StatusFail,
			Message:    "SSH agent not running",
			Suggestion: "Fix: eval $(ssh-agent) && ssh-add",
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "SSH agent socket not accessible",
			Suggestion: "Fix: eval $(ssh-agent) && ssh-add",
		}
	}
	defer conn.Close()

	keys, err := agent.NewClient(conn).List()
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Cannot query SSH agent",
			Suggestion: "Check SSH agent: ssh-add -l",
		}
	}
	if len(keys) == 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "SSH agent running but no keys loaded",
			Suggestion: "Add a key with: ssh-add",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("SSH agent running with %d %s loaded", len(keys), util.Pluralize(len(keys), "key", "keys")),
	}
}

// NewSSHChecks creates all SSH-related checks.
func NewSSHChecks() []Check {
	return []Check{&SSHKeyCheck{}, &SSHAgentCheck{}}
}
