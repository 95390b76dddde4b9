package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/commoncode/vhdeploy/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// KeyEnv names a private key to try before the defaults, for CI runners
// without an agent.
const KeyEnv = "VHDEPLOY_SSH_KEY"

// StrictHostKeyChecking verifies host keys against ~/.ssh/known_hosts when
// true. Turned off only by ssh.strict_host_key_checking: false.
var StrictHostKeyChecking = true

var defaultKeyNames = []string{"id_ed25519", "id_rsa", "id_ecdsa"}

// clientConfig builds auth and host key verification for t. Keys that
// exist but need a passphrase are recorded in t.encryptedKeys.
func clientConfig(t *target, timeout time.Duration) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod
	tried := make(map[string]bool)

	tryKey := func(path string) {
		if path == "" || tried[path] {
			return
		}
		tried[path] = true
		m, err := keyFileAuth(path)
		if err != nil {
			var enc *EncryptedKeyError
			if stderrors.As(err, &enc) {
				t.encryptedKeys = append(t.encryptedKeys, path)
			}
			return
		}
		methods = append(methods, m)
	}

	if m := agentAuth(); m != nil {
		methods = append(methods, m)
	}
	tryKey(os.Getenv(KeyEnv))
	tryKey(t.identityFile)
	for _, name := range defaultKeyNames {
		tryKey(filepath.Join(homeDir(), ".ssh", name))
	}

	if len(methods) == 0 {
		if len(t.encryptedKeys) > 0 {
			return nil, errors.New(errors.ErrSSH,
				fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(t.encryptedKeys, ", ")),
				addKeysHint(t.encryptedKeys))
		}
		return nil, errors.New(errors.ErrSSH,
			"No SSH auth methods available",
			"Check your keys are loaded: ssh-add -l")
	}

	hostKeys := ssh.InsecureIgnoreHostKey() //nolint:gosec // ssh.strict_host_key_checking: false
	if StrictHostKeyChecking {
		var err error
		if hostKeys, err = hostKeyCallback(filepath.Join(homeDir(), ".ssh", "known_hosts")); err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            t.user,
		Auth:            methods,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}, nil
}

// One agent connection serves every host in a run.
var (
	agentConn     net.Conn
	agentClient   agent.ExtendedAgent
	agentConnOnce sync.Once
)

// agentAuth returns agent auth when the agent holds at least one key. An
// empty agent placed first makes servers reject later methods.
func agentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentConnOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}

	signers, err := agentClient.Signers()
	if err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent closes the shared agent connection, if any.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

// keyFileAuth loads a private key. A passphrase-protected key returns
// EncryptedKeyError.
func keyFileAuth(path string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || isEncryptedPEM(key) {
			return nil, &EncryptedKeyError{Path: path}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}

func addKeysHint(keys []string) string {
	var sb strings.Builder
	sb.WriteString("Add your key(s) to the agent:\n")
	for _, key := range keys {
		if runtime.GOOS == "darwin" {
			fmt.Fprintf(&sb, "  ssh-add --apple-use-keychain %s\n", key)
		} else {
			fmt.Fprintf(&sb, "  ssh-add %s\n", key)
		}
	}
	sb.WriteString("\nNot sure which key? Check with: ssh -v <host>")
	return sb.String()
}

func suggestionForDialError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is SSH running on that box? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the host. Check your network connection and VPN."
	case strings.Contains(msg, "timeout"):
		return "Connection timed out. Host might be offline or blocked by a firewall."
	default:
		return "Make sure the host is reachable: ping <host>"
	}
}

func suggestionForHandshakeError(err error, encryptedKeys []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encryptedKeys) > 0 {
			return addKeysHint(encryptedKeys)
		}
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Try connecting manually first: ssh <host>"
	default:
		return "Something went wrong during SSH setup. Try: ssh <host>"
	}
}
