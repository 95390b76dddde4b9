package sshutil

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kevinburke/ssh_config"
)

// UserEnv overrides the login user for hosts given without user@.
const UserEnv = "VHDEPLOY_SSH_USER"

// target is where and as whom to connect.
type target struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string // filled in while building auth
}

func (t *target) address() string {
	return net.JoinHostPort(t.hostname, t.port)
}

var matchWarningOnce sync.Once

// resolveTarget parses user@host:port and applies ~/.ssh/config. An explicit
// user wins over the config, which wins over VHDEPLOY_SSH_USER and $USER.
func resolveTarget(host string) *target {
	t := &target{port: "22", user: currentUser()}
	if u := os.Getenv(UserEnv); u != "" {
		t.user = u
	}

	explicitUser := ""
	if i := strings.Index(host, "@"); i != -1 {
		explicitUser, host = host[:i], host[i+1:]
	}
	if h, p, err := net.SplitHostPort(host); err == nil && isPort(p) {
		host, t.port = h, p
	}
	t.hostname = host

	applySSHConfig(t, host, filepath.Join(homeDir(), ".ssh", "config"))

	if explicitUser != "" {
		t.user = explicitUser
	}
	return t
}

// applySSHConfig fills t from the Host block matching alias. A missing or
// unparseable config leaves t alone.
func applySSHConfig(t *target, alias, path string) {
	content, matchLine, err := stripMatchBlocks(path)
	if err != nil {
		return
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		emitWarning(fmt.Sprintf("ignoring %s: %v", path, err))
		return
	}

	found := false
	set := func(key string, dst *string, transform func(string) string) {
		if v, _ := cfg.Get(alias, key); v != "" {
			if transform != nil {
				v = transform(v)
			}
			*dst = v
			found = true
		}
	}
	set("HostName", &t.hostname, nil)
	set("Port", &t.port, nil)
	set("User", &t.user, nil)
	set("IdentityFile", &t.identityFile, expandPath)

	if matchLine > 0 && !found {
		matchWarningOnce.Do(func() {
			emitWarning(fmt.Sprintf(
				"'%s' has no Host entry before the Match block at line %d of %s; entries after it are not read",
				alias, matchLine, path))
		})
	}
}

// stripMatchBlocks returns the config up to its first Match directive, which
// kevinburke/ssh_config can't parse, and that directive's line number.
func stripMatchBlocks(path string) ([]byte, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return content, 0, nil
}

func isPort(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
