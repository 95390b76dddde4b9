package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandTilde expands a leading ~ to the local home directory. Only for
// local paths such as the roles file and repo; ~user is left alone.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ExpandRemote substitutes ${VHOST}, ${USER} (the local operator) and
// ${HOME} in a path that lives on a deployment host. ${HOME} becomes ~ so
// the remote shell resolves it.
func ExpandRemote(s, vhost string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return strings.NewReplacer(
		"${VHOST}", vhost,
		"${USER}", CurrentUser(),
		"${HOME}", "~",
	).Replace(s)
}

// CurrentUser is the local operator's name, used in announcements and lock
// info. Falls back to whoami, then "someone".
func CurrentUser() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if user := os.Getenv(key); user != "" {
			return user
		}
	}
	out, err := exec.Command("whoami").Output()
	if err != nil || len(strings.TrimSpace(string(out))) == 0 {
		return "someone"
	}
	return strings.TrimSpace(string(out))
}
