// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// InitRepo creates a temp dir with git init and an initial commit on main.
func InitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	Run(t, dir, "git", "init", "-b", "main")
	Run(t, dir, "git", "config", "user.email", "test@test.com")
	Run(t, dir, "git", "config", "user.name", "Test")
	Run(t, dir, "git", "config", "commit.gpgsign", "false")

	WriteFile(t, dir, "README.md", "# test repo")
	Run(t, dir, "git", "add", ".")
	Run(t, dir, "git", "commit", "-m", "initial commit")

	return dir
}

// InitRepoWithOrigin is InitRepo plus a bare "origin" remote that main has
// been pushed to. Returns the working copy and the bare repo paths.
func InitRepoWithOrigin(t *testing.T) (work, origin string) {
	t.Helper()
	origin = t.TempDir()
	Run(t, origin, "git", "init", "--bare", "-b", "main")

	work = InitRepo(t)
	Run(t, work, "git", "remote", "add", "origin", origin)
	Run(t, work, "git", "push", "-u", "origin", "main")
	return work, origin
}

// CommitFile creates or modifies a file and commits it.
func CommitFile(t *testing.T, dir, path, content, msg string) {
	t.Helper()
	WriteFile(t, dir, path, content)
	Run(t, dir, "git", "add", path)
	Run(t, dir, "git", "commit", "-m", msg)
}

// WriteFile creates a file with the given content, creating parent dirs as needed.
func WriteFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

// Run executes a command and requires it to succeed. Returns trimmed stdout.
func Run(t *testing.T, dir string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "command %s %v failed: %s", name, args, string(out))
	return strings.TrimSpace(string(out))
}
