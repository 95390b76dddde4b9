package gitutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/commoncode/vhdeploy/internal/gitutil/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopLevel(t *testing.T) {
	dir := gittest.InitRepo(t)
	gittest.WriteFile(t, dir, "app/server/main.js", "// server")

	root, err := TopLevel(context.Background(), filepath.Join(dir, "app", "server"))
	require.NoError(t, err)

	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, want, got)
}

func TestTopLevel_NotARepo(t *testing.T) {
	_, err := TopLevel(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestCurrentRevision_FromHead(t *testing.T) {
	t.Setenv(RefspecEnv, "")
	t.Setenv(CommitEnv, "")

	dir := gittest.InitRepo(t)
	gittest.CommitFile(t, dir, "file.txt", "v2", "second commit")
	head := gittest.Run(t, dir, "git", "rev-parse", "HEAD")

	rev, err := CurrentRevision(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "refs/heads/main", rev.Refspec)
	assert.Equal(t, head, rev.Commit)
	assert.Contains(t, rev.Summary, "second commit")
	assert.Equal(t, head[:7], rev.Short())
}

func TestCurrentRevision_EnvOverride(t *testing.T) {
	dir := gittest.InitRepo(t)
	head := gittest.Run(t, dir, "git", "rev-parse", "HEAD")

	t.Setenv(RefspecEnv, "refs/heads/release")
	t.Setenv(CommitEnv, head)

	rev, err := CurrentRevision(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/release", rev.Refspec)
	assert.Equal(t, head, rev.Commit)
	assert.Contains(t, rev.Summary, "initial commit")
}

func TestCurrentRevision_LoneRefspecIgnored(t *testing.T) {
	dir := gittest.InitRepo(t)

	t.Setenv(RefspecEnv, "refs/heads/release")
	t.Setenv(CommitEnv, "")

	rev, err := CurrentRevision(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", rev.Refspec)
}

func TestCurrentRevision_UnknownEnvCommitFallsBackToShortHash(t *testing.T) {
	dir := gittest.InitRepo(t)

	t.Setenv(RefspecEnv, "refs/heads/main")
	t.Setenv(CommitEnv, "0123456789abcdef0123456789abcdef01234567")

	rev, err := CurrentRevision(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "0123456", rev.Summary)
}

func TestCurrentRevision_DetachedHead(t *testing.T) {
	t.Setenv(RefspecEnv, "")
	t.Setenv(CommitEnv, "")

	dir := gittest.InitRepo(t)
	gittest.Run(t, dir, "git", "checkout", "--detach")

	_, err := CurrentRevision(context.Background(), dir)
	assert.Error(t, err)
}

func TestRunAndLines(t *testing.T) {
	dir := gittest.InitRepo(t)
	gittest.WriteFile(t, dir, "a.txt", "a")
	gittest.WriteFile(t, dir, "b.txt", "b")

	lines, err := Lines(context.Background(), dir, "ls-files", "--others", "--exclude-standard")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, lines)

	code, err := Run(context.Background(), dir, "diff-index", "--cached", "--quiet", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestAvailable(t *testing.T) {
	assert.NoError(t, Available())
}
