package preflight

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/gitutil/gittest"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func head(t *testing.T, dir string) string {
	t.Helper()
	return gittest.Run(t, dir, "git", "rev-parse", "HEAD")
}

func TestCheckClean_PushedAndClean(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)

	log := logger.NewBufferLogger()
	err := New(work, log).Check(context.Background(), head(t, work))

	require.NoError(t, err)
	assert.True(t, log.HasLevel("debug"))
}

func TestCheckClean_Unstaged(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)
	gittest.WriteFile(t, work, "README.md", "edited")

	err := CheckClean(context.Background(), work, head(t, work))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDirty))

	report, ok := ReportOf(err)
	require.True(t, ok)
	assert.Equal(t, Unstaged, report.Problem)
	require.Len(t, report.Files, 1)
	assert.Contains(t, report.Files[0], "README.md")
	assert.Contains(t, err.Error(), "unstaged changes")
}

func TestCheckClean_Uncommitted(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)
	gittest.WriteFile(t, work, "staged.txt", "staged")
	gittest.Run(t, work, "git", "add", "staged.txt")

	err := CheckClean(context.Background(), work, head(t, work))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDirty))
	report, ok := ReportOf(err)
	require.True(t, ok)
	assert.Equal(t, Uncommitted, report.Problem)
	assert.Equal(t, []string{"A\tstaged.txt"}, report.Files)
	assert.Contains(t, err.Error(), "staged.txt")
}

func TestCheckClean_GitCannotRun(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	err := CheckClean(context.Background(), missing, "HEAD")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "git failed while checking the working tree")
	_, ok := ReportOf(err)
	assert.False(t, ok)
}

func TestCheckClean_Untracked(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)
	gittest.WriteFile(t, work, "notes.txt", "scratch")
	gittest.WriteFile(t, work, "tmp/debug.log", "log")

	err := CheckClean(context.Background(), work, head(t, work))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDirty))
	report, ok := ReportOf(err)
	require.True(t, ok)
	assert.Equal(t, Untracked, report.Problem)
	assert.Equal(t, []string{"notes.txt", "tmp/debug.log"}, report.Files)
}

func TestCheckClean_IgnoredFilesAreFine(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)
	gittest.CommitFile(t, work, ".gitignore", "*.log\n", "ignore logs")
	gittest.Run(t, work, "git", "push", "origin", "main")
	gittest.WriteFile(t, work, "debug.log", "log")

	err := CheckClean(context.Background(), work, head(t, work))
	assert.NoError(t, err)
}

func TestCheckClean_Unpushed(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)
	gittest.CommitFile(t, work, "feature.txt", "new", "local only")

	err := CheckClean(context.Background(), work, head(t, work))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnpushed))
	assert.Contains(t, err.Error(), "Push first")
	report, ok := ReportOf(err)
	require.True(t, ok)
	assert.Equal(t, Unpushed, report.Problem)
}

func TestCheckClean_DirtyBeatsUnpushed(t *testing.T) {
	work, _ := gittest.InitRepoWithOrigin(t)
	gittest.CommitFile(t, work, "feature.txt", "new", "local only")
	gittest.WriteFile(t, work, "feature.txt", "edited again")

	err := CheckClean(context.Background(), work, head(t, work))
	assert.True(t, errors.IsCode(err, errors.ErrDirty))
}

func TestCheckClean_NoOrigin(t *testing.T) {
	work := gittest.InitRepo(t)

	err := CheckClean(context.Background(), work, head(t, work))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestReport_Error(t *testing.T) {
	r := &Report{Problem: Untracked, Files: []string{"a", "b"}}
	assert.Equal(t, "untracked files:\n  a\n  b", r.Error())

	r = &Report{Problem: Uncommitted}
	assert.Equal(t, "uncommitted changes", r.Error())
}
