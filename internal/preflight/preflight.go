// Package preflight refuses to deploy a local checkout that doesn't match
// what the hosts will fetch: uncommitted work, untracked files, or commits
// that were never pushed.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/gitutil"
	"github.com/commoncode/vhdeploy/internal/logger"
)

// Problem classifies what made the tree undeployable.
type Problem string

const (
	Unstaged    Problem = "unstaged changes"
	Uncommitted Problem = "uncommitted changes"
	Untracked   Problem = "untracked files"
	Unpushed    Problem = "unpushed commits"
)

// Report describes a failed check. Files is empty for Unpushed.
type Report struct {
	Problem Problem
	Files   []string
}

func (r *Report) Error() string {
	if len(r.Files) == 0 {
		return string(r.Problem)
	}
	return fmt.Sprintf("%s:\n  %s", r.Problem, strings.Join(r.Files, "\n  "))
}

// ReportOf extracts the Report carried by a preflight error.
func ReportOf(err error) (*Report, bool) {
	var r *Report
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Checker runs the checks against one local repository.
type Checker struct {
	RepoPath string
	Log      logger.Logger
}

// New returns a Checker for repoPath.
func New(repoPath string, log logger.Logger) *Checker {
	if log == nil {
		log = logger.Noop()
	}
	return &Checker{RepoPath: repoPath, Log: log}
}

// CheckClean is the package-level shorthand for New(repoPath, nil).Check.
func CheckClean(ctx context.Context, repoPath, revision string) error {
	return New(repoPath, nil).Check(ctx, revision)
}

// Check returns nil when the working tree is clean and revision is on some
// remote-tracking branch of origin. Errors carry a *Report as their cause.
func (c *Checker) Check(ctx context.Context, revision string) error {
	if err := gitutil.Available(); err != nil {
		return err
	}

	// Refresh the index so stat-only changes don't count as modifications.
	if _, err := gitutil.Run(ctx, c.RepoPath, "update-index", "-q", "--ignore-submodules", "--refresh"); err != nil {
		return gitFailure(err)
	}

	if err := c.checkUnstaged(ctx); err != nil {
		return err
	}
	if err := c.checkUncommitted(ctx); err != nil {
		return err
	}
	if err := c.checkUntracked(ctx); err != nil {
		return err
	}
	return c.checkPushed(ctx, revision)
}

func (c *Checker) checkUnstaged(ctx context.Context) error {
	code, err := gitutil.Run(ctx, c.RepoPath, "diff-files", "--quiet", "--ignore-submodules", "--")
	if err != nil {
		return gitFailure(err)
	}
	if code == 0 {
		c.Log.Debug("preflight: no unstaged changes")
		return nil
	}

	files, err := gitutil.Lines(ctx, c.RepoPath, "diff-files", "--name-status", "-r", "--ignore-submodules", "--")
	if err != nil {
		return gitFailure(err)
	}
	return dirty(&Report{Problem: Unstaged, Files: files},
		"You have unstaged changes",
		"Commit or stash them before deploying.")
}

func (c *Checker) checkUncommitted(ctx context.Context) error {
	code, err := gitutil.Run(ctx, c.RepoPath, "diff-index", "--cached", "--quiet", "HEAD", "--ignore-submodules", "--")
	if err != nil {
		return gitFailure(err)
	}
	if code == 0 {
		c.Log.Debug("preflight: index matches HEAD")
		return nil
	}

	files, err := gitutil.Lines(ctx, c.RepoPath, "diff-index", "--cached", "--name-status", "-r", "--ignore-submodules", "HEAD", "--")
	if err != nil {
		return gitFailure(err)
	}
	return dirty(&Report{Problem: Uncommitted, Files: files},
		"Your index contains uncommitted changes",
		"Commit or reset the staged changes before deploying.")
}

func (c *Checker) checkUntracked(ctx context.Context) error {
	files, err := gitutil.Lines(ctx, c.RepoPath, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return gitFailure(err)
	}
	if len(files) == 0 {
		return nil
	}
	return dirty(&Report{Problem: Untracked, Files: files},
		"You have untracked files",
		"Commit them, delete them, or add them to .gitignore.")
}

func (c *Checker) checkPushed(ctx context.Context, revision string) error {
	if _, err := gitutil.Output(ctx, c.RepoPath, "fetch", "origin"); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't fetch from origin",
			"Check your network connection and that 'origin' is reachable.")
	}

	branches, err := gitutil.Lines(ctx, c.RepoPath, "branch", "-r", "--contains", revision)
	if err != nil {
		// git errors here when the commit is unknown locally, which also
		// means nobody pushed it.
		c.Log.Debug("preflight: branch --contains failed: %v", err)
		branches = nil
	}
	if len(branches) > 0 {
		c.Log.Debug("preflight: %s is on %s", revision, strings.Join(branches, ", "))
		return nil
	}

	return errors.WrapWithCode(&Report{Problem: Unpushed}, errors.ErrUnpushed,
		fmt.Sprintf("Commit %s isn't on any remote branch", shortRev(revision)),
		"Push first, the hosts fetch from origin.")
}

func dirty(r *Report, message, suggestion string) error {
	return errors.WrapWithCode(r, errors.ErrDirty, message, suggestion)
}

func gitFailure(err error) error {
	return errors.WrapWithCode(err, errors.ErrExec,
		"git failed while checking the working tree",
		"Run the git command by hand to see what's wrong.")
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
