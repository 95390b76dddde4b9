// Package gitutil wraps the handful of git plumbing commands vhdeploy needs
// against the local checkout.
package gitutil

import (
	"bufio"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/exec"
)

const (
	// RefspecEnv and CommitEnv override the local checkout. Both must be set.
	RefspecEnv = "GIT_REFSPEC"
	CommitEnv  = "GIT_COMMIT"
)

// Revision is what gets deployed.
type Revision struct {
	// Refspec is fetched on the host, e.g. refs/heads/main.
	Refspec string
	// Commit is the full hash checked out on the host.
	Commit string
	// Summary is the one-line log entry used in announcements.
	Summary string
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Commit) > 7 {
		return r.Commit[:7]
	}
	return r.Commit
}

// Available reports whether the git binary is on PATH.
func Available() error {
	if _, err := osexec.LookPath("git"); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"git isn't installed",
			"Install git and make sure it's on your PATH.")
	}
	return nil
}

// TopLevel returns the root of the working tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	root, err := Output(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Not inside a git repository",
			"Run vhdeploy from your project checkout, or pass --repo.")
	}
	return root, nil
}

// CurrentRevision works out what to deploy. GIT_REFSPEC and GIT_COMMIT win
// when both are set; a lone one is ignored. Otherwise the checkout's HEAD is
// used.
func CurrentRevision(ctx context.Context, repoPath string) (Revision, error) {
	refspec := strings.TrimSpace(os.Getenv(RefspecEnv))
	commit := strings.TrimSpace(os.Getenv(CommitEnv))

	var rev Revision
	if refspec != "" && commit != "" {
		rev.Refspec = refspec
		rev.Commit = commit
	} else {
		ref, err := Output(ctx, repoPath, "symbolic-ref", "HEAD")
		if err != nil {
			return Revision{}, errors.WrapWithCode(err, errors.ErrConfig,
				"HEAD isn't on a branch",
				"Check out the branch you want to deploy, or set both GIT_REFSPEC and GIT_COMMIT.")
		}
		rev.Refspec = ref

		hash, err := Output(ctx, repoPath, "rev-parse", "--verify", "HEAD")
		if err != nil {
			return Revision{}, errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't read the HEAD commit",
				"Make sure the repository has at least one commit.")
		}
		rev.Commit = hash
	}

	summary, err := Output(ctx, repoPath, "log", "-n", "1", "--oneline", rev.Commit)
	if err != nil {
		// The commit may only exist on the remote when it came from the env.
		summary = rev.Short()
	}
	rev.Summary = summary

	return rev, nil
}

// Run executes git and returns the exit code without treating non-zero as an
// error. Use it for the --quiet plumbing commands whose answer is the exit code.
func Run(ctx context.Context, dir string, args ...string) (int, error) {
	_, _, code, err := exec.Command(ctx, dir, "git", args...)
	return code, err
}

// Output runs git and returns trimmed stdout. Non-zero exit is an error.
func Output(ctx context.Context, dir string, args ...string) (string, error) {
	stdout, stderr, code, err := exec.Command(ctx, dir, "git", args...)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("git %s: exit %d: %s", strings.Join(args, " "), code, strings.TrimSpace(string(stderr)))
	}
	return strings.TrimSpace(string(stdout)), nil
}

// Lines runs git and returns the non-empty lines of stdout.
func Lines(ctx context.Context, dir string, args ...string) ([]string, error) {
	out, err := Output(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
