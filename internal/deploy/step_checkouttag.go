package deploy

import (
	"context"

	"github.com/commoncode/vhdeploy/internal/util"
)

// CheckoutTagStep replaces the worktree with a tagged revision.
type CheckoutTagStep struct {
	Tag string
}

func (s *CheckoutTagStep) Name() string { return "checkout " + s.Tag }

func (s *CheckoutTagStep) Run(ctx context.Context, sc *StepContext) error {
	v := sc.VHost()
	worktree := v.WorktreePath() + "/"

	return runAll(ctx, sc.Runner, v.RepoPath(), []command{
		{cmd: "git fetch --tags"},
		{sudo: true, cmd: chmodGroupWrite(worktree)},
		{cmd: "rm -rf " + util.ShellArg(v.WorktreePath()) + "/*"},
		{sudo: true, cmd: chmodGroupWrite(".")},
		{sudo: true, cmd: "/usr/bin/git checkout -f " + util.ShellArg(s.Tag)},
		{sudo: true, cmd: chmodGroupWrite(worktree)},
	})
}
