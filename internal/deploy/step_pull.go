package deploy

import (
	"context"

	"github.com/commoncode/vhdeploy/internal/util"
)

// PullStep fetches the refspec into the bare repository and checks the
// revision out over a wiped worktree.
type PullStep struct{}

func (s *PullStep) Name() string { return "pull" }

func (s *PullStep) Run(ctx context.Context, sc *StepContext) error {
	v := sc.VHost()
	rev := sc.Revision()
	repo := v.RepoPath()

	return runAll(ctx, sc.Runner, repo, []command{
		{cmd: "git fetch origin " + util.ShellArg(rev.Refspec)},
		{sudo: true, cmd: chmodGroupWrite(v.WorktreePath() + "/")},
		{cmd: "rm -rf " + util.ShellArg(v.WorktreePath()) + "/*"},
		{sudo: true, cmd: chmodGroupWrite(".")},
		{sudo: true, cmd: "/usr/bin/git checkout -f " + util.ShellArg(rev.Commit)},
		{sudo: true, cmd: chownCmd(v.Owner, repo)},
	})
}
