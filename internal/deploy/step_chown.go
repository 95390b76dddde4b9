package deploy

import (
	"context"

	"github.com/commoncode/vhdeploy/internal/util"
)

// ChownStep resets ownership of the worktree, repository and rundir.
// Running it twice is the same as running it once.
type ChownStep struct{}

func (s *ChownStep) Name() string { return "chown" }

func (s *ChownStep) Run(ctx context.Context, sc *StepContext) error {
	v := sc.VHost()
	for _, dir := range []string{v.WorktreePath(), v.RepoPath(), v.RunDirPath()} {
		if _, err := sc.Runner.Sudo(ctx, "", chownCmd(v.Owner, dir)); err != nil {
			return err
		}
	}
	return nil
}

func chownCmd(owner, target string) string {
	return "/bin/chown -R " + util.ShellArg(owner) + " " + util.ShellArg(target)
}

func chmodGroupWrite(target string) string {
	return "/bin/chmod -R g+w " + util.ShellArg(target)
}
