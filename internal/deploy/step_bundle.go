package deploy

import (
	"context"
	"path"

	"github.com/commoncode/vhdeploy/internal/util"
)

// settingsFiles are copied from the vhost's secrets directory into the app
// before bundling, when present.
var settingsFiles = []struct{ from, to string }{
	{"../secrets/server_local_settings.js", "app/server/_local_settings.js"},
	{"../secrets/lib_local_settings.js", "app/lib/_local_settings.js"},
}

// BundleStep builds a meteor bundle from the worktree and unpacks it into
// the rundir.
type BundleStep struct{}

func (s *BundleStep) Name() string { return "bundle" }

func (s *BundleStep) Run(ctx context.Context, sc *StepContext) error {
	v := sc.VHost()
	tarball := v.BundleTarball()

	build := []command{
		{sudo: true, cmd: chownCmd(v.Owner, ".")},
		{sudo: true, cmd: chmodGroupWrite(".")},
		{cmd: "rm -f " + util.ShellArg("/tmp/bundle_"+v.Name)},
	}
	for _, f := range settingsFiles {
		build = append(build, command{cmd: copyIfPresent(f.from, f.to)})
	}
	if err := runAll(ctx, sc.Runner, v.WorktreePath(), build); err != nil {
		return err
	}

	if _, err := sc.Runner.Run(ctx, path.Join(v.WorktreePath(), "app"), "mrt bundle "+util.ShellArg(tarball)); err != nil {
		return err
	}

	if err := runAll(ctx, sc.Runner, v.RunDirPath(), []command{
		{sudo: true, cmd: "rm -rf bundle"},
		{cmd: "tar xfz " + util.ShellArg(tarball)},
	}); err != nil {
		return err
	}

	// Fibers is a native module; the bundled build is for the wrong machine.
	if err := runAll(ctx, sc.Runner, path.Join(v.RunDirPath(), "bundle/server/node_modules"), []command{
		{cmd: "npm uninstall fibers"},
		{cmd: "npm install fibers"},
	}); err != nil {
		return err
	}

	if err := runAll(ctx, sc.Runner, v.RunDirPath(), []command{
		{sudo: true, cmd: chownCmd(v.Owner, "bundle")},
		{sudo: true, cmd: chmodGroupWrite("bundle")},
	}); err != nil {
		return err
	}

	_, err := sc.Runner.Run(ctx, "", "rm -f "+util.ShellArg(tarball))
	return err
}

func copyIfPresent(from, to string) string {
	return "test -f " + from + " && cp " + from + " " + to + " || true"
}
