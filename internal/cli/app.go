package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/gitutil"
	"github.com/commoncode/vhdeploy/internal/host"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/registry"
	"github.com/commoncode/vhdeploy/internal/resolve"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// sideEffectFree marks commands that never need a target and never prompt.
const sideEffectFree = "vhdeploy/side-effect-free"

// Swapped out in tests.
var (
	newDialer = func(cfg *config.Config, log logger.Logger) host.Dialer {
		return host.NewSSHDialer(cfg.SSH.Timeout, cfg.SSH.StrictHostKeyChecking, log)
	}
	newPrompter = func(reg *registry.Registry) resolve.Prompter {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return nil
		}
		return ui.NewTerminalPrompter(describeRole(reg))
	}
)

// app is the loaded roles file and everything derived from it.
type app struct {
	cfg       *config.Config
	rolesPath string
	registry  *registry.Registry
	log       logger.Logger
}

func loadApp() (*app, error) {
	log := logger.NewEnvLogger("vhdeploy")

	cfg, path, err := config.LoadRoles(rolesFileFlag)
	if err != nil {
		return nil, err
	}
	log.Debug("roles loaded from %s", path)

	reg, err := registry.FromConfig(cfg, filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, rolesPath: path, registry: reg, log: log}, nil
}

func isSideEffectFree(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[sideEffectFree]
	return ok
}

// selection reads the global --role/--host flags for cmd.
func selection(cmd *cobra.Command) resolve.Selection {
	return resolve.Selection{
		Roles:          roleFlags,
		Hosts:          hostFlags,
		SideEffectFree: isSideEffectFree(cmd),
	}
}

func (a *app) resolve(ctx context.Context, cmd *cobra.Command) (*resolve.Target, error) {
	r := &resolve.Resolver{
		Registry:  a.registry,
		Prompter:  newPrompter(a.registry),
		Log:       a.log,
		AssumeYes: yesFlag,
	}
	return r.Resolve(ctx, selection(cmd))
}

// repoPath picks the local checkout: --repo, then repo_path from the roles
// file, then the repository enclosing the current directory.
func (a *app) repoPath(ctx context.Context) (string, error) {
	if repoFlag != "" {
		return gitutil.TopLevel(ctx, config.ExpandTilde(repoFlag))
	}
	if a.cfg.RepoPath != "" {
		return gitutil.TopLevel(ctx, a.cfg.RepoPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return gitutil.TopLevel(ctx, cwd)
}

// echo is where remote commands are mirrored with --verbose.
func echo(cmd *cobra.Command) io.Writer {
	if verboseFlag {
		return cmd.ErrOrStderr()
	}
	return nil
}

func describeRole(reg *registry.Registry) func(string) ui.RoleInfo {
	return func(name string) ui.RoleInfo {
		v, ok := reg.Get(name)
		if !ok {
			return ui.RoleInfo{Name: name}
		}
		info := ui.RoleInfo{Name: name, VHostPath: v.VHostPath, Dynamic: v.Hosts.IsDynamic()}
		if !info.Dynamic {
			// Fixed sources never block or fail.
			entries, _ := v.Hosts.Materialize(context.Background())
			info.Hosts = registry.Names(entries)
		}
		return info
	}
}
