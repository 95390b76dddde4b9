package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/deploy"
	"github.com/commoncode/vhdeploy/internal/gitutil"
	"github.com/commoncode/vhdeploy/internal/host"
	"github.com/commoncode/vhdeploy/internal/notify"
	"github.com/commoncode/vhdeploy/internal/preflight"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/spf13/cobra"
)

var deploySkipCheck bool

// deployCmd ships the current revision and restarts the app.
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy code to hosts and restart services",
	Long: `Check the local tree is clean and pushed, then on every host of the role:
normalize ownership, fetch and check out the revision, build and unpack the
meteor bundle, and restart the app. Hosts are done one at a time and the
first failure stops everything.

Examples:
  vhdeploy -R staging deploy
  GIT_REFSPEC=refs/heads/main GIT_COMMIT=1a2b3c4 vhdeploy -R prod deploy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd, remoteOptions{revision: true, preflight: !deploySkipCheck, notify: true},
			func() ([]deploy.Step, error) { return deploy.DeploySteps(), nil })
	},
}

// pullCmd fetches and checks out the revision only.
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and check out the revision on the hosts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd, remoteOptions{revision: true},
			func() ([]deploy.Step, error) { return deploy.PullSteps(), nil })
	},
}

// checkoutTagCmd replaces the worktree with a tag.
var checkoutTagCmd = &cobra.Command{
	Use:   "checkouttag <tag>",
	Short: "Check out a tag from the repository into the worktree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd, remoteOptions{},
			func() ([]deploy.Step, error) { return deploy.CheckoutTagSteps(args[0]), nil })
	},
}

// chownVHostCmd only normalizes ownership.
var chownVHostCmd = &cobra.Command{
	Use:   "chownvhost",
	Short: "Reset ownership of the worktree, repository and rundir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd, remoteOptions{},
			func() ([]deploy.Step, error) { return deploy.ChownSteps(), nil })
	},
}

// kickPuppyCmd restarts the puppet agent.
var kickPuppyCmd = &cobra.Command{
	Use:   "kickpuppy",
	Short: "Restart the puppet agent on the hosts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd, remoteOptions{},
			func() ([]deploy.Step, error) { return deploy.KickPuppySteps(), nil })
	},
}

func init() {
	deployCmd.Flags().BoolVar(&deploySkipCheck, "skip-check", false, "don't check the local tree is clean and pushed")

	rootCmd.AddCommand(deployCmd, pullCmd, checkoutTagCmd, chownVHostCmd, kickPuppyCmd)
	for _, verb := range []string{deploy.VerbStart, deploy.VerbStop, deploy.VerbRestart} {
		rootCmd.AddCommand(servicesCommands(verb)...)
	}
}

// servicesCommands builds "<verb> services" and the one-word "<verb>services".
func servicesCommands(verb string) []*cobra.Command {
	run := func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd, remoteOptions{},
			func() ([]deploy.Step, error) { return deploy.ServiceSteps(verb) })
	}

	parent := &cobra.Command{
		Use:   verb,
		Short: fmt.Sprintf("%s things on the hosts", verb),
	}
	parent.AddCommand(&cobra.Command{
		Use:   "services",
		Short: fmt.Sprintf("%s the app's supervisor program", verb),
		Args:  cobra.NoArgs,
		RunE:  run,
	})

	oneWord := &cobra.Command{
		Use:    verb + "services",
		Short:  fmt.Sprintf("Same as '%s services'", verb),
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   run,
	}
	return []*cobra.Command{parent, oneWord}
}

type remoteOptions struct {
	revision  bool // work out what is being shipped
	preflight bool // refuse a dirty or unpushed tree
	notify    bool // announce to chat
}

// runRemote is the shared shape of every host-touching command: resolve the
// target, optionally check the local tree, then run steps host by host.
func runRemote(cmd *cobra.Command, opts remoteOptions, plan func() ([]deploy.Step, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	steps, err := plan()
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}

	target, err := a.resolve(ctx, cmd)
	if err != nil {
		return err
	}

	var repo string
	var rev gitutil.Revision
	if opts.revision {
		if repo, err = a.repoPath(ctx); err != nil {
			return err
		}
		if rev, err = gitutil.CurrentRevision(ctx, repo); err != nil {
			return err
		}
		a.log.Debug("revision %s (%s)", rev.Short(), rev.Refspec)

		if opts.preflight {
			if err := checkClean(ctx, ui.NewPhaseDisplay(out), preflight.New(repo, a.log), rev.Commit); err != nil {
				return err
			}
		}
	}

	var n notify.Notifier = notify.Noop{}
	if opts.notify {
		n = notify.New(a.cfg.Notify, a.log)
	}
	defer n.Close()

	dc, err := deploy.NewContext(target, repo, rev, config.CurrentUser(), n)
	if err != nil {
		return err
	}

	display := ui.NewPhaseDisplay(out)
	dialer := newDialer(a.cfg, a.log)
	if sd, ok := dialer.(*host.SSHDialer); ok {
		sd.OnEvent = func(e host.ConnectionEvent) {
			if e.Type == host.EventFailed {
				display.RenderSubStatus(ui.SymbolFail, e.Address, e.Message)
			}
		}
	}

	d := &deploy.Deployer{
		Dialer:  dialer,
		Log:     a.log,
		Out:     out,
		Echo:    echo(cmd),
		Lock:    a.cfg.Lock,
		Command: cmd.CommandPath(),
	}
	if err := d.Run(ctx, dc, steps); err != nil {
		return err
	}

	fmt.Fprintln(out, "OK")
	return nil
}

// checkClean runs the preflight checks with a progress line.
func checkClean(ctx context.Context, display *ui.PhaseDisplay, checker *preflight.Checker, revision string) error {
	const phase = "check clean tree"
	display.RenderProgress(phase)
	start := time.Now()

	if err := checker.Check(ctx, revision); err != nil {
		display.RenderFailed(phase, time.Since(start), err)
		return err
	}
	display.RenderSuccess(phase, time.Since(start))
	return nil
}
