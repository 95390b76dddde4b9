package cli

import (
	"fmt"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/gitutil"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/preflight"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/spf13/cobra"
)

// checkCleanCmd runs the deploy preflight on its own.
var checkCleanCmd = &cobra.Command{
	Use:   "check_clean",
	Short: "Check the local tree is clean and the revision is pushed",
	Long: `Refuse to deploy from a tree with unstaged, uncommitted or untracked
changes, or a revision that origin doesn't have yet.

Uses git plumbing commands, which are stable across git versions.`,
	Aliases:     []string{"check-clean"},
	Annotations: map[string]string{sideEffectFree: ""},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		log := logger.NewEnvLogger("vhdeploy")

		// The roles file is optional here; it only supplies repo_path.
		a := &app{cfg: config.DefaultConfig(), log: log}
		if cfg, _, err := config.LoadRoles(rolesFileFlag); err == nil {
			a.cfg = cfg
		}

		repo, err := a.repoPath(ctx)
		if err != nil {
			return err
		}
		rev, err := gitutil.CurrentRevision(ctx, repo)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Checking for a clean tree")
		if err := checkClean(ctx, ui.NewPhaseDisplay(out), preflight.New(repo, log), rev.Commit); err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCleanCmd)
}
