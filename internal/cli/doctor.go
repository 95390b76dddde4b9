package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/commoncode/vhdeploy/internal/doctor"
	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/spf13/cobra"
)

// doctorCmd checks the local setup and, with --role or --host, that every
// target host accepts an SSH connection.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the roles file, git checkout, SSH and hosts",
	Long: `Run diagnostic checks on everything a deploy depends on.

Host connectivity is only checked when a role or hosts are selected.

Examples:
  vhdeploy doctor
  vhdeploy -R staging doctor`,
	Annotations: map[string]string{sideEffectFree: ""},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		checks := []doctor.Check{&doctor.RolesFileCheck{Explicit: rolesFileFlag}}

		repoDir := repoFlag
		if repoDir == "" {
			repoDir, _ = os.Getwd()
		}
		checks = append(checks, &doctor.RepoCheck{Dir: repoDir})
		checks = append(checks, doctor.NewSSHChecks()...)

		if len(roleFlags) > 0 || len(hostFlags) > 0 {
			a, err := loadApp()
			if err != nil {
				return err
			}
			target, err := a.resolve(ctx, cmd)
			if err != nil {
				return err
			}
			checks = append(checks, doctor.NewHostChecks(target.Entries(), newDialer(a.cfg, a.log))...)
		}

		results := doctor.RunAll(ctx, checks)
		renderDoctor(cmd.OutOrStdout(), results)

		if doctor.HasFailures(results) {
			return errors.New(errors.ErrConfig,
				doctor.Summary(results),
				"Fix the failures above and run 'vhdeploy doctor' again.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func renderDoctor(w io.Writer, results []doctor.CheckResult) {
	heading := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary)
	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	category := ""
	for _, r := range results {
		if r.Category != category {
			if category != "" {
				fmt.Fprintln(w)
			}
			category = r.Category
			fmt.Fprintln(w, heading.Render(category))
		}

		symbol := lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render(ui.SymbolSuccess)
		switch r.Status {
		case doctor.StatusWarn:
			symbol = lipgloss.NewStyle().Foreground(ui.ColorWarning).Render(ui.SymbolPending)
		case doctor.StatusFail:
			symbol = lipgloss.NewStyle().Foreground(ui.ColorError).Render(ui.SymbolFail)
		}
		fmt.Fprintf(w, "  %s %s\n", symbol, r.Message)
		if r.Suggestion != "" && r.Status != doctor.StatusPass {
			fmt.Fprintf(w, "    %s\n", muted.Render(r.Suggestion))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, doctor.Summary(results))
}
