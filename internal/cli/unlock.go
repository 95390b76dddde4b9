package cli

import (
	"fmt"

	"github.com/commoncode/vhdeploy/internal/lock"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/spf13/cobra"
)

// unlockCmd clears an abandoned vhost lock on the target hosts.
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove the deploy lock from the target hosts",
	Long: `Remove the vhost deploy lock left behind by an interrupted run.

Only needed when lock.enabled is set in the roles file and a deploy died
without cleaning up. The lock is removed whoever holds it.

Examples:
  vhdeploy -R staging unlock`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		a, err := loadApp()
		if err != nil {
			return err
		}
		target, err := a.resolve(ctx, cmd)
		if err != nil {
			return err
		}

		dir := lock.Dir(a.cfg.Lock, target.Role)
		dialer := newDialer(a.cfg, a.log)
		for _, entry := range target.Entries() {
			client, err := dialer.Dial(ctx, entry.Address)
			if err != nil {
				return err
			}
			holder, err := lock.ForceRelease(client, dir)
			client.Close()
			if err != nil {
				return err
			}

			if holder == "" {
				fmt.Fprintf(out, "%s %s: not locked\n", ui.SymbolSkipped, entry.Label())
			} else {
				fmt.Fprintf(out, "%s %s: removed lock held by %s\n", ui.SymbolSuccess, entry.Label(), holder)
			}
		}

		fmt.Fprintln(out, "OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unlockCmd)
}
