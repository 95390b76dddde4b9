package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set from main via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{sideEffectFree: ""},
	Args:        cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "vhdeploy %s\ncommit: %s\nbuilt: %s\ngo: %s\nos/arch: %s/%s\n",
			formatVersion(version), commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}

// formatVersion adds a v prefix to release versions.
func formatVersion(v string) string {
	if v == "" || v == "dev" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

// SetVersionInfo records build metadata.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}
