package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/commoncode/vhdeploy/internal/util"
	"github.com/commoncode/vhdeploy/pkg/sshutil"
	"github.com/spf13/cobra"
)

// Global flags
var (
	roleFlags     []string
	hostFlags     []string
	rolesFileFlag string
	repoFlag      string
	yesFlag       bool
	verboseFlag   bool
	noColorFlag   bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "vhdeploy",
	Short: "Deploy a git revision to puppet-managed vhost servers",
	Long: `vhdeploy ships the checked-out git revision to every host of a role:
it fetches the revision into the vhost's bare repository, rebuilds the
meteor bundle and restarts the app under supervisor.

Roles are read from <HOST_ROLES>.yaml (default roles.yaml). Without --role or
--host you are asked which role to act on.

Examples:
  vhdeploy -R staging deploy
  vhdeploy -H web-1 restart services
  HOST_ROLES=serverroles vhdeploy list roles`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
		if verboseFlag {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&roleFlags, "role", "R", nil, "role to act on (only one role at a time)")
	pf.StringSliceVarP(&hostFlags, "host", "H", nil, "host address or name to act on (repeatable, comma separated)")
	pf.StringVar(&rolesFileFlag, "roles-file", "", "roles file (default: $HOST_ROLES.yaml found from the current directory)")
	pf.StringVar(&repoFlag, "repo", "", "local git checkout to deploy from (default: the enclosing repository)")
	pf.BoolVarP(&yesFlag, "yes", "y", false, "don't ask to confirm the host list")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "echo remote commands and debug logging")
	pf.BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	sshutil.CloseAgent()

	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders structured errors as they are and adds a usage hint
// for cobra's own complaints.
func formatError(err error) string {
	if errors.CodeOf(err) != "" {
		return strings.TrimRight(err.Error(), "\n")
	}
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			if similar := util.SuggestSimilar(name, commandNames(), 3); len(similar) > 0 {
				return fmt.Sprintf("✗ Unknown command %q\n\n  Did you mean: %s?", name, strings.Join(similar, ", "))
			}
			return fmt.Sprintf("✗ Unknown command %q\n\n  Run 'vhdeploy --help' to see what's available.", name)
		}
		return fmt.Sprintf("✗ %v\n\n  Run 'vhdeploy --help' for usage.", err)
	}
	return "✗ " + err.Error()
}

// commandNames lists the visible top-level commands.
func commandNames() []string {
	var names []string
	for _, c := range rootCmd.Commands() {
		if !c.Hidden {
			names = append(names, c.Name())
		}
	}
	return names
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

var unknownCommandRe = regexp.MustCompile(`unknown command "([^"]+)"`)

func extractUnknownCommand(err error) string {
	if m := unknownCommandRe.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}
