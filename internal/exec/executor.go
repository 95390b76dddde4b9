package exec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
)

// commandNotFoundPatterns detect "command not found" output from various
// shells. These require exit code 127.
var commandNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bash: (\S+): command not found`),
	regexp.MustCompile(`(?i)zsh: command not found: (\S+)`),
	regexp.MustCompile(`(?i)sh: \d+: (\S+): not found`),
	regexp.MustCompile(`(?i)-bash: (\S+): No such file or directory`),
	regexp.MustCompile(`(?i)(\S+): not found`),
	regexp.MustCompile(`(?i)(\S+): command not found`),
}

// dependencyNotFoundPatterns detect a wrapper (sudo, npm scripts, env
// shebangs) failing because the tool it runs isn't installed.
var dependencyNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sudo: (\S+): command not found`),
	regexp.MustCompile(`(?i)/bin/sh: (\S+): not found`),
	regexp.MustCompile(`(?i)env: (\S+): No such file or directory`),
}

// IsCommandNotFound checks if the error output indicates a missing command.
// Returns the command name (if extractable) and whether it's a command-not-found error.
func IsCommandNotFound(stderr string, exitCode int) (string, bool) {
	if exitCode != 127 {
		return "", false
	}

	for _, pattern := range commandNotFoundPatterns {
		if matches := pattern.FindStringSubmatch(stderr); len(matches) > 1 {
			return matches[1], true
		}
	}

	return "", true
}

// IsDependencyNotFound checks if a wrapper failed because the command it
// runs is missing.
func IsDependencyNotFound(stderr string) (string, bool) {
	for _, pattern := range dependencyNotFoundPatterns {
		if matches := pattern.FindStringSubmatch(stderr); len(matches) > 1 {
			return matches[1], true
		}
	}
	return "", false
}

// RemoteFailure builds the ErrRemoteStep error for a command that exited
// non-zero on a deployment host. Missing tools (mrt, npm, supervisorctl)
// get a targeted suggestion; anything else points the operator at the host.
func RemoteFailure(hostAddr, cmd, stderr string, exitCode int) error {
	cmdName, notFound := IsCommandNotFound(stderr, exitCode)
	if !notFound {
		cmdName, notFound = IsDependencyNotFound(stderr)
	}

	if notFound {
		if cmdName == "" {
			if parts := strings.Fields(cmd); len(parts) > 0 {
				cmdName = parts[0]
			} else {
				cmdName = "command"
			}
		}
		return errors.New(errors.ErrRemoteStep,
			fmt.Sprintf("'%s' isn't installed on %s", cmdName, hostAddr),
			fmt.Sprintf("Install '%s' on the host (check: ssh %s \"which %s\"), then re-run.", cmdName, hostAddr, cmdName))
	}

	cause := fmt.Errorf("exit code %d", exitCode)
	if detail := strings.TrimSpace(stderr); detail != "" {
		cause = fmt.Errorf("exit code %d: %s", exitCode, lastLines(detail, 5))
	}

	return errors.WrapWithCode(cause, errors.ErrRemoteStep,
		fmt.Sprintf("Command failed on %s: %s", hostAddr, cmd),
		"Nothing was rolled back. Inspect the host, fix the problem, and re-run.")
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
