// Package doctor diagnoses the local setup vhdeploy depends on: the roles
// file, the git checkout, SSH keys and agent, and the target hosts.
package doctor

import (
	"context"
	"fmt"

	"github.com/commoncode/vhdeploy/internal/util"
)

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Check defines the interface for diagnostic checks.
type Check interface {
	Name() string
	// Category groups checks in the report, e.g. "ROLES", "SSH", "HOSTS".
	Category() string
	Run(ctx context.Context) CheckResult
}

// RunAll executes checks in order. A cancelled context stops the run and
// returns what finished.
func RunAll(ctx context.Context, checks []Check) []CheckResult {
	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		if ctx.Err() != nil {
			break
		}
		r := check.Run(ctx)
		if r.Name == "" {
			r.Name = check.Name()
		}
		r.Category = check.Category()
		results = append(results, r)
	}
	return results
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures returns true if any result has a fail status.
func HasFailures(results []CheckResult) bool {
	return CountByStatus(results)[StatusFail] > 0
}

// Summary returns a summary string of the check results.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	total := counts[StatusWarn] + counts[StatusFail]
	if total == 0 {
		return "Everything looks good"
	}
	return fmt.Sprintf("%d %s found", total, util.Pluralize(total, "issue", "issues"))
}
