package doctor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/gitutil"
	"github.com/commoncode/vhdeploy/internal/registry"
)

// RolesFileCheck finds, loads and validates the roles file.
type RolesFileCheck struct {
	Explicit string // --roles-file, or empty to search
}

func (c *RolesFileCheck) Name() string     { return "roles_file" }
func (c *RolesFileCheck) Category() string { return "ROLES" }

func (c *RolesFileCheck) Run(ctx context.Context) CheckResult {
	cfg, path, err := config.LoadRoles(c.Explicit)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    firstLine(err),
			Suggestion: fmt.Sprintf("Create %s.yaml next to your project, or set %s", config.RolesName(), config.RolesEnv),
		}
	}

	reg, err := registry.FromConfig(cfg, filepath.Dir(path))
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    firstLine(err),
			Suggestion: "Fix the role definitions in " + path,
		}
	}

	if reg.Len() == 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s declares no roles", filepath.Base(path)),
			Suggestion: "Add roles under 'vhosts'",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: %s", filepath.Base(path), strings.Join(reg.Names(), ", ")),
	}
}

// RepoCheck verifies there is a local checkout with a deployable HEAD.
type RepoCheck struct {
	Dir string
}

func (c *RepoCheck) Name() string     { return "git_checkout" }
func (c *RepoCheck) Category() string { return "GIT" }

func (c *RepoCheck) Run(ctx context.Context) CheckResult {
	root, err := gitutil.TopLevel(ctx, c.Dir)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    firstLine(err),
			Suggestion: "Run vhdeploy from your project checkout, or pass --repo",
		}
	}

	rev, err := gitutil.CurrentRevision(ctx, root)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    firstLine(err),
			Suggestion: "Check out the branch you want to deploy",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s at %s (%s)", filepath.Base(root), rev.Refspec, rev.Summary),
	}
}

// firstLine strips the structured error decoration down to its message.
func firstLine(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(strings.TrimPrefix(msg, "✗"))
}
