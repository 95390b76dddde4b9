package deploy

import (
	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/gitutil"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/notify"
	"github.com/commoncode/vhdeploy/internal/registry"
	"github.com/commoncode/vhdeploy/internal/remote"
	"github.com/commoncode/vhdeploy/internal/resolve"
)

// Context is everything a deployment needs that doesn't change from host to
// host. Build it once with NewContext; it is read-only afterwards.
type Context struct {
	target   resolve.Target
	repoPath string
	revision gitutil.Revision
	user     string
	notifier notify.Notifier
}

// NewContext captures a resolved target and the revision being shipped.
// A nil notifier means announcements are dropped.
func NewContext(target *resolve.Target, repoPath string, rev gitutil.Revision, user string, n notify.Notifier) (*Context, error) {
	if target == nil || len(target.Hosts) == 0 {
		return nil, errors.New(errors.ErrNotFound,
			"No hosts to act on",
			"Pass --role <name> or --host <address>.")
	}
	if n == nil {
		n = notify.Noop{}
	}

	t := *target
	t.Hosts = append([]string(nil), target.Hosts...)
	t.Names = append([]string(nil), target.Names...)

	return &Context{
		target:   t,
		repoPath: repoPath,
		revision: rev,
		user:     user,
		notifier: n,
	}, nil
}

// Role is the role being deployed to.
func (c *Context) Role() string { return c.target.Role }

// VHost is the role's on-disk layout.
func (c *Context) VHost() registry.VHost { return c.target.VHost }

// Hosts returns a copy of the target host entries.
func (c *Context) Hosts() []registry.HostEntry { return c.target.Entries() }

// RepoPath is the local checkout the revision came from.
func (c *Context) RepoPath() string { return c.repoPath }

// Revision is the refspec and commit being shipped.
func (c *Context) Revision() gitutil.Revision { return c.revision }

// User is who the announcements are attributed to.
func (c *Context) User() string { return c.user }

// Notifier receives start and end announcements.
func (c *Context) Notifier() notify.Notifier { return c.notifier }

// StepContext is what a step sees while running against one host.
type StepContext struct {
	*Context

	Host   registry.HostEntry
	Runner remote.Runner
	Log    logger.Logger
}
