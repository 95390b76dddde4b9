// Package deploy runs ordered remote steps against each host of a resolved
// target, one host at a time.
package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/host"
	"github.com/commoncode/vhdeploy/internal/lock"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/registry"
	"github.com/commoncode/vhdeploy/internal/remote"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/commoncode/vhdeploy/pkg/sshutil"
)

// Deployer dials each host in turn and runs the same steps on it. The first
// failure stops the run; hosts after it are left untouched.
type Deployer struct {
	Dialer host.Dialer
	Log    logger.Logger

	// Out receives step progress. Nil discards it.
	Out io.Writer
	// Echo, when set, receives every remote command and its output.
	Echo io.Writer

	// Lock, when enabled, is held on each host for the length of its
	// pipeline. Command is recorded in the lock so others see who has it.
	Lock    config.LockConfig
	Command string
}

// Run executes steps on every host of dc.
func (d *Deployer) Run(ctx context.Context, dc *Context, steps []Step) error {
	log := d.Log
	if log == nil {
		log = logger.Noop()
	}
	out := d.Out
	if out == nil {
		out = io.Discard
	}

	pipeline := NewPipeline(out, steps...)
	hostStyle := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true)

	for _, entry := range dc.Hosts() {
		fmt.Fprintf(out, "%s %s\n", hostStyle.Render("["+dc.Role()+"]"), entry.Label())

		client, err := d.Dialer.Dial(ctx, entry.Address)
		if err != nil {
			return err
		}

		err = d.runHost(ctx, dc, pipeline, entry, client, log)
		if cerr := client.Close(); cerr != nil {
			log.Debug("closing %s: %v", entry.Address, cerr)
		}
		if err != nil {
			return err
		}
		log.Info("%s: OK", entry.Label())
	}
	return nil
}

func (d *Deployer) runHost(ctx context.Context, dc *Context, pipeline *Pipeline, entry registry.HostEntry, client sshutil.SSHClient, log logger.Logger) error {
	if d.Lock.Enabled {
		l, err := lock.Acquire(ctx, client, d.Lock, dc.Role(), d.Command)
		if err != nil {
			return err
		}
		log.Debug("[%s] holding %s", entry.Address, l.Dir)
		defer func() {
			if err := l.Release(); err != nil {
				log.Warn("[%s] couldn't release %s: %v", entry.Address, l.Dir, err)
			}
		}()
	}

	session := remote.NewSession(client, entry.Address, log)
	session.Echo = d.Echo

	return pipeline.Run(ctx, &StepContext{
		Context: dc,
		Host:    entry,
		Runner:  session,
		Log:     log,
	})
}
