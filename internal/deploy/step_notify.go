package deploy

import (
	"context"

	"github.com/commoncode/vhdeploy/internal/notify"
)

// NotifyStep announces the deploy. It never fails.
type NotifyStep struct {
	Done bool
}

func (s *NotifyStep) Name() string {
	if s.Done {
		return "announce finish"
	}
	return "announce start"
}

func (s *NotifyStep) Run(ctx context.Context, sc *StepContext) error {
	rev := sc.Revision()
	msg := notify.Deploying(sc.User(), rev.Refspec, rev.Summary, sc.Role())
	if s.Done {
		msg = notify.Deployed(sc.User(), rev.Refspec, rev.Summary, sc.Role())
	}
	sc.Notifier().Announce(ctx, msg)
	return nil
}
