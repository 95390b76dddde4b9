package deploy

import "context"

// KickPuppyStep restarts the puppet agent so it re-applies the host's
// manifests.
type KickPuppyStep struct{}

func (s *KickPuppyStep) Name() string { return "restart puppet" }

func (s *KickPuppyStep) Run(ctx context.Context, sc *StepContext) error {
	_, err := sc.Runner.Sudo(ctx, "", "/usr/sbin/service puppet restart")
	return err
}
