package deploy

import (
	"context"
	"fmt"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/util"
)

// Supervisor verbs accepted by ServiceStep.
const (
	VerbStart   = "start"
	VerbStop    = "stop"
	VerbRestart = "restart"
)

// ServiceStep drives the vhost's supervisor program. Vhosts that don't run
// meteor have no program and the step is skipped.
type ServiceStep struct {
	Verb string
}

// NewServiceStep validates verb.
func NewServiceStep(verb string) (*ServiceStep, error) {
	switch verb {
	case VerbStart, VerbStop, VerbRestart:
		return &ServiceStep{Verb: verb}, nil
	}
	return nil, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown service action '%s'", verb),
		"Use start, stop or restart.")
}

func (s *ServiceStep) Name() string { return s.Verb + " services" }

func (s *ServiceStep) Skip(sc *StepContext) (bool, string) {
	if !sc.VHost().Meteor {
		return true, "meteor disabled"
	}
	return false, ""
}

func (s *ServiceStep) Run(ctx context.Context, sc *StepContext) error {
	v := sc.VHost()
	sc.Log.Info("%s %s", progressive[s.Verb], sc.Host.Label())
	_, err := sc.Runner.Run(ctx, v.VHostPath, "supervisorctl "+s.Verb+" "+util.ShellArg(v.ServiceName()))
	return err
}

var progressive = map[string]string{
	VerbStart:   "Starting",
	VerbStop:    "Stopping",
	VerbRestart: "Restarting",
}
