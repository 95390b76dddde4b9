package deploy

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/ui"
)

// Pipeline runs an ordered list of steps against one host.
type Pipeline struct {
	steps   []Step
	display *ui.PhaseDisplay
}

// NewPipeline renders step progress to w. A nil w discards it.
func NewPipeline(w io.Writer, steps ...Step) *Pipeline {
	if w == nil {
		w = io.Discard
	}
	return &Pipeline{steps: steps, display: ui.NewPhaseDisplay(w)}
}

// AddStep appends s.
func (p *Pipeline) AddStep(s Step) {
	p.steps = append(p.steps, s)
}

// Steps returns the step names in run order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run executes every step against sc's host. Nothing is retried and nothing
// is rolled back.
func (p *Pipeline) Run(ctx context.Context, sc *StepContext) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			return errors.WrapWithCode(ctx.Err(), errors.ErrAborted,
				fmt.Sprintf("Deployment to %s interrupted before %s", sc.Host.Address, step.Name()),
				"Nothing was rolled back. Re-run the command to finish.")
		default:
		}

		if s, ok := step.(Skipper); ok {
			if skip, reason := s.Skip(sc); skip {
				sc.Log.Debug("[%s] skipping %s: %s", sc.Host.Address, step.Name(), reason)
				p.display.RenderSkipped(step.Name(), reason)
				continue
			}
		}

		sc.Log.Debug("[%s] step: %s", sc.Host.Address, step.Name())
		p.display.RenderProgress(step.Name())
		start := time.Now()

		if err := step.Run(ctx, sc); err != nil {
			p.display.RenderFailed(step.Name(), time.Since(start), err)
			sc.Log.Error("[%s] step %s failed: %v", sc.Host.Address, step.Name(), err)
			return stepFailure(step.Name(), err)
		}
		p.display.RenderSuccess(step.Name(), time.Since(start))
	}
	return nil
}

// stepFailure keeps structured errors intact so their code and suggestion
// reach the operator.
func stepFailure(name string, err error) error {
	if errors.CodeOf(err) != "" {
		return err
	}
	return errors.WrapWithCode(err, errors.ErrRemoteStep,
		fmt.Sprintf("step %s failed", name),
		"Nothing was rolled back. Fix the problem and re-run the command.")
}
