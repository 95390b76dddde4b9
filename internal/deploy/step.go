package deploy

import "context"

// Step is one unit of remote work. Steps run in order; the first error
// stops the pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, sc *StepContext) error
}

// Skipper is implemented by steps that may have nothing to do for a vhost.
type Skipper interface {
	Skip(sc *StepContext) (bool, string)
}
