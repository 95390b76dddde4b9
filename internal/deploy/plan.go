package deploy

// DeploySteps is the full deploy: ownership is normalized around every
// stage that writes files so the web server can always read them.
func DeploySteps() []Step {
	return []Step{
		&ChownStep{},
		&NotifyStep{},
		&PullStep{},
		&ChownStep{},
		&BundleStep{},
		&ChownStep{},
		&ServiceStep{Verb: VerbRestart},
		&NotifyStep{Done: true},
	}
}

// PullSteps fetches and checks out the revision without rebuilding.
func PullSteps() []Step {
	return []Step{&PullStep{}}
}

// CheckoutTagSteps checks out tag into the worktree.
func CheckoutTagSteps(tag string) []Step {
	return []Step{&CheckoutTagStep{Tag: tag}}
}

// ServiceSteps runs one supervisor verb.
func ServiceSteps(verb string) ([]Step, error) {
	s, err := NewServiceStep(verb)
	if err != nil {
		return nil, err
	}
	return []Step{s}, nil
}

// ChownSteps only normalizes ownership.
func ChownSteps() []Step {
	return []Step{&ChownStep{}}
}

// KickPuppySteps restarts puppet.
func KickPuppySteps() []Step {
	return []Step{&KickPuppyStep{}}
}
