package ui

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/commoncode/vhdeploy/internal/errors"
)

// TerminalPrompter asks the operator on the terminal: a list picker for the
// role, then a yes/no over the host list.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	// Describe fills in picker details for a role name. Optional.
	Describe func(name string) RoleInfo
}

// NewTerminalPrompter prompts on stdin/stdout.
func NewTerminalPrompter(describe func(string) RoleInfo) *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout, Describe: describe}
}

// ChooseRole returns the picked role name, or "" if the operator cancelled.
func (p *TerminalPrompter) ChooseRole(ctx context.Context, roles []string) (string, error) {
	infos := make([]RoleInfo, len(roles))
	for i, name := range roles {
		if p.Describe != nil {
			infos[i] = p.Describe(name)
		}
		infos[i].Name = name
	}

	picked, err := PickRoleWithOutput(ctx, infos, p.Out, p.In)
	if err != nil || picked == nil {
		return "", err
	}
	return picked.Name, nil
}

// ConfirmHosts shows the hosts about to be touched and asks to go ahead.
func (p *TerminalPrompter) ConfirmHosts(ctx context.Context, role string, names []string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(ConfirmTitle(role, names)).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithInput(p.In).WithOutput(p.Out)

	if err := form.RunWithContext(ctx); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, errors.WrapWithCode(err, errors.ErrAborted, "Confirmation prompt closed", "")
	}
	return ok, nil
}

// ConfirmTitle is the question shown before acting on a role's hosts.
func ConfirmTitle(role string, names []string) string {
	return fmt.Sprintf("Acting on the following %s hosts:\n%s\nOK?", role, strings.Join(names, "\n"))
}
