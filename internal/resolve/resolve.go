// Package resolve turns --role/--host selections into one concrete deploy
// target: a role and the host addresses to act on.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/logger"
	"github.com/commoncode/vhdeploy/internal/registry"
	"github.com/commoncode/vhdeploy/internal/util"
)

// Selection is what the operator asked for on the command line.
type Selection struct {
	Roles []string
	Hosts []string

	// SideEffectFree commands (list roles, check_clean, version) never
	// prompt and never need a target.
	SideEffectFree bool
}

// Target is a resolved role and its hosts. Hosts and Names are parallel.
type Target struct {
	Role  string
	Hosts []string
	Names []string
	VHost registry.VHost
}

// Entries pairs Hosts and Names back up.
func (t *Target) Entries() []registry.HostEntry {
	out := make([]registry.HostEntry, len(t.Hosts))
	for i := range t.Hosts {
		out[i] = registry.HostEntry{Address: t.Hosts[i], Name: t.Names[i]}
	}
	return out
}

// Prompter asks the operator to pick a role and confirm hosts.
type Prompter interface {
	ChooseRole(ctx context.Context, roles []string) (string, error)
	ConfirmHosts(ctx context.Context, role string, names []string) (bool, error)
}

// Mode is the resolution branch Decide picks.
type Mode int

const (
	// ModeSkip means no target is needed.
	ModeSkip Mode = iota
	// ModePrompt asks the operator to choose a role.
	ModePrompt
	// ModeRole uses the single role given.
	ModeRole
	// ModeHosts matches host tokens against every role.
	ModeHosts
)

func (m Mode) String() string {
	switch m {
	case ModeSkip:
		return "skip"
	case ModePrompt:
		return "prompt"
	case ModeRole:
		return "role"
	case ModeHosts:
		return "hosts"
	default:
		return "unknown"
	}
}

// Decision is the pure part of resolution: which branch to take and with
// what inputs. Warnings are for the operator, not errors.
type Decision struct {
	Mode     Mode
	Role     string
	Tokens   []string
	Warnings []string
}

// Decide picks the resolution branch without touching any host source.
func Decide(sel Selection) (Decision, error) {
	roles := normalize(sel.Roles)
	tokens := normalize(sel.Hosts)

	switch {
	case len(roles) > 1:
		return Decision{}, errors.New(errors.ErrAmbiguous,
			fmt.Sprintf("Sorry, I only operate on one role at a time (got %s)", strings.Join(roles, ", ")),
			"Pass a single --role.")

	case len(roles) == 1:
		d := Decision{Mode: ModeRole, Role: roles[0]}
		if len(tokens) > 0 {
			d.Warnings = append(d.Warnings,
				fmt.Sprintf("--role %s given, ignoring --host %s", roles[0], strings.Join(tokens, ",")))
		}
		return d, nil

	case len(tokens) > 0:
		return Decision{Mode: ModeHosts, Tokens: tokens}, nil

	case sel.SideEffectFree:
		return Decision{Mode: ModeSkip}, nil

	default:
		return Decision{Mode: ModePrompt}, nil
	}
}

// MatchHosts resolves host tokens against already materialized role host
// lists. Roles are scanned in sorted order; within a role the first entry
// whose address contains the token wins, otherwise the first whose name
// contains it (and the token becomes that entry's address). Every token must
// land in the same single role.
func MatchHosts(tokens []string, lists map[string][]registry.HostEntry) (role string, hosts, names []string, err error) {
	roleNames := make([]string, 0, len(lists))
	for r := range lists {
		roleNames = append(roleNames, r)
	}
	sort.Strings(roleNames)

	seen := make(map[string]bool)
	for _, token := range tokens {
		matched := false
		for _, r := range roleNames {
			addr, name, ok := matchInRole(token, lists[r])
			if !ok {
				continue
			}
			if role == "" {
				role = r
			} else if role != r {
				return "", nil, nil, errors.New(errors.ErrAmbiguous,
					fmt.Sprintf("Sorry, only hosts for a single role can be provided ('%s' is in %s and %s)", token, role, r),
					"Pick hosts from one role, or use --role.")
			}
			if !matched && !seen[addr] {
				hosts = append(hosts, addr)
				names = append(names, name)
				seen[addr] = true
			}
			matched = true
		}
		if !matched {
			return "", nil, nil, errors.New(errors.ErrNotFound,
				fmt.Sprintf("Sorry, only hosts from a declared role can be provided ('%s' isn't in any)", token),
				"Run 'vhdeploy list roles' to see what's declared.")
		}
	}

	return role, hosts, names, nil
}

// matchInRole returns the connect address and display name for token.
// An address match keeps the token as typed.
func matchInRole(token string, entries []registry.HostEntry) (addr, name string, ok bool) {
	for _, e := range entries {
		if strings.Contains(e.Address, token) {
			return token, e.Name, true
		}
	}
	for _, e := range entries {
		if strings.Contains(e.Name, token) {
			return e.Address, e.Name, true
		}
	}
	return "", "", false
}

// Resolver performs resolution against a registry.
type Resolver struct {
	Registry *registry.Registry
	Prompter Prompter
	Log      logger.Logger

	// AssumeYes skips the host confirmation after an interactive pick.
	AssumeYes bool
}

// Resolve is the I/O shell around Decide. It returns a nil Target for
// side-effect-free selections.
func (r *Resolver) Resolve(ctx context.Context, sel Selection) (*Target, error) {
	log := r.Log
	if log == nil {
		log = logger.Noop()
	}

	d, err := Decide(sel)
	if err != nil {
		return nil, err
	}
	for _, w := range d.Warnings {
		log.Warn("%s", w)
	}

	switch d.Mode {
	case ModeSkip:
		return nil, nil
	case ModeRole:
		log.Info("Retrieving list of hosts for role %s", d.Role)
		return r.forRole(ctx, d.Role)
	case ModeHosts:
		log.Info("Checking sanity of manual host selection")
		return r.forHosts(ctx, d.Tokens, log)
	default:
		return r.prompt(ctx)
	}
}

func (r *Resolver) prompt(ctx context.Context) (*Target, error) {
	if r.Prompter == nil {
		return nil, errors.New(errors.ErrNotFound,
			"No role or host given and there's no terminal to ask on",
			"Pass --role <name> or --host <address>.")
	}

	choice, err := r.Prompter.ChooseRole(ctx, r.Registry.Names())
	if err != nil {
		return nil, err
	}
	choice = strings.TrimSpace(choice)
	if _, ok := r.Registry.Get(choice); choice == "" || !ok {
		return nil, errors.New(errors.ErrNotFound,
			"No such group of hosts.",
			fmt.Sprintf("Choose one of: %s", strings.Join(r.Registry.Names(), ", ")))
	}

	target, err := r.forRole(ctx, choice)
	if err != nil {
		return nil, err
	}

	if r.AssumeYes {
		return target, nil
	}
	ok, err := r.Prompter.ConfirmHosts(ctx, target.Role, target.Names)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrAborted, "OK, aborting.", "")
	}
	return target, nil
}

func (r *Resolver) forRole(ctx context.Context, role string) (*Target, error) {
	v, ok := r.Registry.Get(role)
	if !ok {
		suggestion := fmt.Sprintf("Known roles: %s", util.JoinOrNone(r.Registry.Names()))
		if similar := util.SuggestSimilar(role, r.Registry.Names(), 3); len(similar) > 0 {
			suggestion = fmt.Sprintf("Did you mean: %s?", strings.Join(similar, ", "))
		}
		return nil, errors.New(errors.ErrNotFound,
			fmt.Sprintf("Role '%s' isn't declared", role),
			suggestion)
	}

	entries, err := v.Hosts.Materialize(ctx)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't retrieve the hosts for role '%s'", role),
			"Check the role's inventory command runs on its own.")
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrNotFound,
			fmt.Sprintf("Role '%s' has no hosts", role),
			"Add hosts to the role, or check its inventory output.")
	}

	return &Target{
		Role:  role,
		Hosts: registry.Addresses(entries),
		Names: registry.Names(entries),
		VHost: v,
	}, nil
}

func (r *Resolver) forHosts(ctx context.Context, tokens []string, log logger.Logger) (*Target, error) {
	lists := make(map[string][]registry.HostEntry, r.Registry.Len())
	for _, name := range r.Registry.Names() {
		v, _ := r.Registry.Get(name)
		entries, err := v.Hosts.Materialize(ctx)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Couldn't retrieve the hosts for role '%s'", name),
				"Every role is checked when --host is used. Fix the role's inventory or pass --role.")
		}
		lists[name] = entries
	}

	role, hosts, names, err := MatchHosts(tokens, lists)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(lists[role]))
	for _, e := range lists[role] {
		known[e.Address] = true
	}
	for i, h := range hosts {
		if !known[h] {
			log.Warn("'%s' only partly matches the address of %s; connecting to '%s' as typed", h, names[i], h)
		}
	}

	v, _ := r.Registry.Get(role)
	return &Target{Role: role, Hosts: hosts, Names: names, VHost: v}, nil
}

// normalize splits comma lists, trims, drops blanks and duplicates.
func normalize(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}
