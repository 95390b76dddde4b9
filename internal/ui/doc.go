// Package ui renders vhdeploy's terminal output and interactive prompts.
//
// Output goes through Lip Gloss styles built from a small ANSI palette so it
// degrades cleanly on basic terminals. DisableColors switches everything to
// plain text for --no-color.
//
//	PhaseDisplay      - one line per pipeline step with ✓/✗ and timing
//	RolePicker        - Bubble Tea list for choosing a role
//	TerminalPrompter  - role picker plus a Huh confirmation of the host list
//	Spinner           - status line for local work such as preflight
package ui
