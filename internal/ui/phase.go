package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DividerWidth is the default width for divider lines.
const DividerWidth = 64

// PhaseDisplay renders one status line per phase, overwriting the in-progress
// line when the phase finishes.
type PhaseDisplay struct {
	w io.Writer
}

// NewPhaseDisplay creates a new phase display writing to w.
func NewPhaseDisplay(w io.Writer) *PhaseDisplay {
	return &PhaseDisplay{w: w}
}

// RenderProgress renders a phase in progress.
// Shows: ◐ pull...
func (pd *PhaseDisplay) RenderProgress(name string) {
	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	fmt.Fprintf(pd.w, "\r%s %s...", style.Render(SymbolProgress), name)
}

// RenderSuccess renders a completed phase.
// Shows: ✓ pull (0.3s)
func (pd *PhaseDisplay) RenderSuccess(name string, duration time.Duration) {
	pd.clearLine()
	fmt.Fprintln(pd.w, FormatPhase(SymbolSuccess, ColorSuccess, name, formatDuration(duration)))
}

// RenderFailed renders a failed phase. The error itself is reported by the
// caller; only its first line is shown here.
// Shows: ✗ bundle (2.3s) Command failed on 10.0.0.1: mrt bundle ...
func (pd *PhaseDisplay) RenderFailed(name string, duration time.Duration, err error) {
	pd.clearLine()
	line := FormatPhase(SymbolFail, ColorError, name, formatDuration(duration))
	if err != nil {
		msg := strings.TrimSpace(strings.TrimPrefix(firstLine(err.Error()), SymbolFail))
		line += " " + lipgloss.NewStyle().Foreground(ColorError).Render(msg)
	}
	fmt.Fprintln(pd.w, line)
}

// RenderSkipped renders a skipped phase.
// Shows: ⊘ restart services (meteor disabled)
func (pd *PhaseDisplay) RenderSkipped(name string, reason string) {
	pd.clearLine()
	line := FormatPhase(SymbolSkipped, ColorWarning, name, "")
	if reason != "" {
		line += " " + lipgloss.NewStyle().Foreground(ColorMuted).Render("("+reason+")")
	}
	fmt.Fprintln(pd.w, line)
}

// RenderSubStatus renders an indented detail line, such as a connection
// attempt.
// Shows:   ○ 10.0.0.1 connecting
func (pd *PhaseDisplay) RenderSubStatus(symbol string, name string, status string) {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	fmt.Fprintf(pd.w, "  %s %s %s\n", style.Render(symbol), name, style.Render(status))
}

// Divider renders a horizontal line between hosts.
func (pd *PhaseDisplay) Divider() {
	fmt.Fprintf(pd.w, "%s\n", FormatDivider(DividerWidth))
}

// clearLine erases in-progress output.
func (pd *PhaseDisplay) clearLine() {
	fmt.Fprint(pd.w, "\r"+strings.Repeat(" ", 80)+"\r")
}

// FormatPhase returns a formatted phase line as a string.
func FormatPhase(symbol string, symbolColor lipgloss.Color, name string, timing string) string {
	symbolStyle := lipgloss.NewStyle().Foreground(symbolColor)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	if timing == "" {
		return fmt.Sprintf("%s %s", symbolStyle.Render(symbol), name)
	}
	return fmt.Sprintf("%s %s %s", symbolStyle.Render(symbol), name, timingStyle.Render("("+timing+")"))
}

// FormatDivider returns a divider line as a string.
func FormatDivider(width int) string {
	style := lipgloss.NewStyle().Foreground(ColorMuted)
	return style.Render(strings.Repeat("━", width))
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
