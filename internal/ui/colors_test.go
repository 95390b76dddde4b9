package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestColorConstants(t *testing.T) {
	colors := []lipgloss.Color{
		ColorSuccess,
		ColorError,
		ColorWarning,
		ColorInfo,
		ColorPrimary,
		ColorSecondary,
		ColorMuted,
	}
	for _, c := range colors {
		assert.NotEmpty(t, string(c))
	}
}

func TestDisableColors(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	lipgloss.SetColorProfile(termenv.ANSI)
	styled := lipgloss.NewStyle().Foreground(ColorError).Render("boom")
	assert.NotEqual(t, "boom", styled)

	DisableColors()
	assert.Equal(t, "boom", lipgloss.NewStyle().Foreground(ColorError).Render("boom"))
}
