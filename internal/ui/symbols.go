package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Step completed
	SymbolFail     = "✗" // Step failed
	SymbolPending  = "○" // Not started, or an attempt in flight
	SymbolProgress = "◐" // Step running
	SymbolSkipped  = "⊘" // Step had nothing to do
)
