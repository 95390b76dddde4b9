// Package cli wires vhdeploy's cobra commands to role resolution, the local
// preflight checks and the per-host deploy pipeline.
package cli
