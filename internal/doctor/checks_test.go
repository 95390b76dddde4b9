package doctor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCheck struct {
	name   string
	result CheckResult
	calls  int
}

func (m *mockCheck) Name() string     { return m.name }
func (m *mockCheck) Category() string { return "TEST" }
func (m *mockCheck) Run(context.Context) CheckResult {
	m.calls++
	return m.result
}

func TestCheckStatus_String(t *testing.T) {
	assert.Equal(t, "pass", StatusPass.String())
	assert.Equal(t, "warn", StatusWarn.String())
	assert.Equal(t, "fail", StatusFail.String())
	assert.Equal(t, "unknown", CheckStatus(99).String())
}

func TestRunAll(t *testing.T) {
	a := &mockCheck{name: "a", result: CheckResult{Status: StatusPass, Message: "OK"}}
	b := &mockCheck{name: "b", result: CheckResult{Name: "custom", Status: StatusFail}}

	results := RunAll(context.Background(), []Check{a, b})
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, "TEST", results[0].Category)
	assert.Equal(t, "custom", results[1].Name)
	assert.True(t, HasFailures(results))
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &mockCheck{name: "a"}

	assert.Empty(t, RunAll(ctx, []Check{a}))
	assert.Zero(t, a.calls)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Everything looks good", Summary([]CheckResult{{Status: StatusPass}}))
	assert.Equal(t, "1 issue found", Summary([]CheckResult{{Status: StatusWarn}, {Status: StatusPass}}))
	assert.Equal(t, "2 issues found", Summary([]CheckResult{{Status: StatusWarn}, {Status: StatusFail}}))
	assert.False(t, HasFailures([]CheckResult{{Status: StatusWarn}}))
}
