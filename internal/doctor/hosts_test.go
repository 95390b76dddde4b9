package doctor

import (
	"context"
	"testing"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/host"
	"github.com/commoncode/vhdeploy/internal/registry"
	sshtesting "github.com/commoncode/vhdeploy/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostChecks(t *testing.T) {
	dialer := sshtesting.NewMockDialer()
	dialer.FailDial("10.0.0.2", errors.WrapWithCode(
		&host.ProbeError{Address: "10.0.0.2", Reason: host.ProbeFailAuth},
		errors.ErrSSH, "Couldn't connect to 10.0.0.2", ""))

	checks := NewHostChecks([]registry.HostEntry{
		{Address: "10.0.0.1", Name: "web-1"},
		{Address: "10.0.0.2", Name: "web-2"},
	}, dialer)
	require.Len(t, checks, 2)
	assert.Equal(t, "host_10.0.0.1", checks[0].Name())

	results := RunAll(context.Background(), checks)
	require.Len(t, results, 2)

	assert.Equal(t, StatusPass, results[0].Status)
	assert.Contains(t, results[0].Message, "web-1 (10.0.0.1)")
	assert.True(t, dialer.Client("10.0.0.1").Closed())

	assert.Equal(t, StatusFail, results[1].Status)
	assert.Equal(t, "web-2 (10.0.0.2): Couldn't connect to 10.0.0.2", results[1].Message)
	assert.Equal(t, "Check SSH key configuration: ssh-add -l", results[1].Suggestion)
	assert.Equal(t, "HOSTS", results[1].Category)
}
