package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeProbeError(t *testing.T) {
	tests := []struct {
		msg  string
		want ProbeFailReason
	}{
		{"i/o timeout", ProbeFailTimeout},
		{"dial tcp: timeout", ProbeFailTimeout},
		{"connection refused", ProbeFailRefused},
		{"no route to host", ProbeFailUnreachable},
		{"network is unreachable", ProbeFailUnreachable},
		{"host is down", ProbeFailUnreachable},
		{"ssh: unable to authenticate", ProbeFailAuth},
		{"no supported methods remain", ProbeFailAuth},
		{"permission denied (publickey)", ProbeFailAuth},
		{"No SSH auth methods available", ProbeFailAuth},
		{"knownhosts: host key mismatch", ProbeFailHostKey},
		{"something odd", ProbeFailUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := categorizeProbeError("10.0.0.1", errors.New(tt.msg))
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Reason)
		})
	}
}

func TestCategorizeProbeError_Nil(t *testing.T) {
	assert.Nil(t, categorizeProbeError("10.0.0.1", nil))
}

func TestProbeError(t *testing.T) {
	cause := errors.New("connection refused")
	err := categorizeProbeError("10.0.0.1", cause)

	assert.Equal(t, "connecting to 10.0.0.1 failed: connection refused (connection refused)", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := &ProbeError{Address: "10.0.0.2", Reason: ProbeFailTimeout}
	assert.Equal(t, "connecting to 10.0.0.2 failed: connection timed out", bare.Error())
}

func TestProbeFailReason_String(t *testing.T) {
	assert.Equal(t, "authentication failed", ProbeFailAuth.String())
	assert.Equal(t, "host key verification failed", ProbeFailHostKey.String())
	assert.Equal(t, "unknown error", ProbeFailUnknown.String())
}
