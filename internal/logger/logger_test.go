package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		verbose   bool
		expectLog bool
	}{
		{
			name:      "logs when VHDEPLOY_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when verbose is on",
			verbose:   true,
			expectLog: true,
		},
		{
			name:      "silent by default",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			t.Setenv(DebugEnv, tt.envValue)
			SetVerbose(tt.verbose)
			defer SetVerbose(false)

			l := NewEnvLogger("[test]")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	buf := captureLog(t)

	l := NewEnvLogger("[pipe]")
	l.Info("info %d", 1)
	l.Warn("careful")
	l.Error("broken")

	out := buf.String()
	assert.Contains(t, out, "[pipe] info 1")
	assert.Contains(t, out, "[pipe] WARN: careful")
	assert.Contains(t, out, "[pipe] ERROR: broken")
}

func TestNoop(t *testing.T) {
	buf := captureLog(t)

	l := Noop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")

	assert.Empty(t, buf.String())
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()
	l.Info("deploying %s", "staging")
	l.Warn("chat unavailable")

	assert.Len(t, l.Messages, 2)
	assert.Equal(t, "deploying staging", l.Messages[0].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("error"))

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	b := NewBufferLogger()
	SetDefault(b)
	Default().Info("hello")

	assert.Len(t, b.Messages, 1)
}
