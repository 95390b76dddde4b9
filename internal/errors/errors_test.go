package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrSSH,
		ErrExec,
		ErrAmbiguous,
		ErrNotFound,
		ErrAborted,
		ErrDirty,
		ErrUnpushed,
		ErrRemoteStep,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "ambiguous selection",
			code:       ErrAmbiguous,
			message:    "Sorry, only hosts for a single role can be provided",
			suggestion: "Pass hosts from one role, or use --role",
		},
		{
			name:       "dirty tree",
			code:       ErrDirty,
			message:    "Resolve your unstaged changes before deploying!",
			suggestion: "Commit or stash them",
		},
		{
			name:       "remote step",
			code:       ErrRemoteStep,
			message:    "pull failed on 10.0.0.1",
			suggestion: "Inspect the host and re-run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
	}{
		{
			name:          "message and suggestion",
			err:           New(ErrConfig, "Invalid roles file", "Check roles.yaml syntax"),
			expectedParts: []string{"✗", "Invalid roles file", "Check roles.yaml syntax"},
		},
		{
			name:          "message with cause",
			err:           WrapWithCode(errors.New("exit status 128"), ErrRemoteStep, "git fetch failed", ""),
			expectedParts: []string{"git fetch failed", "exit status 128"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
		})
	}
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("connection refused"),
		ErrSSH,
		"Can't reach 10.0.0.1",
		"Check the host is up",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "✗"))
	assert.Contains(t, lines[0], "Can't reach 10.0.0.1")
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying network error")
	wrapped := Wrap(cause, "SSH connection failed")

	assert.Equal(t, ErrSSH, wrapped.Code, "Wrap should default to ErrSSH code")
	assert.Equal(t, cause, wrapped.Cause)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestIsCode(t *testing.T) {
	err := New(ErrNotFound, "No such group of hosts.", "")

	assert.True(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(err, ErrAmbiguous))
	assert.False(t, IsCode(errors.New("standard error"), ErrNotFound))
	assert.False(t, IsCode(nil, ErrNotFound))

	// Through fmt wrapping
	assert.True(t, IsCode(fmt.Errorf("resolving: %w", err), ErrNotFound))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrUnpushed, CodeOf(New(ErrUnpushed, "push first", "")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}
