package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"bare tilde", "~", home},
		{"tilde path", "~/deploy/roles.yaml", filepath.Join(home, "deploy/roles.yaml")},
		{"absolute", "/etc/vhdeploy/roles.yaml", "/etc/vhdeploy/roles.yaml"},
		{"relative", "roles.yaml", "roles.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}

func TestExpandRemote(t *testing.T) {
	t.Setenv("USER", "deployer")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"vhost", "/home/vhosts/${VHOST}", "/home/vhosts/staging"},
		{"home becomes tilde", "${HOME}/vhosts/${VHOST}", "~/vhosts/staging"},
		{"user", "/srv/${USER}/app", "/srv/deployer/app"},
		{"plain", "/opt/app", "/opt/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandRemote(tt.input, "staging"))
		})
	}
}

func TestCurrentUser(t *testing.T) {
	t.Setenv("USER", "alice")
	assert.Equal(t, "alice", CurrentUser())

	t.Setenv("USER", "")
	t.Setenv("LOGNAME", "bob")
	assert.Equal(t, "bob", CurrentUser())
}
