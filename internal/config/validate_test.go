package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "valid fixed hosts",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"staging": {Hosts: []interface{}{"10.0.0.1"}},
			}},
		},
		{
			name: "valid inventory",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"prod": {Inventory: "./hosts.sh"},
			}},
		},
		{
			name: "valid host map",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"prod": {Hosts: []interface{}{map[string]interface{}{"address": "10.0.0.2", "name": "web-1"}}},
			}},
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "nil",
		},
		{
			name: "hosts and inventory",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"prod": {Hosts: []interface{}{"a"}, Inventory: "./hosts.sh"},
			}},
			wantErr: "both 'hosts' and 'inventory'",
		},
		{
			name: "no hosts",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"prod": {},
			}},
			wantErr: "no hosts",
		},
		{
			name: "map host without address",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"prod": {Hosts: []interface{}{map[string]interface{}{"name": "web-1"}}},
			}},
			wantErr: "missing an address",
		},
		{
			name: "bad host type",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"prod": {Hosts: []interface{}{42}},
			}},
			wantErr: "string or an {address, name} map",
		},
		{
			name: "name with space",
			cfg: &Config{VHosts: map[string]VHostConfig{
				"my prod": {Hosts: []interface{}{"a"}},
			}},
			wantErr: "whitespace",
		},
		{
			name: "notify without room",
			cfg: &Config{
				VHosts: map[string]VHostConfig{"s": {Hosts: []interface{}{"a"}}},
				Notify: NotifyConfig{URL: "wss://chat.example.com"},
			},
			wantErr: "notify.room",
		},
		{
			name: "notify bad scheme",
			cfg: &Config{
				VHosts: map[string]VHostConfig{"s": {Hosts: []interface{}{"a"}}},
				Notify: NotifyConfig{URL: "ftp://chat.example.com", Room: "r"},
			},
			wantErr: "scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVHostNames(t *testing.T) {
	cfg := &Config{VHosts: map[string]VHostConfig{
		"prod":    {},
		"staging": {},
		"dev":     {},
	}}
	assert.Equal(t, []string{"dev", "prod", "staging"}, VHostNames(cfg))
}

func TestValidateLock(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.VHosts["staging"] = VHostConfig{Hosts: []interface{}{"10.0.0.1"}}
		return cfg
	}

	cfg := base()
	require.NoError(t, Validate(cfg))

	cfg = base()
	cfg.Lock.Timeout = -1
	assert.ErrorContains(t, Validate(cfg), "can't be negative")

	cfg = base()
	cfg.Lock.Dir = "locks"
	assert.ErrorContains(t, Validate(cfg), "absolute path")
}
