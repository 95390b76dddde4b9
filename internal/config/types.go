package config

import "time"

// Defaults for conforming puppet-managed vhost instances.
const (
	DefaultVHostRoot = "/home/vhosts/"
	DefaultRepoName  = "repo.git" // bare repo pushed to with send-pack
	DefaultWorktree  = "code"
	DefaultRunDir    = "rundir"
	DefaultMeteor    = true
	DefaultOwner     = "www-data:staff"
	DefaultLockDir   = "/tmp"
)

// Config represents a complete roles file.
type Config struct {
	// VHosts maps role names to their deployment target definitions.
	VHosts map[string]VHostConfig `yaml:"vhosts" mapstructure:"vhosts"`

	// RepoPath is the local checkout that gets deployed. Defaults to the
	// git toplevel of the current directory.
	RepoPath string `yaml:"repo_path" mapstructure:"repo_path"`

	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	SSH    SSHConfig    `yaml:"ssh" mapstructure:"ssh"`
	Lock   LockConfig   `yaml:"lock" mapstructure:"lock"`
}

// VHostConfig is one role as written in the roles file. Every field is
// optional; missing values are filled in by the registry.
type VHostConfig struct {
	// Hosts is a fixed list. Items are either address strings or maps with
	// "address" and "name" keys.
	Hosts []interface{} `yaml:"hosts" mapstructure:"hosts"`

	// Inventory is a local shell command that prints the host list as a
	// YAML or JSON sequence. Mutually exclusive with Hosts.
	Inventory string `yaml:"inventory" mapstructure:"inventory"`

	VHostPath string `yaml:"vhostpath" mapstructure:"vhostpath"`
	RepoName  string `yaml:"reponame" mapstructure:"reponame"`
	Worktree  string `yaml:"worktree" mapstructure:"worktree"`
	RunDir    string `yaml:"rundir" mapstructure:"rundir"`
	Owner     string `yaml:"owner" mapstructure:"owner"`

	// Meteor gates the supervisor service steps. Nil means DefaultMeteor.
	Meteor *bool `yaml:"meteor" mapstructure:"meteor"`
}

// NotifyConfig points at the chat server used for deploy announcements.
// An empty URL disables notifications.
type NotifyConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Room    string        `yaml:"room" mapstructure:"room"`
	Token   string        `yaml:"token" mapstructure:"token"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SSHConfig controls connections to deployment hosts.
type SSHConfig struct {
	Timeout               time.Duration `yaml:"timeout" mapstructure:"timeout"`
	StrictHostKeyChecking bool          `yaml:"strict_host_key_checking" mapstructure:"strict_host_key_checking"`
}

// LockConfig controls the per-vhost deploy lock taken on each host.
type LockConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // how long to wait for a held lock
	Stale   time.Duration `yaml:"stale" mapstructure:"stale"`     // locks older than this are removed
	Dir     string        `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		VHosts: make(map[string]VHostConfig),
		Notify: NotifyConfig{
			Timeout: 5 * time.Second,
		},
		SSH: SSHConfig{
			Timeout:               10 * time.Second,
			StrictHostKeyChecking: true,
		},
		Lock: LockConfig{
			Timeout: time.Minute,
			Stale:   time.Hour,
			Dir:     DefaultLockDir,
		},
	}
}
