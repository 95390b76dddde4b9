package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/spf13/viper"
)

const (
	// RolesEnv names the roles collection to load.
	RolesEnv = "HOST_ROLES"
	// DefaultRolesName is used when HOST_ROLES is unset.
	DefaultRolesName = "roles"
	// GlobalConfigDir is searched last, relative to the home directory.
	GlobalConfigDir = ".config/vhdeploy"
)

// SupportedExtensions lists the roles file formats viper can read for us,
// in lookup order.
var SupportedExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// RolesName returns the roles collection name from HOST_ROLES.
func RolesName() string {
	if name := strings.TrimSpace(os.Getenv(RolesEnv)); name != "" {
		return name
	}
	return DefaultRolesName
}

// Load reads a roles file from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Roles file not found",
				"Set HOST_ROLES to the name of your roles file, or pass --roles-file")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read the roles file",
			"Check "+path+" exists and is valid YAML, TOML or JSON")
	}

	return parseConfig(v, path)
}

// Find locates the roles file using the search order:
//  1. Explicit path (from --roles-file)
//  2. <name>.{yaml,yml,toml,json} in the current directory
//  3. The same in parent directories (stops at git root or home)
//  4. ~/.config/vhdeploy/<name>.{yaml,yml,toml,json}
//
// A name that already looks like a path (has a separator or a known
// extension) is checked as-is. Returns an error if nothing is found.
func Find(explicit, name string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified roles file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access roles file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	if name == "" {
		name = DefaultRolesName
	}

	if looksLikePath(name) {
		path := ExpandTilde(name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", errors.New(errors.ErrConfig,
			"Couldn't import your project roles from "+name,
			"Check the HOST_ROLES path is correct")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	if path := findIn(cwd, name); path != "" {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		if isGitRoot(dir) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		if path := findIn(dir, name); path != "" {
			return path, nil
		}
	}

	if home != "" {
		if path := findIn(filepath.Join(home, GlobalConfigDir), name); path != "" {
			return path, nil
		}
	}

	return "", errors.New(errors.ErrConfig,
		"Couldn't import your project roles!",
		"Create "+name+".yaml next to your project, or point HOST_ROLES at one")
}

// LoadRoles resolves and loads the roles file in one step.
func LoadRoles(explicit string) (*Config, string, error) {
	path, err := Find(explicit, RolesName())
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetDefault("notify.timeout", "5s")
	v.SetDefault("ssh.timeout", "10s")
	v.SetDefault("ssh.strict_host_key_checking", true)
	v.SetDefault("lock.timeout", "1m")
	v.SetDefault("lock.stale", "1h")
	v.SetDefault("lock.dir", DefaultLockDir)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid roles file format",
			"Check the syntax in "+path)
	}

	if cfg.VHosts == nil {
		cfg.VHosts = make(map[string]VHostConfig)
	}

	if cfg.RepoPath != "" {
		cfg.RepoPath = ExpandTilde(cfg.RepoPath)
		if !filepath.IsAbs(cfg.RepoPath) {
			cfg.RepoPath = filepath.Join(filepath.Dir(path), cfg.RepoPath)
		}
	}

	return cfg, nil
}

func findIn(dir, name string) string {
	for _, ext := range SupportedExtensions {
		candidate := filepath.Join(dir, name+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func looksLikePath(name string) bool {
	if strings.ContainsRune(name, filepath.Separator) || strings.HasPrefix(name, "~") {
		return true
	}
	ext := filepath.Ext(name)
	for _, known := range SupportedExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
