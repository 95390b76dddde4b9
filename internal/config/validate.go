package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
)

// Validate checks the roles file for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Roles config is nil",
			"This is unexpected - try reloading the roles file.")
	}

	for _, name := range VHostNames(cfg) {
		if err := validateVHost(name, cfg.VHosts[name]); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
				fmt.Sprintf("Check the '%s' entry under 'vhosts' in your roles file.", name))
		}
	}

	if err := validateNotify(cfg.Notify); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'notify' section in your roles file.")
	}

	if cfg.SSH.Timeout < 0 {
		return errors.New(errors.ErrConfig,
			"ssh.timeout can't be negative",
			"Use a duration like 10s.")
	}

	if cfg.Lock.Timeout < 0 || cfg.Lock.Stale < 0 {
		return errors.New(errors.ErrConfig,
			"lock.timeout and lock.stale can't be negative",
			"Use durations like 1m and 1h.")
	}
	if cfg.Lock.Dir != "" && !strings.HasPrefix(cfg.Lock.Dir, "/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("lock.dir '%s' must be an absolute path on the hosts", cfg.Lock.Dir),
			"Use something like /tmp or /var/lock.")
	}

	return nil
}

// VHostNames returns the configured role names in sorted order.
func VHostNames(cfg *Config) []string {
	names := make([]string, 0, len(cfg.VHosts))
	for name := range cfg.VHosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateVHost(name string, v VHostConfig) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("vhost names can't be blank")
	}
	if strings.ContainsAny(name, " \t/") {
		return fmt.Errorf("vhost '%s' has whitespace or a slash in its name", name)
	}

	if len(v.Hosts) > 0 && v.Inventory != "" {
		return fmt.Errorf("vhost '%s' sets both 'hosts' and 'inventory'; pick one", name)
	}
	if len(v.Hosts) == 0 && strings.TrimSpace(v.Inventory) == "" {
		return fmt.Errorf("vhost '%s' has no hosts and no inventory command", name)
	}

	for i, h := range v.Hosts {
		switch item := h.(type) {
		case string:
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("vhost '%s' host #%d is blank", name, i+1)
			}
		case map[string]interface{}:
			if addr, _ := item["address"].(string); strings.TrimSpace(addr) == "" {
				return fmt.Errorf("vhost '%s' host #%d is missing an address", name, i+1)
			}
		default:
			return fmt.Errorf("vhost '%s' host #%d should be a string or an {address, name} map", name, i+1)
		}
	}

	return nil
}

func validateNotify(n NotifyConfig) error {
	if n.URL == "" {
		return nil
	}

	u, err := url.Parse(n.URL)
	if err != nil {
		return fmt.Errorf("notify.url '%s' isn't a valid URL", n.URL)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("notify.url scheme must be ws, wss, http or https (got '%s')", u.Scheme)
	}

	if strings.TrimSpace(n.Room) == "" {
		return fmt.Errorf("notify.room is required when notify.url is set")
	}

	return nil
}
