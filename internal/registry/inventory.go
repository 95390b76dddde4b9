package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/exec"
	"gopkg.in/yaml.v3"
)

// InventoryProducer returns a Producer that runs a local shell command and
// parses its stdout as a host list. The command runs in workDir (the
// directory holding the roles file) so relative script paths work.
//
// Accepted output is a YAML or JSON sequence whose items are either plain
// address strings or {address, name} maps:
//
//	- address: 10.0.0.5
//	  name: K3-App-1
//	- 10.0.0.6
func InventoryProducer(command, workDir string) Producer {
	return func(ctx context.Context) ([]HostEntry, error) {
		stdout, stderr, exitCode, err := exec.ExecuteLocalCapture(ctx, command, workDir)
		if err != nil {
			return nil, err
		}
		if exitCode != 0 {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Inventory command '%s' exited with code %d", command, exitCode),
				strings.TrimSpace(string(stderr)))
		}

		entries, err := ParseInventory(stdout)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Couldn't parse the output of '%s'", command),
				"The inventory command must print a YAML or JSON list of {address, name} items.")
		}
		return entries, nil
	}
}

// ParseInventory decodes inventory command output.
func ParseInventory(data []byte) ([]HostEntry, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var raw []interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return ParseHostList(raw)
}

// ParseHostList normalizes a loosely typed host list (from the roles file or
// inventory output) into HostEntry values.
func ParseHostList(raw []interface{}) ([]HostEntry, error) {
	entries := make([]HostEntry, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			addr := strings.TrimSpace(v)
			if addr == "" {
				return nil, fmt.Errorf("host #%d is blank", i+1)
			}
			entries = append(entries, HostEntry{Address: addr, Name: addr})
		case map[string]interface{}:
			entry, err := entryFromMap(v)
			if err != nil {
				return nil, fmt.Errorf("host #%d: %w", i+1, err)
			}
			entries = append(entries, entry)
		case map[interface{}]interface{}:
			m := make(map[string]interface{}, len(v))
			for k, val := range v {
				m[fmt.Sprint(k)] = val
			}
			entry, err := entryFromMap(m)
			if err != nil {
				return nil, fmt.Errorf("host #%d: %w", i+1, err)
			}
			entries = append(entries, entry)
		default:
			return nil, fmt.Errorf("host #%d should be a string or an {address, name} map, got %T", i+1, item)
		}
	}
	return entries, nil
}

func entryFromMap(m map[string]interface{}) (HostEntry, error) {
	addr := strings.TrimSpace(fmt.Sprint(valueOr(m["address"], "")))
	if addr == "" {
		return HostEntry{}, fmt.Errorf("missing address")
	}
	name := strings.TrimSpace(fmt.Sprint(valueOr(m["name"], "")))
	if name == "" {
		name = addr
	}
	return HostEntry{Address: addr, Name: name}, nil
}

func valueOr(v interface{}, def interface{}) interface{} {
	if v == nil {
		return def
	}
	return v
}
