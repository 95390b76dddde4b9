package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/commoncode/vhdeploy/internal/errors"
	"github.com/commoncode/vhdeploy/internal/registry"
	"github.com/commoncode/vhdeploy/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for list roles.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatTOML  = "toml"
	FormatJSON  = "json"
)

var listFormat string

// listCmd groups listing subcommands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List what the roles file declares",
}

// listRolesCmd prints the declared roles without contacting any host.
var listRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles defined in the roles file",
	Long: `List the declared roles. Inventory-backed roles are not expanded, so
this never runs an inventory command or touches the network.

Examples:
  vhdeploy list roles
  vhdeploy list roles --format yaml`,
	Annotations: map[string]string{sideEffectFree: ""},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRoles(cmd.OutOrStdout(), listFormat)
	},
}

// listRolesAlias keeps the one-word spelling.
var listRolesAlias = &cobra.Command{
	Use:         "listroles",
	Short:       "Same as 'list roles'",
	Hidden:      true,
	Annotations: map[string]string{sideEffectFree: ""},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRoles(cmd.OutOrStdout(), listFormat)
	},
}

func init() {
	for _, c := range []*cobra.Command{listRolesCmd, listRolesAlias} {
		c.Flags().StringVar(&listFormat, "format", FormatText, "output format: text, table, yaml, toml or json")
	}
	listCmd.AddCommand(listRolesCmd)
	rootCmd.AddCommand(listCmd, listRolesAlias)
}

// RoleListing is the machine-readable shape of list roles.
type RoleListing struct {
	Roles []RoleEntry `json:"roles" yaml:"roles" toml:"roles"`
}

// RoleEntry describes one role.
type RoleEntry struct {
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Hosts     []string `json:"hosts,omitempty" yaml:"hosts,omitempty" toml:"hosts,omitempty"`
	Inventory bool     `json:"inventory" yaml:"inventory" toml:"inventory"`
	VHostPath string   `json:"vhostpath" yaml:"vhostpath" toml:"vhostpath"`
	Service   string   `json:"service,omitempty" yaml:"service,omitempty" toml:"service,omitempty"`
}

func listRoles(w io.Writer, format string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	return writeRoles(w, format, buildListing(a.registry))
}

func buildListing(reg *registry.Registry) RoleListing {
	describe := describeRole(reg)
	var listing RoleListing
	for _, name := range reg.Names() {
		v, _ := reg.Get(name)
		info := describe(name)
		entry := RoleEntry{
			Name:      name,
			Hosts:     info.Hosts,
			Inventory: info.Dynamic,
			VHostPath: v.VHostPath,
		}
		if v.Meteor {
			entry.Service = v.ServiceName()
		}
		listing.Roles = append(listing.Roles, entry)
	}
	sort.Slice(listing.Roles, func(i, j int) bool { return listing.Roles[i].Name < listing.Roles[j].Name })
	return listing
}

func writeRoles(w io.Writer, format string, listing RoleListing) error {
	switch format {
	case FormatText, "":
		names := make([]string, len(listing.Roles))
		for i, r := range listing.Roles {
			names[i] = r.Name
		}
		_, err := fmt.Fprintln(w, ui.RoleSentence(names))
		return err

	case FormatTable:
		rows := make([]ui.RoleRow, len(listing.Roles))
		for i, r := range listing.Roles {
			rows[i] = ui.RoleRow{Name: r.Name, Hosts: r.Hosts, Dynamic: r.Inventory, VHostPath: r.VHostPath, Meteor: r.Service != ""}
		}
		_, err := fmt.Fprintln(w, ui.RenderRoleTable(rows))
		return err

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(listing); err != nil {
			return err
		}
		return enc.Close()

	case FormatTOML:
		return toml.NewEncoder(w).Encode(listing)

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)

	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format '%s'", format),
			"Use text, table, yaml, toml or json.")
	}
}
