package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-focused Bubbles table with the CLI's styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Nothing is focused, so the selected row must look like every other.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(columns, tableRows).View()
}

// RoleRow is one line of the role listing.
type RoleRow struct {
	Name      string
	Hosts     []string
	Dynamic   bool
	VHostPath string
	Meteor    bool
}

// RenderRoleTable lists roles with their hosts and layout.
func RenderRoleTable(rows []RoleRow) string {
	columns := []TableColumn{
		{Title: "Role", Width: 12},
		{Title: "Hosts", Width: 28},
		{Title: "Path", Width: 28},
		{Title: "Meteor", Width: 6},
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		hosts := strings.Join(r.Hosts, ", ")
		if r.Dynamic {
			hosts = "(inventory)"
		}
		meteor := "no"
		if r.Meteor {
			meteor = "yes"
		}
		cells[i] = []string{r.Name, hosts, r.VHostPath, meteor}
		for j, c := range cells[i] {
			if w := lipgloss.Width(c); w > columns[j].Width {
				columns[j].Width = w
			}
		}
	}
	return RenderSimpleTable(columns, cells)
}

// RoleSentence is the one-line listing: "I know about the following roles: a, b".
func RoleSentence(names []string) string {
	return fmt.Sprintf("I know about the following roles: %s", strings.Join(names, ", "))
}
