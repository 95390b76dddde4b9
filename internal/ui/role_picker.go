package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/commoncode/vhdeploy/internal/errors"
)

// RoleInfo is what the picker shows for one role.
type RoleInfo struct {
	Name      string
	VHostPath string
	Hosts     []string // known hosts; empty for inventory-backed roles
	Dynamic   bool
}

// roleItem implements list.Item for the Bubbles list component.
type roleItem struct {
	role RoleInfo
}

func (i roleItem) Title() string {
	return i.role.Name
}

func (i roleItem) Description() string {
	var parts []string

	switch {
	case i.role.Dynamic:
		parts = append(parts, "inventory")
	case len(i.role.Hosts) == 1:
		parts = append(parts, i.role.Hosts[0])
	case len(i.role.Hosts) > 1:
		parts = append(parts, fmt.Sprintf("%s (+%d)", i.role.Hosts[0], len(i.role.Hosts)-1))
	}

	if i.role.VHostPath != "" {
		parts = append(parts, i.role.VHostPath)
	}

	return strings.Join(parts, " | ")
}

func (i roleItem) FilterValue() string {
	values := []string{i.role.Name}
	values = append(values, i.role.Hosts...)
	return strings.Join(values, " ")
}

// RolePickerModel is a Bubble Tea model for choosing a role.
type RolePickerModel struct {
	list     list.Model
	roles    []RoleInfo
	selected *RoleInfo
	quitting bool
	width    int
	height   int
}

type rolePickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var rolePickerKeys = rolePickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewRolePickerModel creates a picker over roles, in the order given.
func NewRolePickerModel(roles []RoleInfo) RolePickerModel {
	items := make([]list.Item, len(roles))
	for i, r := range roles {
		items[i] = roleItem{role: r}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Choose host group"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	return RolePickerModel{
		list:   l,
		roles:  roles,
		width:  80,
		height: 15,
	}
}

// Init implements tea.Model.
func (m RolePickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m RolePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// While filtering, keys belong to the filter input.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, rolePickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(roleItem); ok {
				m.selected = &item.role
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, rolePickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m RolePickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen role, or nil if cancelled.
func (m RolePickerModel) Selected() *RoleInfo {
	return m.selected
}

// PickRole shows the picker on the terminal. It returns nil if the operator
// cancels.
func PickRole(ctx context.Context, roles []RoleInfo) (*RoleInfo, error) {
	return PickRoleWithOutput(ctx, roles, os.Stdout, os.Stdin)
}

// PickRoleWithOutput shows the picker using custom I/O.
func PickRoleWithOutput(ctx context.Context, roles []RoleInfo, output io.Writer, input io.Reader) (*RoleInfo, error) {
	if len(roles) == 0 {
		return nil, errors.New(errors.ErrConfig, "No roles to pick from", "Declare roles under 'vhosts:' in your roles file.")
	}

	p := tea.NewProgram(
		NewRolePickerModel(roles),
		tea.WithContext(ctx),
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAborted, "Role picker closed", "Use --role to choose the role directly.")
	}

	if m, ok := finalModel.(RolePickerModel); ok {
		return m.Selected(), nil
	}
	return nil, nil
}
