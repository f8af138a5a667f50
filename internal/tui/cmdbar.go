package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/dosewatch/internal/adherence"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// CmdBarModel manages the command input bar.
type CmdBarModel struct {
	input   textinput.Model
	focused bool
}

// NewCmdBarModel creates a new command bar.
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.Placeholder = "sos [message] | month YYYY-MM | readall"
	ti.CharLimit = 256
	return &CmdBarModel{
		input: ti,
	}
}

// Focused reports whether the bar has keyboard focus.
func (m *CmdBarModel) Focused() bool {
	return m.focused
}

// Focus focuses the command bar.
func (m *CmdBarModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur unfocuses the command bar.
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
}

// Submit returns the current input and blurs.
func (m *CmdBarModel) Submit() string {
	val := m.input.Value()
	m.Blur()
	return val
}

// Update handles messages while focused.
func (m *CmdBarModel) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the command bar.
func (m *CmdBarModel) View() string {
	if m.focused {
		prompt := promptStyle.Render(": ")
		return cmdBarStyle.Render(prompt + m.input.View())
	}
	return cmdBarStyle.Render("Press : to enter a command (sos, month, readall)")
}

// Execute processes a command.
func (m *CmdBarModel) Execute(client *Client, input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	return func() tea.Msg {
		switch cmd {
		case "sos":
			res, err := client.SOS(strings.Join(args, " "))
			if err != nil {
				return errMsg{err}
			}
			return commandResultMsg{fmt.Sprintf("Emergency alert sent to %d contacts", res.Result.Notified)}

		case "month":
			if len(args) != 1 {
				return commandResultMsg{"Usage: month YYYY-MM"}
			}
			if _, _, err := adherence.ParseMonth(args[0]); err != nil {
				return errMsg{err}
			}
			view, err := client.Month(args[0])
			if err != nil {
				return errMsg{err}
			}
			return monthLoadedMsg{view: view, show: true}

		case "readall":
			n, err := client.MarkAllRead()
			if err != nil {
				return errMsg{err}
			}
			return commandResultMsg{fmt.Sprintf("Marked %d notifications read", n)}
		}
		return commandResultMsg{fmt.Sprintf("Unknown command: %s", cmd)}
	}
}
