// Package tui provides the interactive terminal UI for dosewatch.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/dosewatch/internal/adherence"
	"github.com/fentz26/dosewatch/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#3F72AF")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

const (
	modeToday         = "today"
	modeNotifications = "notifications"
	modeCalendar      = "calendar"
)

var modes = []string{modeToday, modeNotifications, modeCalendar}

// PollInterval is how often the UI refreshes from the daemon.
const PollInterval = 2 * time.Second

// App is the main TUI application model.
type App struct {
	client        *Client
	cmdbar        *CmdBarModel
	notifications *NotificationListModel
	width         int
	height        int
	mode          string
	snoozeLabel   string

	reminder     models.ReminderState
	today        adherence.FollowUpView
	snoozes      []models.SnoozedReminder
	month        adherence.MonthView
	monthCursor  time.Time
	message      string
	daemonOnline bool
}

// New creates a new TUI application. snooze is shown on the remind-later
// button.
func New(apiAddr string, snooze time.Duration) *App {
	if snooze <= 0 {
		snooze = 10 * time.Minute
	}
	now := time.Now()
	return &App{
		client:        NewClient(apiAddr),
		cmdbar:        NewCmdBarModel(),
		notifications: NewNotificationListModel(),
		mode:          modeToday,
		snoozeLabel:   fmt.Sprintf("%d min", int(snooze.Minutes())),
		monthCursor:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.checkDaemon(),
		a.refresh(),
		a.loadMonth(),
		a.tickCmd(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.notifications.SetSize(msg.Width, max(5, msg.Height-8))

	case snapshotMsg:
		a.daemonOnline = true
		a.reminder = msg.reminder
		a.today = msg.today
		a.snoozes = msg.snoozes
		a.notifications.SetFeed(msg.feed)

	case monthLoadedMsg:
		a.month = msg.view
		a.monthCursor = time.Date(msg.view.Year, msg.view.Month, 1, 0, 0, 0, 0, time.UTC)
		if msg.show {
			a.mode = modeCalendar
		}

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case tickMsg:
		return a, tea.Batch(a.refresh(), a.tickCmd())

	case commandResultMsg:
		a.message = msg.message
		return a, a.refresh()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.cmdbar.Focused() {
		if msg.String() == "enter" {
			return a, a.cmdbar.Execute(a.client, a.cmdbar.Submit())
		}
		return a, a.cmdbar.Update(msg)
	}

	// The reminder dialog is modal.
	if a.reminder.Open {
		switch msg.String() {
		case "t":
			return a, a.act("Marked as taken", func() error { _, err := a.client.Taken(); return err })
		case "l":
			return a, a.act("Reminder snoozed for "+a.snoozeLabel, func() error { _, err := a.client.RemindLater(); return err })
		case "d":
			return a, a.act("Reminder dismissed", func() error { _, err := a.client.Dismiss(); return err })
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case ":":
		return a, a.cmdbar.Focus()
	case "tab":
		a.mode = nextMode(a.mode)
	case "h":
		a.mode = modeToday
	case "n":
		a.mode = modeNotifications
	case "c":
		a.mode = modeCalendar
	case "r":
		return a, tea.Batch(a.refresh(), a.loadMonth())
	}

	switch a.mode {
	case modeNotifications:
		return a, a.handleNotificationKey(msg)
	case modeCalendar:
		switch msg.String() {
		case "left", "[":
			a.monthCursor = a.monthCursor.AddDate(0, -1, 0)
			return a, a.loadMonth()
		case "right", "]":
			a.monthCursor = a.monthCursor.AddDate(0, 1, 0)
			return a, a.loadMonth()
		}
	}
	return a, nil
}

func (a *App) handleNotificationKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		a.notifications.CursorUp()
	case "down", "j":
		a.notifications.CursorDown()
	case "enter", "x":
		n := a.notifications.Selected()
		if n == nil || n.MedicineID == "" {
			return nil
		}
		id, med := n.ID, n.MedicineID
		return a.act("Marked as taken", func() error { _, err := a.client.NotificationTaken(id, med); return err })
	case "z":
		n := a.notifications.Selected()
		if n == nil || n.MedicineID == "" {
			return nil
		}
		id, med := n.ID, n.MedicineID
		return a.act("Snoozed for "+a.snoozeLabel, func() error { _, err := a.client.NotificationSnooze(id, med); return err })
	case "m":
		n := a.notifications.Selected()
		if n == nil {
			return nil
		}
		id := n.ID
		return a.act("Marked as read", func() error { return a.client.MarkRead(id) })
	}
	return nil
}

func nextMode(mode string) string {
	for i, m := range modes {
		if m == mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return modeToday
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}

	header := titleStyle.Render("💊 dosewatch")
	header += "  " + daemonStatus
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[%d unread]", a.notifications.Unread()))
	if len(a.snoozes) > 0 {
		header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("[%d snoozed]", len(a.snoozes)))
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	if dialog := renderReminder(a.reminder, a.snoozeLabel); dialog != "" {
		b.WriteString(lipgloss.Place(max(a.width, 40), max(a.height-6, 12), lipgloss.Center, lipgloss.Center, dialog))
		b.WriteString("\n")
	} else {
		switch a.mode {
		case modeToday:
			b.WriteString(renderFollowUp(a.today))
		case modeNotifications:
			b.WriteString(a.notifications.View())
		case modeCalendar:
			if len(a.month.Days) == 0 {
				b.WriteString("\n  Loading calendar...\n")
			} else {
				b.WriteString(renderMonth(a.month))
			}
		}
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	}
	b.WriteString("\n")
	b.WriteString(a.cmdbar.View())
	b.WriteString("\n")

	var status string
	switch {
	case a.reminder.Open:
		status = " t:taken | l:remind later | d:dismiss | Ctrl+C:quit"
	case a.mode == modeNotifications:
		status = " ↑↓:nav | Enter:taken | z:snooze | m:read | Tab:next view | q:quit"
	case a.mode == modeCalendar:
		status = " ←→:month | Tab:next view | r:refresh | q:quit"
	default:
		status = " Tab:next view | n:notifications | c:calendar | ::command | q:quit"
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))

	return b.String()
}

func (a *App) act(success string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{success}
	}
}

func (a *App) refresh() tea.Cmd {
	return func() tea.Msg {
		st, err := a.client.Reminder()
		if err != nil {
			return daemonStatusMsg{false}
		}
		feed, err := a.client.Notifications()
		if err != nil {
			return errMsg{err}
		}
		today, err := a.client.Today()
		if err != nil {
			return errMsg{err}
		}
		snoozes, err := a.client.Snoozes()
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{reminder: st, feed: feed, today: today, snoozes: snoozes}
	}
}

func (a *App) loadMonth() tea.Cmd {
	month := a.monthCursor.Format("2006-01")
	return func() tea.Msg {
		view, err := a.client.Month(month)
		if err != nil {
			return errMsg{err}
		}
		return monthLoadedMsg{view: view}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ok, _ := a.client.CheckHealth()
		return daemonStatusMsg{ok}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
