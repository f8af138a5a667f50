package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/dosewatch/internal/models"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	typeMedication = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // Blue
	typeGeneral    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // Cyan
	typeEmergency  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	unreadMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
)

// NotificationItem implements list.Item for the notification center.
type NotificationItem struct {
	N models.Notification
}

func (i NotificationItem) FilterValue() string { return i.N.Title + " " + i.N.Message }
func (i NotificationItem) Title() string {
	if !i.N.Read {
		return unreadMark.Render("● ") + i.N.Title
	}
	return "  " + i.N.Title
}
func (i NotificationItem) Description() string {
	return fmt.Sprintf("%s • %s • %s", formatType(i.N.Type), i.N.CreatedAt.Local().Format("Jan 2 15:04"), i.N.Message)
}

func formatType(t models.NotificationType) string {
	switch t {
	case models.NotificationMedication:
		return typeMedication.Render("medication")
	case models.NotificationEmergency:
		return typeEmergency.Render("emergency")
	default:
		return typeGeneral.Render(string(t))
	}
}

// NotificationListModel manages the notification center screen.
type NotificationListModel struct {
	list   list.Model
	unread int
}

// NewNotificationListModel creates an empty notification list.
func NewNotificationListModel() *NotificationListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = listTitleStyle

	return &NotificationListModel{list: l}
}

// SetSize sets the list dimensions.
func (m *NotificationListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// SetFeed replaces the items, keeping the cursor where possible.
func (m *NotificationListModel) SetFeed(feed NotificationFeed) {
	items := make([]list.Item, len(feed.Notifications))
	for i, n := range feed.Notifications {
		items[i] = NotificationItem{n}
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	m.unread = feed.Unread
	m.list.Title = fmt.Sprintf("Notifications [%d unread]", feed.Unread)
}

// Selected returns the highlighted notification.
func (m *NotificationListModel) Selected() *models.Notification {
	if item := m.list.SelectedItem(); item != nil {
		n := item.(NotificationItem).N
		return &n
	}
	return nil
}

// Unread returns the unread count from the last feed.
func (m *NotificationListModel) Unread() int {
	return m.unread
}

// CursorUp moves the selection up.
func (m *NotificationListModel) CursorUp() { m.list.CursorUp() }

// CursorDown moves the selection down.
func (m *NotificationListModel) CursorDown() { m.list.CursorDown() }

// View renders the list.
func (m *NotificationListModel) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No notifications yet.\n"
	}
	return m.list.View()
}
