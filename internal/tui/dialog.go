package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/dosewatch/internal/models"
)

var (
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#F59E0B")).
			Padding(1, 3)

	dialogTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#F59E0B"))

	medicineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			MarginRight(2).
			Bold(true)
)

// renderReminder draws the modal reminder dialog with its three actions.
func renderReminder(st models.ReminderState, snoozeLabel string) string {
	if !st.Open || st.Medicine == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render("⏰ Medication Reminder"))
	b.WriteString("\n\n")
	b.WriteString(medicineStyle.Render(st.Medicine.Name))
	if st.Medicine.Dosage != "" {
		b.WriteString("  " + labelStyle.Render(st.Medicine.Dosage))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Scheduled for %s", st.Time)))
	b.WriteString("\n\n")

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		buttonStyle.Background(lipgloss.Color("#10B981")).Render("[t] Taken"),
		buttonStyle.Background(lipgloss.Color("#6366F1")).Render("[l] Remind in "+snoozeLabel),
		buttonStyle.Background(lipgloss.Color("#EF4444")).Render("[d] Dismiss"),
	)
	b.WriteString(buttons)

	return dialogStyle.Render(b.String())
}
