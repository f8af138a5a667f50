package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/dosewatch/internal/adherence"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginTop(1)

	takenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	missedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
)

// renderMonth draws a Sunday-first calendar grid. Past days carry a ✓ or ✗.
func renderMonth(view adherence.MonthView) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %d", view.Month, view.Year)))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(" Su  Mo  Tu  We  Th  Fr  Sa"))
	b.WriteString("\n")

	col := int(view.FirstWeekday)
	b.WriteString(strings.Repeat("    ", col))
	for _, d := range view.Days {
		b.WriteString(formatCell(d))
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Monthly adherence"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		takenStyle.Render(fmt.Sprintf("taken %d", view.Taken)),
		missedStyle.Render(fmt.Sprintf("missed %d", view.Missed)),
		renderRate(view.Rate)))
	return b.String()
}

func formatCell(d adherence.DayCell) string {
	cell := fmt.Sprintf("%3d", d.Day)
	if !d.Past {
		return cell + " "
	}
	switch d.Status {
	case adherence.Taken:
		return takenStyle.Render(cell + "✓")
	case adherence.Missed:
		return missedStyle.Render(cell + "✗")
	}
	return cell + " "
}

// renderRate draws the percentage with a 20-cell bar.
func renderRate(rate int) string {
	filled := rate / 5
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
	return fmt.Sprintf("%s %d%%", takenStyle.Render(bar), rate)
}

// renderFollowUp lists today's doses with their status.
func renderFollowUp(view adherence.FollowUpView) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Today's follow-up " + view.Date))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		takenStyle.Render(fmt.Sprintf("taken %d", view.Taken)),
		missedStyle.Render(fmt.Sprintf("missed %d", view.Missed)),
		pendingStyle.Render(fmt.Sprintf("pending %d", view.Pending))))

	if len(view.Items) == 0 {
		b.WriteString(labelStyle.Render("  No medicines scheduled."))
		b.WriteString("\n")
		return b.String()
	}
	for _, it := range view.Items {
		b.WriteString(fmt.Sprintf("  %s  %-24s %s  %s\n",
			it.Time, truncate(it.Name, 24), labelStyle.Render(it.Dosage), formatDoseStatus(it.Status)))
	}
	return b.String()
}

func formatDoseStatus(s adherence.Status) string {
	switch s {
	case adherence.Taken:
		return takenStyle.Render("● taken")
	case adherence.Missed:
		return missedStyle.Render("● missed")
	case adherence.Pending:
		return pendingStyle.Render("● pending")
	}
	return string(s)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
