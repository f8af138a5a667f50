package tui

import (
	"time"

	"github.com/fentz26/dosewatch/internal/adherence"
	"github.com/fentz26/dosewatch/internal/models"
)

// snapshotMsg carries one poll of the daemon.
type snapshotMsg struct {
	reminder models.ReminderState
	feed     NotificationFeed
	today    adherence.FollowUpView
	snoozes  []models.SnoozedReminder
}

type monthLoadedMsg struct {
	view adherence.MonthView
	show bool
}

type daemonStatusMsg struct {
	online bool
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tickMsg time.Time
