// Package models defines the core domain types for dosewatch.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used by the ledger and reminder ids.
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format of a scheduled dose.
const TimeLayout = "15:04"

// AdherenceStatus is the recorded outcome of a dose.
type AdherenceStatus string

const (
	StatusTaken  AdherenceStatus = "taken"
	StatusMissed AdherenceStatus = "missed"
)

// Valid reports whether the status is one the ledger accepts.
func (s AdherenceStatus) Valid() bool {
	return s == StatusTaken || s == StatusMissed
}

// Medicine is one entry of the schedule.
type Medicine struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Dosage    string   `json:"dosage" yaml:"dosage"`
	Times     []string `json:"times" yaml:"times"` // "HH:MM", ascending
	Frequency string   `json:"frequency" yaml:"frequency"`
}

// Contact is an emergency contact.
type Contact struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Phone    string `json:"phone" yaml:"phone"`
	Relation string `json:"relation" yaml:"relation"`
}

// AdherenceRecord is one ledger entry. At most one exists per (Date, MedicineID).
type AdherenceRecord struct {
	Date       string          `json:"date"`
	MedicineID string          `json:"medicine_id"`
	Status     AdherenceStatus `json:"status"`
	DoseTime   string          `json:"dose_time,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ReminderSource tells where a reminder was raised from.
type ReminderSource string

const (
	SourceClock        ReminderSource = "clock"
	SourceNotification ReminderSource = "notification"
)

// ReminderID identifies a reminder. Clock reminders are keyed by
// (Date, MedicineID, Time); notification reminders by NotificationID.
// It is comparable and used directly as a map key.
type ReminderID struct {
	Source         ReminderSource `json:"source"`
	Date           string         `json:"date,omitempty"`
	MedicineID     string         `json:"medicine_id,omitempty"`
	Time           string         `json:"time,omitempty"`
	NotificationID string         `json:"notification_id,omitempty"`
}

// DoseReminderID builds the id of a clock-raised reminder.
func DoseReminderID(date, medicineID, doseTime string) ReminderID {
	return ReminderID{Source: SourceClock, Date: date, MedicineID: medicineID, Time: doseTime}
}

// NotificationReminderID builds the id of a reminder raised from the notification center.
func NotificationReminderID(notificationID string) ReminderID {
	return ReminderID{Source: SourceNotification, NotificationID: notificationID}
}

// IsZero reports whether the id is unset.
func (id ReminderID) IsZero() bool {
	return id == ReminderID{}
}

// String renders the display form: "date-medicineId-time" or "notification-<id>".
func (id ReminderID) String() string {
	switch id.Source {
	case SourceNotification:
		return "notification-" + id.NotificationID
	case SourceClock:
		return fmt.Sprintf("%s-%s-%s", id.Date, id.MedicineID, id.Time)
	default:
		return ""
	}
}

// ReminderState is the single reminder presented to the user.
type ReminderState struct {
	Open     bool       `json:"open"`
	Medicine *Medicine  `json:"medicine,omitempty"`
	Time     string     `json:"time,omitempty"`
	ID       ReminderID `json:"id"`
	Label    string     `json:"reminder_id,omitempty"`
}

// SnoozedReminder is a reminder deferred until Until.
type SnoozedReminder struct {
	ID         ReminderID `json:"id"`
	Label      string     `json:"reminder_id"`
	MedicineID string     `json:"medicine_id"`
	Time       string     `json:"time,omitempty"`
	Until      time.Time  `json:"snooze_until"`
}

// NotificationType classifies feed entries.
type NotificationType string

const (
	NotificationMedication NotificationType = "medication"
	NotificationGeneral    NotificationType = "general"
	NotificationEmergency  NotificationType = "emergency"
)

// Notification is an entry of the notification-center feed.
type Notification struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	CreatedAt    time.Time        `json:"created_at"`
	Read         bool             `json:"read"`
	Type         NotificationType `json:"type"`
	MedicineID   string           `json:"medicine_id,omitempty"`
	MedicineTime string           `json:"medicine_time,omitempty"`
}

// Decision is a journal entry written for every state-mutating action.
type Decision struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	MedicineID string    `json:"medicine_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
