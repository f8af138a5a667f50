// Package alert defines how emergency alerts reach a user's contacts.
package alert

import (
	"context"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
)

// Alert is an emergency alert addressed to a set of contacts.
type Alert struct {
	Message  string           `json:"message"`
	Contacts []models.Contact `json:"contacts"`
	SentAt   time.Time        `json:"sent_at"`
}

// Result holds the outcome of a dispatch.
type Result struct {
	Alerter  string   `json:"alerter"`
	Notified int      `json:"notified"`
	Skipped  []string `json:"skipped,omitempty"` // contact ids the alerter could not address
}

// Alerter defines the interface for dispatching emergency alerts.
type Alerter interface {
	// Name returns the alerter identifier.
	Name() string

	// Send dispatches the alert and reports how many contacts were reached.
	Send(ctx context.Context, a Alert) (*Result, error)

	// Accepts reports whether the alerter can address the contact.
	Accepts(c models.Contact) bool
}
