// Package reminder implements the reminder scheduling and adherence-tracking
// engine: which doses are due, which reminders are pending, snoozed or
// dismissed, and how unacknowledged doses are backfilled as missed.
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fentz26/dosewatch/internal/alert"
	"github.com/fentz26/dosewatch/internal/audit"
	"github.com/fentz26/dosewatch/internal/clock"
	"github.com/fentz26/dosewatch/internal/models"
)

// Default engine timings.
const (
	DefaultSnooze    = 10 * time.Minute
	DefaultCatchUp   = 2 * time.Hour
	DefaultFeedLimit = 100

	// maxBackfillDays bounds rollover backfill after a long suspension.
	maxBackfillDays = 31
)

// Ledger stores adherence outcomes, unique per (date, medicine).
type Ledger interface {
	UpsertAdherence(ctx context.Context, rec models.AdherenceRecord) error
	InsertAdherenceIfAbsent(ctx context.Context, rec models.AdherenceRecord) (bool, error)
	GetAdherence(ctx context.Context, date, medicineID string) (*models.AdherenceRecord, error)
	HasAdherence(ctx context.Context, date, medicineID string) (bool, error)
	ListAdherence(ctx context.Context, from, to string) ([]models.AdherenceRecord, error)
}

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Clock     clock.Clock
	Location  *time.Location
	SnoozeFor time.Duration
	CatchUp   time.Duration
	FeedLimit int
	Journal   *audit.Journal
	Alerter   alert.Alerter
	Logger    *slog.Logger
}

// Session owns all reminder state for one user. It is safe for concurrent
// use; every check and response runs to completion under one lock.
type Session struct {
	ledger    Ledger
	clock     clock.Clock
	loc       *time.Location
	snoozeFor time.Duration
	catchUp   time.Duration
	feedLimit int
	journal   *audit.Journal
	alerter   alert.Alerter
	logger    *slog.Logger

	mu              sync.Mutex
	medicines       []models.Medicine
	contacts        []models.Contact
	active          models.ReminderState
	snoozes         *SnoozeRegistry
	dismissed       *DismissRegistry
	pending         []models.ReminderID
	feed            []models.Notification
	lastTick        time.Time
	lastCheckedDate string
}

// NewSession creates a session with an empty schedule. lastCheckedDate starts
// at today, so the first rollover check only acts after a date change.
func NewSession(ledger Ledger, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SnoozeFor <= 0 {
		opts.SnoozeFor = DefaultSnooze
	}
	if opts.CatchUp <= 0 {
		opts.CatchUp = DefaultCatchUp
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = DefaultFeedLimit
	}
	if opts.Alerter == nil {
		opts.Alerter = alert.NewLogAlerter(opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		ledger:    ledger,
		clock:     opts.Clock,
		loc:       opts.Location,
		snoozeFor: opts.SnoozeFor,
		catchUp:   opts.CatchUp,
		feedLimit: opts.FeedLimit,
		journal:   opts.Journal,
		alerter:   opts.Alerter,
		logger:    opts.Logger,
		snoozes:   NewSnoozeRegistry(),
		dismissed: NewDismissRegistry(),
	}
	s.lastCheckedDate = s.now().Format(models.DateLayout)
	return s
}

func (s *Session) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Now returns the session's current time in its location.
func (s *Session) Now() time.Time {
	return s.now()
}

// Location returns the time zone dates and dose times are evaluated in.
func (s *Session) Location() *time.Location {
	return s.loc
}

// --- Schedule and contacts ---

// SetMedicines replaces the whole schedule. Pending doses, snoozes and an open
// reminder that refer to removed medicines or times are dropped.
func (s *Session) SetMedicines(ctx context.Context, meds []models.Medicine) ([]models.Medicine, error) {
	normalized, err := NormalizeMedicines(meds)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.medicines = normalized

	kept := s.pending[:0]
	for _, id := range s.pending {
		if m, ok := findMedicine(normalized, id.MedicineID); ok && hasTime(m, id.Time) {
			kept = append(kept, id)
		}
	}
	s.pending = kept

	s.snoozes.removeWhere(func(sn models.SnoozedReminder) bool {
		_, ok := findMedicine(normalized, sn.MedicineID)
		return !ok
	})

	if s.active.Open && s.active.Medicine != nil {
		if m, ok := findMedicine(normalized, s.active.Medicine.ID); ok {
			s.active.Medicine = &m
		} else {
			s.logger.Info("reminder closed", "reminder_id", s.active.Label, "reason", "medicine removed")
			s.closeActive()
		}
	}

	s.record(ctx, "schedule.save", map[string]interface{}{"count": len(normalized)}, "success", "", "")
	s.logger.Info("schedule saved", "medicines", len(normalized))
	return copyMedicines(normalized), nil
}

// Medicines returns a copy of the schedule in insertion order.
func (s *Session) Medicines() []models.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMedicines(s.medicines)
}

// SetContacts replaces the emergency contact list.
func (s *Session) SetContacts(ctx context.Context, contacts []models.Contact) ([]models.Contact, error) {
	normalized, err := NormalizeContacts(contacts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = normalized
	s.record(ctx, "contacts.save", map[string]interface{}{"count": len(normalized)}, "success", "", "")
	s.logger.Info("contacts saved", "contacts", len(normalized))
	return append([]models.Contact{}, normalized...), nil
}

// Contacts returns a copy of the emergency contacts.
func (s *Session) Contacts() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Contact{}, s.contacts...)
}

// --- Read-only views ---

// State returns the current reminder presentation.
func (s *Session) State() models.ReminderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.active
	if st.Medicine != nil {
		m := copyMedicines([]models.Medicine{*st.Medicine})[0]
		st.Medicine = &m
	}
	return st
}

// Snoozes returns the snoozed reminders.
func (s *Session) Snoozes() []models.SnoozedReminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snoozes.List()
}

// Dismissed returns today's dismissed reminder ids.
func (s *Session) Dismissed() []models.ReminderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dismissed.List()
}

// Pending returns due doses waiting for the presentation slot, oldest first.
func (s *Session) Pending() []models.ReminderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ReminderID(nil), s.pending...)
}

// LastCheckedDate returns the date the rollover checker last settled on.
func (s *Session) LastCheckedDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheckedDate
}

// Adherence returns ledger records with from <= date <= to.
func (s *Session) Adherence(ctx context.Context, from, to string) ([]models.AdherenceRecord, error) {
	return s.ledger.ListAdherence(ctx, from, to)
}

// --- internals; callers hold s.mu ---

func (s *Session) open(id models.ReminderID, m models.Medicine, displayTime string) {
	s.active = models.ReminderState{
		Open:     true,
		Medicine: &m,
		Time:     displayTime,
		ID:       id,
		Label:    id.String(),
	}
}

func (s *Session) closeActive() {
	s.active = models.ReminderState{}
}

func (s *Session) record(ctx context.Context, action string, inputs interface{}, outcome, medicineID, details string) {
	if _, err := s.journal.Record(ctx, action, inputs, outcome, medicineID, details); err != nil {
		s.logger.Warn("failed to journal decision", "action", action, "error", err)
	}
}
