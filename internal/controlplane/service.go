// Package controlplane provides the HTTP API and service layer for dosewatch.
package controlplane

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/dosewatch/internal/adherence"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/fentz26/dosewatch/internal/reminder"
	"github.com/fentz26/dosewatch/internal/scheduler"
	"github.com/fentz26/dosewatch/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Service provides the control plane business logic over one session.
type Service struct {
	session   *reminder.Session
	store     *store.Store
	scheduler *scheduler.Scheduler
}

// NewService creates a new control plane service. sch may be nil.
func NewService(sess *reminder.Session, st *store.Store, sch *scheduler.Scheduler) *Service {
	return &Service{
		session:   sess,
		store:     st,
		scheduler: sch,
	}
}

// --- Schedule ---

// Medicines returns the schedule.
func (s *Service) Medicines() []models.Medicine {
	return s.session.Medicines()
}

// SaveMedicines replaces the schedule.
func (s *Service) SaveMedicines(ctx context.Context, meds []models.Medicine) ([]models.Medicine, error) {
	return s.session.SetMedicines(ctx, meds)
}

// Contacts returns the emergency contacts.
func (s *Service) Contacts() []models.Contact {
	return s.session.Contacts()
}

// SaveContacts replaces the emergency contacts.
func (s *Service) SaveContacts(ctx context.Context, contacts []models.Contact) ([]models.Contact, error) {
	return s.session.SetContacts(ctx, contacts)
}

// --- Reminder presentation ---

// Reminder returns the current presentation state.
func (s *Service) Reminder() models.ReminderState {
	return s.session.State()
}

// Taken acknowledges the open reminder.
func (s *Service) Taken(ctx context.Context) (models.AdherenceRecord, error) {
	return s.session.Taken(ctx)
}

// Snooze defers the open reminder.
func (s *Service) Snooze(ctx context.Context) (models.SnoozedReminder, error) {
	return s.session.RemindLater(ctx)
}

// Dismiss declines the open reminder.
func (s *Service) Dismiss(ctx context.Context) (models.AdherenceRecord, error) {
	return s.session.Dismiss(ctx)
}

// Snoozes returns snoozed reminders.
func (s *Service) Snoozes() []models.SnoozedReminder {
	return s.session.Snoozes()
}

// Dismissed returns the display form of today's dismissed reminders.
func (s *Service) Dismissed() []string {
	ids := s.session.Dismissed()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// --- Notification center ---

// NotificationFeed is the notification list with its unread count.
type NotificationFeed struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// Notifications returns the feed.
func (s *Service) Notifications() NotificationFeed {
	feed := s.session.Notifications()
	if feed == nil {
		feed = []models.Notification{}
	}
	return NotificationFeed{Notifications: feed, Unread: s.session.UnreadCount()}
}

// NotificationTaken marks a notification's medicine taken. An empty
// medicineID falls back to the medicine the notification refers to.
func (s *Service) NotificationTaken(ctx context.Context, notificationID, medicineID string) (models.AdherenceRecord, error) {
	medicineID, err := s.resolveMedicine(notificationID, medicineID)
	if err != nil {
		return models.AdherenceRecord{}, err
	}
	return s.session.NotificationTaken(ctx, notificationID, medicineID)
}

// NotificationSnooze defers a notification's medicine.
func (s *Service) NotificationSnooze(ctx context.Context, notificationID, medicineID string) (models.SnoozedReminder, error) {
	medicineID, err := s.resolveMedicine(notificationID, medicineID)
	if err != nil {
		return models.SnoozedReminder{}, err
	}
	return s.session.NotificationSnooze(ctx, notificationID, medicineID)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(notificationID string) error {
	return s.session.MarkRead(notificationID)
}

// MarkAllRead marks the whole feed read.
func (s *Service) MarkAllRead() int {
	return s.session.MarkAllRead()
}

func (s *Service) resolveMedicine(notificationID, medicineID string) (string, error) {
	if medicineID != "" {
		return medicineID, nil
	}
	for _, n := range s.session.Notifications() {
		if n.ID != notificationID {
			continue
		}
		if n.MedicineID == "" {
			return "", fmt.Errorf("%w: notification %s has no medicine", ErrInvalidRequest, notificationID)
		}
		return n.MedicineID, nil
	}
	return "", reminder.ErrNotificationNotFound
}

// --- Adherence ---

// Adherence returns raw ledger records in [from, to]. Empty bounds are open.
func (s *Service) Adherence(ctx context.Context, from, to string) ([]models.AdherenceRecord, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return nil, fmt.Errorf("%w: date %q", ErrInvalidRequest, d)
		}
	}
	recs, err := s.session.Adherence(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.AdherenceRecord{}
	}
	return recs, nil
}

// Month returns the calendar and rate for "YYYY-MM"; empty means this month.
func (s *Service) Month(ctx context.Context, month string) (adherence.MonthView, error) {
	now := s.session.Now()
	year, mon := now.Year(), now.Month()
	if month != "" {
		var err error
		year, mon, err = adherence.ParseMonth(month)
		if err != nil {
			return adherence.MonthView{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	from, to := adherence.MonthBounds(year, mon)
	recs, err := s.session.Adherence(ctx, from, to)
	if err != nil {
		return adherence.MonthView{}, err
	}
	return adherence.Month(recs, year, mon, now.Format(models.DateLayout)), nil
}

// Today returns the follow-up view for the current day.
func (s *Service) Today(ctx context.Context) (adherence.FollowUpView, error) {
	now := s.session.Now()
	today := now.Format(models.DateLayout)
	recs, err := s.session.Adherence(ctx, today, today)
	if err != nil {
		return adherence.FollowUpView{}, err
	}
	return adherence.FollowUp(s.session.Medicines(), recs, now), nil
}

// --- Emergency, diagnostics ---

// SOS alerts the emergency contacts.
func (s *Service) SOS(ctx context.Context, message string) (*reminder.SOSResult, error) {
	return s.session.SendSOS(ctx, message)
}

// SchedulerStats returns the job table, or nil without a scheduler.
func (s *Service) SchedulerStats() []scheduler.JobStats {
	if s.scheduler == nil {
		return []scheduler.JobStats{}
	}
	return s.scheduler.Stats()
}

// Decisions returns the newest journal entries.
func (s *Service) Decisions(ctx context.Context, limit int) ([]models.Decision, error) {
	ds, err := s.store.ListDecisions(ctx, limit)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		ds = []models.Decision{}
	}
	return ds, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
