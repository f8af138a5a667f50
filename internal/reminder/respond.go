package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
)

// doseDate is the ledger day an outcome belongs to. A clock reminder keeps
// the day it was scheduled for, even when answered after midnight;
// notification reminders are recorded against today.
func doseDate(id models.ReminderID, now time.Time) string {
	if id.Source == models.SourceClock && id.Date != "" {
		return id.Date
	}
	return now.Format(models.DateLayout)
}

// Taken records the open reminder's medicine as taken on its dose day,
// cancels any snooze for that medicine and closes the reminder.
func (s *Session) Taken(ctx context.Context) (models.AdherenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active.Open || s.active.Medicine == nil {
		return models.AdherenceRecord{}, ErrNoActiveReminder
	}

	now := s.now()
	rec := models.AdherenceRecord{
		Date:       doseDate(s.active.ID, now),
		MedicineID: s.active.Medicine.ID,
		Status:     models.StatusTaken,
		DoseTime:   s.active.ID.Time,
		RecordedAt: now,
	}
	if err := s.ledger.UpsertAdherence(ctx, rec); err != nil {
		return models.AdherenceRecord{}, fmt.Errorf("record taken: %w", err)
	}

	s.snoozes.Remove(s.active.ID)
	s.snoozes.RemoveMedicine(rec.MedicineID)

	s.record(ctx, "reminder.taken", s.active.ID, "success", rec.MedicineID, s.active.Label)
	s.logger.Info("medicine taken", "reminder_id", s.active.Label, "medicine", s.active.Medicine.Name)
	s.closeActive()
	return rec, nil
}

// RemindLater defers the open reminder by the snooze duration and closes it.
// The ledger is not touched.
func (s *Session) RemindLater(ctx context.Context) (models.SnoozedReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active.Open || s.active.Medicine == nil {
		return models.SnoozedReminder{}, ErrNoActiveReminder
	}

	sn := models.SnoozedReminder{
		ID:         s.active.ID,
		MedicineID: s.active.Medicine.ID,
		Time:       s.active.Time,
		Until:      s.now().Add(s.snoozeFor),
	}
	s.snoozes.Add(sn)
	sn.Label = sn.ID.String()

	s.record(ctx, "reminder.snooze", sn, "success", sn.MedicineID, sn.Label)
	s.logger.Info("reminder snoozed", "reminder_id", sn.Label, "until", sn.Until)
	s.closeActive()
	return sn, nil
}

// Dismiss records the open reminder's medicine as missed on its dose day,
// suppresses the reminder for the rest of the day and closes it.
func (s *Session) Dismiss(ctx context.Context) (models.AdherenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active.Open || s.active.Medicine == nil {
		return models.AdherenceRecord{}, ErrNoActiveReminder
	}

	now := s.now()
	rec := models.AdherenceRecord{
		Date:       doseDate(s.active.ID, now),
		MedicineID: s.active.Medicine.ID,
		Status:     models.StatusMissed,
		DoseTime:   s.active.ID.Time,
		RecordedAt: now,
	}
	if err := s.ledger.UpsertAdherence(ctx, rec); err != nil {
		return models.AdherenceRecord{}, fmt.Errorf("record dismissal: %w", err)
	}
	s.dismissed.Add(s.active.ID)

	s.record(ctx, "reminder.dismiss", s.active.ID, "missed", rec.MedicineID, s.active.Label)
	s.logger.Info("reminder dismissed", "reminder_id", s.active.Label, "medicine", s.active.Medicine.Name)
	s.closeActive()
	return rec, nil
}

// NotificationTaken marks a medicine taken from the notification center. Any
// snooze for the medicine is cancelled, and an open reminder for the same
// medicine is closed because the dose is now resolved.
func (s *Session) NotificationTaken(ctx context.Context, notificationID, medicineID string) (models.AdherenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := findMedicine(s.medicines, medicineID)
	if !ok {
		return models.AdherenceRecord{}, ErrMedicineNotFound
	}
	idx := s.findNotification(notificationID)
	if idx < 0 {
		return models.AdherenceRecord{}, ErrNotificationNotFound
	}

	now := s.now()
	rec := models.AdherenceRecord{
		Date:       now.Format(models.DateLayout),
		MedicineID: m.ID,
		Status:     models.StatusTaken,
		DoseTime:   s.feed[idx].MedicineTime,
		RecordedAt: now,
	}
	if err := s.ledger.UpsertAdherence(ctx, rec); err != nil {
		return models.AdherenceRecord{}, fmt.Errorf("record taken: %w", err)
	}

	s.feed[idx].Read = true
	s.snoozes.RemoveMedicine(m.ID)
	if s.active.Open && s.active.Medicine != nil && s.active.Medicine.ID == m.ID {
		s.closeActive()
	}

	s.record(ctx, "notification.taken", map[string]string{"notification_id": notificationID, "medicine_id": m.ID}, "success", m.ID, "")
	s.logger.Info("medicine taken", "notification_id", notificationID, "medicine", m.Name)
	return rec, nil
}

// NotificationSnooze defers a medicine from the notification center. The
// snooze joins the same registry the clock polls.
func (s *Session) NotificationSnooze(ctx context.Context, notificationID, medicineID string) (models.SnoozedReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := findMedicine(s.medicines, medicineID)
	if !ok {
		return models.SnoozedReminder{}, ErrMedicineNotFound
	}
	idx := s.findNotification(notificationID)
	if idx < 0 {
		return models.SnoozedReminder{}, ErrNotificationNotFound
	}

	sn := models.SnoozedReminder{
		ID:         models.NotificationReminderID(notificationID),
		MedicineID: m.ID,
		Time:       s.feed[idx].MedicineTime,
		Until:      s.now().Add(s.snoozeFor),
	}
	s.snoozes.Add(sn)
	sn.Label = sn.ID.String()
	s.feed[idx].Read = true

	s.record(ctx, "notification.snooze", sn, "success", m.ID, sn.Label)
	s.logger.Info("reminder snoozed", "reminder_id", sn.Label, "until", sn.Until)
	return sn, nil
}
