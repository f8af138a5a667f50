package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
)

// CheckReminders is one Reminder Clock tick. Doses whose scheduled instant
// fell in (previous tick, now] join the pending queue; then, if nothing is
// presented, at most one reminder opens: an expired snooze first, else the
// oldest still-valid pending dose.
func (s *Session) CheckReminders(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.collectDue(now)
	s.lastTick = now

	if s.active.Open {
		return nil
	}

	opened, err := s.resumeSnoozed(ctx, now)
	if err != nil || opened {
		return err
	}
	return s.openPending(ctx, now)
}

// dueWindow returns the half-open interval (from, now] to scan. The first
// tick, and a tick after the clock moved backwards, covers the current minute.
func (s *Session) dueWindow(now time.Time) time.Time {
	from := s.lastTick
	if from.IsZero() || from.After(now) {
		minute := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, s.loc)
		from = minute.Add(-time.Nanosecond)
	}
	if now.Sub(from) > s.catchUp {
		from = now.Add(-s.catchUp)
	}
	return from
}

func (s *Session) collectDue(now time.Time) {
	from := s.dueWindow(now)

	fy, fm, fd := from.Date()
	day := time.Date(fy, fm, fd, 0, 0, 0, 0, s.loc)
	for !day.After(now) {
		date := day.Format(models.DateLayout)
		for _, m := range s.medicines {
			for _, t := range m.Times {
				at, err := doseInstant(day, t, s.loc)
				if err != nil {
					continue
				}
				if at.After(from) && !at.After(now) {
					s.enqueue(models.DoseReminderID(date, m.ID, t))
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
}

func (s *Session) enqueue(id models.ReminderID) {
	for _, p := range s.pending {
		if p == id {
			return
		}
	}
	s.pending = append(s.pending, id)
}

func (s *Session) resumeSnoozed(ctx context.Context, now time.Time) (bool, error) {
	for _, sn := range s.snoozes.Expired(now) {
		m, ok := findMedicine(s.medicines, sn.MedicineID)
		if !ok {
			s.snoozes.Remove(sn.ID)
			continue
		}

		rec, err := s.ledger.GetAdherence(ctx, doseDate(sn.ID, now), sn.MedicineID)
		if err != nil {
			return false, fmt.Errorf("check adherence: %w", err)
		}
		s.snoozes.Remove(sn.ID)
		if rec != nil && rec.Status == models.StatusTaken {
			s.record(ctx, "snooze.cancel", sn, "already_taken", sn.MedicineID, sn.Label)
			continue
		}

		displayTime := now.Format(models.TimeLayout)
		if sn.ID.Source == models.SourceNotification && sn.Time != "" {
			displayTime = sn.Time
		}
		s.open(sn.ID, m, displayTime)
		s.record(ctx, "reminder.resume", sn, "success", m.ID, sn.Label)
		s.logger.Info("snoozed reminder resumed", "reminder_id", sn.Label, "medicine", m.Name)
		return true, nil
	}
	return false, nil
}

func (s *Session) openPending(ctx context.Context, now time.Time) error {
	for len(s.pending) > 0 {
		id := s.pending[0]

		m, ok := findMedicine(s.medicines, id.MedicineID)
		if !ok || !hasTime(m, id.Time) || s.dismissed.Contains(id) {
			s.pending = s.pending[1:]
			continue
		}
		answered, err := s.ledger.HasAdherence(ctx, id.Date, id.MedicineID)
		if err != nil {
			return fmt.Errorf("check adherence: %w", err)
		}
		s.pending = s.pending[1:]
		if answered {
			continue
		}

		s.open(id, m, id.Time)
		s.notify(models.Notification{
			Title:        "Medication Reminder",
			Message:      fmt.Sprintf("Time to take your %s (%s)", m.Name, m.Dosage),
			CreatedAt:    now,
			Type:         models.NotificationMedication,
			MedicineID:   m.ID,
			MedicineTime: id.Time,
		})
		s.record(ctx, "reminder.open", id, "success", m.ID, id.String())
		s.logger.Info("reminder opened", "reminder_id", id.String(), "medicine", m.Name, "time", id.Time)
		return nil
	}
	return nil
}

func doseInstant(day time.Time, doseTime string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(models.TimeLayout, doseTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
