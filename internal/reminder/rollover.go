package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
)

// CheckRollover detects a date change since the last check. Every scheduled
// medicine without a ledger record for the days left behind is recorded as
// missed, the dismissal registry is cleared and stale pending doses are
// dropped. It returns the number of records written.
//
// If the ledger fails, lastCheckedDate is not advanced and the next check
// retries; already-written records are not duplicated.
func (s *Session) CheckRollover(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := now.Format(models.DateLayout)
	if today == s.lastCheckedDate {
		return 0, nil
	}

	written := 0
	for _, date := range s.backfillDates(now) {
		for _, m := range s.medicines {
			if len(m.Times) == 0 {
				continue
			}
			ok, err := s.ledger.InsertAdherenceIfAbsent(ctx, models.AdherenceRecord{
				Date:       date,
				MedicineID: m.ID,
				Status:     models.StatusMissed,
				RecordedAt: now,
			})
			if err != nil {
				return written, fmt.Errorf("backfill %s/%s: %w", date, m.ID, err)
			}
			if ok {
				written++
				s.record(ctx, "rollover.backfill", map[string]string{"date": date, "medicine_id": m.ID}, "missed", m.ID, date)
			}
		}
	}

	s.logger.Info("date rollover", "from", s.lastCheckedDate, "to", today, "backfilled", written)

	s.lastCheckedDate = today
	s.dismissed.Clear()

	kept := s.pending[:0]
	for _, id := range s.pending {
		if id.Date >= today {
			kept = append(kept, id)
		}
	}
	s.pending = kept

	return written, nil
}

// backfillDates lists the days from lastCheckedDate through yesterday. A
// clock moved backwards yields none.
func (s *Session) backfillDates(now time.Time) []string {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	yesterday := today.AddDate(0, 0, -1)

	start, err := time.ParseInLocation(models.DateLayout, s.lastCheckedDate, s.loc)
	if err != nil || start.After(today) {
		return nil
	}
	if earliest := today.AddDate(0, 0, -maxBackfillDays); start.Before(earliest) {
		start = earliest
	}

	var dates []string
	for day := start; !day.After(yesterday); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(models.DateLayout))
	}
	return dates
}
