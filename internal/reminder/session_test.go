package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/dosewatch/internal/audit"
	"github.com/fentz26/dosewatch/internal/clock"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/fentz26/dosewatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hhmmss string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", day+" "+hhmmss, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleMedicines() []models.Medicine {
	return []models.Medicine{
		{ID: "1", Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00", "20:00"}, Frequency: "twice-daily"},
		{ID: "2", Name: "Blood Pressure Med", Dosage: "50mg", Times: []string{"18:00"}, Frequency: "daily"},
	}
}

type harness struct {
	s     *Session
	clk   *clock.Manual
	store *store.Store
	ctx   context.Context
}

func newHarness(t *testing.T, start time.Time, meds []models.Medicine) *harness {
	t.Helper()

	st, err := store.New(store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := clock.NewManual(start)
	s := NewSession(st, Options{
		Clock:    clk,
		Location: time.UTC,
		Journal:  audit.NewJournal(st),
	})

	ctx := context.Background()
	if meds != nil {
		_, err = s.SetMedicines(ctx, meds)
		require.NoError(t, err)
	}
	return &harness{s: s, clk: clk, store: st, ctx: ctx}
}

func (h *harness) tick(t *testing.T) models.ReminderState {
	t.Helper()
	require.NoError(t, h.s.CheckReminders(h.ctx))
	return h.s.State()
}

func (h *harness) records(t *testing.T, date string) []models.AdherenceRecord {
	t.Helper()
	recs, err := h.store.ListAdherence(h.ctx, date, date)
	require.NoError(t, err)
	return recs
}

func TestReminderOpensAtDoseTime(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())

	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "2025-01-10-1-08:00", st.Label)
	assert.Equal(t, "08:00", st.Time)
	assert.Equal(t, "Aspirin", st.Medicine.Name)

	feed := h.s.Notifications()
	require.Len(t, feed, 1)
	assert.Equal(t, "Time to take your Aspirin (100mg)", feed[0].Message)
	assert.Equal(t, models.NotificationMedication, feed[0].Type)
	assert.Equal(t, "08:00", feed[0].MedicineTime)
	assert.False(t, feed[0].Read)
}

func TestSnoozeAndResume(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)

	h.clk.Set(at("2025-01-10", "08:00:30"))
	sn, err := h.s.RemindLater(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10-1-08:00", sn.Label)
	assert.Equal(t, "1", sn.MedicineID)
	assert.True(t, sn.Until.Equal(at("2025-01-10", "08:10:30")))
	assert.False(t, h.s.State().Open)
	assert.Empty(t, h.records(t, "2025-01-10"), "snooze must not touch the ledger")

	h.clk.Set(at("2025-01-10", "08:05:00"))
	assert.False(t, h.tick(t).Open)
	assert.Len(t, h.s.Snoozes(), 1)

	h.clk.Set(at("2025-01-10", "08:10:30"))
	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "2025-01-10-1-08:00", st.Label)
	assert.Equal(t, "08:10", st.Time)
	assert.Empty(t, h.s.Snoozes())
}

func TestDismissSuppressesForTheDay(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)

	rec, err := h.s.Dismiss(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMissed, rec.Status)

	recs := h.records(t, "2025-01-10")
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].MedicineID)
	assert.Equal(t, models.StatusMissed, recs[0].Status)
	assert.Equal(t, []models.ReminderID{models.DoseReminderID("2025-01-10", "1", "08:00")}, h.s.Dismissed())

	// Manual clock change back to 08:00 must not re-raise it.
	h.clk.Set(at("2025-01-10", "08:00:10"))
	assert.False(t, h.tick(t).Open)
	h.clk.Set(at("2025-01-10", "07:59:00"))
	h.tick(t)
	h.clk.Set(at("2025-01-10", "08:00:00"))
	assert.False(t, h.tick(t).Open)
}

func TestRolloverBackfillsOnce(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "09:00:00"), sampleMedicines())
	require.NoError(t, h.store.UpsertAdherence(h.ctx, models.AdherenceRecord{Date: "2025-01-10", MedicineID: "1", Status: models.StatusTaken}))
	h.s.dismissed.Add(models.DoseReminderID("2025-01-10", "2", "18:00"))

	n, err := h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "same day is a no-op")

	h.clk.Set(at("2025-01-11", "00:30:00"))
	n, err = h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recs := h.records(t, "2025-01-10")
	require.Len(t, recs, 2)
	assert.Equal(t, models.StatusTaken, recs[0].Status)
	assert.Equal(t, "2", recs[1].MedicineID)
	assert.Equal(t, models.StatusMissed, recs[1].Status)
	assert.Empty(t, h.s.Dismissed())
	assert.Equal(t, "2025-01-11", h.s.LastCheckedDate())

	// Hourly re-invocations on the same day do nothing.
	h.clk.Set(at("2025-01-11", "01:30:00"))
	n, err = h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, h.records(t, "2025-01-10"), 2)
}

func TestRollover_MultipleTimesYieldOneRecord(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "21:00:00"), sampleMedicines())

	h.clk.Set(at("2025-01-11", "00:00:05"))
	n, err := h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count := 0
	for _, r := range h.records(t, "2025-01-10") {
		if r.MedicineID == "1" {
			count++
		}
	}
	assert.Equal(t, 1, count, "Aspirin has two times but one record per day")
}

func TestRollover_SeveralDaysAsleep(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "21:00:00"), []models.Medicine{
		{ID: "2", Name: "Blood Pressure Med", Dosage: "50mg", Times: []string{"18:00"}},
	})

	h.clk.Set(at("2025-01-13", "07:00:00"))
	n, err := h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recs, err := h.store.ListAdherence(h.ctx, "", "")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "2025-01-10", recs[0].Date)
	assert.Equal(t, "2025-01-12", recs[2].Date)
}

func TestLateNightDose_AnsweredAfterMidnight(t *testing.T) {
	tests := []struct {
		name   string
		answer func(*Session, context.Context) (models.AdherenceRecord, error)
		status models.AdherenceStatus
	}{
		{"taken", (*Session).Taken, models.StatusTaken},
		{"dismissed", (*Session).Dismiss, models.StatusMissed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, at("2025-01-10", "23:00:00"), []models.Medicine{
				{ID: "1", Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00", "23:30"}},
			})
			require.False(t, h.tick(t).Open)

			// The next poll lands after midnight, before the hourly rollover.
			h.clk.Set(at("2025-01-11", "00:20:00"))
			st := h.tick(t)
			require.True(t, st.Open)
			assert.Equal(t, "2025-01-10-1-23:30", st.Label)

			rec, err := tt.answer(h.s, h.ctx)
			require.NoError(t, err)
			assert.Equal(t, "2025-01-10", rec.Date)

			n, err := h.s.CheckRollover(h.ctx)
			require.NoError(t, err)
			assert.Zero(t, n, "the answered day must not be backfilled")

			recs := h.records(t, "2025-01-10")
			require.Len(t, recs, 1)
			assert.Equal(t, tt.status, recs[0].Status)
			assert.Equal(t, "23:30", recs[0].DoseTime)
			assert.Empty(t, h.records(t, "2025-01-11"))

			h.clk.Set(at("2025-01-11", "08:00:00"))
			st = h.tick(t)
			require.True(t, st.Open, "today's morning dose still reminds")
			assert.Equal(t, "2025-01-11-1-08:00", st.Label)
		})
	}
}

func TestRollover_ClockBackwards(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "09:00:00"), sampleMedicines())

	h.clk.Set(at("2025-01-09", "23:00:00"))
	n, err := h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "2025-01-09", h.s.LastCheckedDate())
}

func TestRollover_DropsStalePending(t *testing.T) {
	meds := []models.Medicine{
		{ID: "1", Name: "Aspirin", Dosage: "100mg", Times: []string{"23:59"}},
		{ID: "3", Name: "Vitamin D", Dosage: "1000IU", Times: []string{"23:59"}},
	}
	h := newHarness(t, at("2025-01-10", "23:59:00"), meds)
	require.True(t, h.tick(t).Open)
	require.Len(t, h.s.Pending(), 1)

	h.clk.Set(at("2025-01-11", "00:10:00"))
	_, err := h.s.CheckRollover(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, h.s.Pending())
}

func TestSingleOpenInvariant_SimultaneousDoses(t *testing.T) {
	meds := []models.Medicine{
		{ID: "1", Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00"}},
		{ID: "3", Name: "Vitamin D", Dosage: "1000IU", Times: []string{"08:00"}},
	}
	h := newHarness(t, at("2025-01-10", "08:00:00"), meds)

	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "1", st.Medicine.ID, "insertion order decides which dose opens first")
	assert.Len(t, h.s.Pending(), 1)

	h.clk.Set(at("2025-01-10", "08:01:00"))
	st = h.tick(t)
	assert.Equal(t, "1", st.Medicine.ID, "clock never replaces an open reminder")

	_, err := h.s.Taken(h.ctx)
	require.NoError(t, err)

	h.clk.Set(at("2025-01-10", "08:02:00"))
	st = h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "3", st.Medicine.ID)
	assert.Equal(t, "08:00", st.Time)
	assert.Equal(t, "2025-01-10-3-08:00", st.Label)
}

func TestDueIdempotence_LedgerRecordSuppresses(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "07:59:00"), sampleMedicines())
	h.tick(t)
	require.NoError(t, h.store.UpsertAdherence(h.ctx, models.AdherenceRecord{Date: "2025-01-10", MedicineID: "1", Status: models.StatusTaken}))

	h.clk.Set(at("2025-01-10", "08:00:00"))
	assert.False(t, h.tick(t).Open)

	// The evening dose is suppressed too: the ledger keys on (day, medicine).
	h.clk.Set(at("2025-01-10", "20:00:00"))
	assert.False(t, h.tick(t).Open)
}

func TestCatchUp_MissedPollStillFires(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "07:58:00"), sampleMedicines())
	assert.False(t, h.tick(t).Open)

	h.clk.Set(at("2025-01-10", "08:03:00"))
	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "08:00", st.Time)
}

func TestCatchUp_Bounded(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "05:00:00"), sampleMedicines())
	h.tick(t)

	h.clk.Set(at("2025-01-10", "11:00:00"))
	assert.False(t, h.tick(t).Open, "doses older than the catch-up window are left to rollover")
}

func TestDueWindow_AcrossMidnight(t *testing.T) {
	meds := []models.Medicine{{ID: "9", Name: "Melatonin", Dosage: "3mg", Times: []string{"00:00"}}}
	h := newHarness(t, at("2025-01-10", "23:59:30"), meds)
	h.tick(t)

	h.clk.Set(at("2025-01-11", "00:00:30"))
	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "2025-01-11-9-00:00", st.Label)
}

func TestFirstTick_OutsideDoseMinute(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:01:00"), sampleMedicines())
	assert.False(t, h.tick(t).Open, "activation only covers the current minute")
}

func TestTaken_RecordsAndClearsSnoozes(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)
	_, err := h.s.RemindLater(h.ctx)
	require.NoError(t, err)

	h.clk.Set(at("2025-01-10", "08:10:00"))
	require.True(t, h.tick(t).Open)

	rec, err := h.s.Taken(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTaken, rec.Status)
	assert.Equal(t, "08:00", rec.DoseTime)
	assert.False(t, h.s.State().Open)
	assert.Empty(t, h.s.Snoozes())

	recs := h.records(t, "2025-01-10")
	require.Len(t, recs, 1)
	assert.Equal(t, models.StatusTaken, recs[0].Status)
}

func TestResponses_RequireOpenReminder(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "10:00:00"), sampleMedicines())

	_, err := h.s.Taken(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveReminder)
	_, err = h.s.RemindLater(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveReminder)
	_, err = h.s.Dismiss(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveReminder)
}

func TestSnoozeResume_DroppedWhenAlreadyTaken(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)
	_, err := h.s.RemindLater(h.ctx)
	require.NoError(t, err)

	require.NoError(t, h.store.UpsertAdherence(h.ctx, models.AdherenceRecord{Date: "2025-01-10", MedicineID: "1", Status: models.StatusTaken}))

	h.clk.Set(at("2025-01-10", "08:11:00"))
	assert.False(t, h.tick(t).Open)
	assert.Empty(t, h.s.Snoozes())
}

func TestSnoozeResume_BeforeNewDoses(t *testing.T) {
	meds := []models.Medicine{
		{ID: "1", Name: "Aspirin", Dosage: "100mg", Times: []string{"08:00"}},
		{ID: "3", Name: "Vitamin D", Dosage: "1000IU", Times: []string{"08:10"}},
	}
	h := newHarness(t, at("2025-01-10", "08:00:00"), meds)
	require.True(t, h.tick(t).Open)
	_, err := h.s.RemindLater(h.ctx)
	require.NoError(t, err)

	h.clk.Set(at("2025-01-10", "08:10:00"))
	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "1", st.Medicine.ID, "expired snooze wins over a new dose in the same tick")

	_, err = h.s.Taken(h.ctx)
	require.NoError(t, err)
	h.clk.Set(at("2025-01-10", "08:11:00"))
	st = h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "3", st.Medicine.ID)
}

func TestNotificationTaken_ClosesMatchingReminder(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)
	n := h.s.Notifications()[0]

	rec, err := h.s.NotificationTaken(h.ctx, n.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTaken, rec.Status)
	assert.Equal(t, "08:00", rec.DoseTime)
	assert.False(t, h.s.State().Open)
	assert.True(t, h.s.Notifications()[0].Read)
	assert.Zero(t, h.s.UnreadCount())

	// Responding through both paths leaves one record.
	_, err = h.s.NotificationTaken(h.ctx, n.ID, "1")
	require.NoError(t, err)
	assert.Len(t, h.records(t, "2025-01-10"), 1)
}

func TestNotificationTaken_Errors(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)
	n := h.s.Notifications()[0]

	_, err := h.s.NotificationTaken(h.ctx, n.ID, "missing")
	assert.ErrorIs(t, err, ErrMedicineNotFound)
	_, err = h.s.NotificationTaken(h.ctx, "missing", "1")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	_, err = h.s.NotificationSnooze(h.ctx, "missing", "1")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationSnooze_ResumesThroughRegistry(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)
	n := h.s.Notifications()[0]
	_, err := h.s.RemindLater(h.ctx)
	require.NoError(t, err)

	h.clk.Set(at("2025-01-10", "08:00:30"))
	sn, err := h.s.NotificationSnooze(h.ctx, n.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, "notification-"+n.ID, sn.Label)
	assert.Len(t, h.s.Snoozes(), 2)
	assert.True(t, h.s.Notifications()[0].Read)

	h.clk.Set(at("2025-01-10", "08:10:00"))
	st := h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "2025-01-10-1-08:00", st.Label, "earliest deadline resumes first")

	_, err = h.s.Dismiss(h.ctx)
	require.NoError(t, err)
	h.clk.Set(at("2025-01-10", "08:11:00"))
	st = h.tick(t)
	require.True(t, st.Open)
	assert.Equal(t, "notification-"+n.ID, st.Label)
	assert.Equal(t, "08:00", st.Time, "notification snoozes show the dose time")
}

func TestNotificationSnooze_CancelledByTaken(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)
	_, err := h.s.RemindLater(h.ctx)
	require.NoError(t, err)
	n := h.s.Notifications()[0]

	_, err = h.s.NotificationSnooze(h.ctx, n.ID, "1")
	require.NoError(t, err)
	_, err = h.s.NotificationTaken(h.ctx, n.ID, "1")
	require.NoError(t, err)
	assert.Empty(t, h.s.Snoozes())

	h.clk.Set(at("2025-01-10", "08:20:00"))
	assert.False(t, h.tick(t).Open)
}

func TestSetMedicines_PrunesRemovedMedicine(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)

	_, err := h.s.SetMedicines(h.ctx, sampleMedicines()[1:])
	require.NoError(t, err)
	assert.False(t, h.s.State().Open)

	meds := h.s.Medicines()
	require.Len(t, meds, 1)
	assert.Equal(t, "2", meds[0].ID)
}

func TestSetMedicines_UpdatesOpenReminder(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), sampleMedicines())
	require.True(t, h.tick(t).Open)

	meds := sampleMedicines()
	meds[0].Dosage = "81mg"
	_, err := h.s.SetMedicines(h.ctx, meds)
	require.NoError(t, err)

	st := h.s.State()
	require.True(t, st.Open)
	assert.Equal(t, "81mg", st.Medicine.Dosage)
}

func TestSetMedicines_Invalid(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), nil)

	_, err := h.s.SetMedicines(h.ctx, []models.Medicine{{ID: "1", Name: "A", Times: []string{"25:00"}}})
	assert.ErrorIs(t, err, ErrInvalidTime)
	_, err = h.s.SetMedicines(h.ctx, []models.Medicine{{ID: "1", Name: "A"}, {ID: "1", Name: "B"}})
	assert.ErrorIs(t, err, ErrDuplicateMedicine)
	_, err = h.s.SetMedicines(h.ctx, []models.Medicine{{ID: "", Name: "A"}})
	assert.ErrorIs(t, err, ErrInvalidMedicine)
	assert.Empty(t, h.s.Medicines())
}

func TestSendSOS(t *testing.T) {
	h := newHarness(t, at("2025-01-10", "08:00:00"), nil)

	_, err := h.s.SendSOS(h.ctx, "")
	assert.ErrorIs(t, err, ErrNoContacts)

	_, err = h.s.SetContacts(h.ctx, []models.Contact{
		{ID: "1", Name: "Dr. Sarah Johnson", Phone: "+1 (555) 123-4567", Relation: "doctor"},
		{Name: "Jane Doe", Phone: "+1 (555) 987-6543", Relation: "family"},
	})
	require.NoError(t, err)
	contacts := h.s.Contacts()
	require.Len(t, contacts, 2)
	assert.NotEmpty(t, contacts[1].ID)

	res, err := h.s.SendSOS(h.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Result.Notified)
	assert.Equal(t, models.NotificationEmergency, res.Notification.Type)
	assert.Equal(t, "Notified 2 contacts", h.s.Notifications()[0].Message)
}

func TestFeed_LimitAndMarkRead(t *testing.T) {
	st, err := store.New(store.MemoryDSN)
	require.NoError(t, err)
	defer st.Close()
	s := NewSession(st, Options{Clock: clock.NewManual(at("2025-01-10", "08:00:00")), Location: time.UTC, FeedLimit: 2})

	first := s.Notify(models.Notification{Title: "a"})
	s.Notify(models.Notification{Title: "b"})
	s.Notify(models.Notification{Title: "c"})

	feed := s.Notifications()
	require.Len(t, feed, 2)
	assert.Equal(t, "c", feed[0].Title)
	assert.ErrorIs(t, s.MarkRead(first.ID), ErrNotificationNotFound)
	require.NoError(t, s.MarkRead(feed[1].ID))
	assert.Equal(t, 1, s.MarkAllRead())
	assert.Zero(t, s.UnreadCount())
}
