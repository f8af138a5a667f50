package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/dosewatch/internal/clock"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/fentz26/dosewatch/internal/reminder"
	"github.com/fentz26/dosewatch/internal/store"
	"github.com/stretchr/testify/require"
)

// TestConcurrentResponses drives the reminder jobs from the scheduler while
// several goroutines respond to whatever reminder is open. Every dose of the
// day must end with exactly one ledger record.
func TestConcurrentResponses(t *testing.T) {
	st, err := store.New(store.MemoryDSN)
	require.NoError(t, err)
	defer st.Close()

	start := time.Date(2025, 1, 10, 7, 59, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	sess := reminder.NewSession(st, reminder.Options{Clock: clk, Location: time.UTC})

	meds := make([]models.Medicine, 0, 10)
	for i := 0; i < 10; i++ {
		meds = append(meds, models.Medicine{
			ID:    string(rune('a' + i)),
			Name:  "Med " + string(rune('A'+i)),
			Times: []string{"08:00"},
		})
	}
	_, err = sess.SetMedicines(context.Background(), meds)
	require.NoError(t, err)

	sch := New(nil, clk, nil)
	require.NoError(t, sch.Register("reminders", time.Minute, func(ctx context.Context) error {
		return sess.CheckReminders(ctx)
	}))

	now := start
	sch.RunPending(now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := taken == len(meds)
				mu.Unlock()
				if done {
					return
				}
				_, err := sess.Taken(context.Background())
				if errors.Is(err, reminder.ErrNoActiveReminder) {
					time.Sleep(time.Millisecond)
					continue
				}
				if err != nil {
					t.Errorf("taken: %v", err)
					return
				}
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < 50; i++ {
		now = now.Add(time.Minute)
		clk.Set(now)
		sch.RunPending(now)
		mu.Lock()
		done := taken == len(meds)
		mu.Unlock()
		if done {
			break
		}
		deadline := time.Now().Add(time.Second)
		for sess.State().Open && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}

	// Release any worker still spinning if the loop ran out.
	mu.Lock()
	if taken != len(meds) {
		taken = len(meds)
		mu.Unlock()
		wg.Wait()
		t.Fatal("not every dose was presented")
	}
	mu.Unlock()
	wg.Wait()

	recs, err := st.ListAdherence(context.Background(), "2025-01-10", "2025-01-10")
	require.NoError(t, err)
	require.Len(t, recs, len(meds))
	for _, r := range recs {
		require.Equal(t, models.StatusTaken, r.Status)
	}
	require.False(t, sess.State().Open)
}
