package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/dosewatch/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *counter) job(name string, err error) JobFunc {
	return func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.n == nil {
			c.n = map[string]int{}
		}
		c.n[name]++
		return err
	}
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

func TestRunPending_Intervals(t *testing.T) {
	start := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	sch := New(nil, clock.NewManual(start), nil)
	var c counter

	require.NoError(t, sch.Register("reminders", time.Minute, c.job("reminders", nil)))
	require.NoError(t, sch.Register("rollover", time.Hour, c.job("rollover", nil)))

	assert.ElementsMatch(t, []string{"reminders", "rollover"}, sch.RunPending(start))
	assert.Empty(t, sch.RunPending(start.Add(30*time.Second)))
	assert.Equal(t, []string{"reminders"}, sch.RunPending(start.Add(time.Minute)))

	// A long gap coalesces into a single run per job.
	ran := sch.RunPending(start.Add(3 * time.Hour))
	assert.ElementsMatch(t, []string{"reminders", "rollover"}, ran)
	assert.Equal(t, 3, c.get("reminders"))
	assert.Equal(t, 2, c.get("rollover"))

	stats := sch.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "reminders", stats[0].Name)
	assert.Equal(t, start.Add(3*time.Hour+time.Minute), stats[0].NextRun)
}

func TestRunPending_RecordsFailures(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	sch := New(nil, clock.NewManual(now), nil)
	var c counter
	require.NoError(t, sch.Register("rollover", time.Hour, c.job("rollover", errors.New("ledger unavailable"))))

	sch.RunPending(now)
	stats := sch.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Runs)
	assert.Equal(t, 1, stats[0].Failures)
	assert.Equal(t, "ledger unavailable", stats[0].LastError)
}

func TestRegister_Validation(t *testing.T) {
	sch := New(nil, nil, nil)
	var c counter

	assert.Error(t, sch.Register("a", 0, c.job("a", nil)))
	assert.Error(t, sch.Register("a", time.Second, nil))
	require.NoError(t, sch.Register("a", time.Second, c.job("a", nil)))
	assert.Error(t, sch.Register("a", time.Second, c.job("a", nil)))
}

func TestStartStop_InjectedTicker(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	sch := New(&Config{ReminderInterval: time.Minute, RolloverInterval: time.Hour, Resolution: time.Second}, clk, nil)

	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	sch.NewTicker = func(d time.Duration) (<-chan time.Time, func()) {
		assert.Equal(t, time.Second, d)
		return ticks, func() { close(stopped) }
	}

	var c counter
	require.NoError(t, sch.Register("reminders", time.Minute, c.job("reminders", nil)))

	sch.Start()
	require.Eventually(t, func() bool { return c.get("reminders") == 1 }, time.Second, 5*time.Millisecond,
		"jobs run once at start")

	ticks <- time.Time{}
	assert.Equal(t, 1, c.get("reminders"), "no run before the interval elapses")

	clk.Advance(time.Minute)
	ticks <- time.Time{}
	require.Eventually(t, func() bool { return c.get("reminders") == 2 }, time.Second, 5*time.Millisecond)

	sch.Stop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker was not stopped")
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.ReminderInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Resolution = 2 * time.Minute
	assert.Error(t, cfg.Validate())
}
