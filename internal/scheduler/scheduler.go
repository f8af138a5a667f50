package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fentz26/dosewatch/internal/clock"
)

// JobFunc is the work a job performs on each run.
type JobFunc func(ctx context.Context) error

// JobStats describes one registered job.
type JobStats struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	NextRun   time.Time     `json:"next_run"`
	LastError string        `json:"last_error,omitempty"`
}

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
	stats    JobStats
}

// Scheduler runs named jobs at fixed intervals from a single ticker. Missed
// runs coalesce: a job overdue by several intervals runs once.
type Scheduler struct {
	config *Config
	clock  clock.Clock
	logger *slog.Logger

	// NewTicker creates the driving tick channel and its stop function. If
	// nil, time.NewTicker is used.
	NewTicker func(d time.Duration) (tick <-chan time.Time, stop func())

	mu      sync.Mutex
	jobs    []*job
	running bool

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler.
func New(cfg *Config, clk clock.Clock, logger *slog.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config: cfg,
		clock:  clk,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a job. Its first run happens on Start, or on the next
// RunPending if the scheduler is already running.
func (sch *Scheduler) Register(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if fn == nil {
		return fmt.Errorf("job %s: nil func", name)
	}

	sch.mu.Lock()
	defer sch.mu.Unlock()
	for _, j := range sch.jobs {
		if j.name == name {
			return fmt.Errorf("job %s already registered", name)
		}
	}
	sch.jobs = append(sch.jobs, &job{
		name:     name,
		interval: interval,
		fn:       fn,
		stats:    JobStats{Name: name, Interval: interval},
	})
	return nil
}

// Start runs every job once and then begins the ticker loop.
func (sch *Scheduler) Start() {
	sch.mu.Lock()
	if sch.running {
		sch.mu.Unlock()
		return
	}
	sch.running = true
	sch.mu.Unlock()

	newTicker := sch.NewTicker
	if newTicker == nil {
		newTicker = defaultNewTicker
	}
	tick, stop := newTicker(sch.config.Resolution)

	sch.wg.Add(1)
	go sch.loop(tick, stop)
	sch.logger.Info("scheduler started", "resolution", sch.config.Resolution)
}

// Stop cancels the loop and waits for a running job to finish.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.logger.Info("scheduler stopped")
}

func (sch *Scheduler) loop(tick <-chan time.Time, stop func()) {
	defer sch.wg.Done()
	defer stop()

	sch.RunPending(sch.clock.Now())

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-tick:
			sch.RunPending(sch.clock.Now())
		}
	}
}

// RunPending runs every job whose next run time is at or before now and
// re-arms it one interval after now. It returns the names of the jobs run.
func (sch *Scheduler) RunPending(now time.Time) []string {
	sch.mu.Lock()
	var due []*job
	for _, j := range sch.jobs {
		if j.stats.NextRun.IsZero() || !now.Before(j.stats.NextRun) {
			j.stats.NextRun = now.Add(j.interval)
			due = append(due, j)
		}
	}
	sch.mu.Unlock()

	ran := make([]string, 0, len(due))
	for _, j := range due {
		if sch.ctx.Err() != nil {
			break
		}
		err := j.fn(sch.ctx)

		sch.mu.Lock()
		j.stats.Runs++
		j.stats.LastRun = now
		if err != nil {
			j.stats.Failures++
			j.stats.LastError = err.Error()
		} else {
			j.stats.LastError = ""
		}
		sch.mu.Unlock()

		if err != nil {
			sch.logger.Error("job failed", "job", j.name, "error", err)
		}
		ran = append(ran, j.name)
	}
	return ran
}

// Stats returns a snapshot of every job, sorted by name.
func (sch *Scheduler) Stats() []JobStats {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	out := make([]JobStats, 0, len(sch.jobs))
	for _, j := range sch.jobs {
		out = append(out, j.stats)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

func defaultNewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
