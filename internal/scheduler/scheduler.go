// Package scheduler binds the batch cleanup to a recurring trigger whose
// interval, in days, is stored in the option store.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"cleanmeta/internal/model"
	"cleanmeta/internal/storage"
)

// Names under which the trigger and its interval are registered.
const (
	HookName     = "cleanmeta_cron"
	IntervalName = "cleanmeta_interval"
)

// Option names read and written by the binding.
const (
	OptionScheduleDays = "schedule_days"
	OptionNextRun      = "next_run"
)

// catchUpDelay is how long after start-up an overdue run fires.
const catchUpDelay = time.Minute

// ErrInvalidInterval is returned when the requested interval is not a
// positive number of days.
var ErrInvalidInterval = errors.New("interval must be a positive number of days")

// Interval is a named recurrence known to the scheduler.
type Interval struct {
	Seconds int64
	Display string
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.Seconds) * time.Second
}

// Job is the work run on every trigger.
type Job func(ctx context.Context) error

// Binding owns the interval registry and the cron trigger of the cleanup job.
type Binding struct {
	opts storage.OptionStore
	job  Job
	log  *slog.Logger
	cron *rcron.Cron
	now  func() time.Time

	mu        sync.Mutex
	ctx       context.Context
	intervals map[string]Interval
	hooks     map[string]rcron.EntryID
	every     time.Duration
	next      time.Time
}

// New creates a Binding that runs job on every trigger.
func New(opts storage.OptionStore, job Job, log *slog.Logger) *Binding {
	cl := cronLogger{log: log}
	return &Binding{
		opts: opts,
		job:  job,
		log:  log,
		cron: rcron.New(
			rcron.WithLocation(time.Local),
			rcron.WithLogger(cl),
			rcron.WithChain(rcron.Recover(cl), rcron.SkipIfStillRunning(cl)),
		),
		now:       time.Now,
		ctx:       context.Background(),
		intervals: make(map[string]Interval),
		hooks:     make(map[string]rcron.EntryID),
	}
}

// Config reads the persisted schedule configuration.
func (b *Binding) Config(ctx context.Context) (model.ScheduleConfig, error) {
	raw, ok, err := b.opts.GetOption(ctx, OptionScheduleDays)
	if err != nil {
		return model.ScheduleConfig{}, fmt.Errorf("load schedule: %w", err)
	}
	if !ok || raw == "" {
		return model.ScheduleConfig{}, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return model.ScheduleConfig{}, fmt.Errorf("parse %s %q: %w", OptionScheduleDays, raw, err)
	}
	return model.ScheduleConfig{IntervalDays: max(days, 0)}, nil
}

// Intervals returns the custom interval definitions derived from the
// persisted configuration. It is empty while no interval is configured.
func (b *Binding) Intervals(ctx context.Context) (map[string]Interval, error) {
	cfg, err := b.Config(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Interval)
	if cfg.IntervalDays > 0 {
		out[IntervalName] = Interval{
			Seconds: int64(cfg.Interval() / time.Second),
			Display: fmt.Sprintf("Every %d days", cfg.IntervalDays),
		}
	}
	return out, nil
}

// Registered returns a copy of the installed interval registry.
func (b *Binding) Registered() map[string]Interval {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Interval, len(b.intervals))
	for k, v := range b.intervals {
		out[k] = v
	}
	return out
}

// Update persists a new interval and reschedules the trigger to first fire
// one full interval from now.
func (b *Binding) Update(ctx context.Context, days int) error {
	if days <= 0 {
		return ErrInvalidInterval
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.opts.SetOption(ctx, OptionScheduleDays, strconv.Itoa(days)); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	iv, ok, err := b.installLocked(ctx)
	if err != nil {
		return err
	}
	b.clearLocked(HookName)
	if !ok {
		return nil
	}
	if err := b.scheduleLocked(ctx, b.now().Add(iv.Duration()), iv.Duration()); err != nil {
		return err
	}

	b.log.Info("cleanup rescheduled", "days", days, "next_run", b.next)
	return nil
}

// Restore re-registers the trigger from persisted state, keeping the
// previously stored next run time when there is one.
func (b *Binding) Restore(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	iv, ok, err := b.installLocked(ctx)
	if err != nil {
		return err
	}
	b.clearLocked(HookName)
	if !ok {
		b.log.Debug("no cleanup scheduled")
		return nil
	}

	now := b.now()
	first := now.Add(iv.Duration())
	raw, found, err := b.opts.GetOption(ctx, OptionNextRun)
	if err != nil {
		return fmt.Errorf("load next run: %w", err)
	}
	if found {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			stored := time.Unix(sec, 0)
			if stored.After(now) {
				first = stored
			} else {
				first = now.Add(catchUpDelay)
			}
		}
	}

	if err := b.scheduleLocked(ctx, first, iv.Duration()); err != nil {
		return err
	}
	b.log.Info("cleanup schedule restored", "interval", iv.Display, "next_run", b.next)
	return nil
}

// NextRun reports when the trigger fires next. ok is false when no cleanup
// is scheduled.
func (b *Binding) NextRun() (next time.Time, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, scheduled := b.hooks[HookName]; !scheduled {
		return time.Time{}, false
	}
	return b.next, true
}

// Start runs the trigger loop. Jobs receive ctx.
func (b *Binding) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()
	b.cron.Start()
}

// Stop halts the trigger loop and waits briefly for a running job.
func (b *Binding) Stop() {
	stopCtx := b.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		b.log.Warn("stop timeout waiting for running cleanup")
	}
}

// installLocked refreshes the registry from persisted config and returns
// the binding's interval when one is defined.
func (b *Binding) installLocked(ctx context.Context) (Interval, bool, error) {
	intervals, err := b.Intervals(ctx)
	if err != nil {
		return Interval{}, false, err
	}
	b.intervals = intervals
	iv, ok := intervals[IntervalName]
	return iv, ok, nil
}

func (b *Binding) clearLocked(hook string) {
	if id, ok := b.hooks[hook]; ok {
		b.cron.Remove(id)
		delete(b.hooks, hook)
	}
	b.every = 0
	b.next = time.Time{}
}

func (b *Binding) scheduleLocked(ctx context.Context, first time.Time, every time.Duration) error {
	if err := b.opts.SetOption(ctx, OptionNextRun, strconv.FormatInt(first.Unix(), 10)); err != nil {
		return fmt.Errorf("save next run: %w", err)
	}
	j := &hookJob{b: b}
	j.id = b.cron.Schedule(intervalSchedule{first: first, every: every}, j)
	b.hooks[HookName] = j.id
	b.every = every
	b.next = first
	return nil
}

// hookJob is the cron job of one registration of HookName.
type hookJob struct {
	b  *Binding
	id rcron.EntryID
}

func (j *hookJob) Run() {
	j.b.mu.Lock()
	id := j.id
	j.b.mu.Unlock()
	j.b.fire(id)
}

// fire runs the job for the trigger registered as id. A trigger that was
// replaced or cleared since it was picked by the cron loop does nothing.
func (b *Binding) fire(id rcron.EntryID) {
	b.mu.Lock()
	if current, ok := b.hooks[HookName]; !ok || current != id {
		b.mu.Unlock()
		b.log.Debug("skipping replaced trigger", "hook", HookName, "entry", id)
		return
	}
	ctx := b.ctx
	b.next = b.now().Add(b.every)
	next := b.next
	b.mu.Unlock()

	if err := b.opts.SetOption(ctx, OptionNextRun, strconv.FormatInt(next.Unix(), 10)); err != nil {
		b.log.Error("save next run", "error", err)
	}

	b.log.Info("running scheduled cleanup", "hook", HookName)
	if err := b.job(ctx); err != nil {
		b.log.Error("scheduled cleanup", "hook", HookName, "error", err)
		return
	}
	b.log.Info("scheduled cleanup finished", "next_run", next)
}

// intervalSchedule fires once at first and then every interval after the
// previous activation.
type intervalSchedule struct {
	first time.Time
	every time.Duration
}

func (s intervalSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return t.Add(s.every)
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
