// Package scheduler fires the garden sweeps once a day at a fixed local time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/keylock"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/platform/redislock"
)

type JobFunc func(ctx context.Context) error

type job struct {
	name   string
	hour   int
	minute int
	fn     JobFunc
}

type Option func(*Daily)

// WithRedisLock makes a job run on one replica only. ttl bounds how long a
// crashed holder keeps the lock.
func WithRedisLock(c *redislock.Client, ttl time.Duration) Option {
	return func(d *Daily) {
		d.remote = c
		if ttl > 0 {
			d.lockTTL = ttl
		}
	}
}

// WithTimer replaces time.After, mainly for tests driving a fake clock.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(d *Daily) { d.after = after }
}

// Daily runs each registered job once per calendar day. A job whose previous
// run is still going, here or on another replica, is skipped.
type Daily struct {
	log     *logger.Logger
	clk     clock.Clock
	cal     clock.Calendar
	locks   *keylock.Locker
	remote  *redislock.Client
	lockTTL time.Duration
	after   func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	jobs map[string]*job
}

func New(baseLog *logger.Logger, clk clock.Clock, cal clock.Calendar, opts ...Option) *Daily {
	d := &Daily{
		log:     baseLog.With("component", "Scheduler"),
		clk:     clk,
		cal:     cal,
		locks:   keylock.New(),
		lockTTL: 30 * time.Minute,
		after:   time.After,
		jobs:    map[string]*job{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time of day %q: want HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time of day %q: bad hour", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q: bad minute", raw)
	}
	return hour, minute, nil
}

func (d *Daily) Add(name, at string, fn JobFunc) error {
	if name == "" || fn == nil {
		return errors.New("scheduler: job needs a name and a func")
	}
	h, m, err := ParseClock(at)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.jobs[name]; dup {
		return fmt.Errorf("scheduler: job %q already registered", name)
	}
	d.jobs[name] = &job{name: name, hour: h, minute: m, fn: fn}
	return nil
}

// Next is the first fire time of the job strictly after now.
func (d *Daily) Next(name string, now time.Time) (time.Time, error) {
	j, err := d.job(name)
	if err != nil {
		return time.Time{}, err
	}
	return d.next(j, now), nil
}

func (d *Daily) next(j *job, now time.Time) time.Time {
	day := d.cal.DayOf(now)
	at := d.cal.At(day, j.hour, j.minute)
	if !at.After(now) {
		at = d.cal.At(clock.AddDays(day, 1), j.hour, j.minute)
	}
	return at
}

func (d *Daily) job(name string) (*job, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	j, ok := d.jobs[name]
	if !ok {
		return nil, fmt.Errorf("scheduler: unknown job %q", name)
	}
	return j, nil
}

// Run blocks until ctx is done, firing every job at its time of day.
func (d *Daily) Run(ctx context.Context) error {
	d.mu.Lock()
	jobs := make([]*job, 0, len(d.jobs))
	for _, j := range d.jobs {
		jobs = append(jobs, j)
	}
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			d.loop(ctx, j)
		}(j)
	}
	d.log.Info("scheduler started", "jobs", len(jobs))
	wg.Wait()
	d.log.Info("scheduler stopped")
	return nil
}

func (d *Daily) loop(ctx context.Context, j *job) {
	for {
		now := d.clk.Now()
		next := d.next(j, now)
		d.log.Debug("next run scheduled", "job", j.name, "at", next)
		select {
		case <-ctx.Done():
			return
		case <-d.after(next.Sub(now)):
		}
		if _, err := d.trigger(ctx, j); err != nil {
			d.log.Error("scheduled job failed", "job", j.name, "error", err)
		}
	}
}

// Trigger runs a job now under its run-lock. ran is false when another run
// holds the lock.
func (d *Daily) Trigger(ctx context.Context, name string) (ran bool, err error) {
	j, err := d.job(name)
	if err != nil {
		return false, err
	}
	return d.trigger(ctx, j)
}

func (d *Daily) trigger(ctx context.Context, j *job) (bool, error) {
	unlock, ok := d.locks.TryLock(j.name)
	if !ok {
		d.log.Warn("previous run still in progress, skipping", "job", j.name)
		return false, nil
	}
	defer unlock()

	if d.remote != nil {
		lock, err := d.remote.TryAcquire(ctx, "job:"+j.name, d.lockTTL)
		if errors.Is(err, redislock.ErrNotAcquired) {
			d.log.Info("job running on another replica, skipping", "job", j.name)
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := lock.Release(relCtx); err != nil {
				d.log.Warn("release run lock", "job", j.name, "error", err)
			}
		}()
	}

	start := d.clk.Now()
	err := d.safeRun(ctx, j)
	d.log.Info("job finished", "job", j.name, "duration", d.clk.Now().Sub(start), "ok", err == nil)
	return true, err
}

func (d *Daily) safeRun(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("job panicked", "job", j.name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}
