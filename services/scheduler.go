package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"whatsapp-notifier/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Connector hands out a repository pinned to one store connection.
type Connector interface {
	WithConnection(ctx context.Context, fn func(Repository) error) error
}

// BusinessHours is the half-open hour range [Start, End) in which cycles run.
type BusinessHours struct {
	Start int
	End   int
}

func (h BusinessHours) Contains(hour int) bool {
	return hour >= h.Start && hour < h.End
}

// TickResult tells what a tick did.
type TickResult int

const (
	TickRan TickResult = iota
	TickOutsideHours
	TickBusy
	TickFailed
)

func (r TickResult) String() string {
	switch r {
	case TickRan:
		return "ran"
	case TickOutsideHours:
		return "outside_hours"
	case TickBusy:
		return "busy"
	default:
		return "failed"
	}
}

type SchedulerOptions struct {
	Interval time.Duration
	Location *time.Location
	Hours    BusinessHours
	// SkipLogEvery throttles the outside-hours log line; defaults to one hour.
	SkipLogEvery time.Duration
}

// Scheduler polls the store on a fixed interval and dispatches welcome then
// reminder batches. At most one cycle runs at a time.
type Scheduler struct {
	connector  Connector
	dispatcher *Dispatcher
	opts       SchedulerOptions
	log        *zap.Logger
	now        func() time.Time

	running atomic.Bool

	skipMu      sync.Mutex
	lastSkipLog time.Time

	last atomic.Pointer[CycleReport]
}

func NewScheduler(connector Connector, dispatcher *Dispatcher, opts SchedulerOptions, log *zap.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.SkipLogEvery <= 0 {
		opts.SkipLogEvery = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		connector:  connector,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log,
		now:        time.Now,
	}
}

// Run ticks every interval until ctx is cancelled, then waits for the running
// cycle to finish.
func (s *Scheduler) Run(ctx context.Context) {
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(cronLogger{log: s.log}),
		cron.WithChain(cron.Recover(cronLogger{log: s.log})),
	)
	// a cycle in flight at shutdown finishes its sends and status writes
	cycleCtx := context.WithoutCancel(ctx)
	c.Schedule(cron.Every(s.opts.Interval), cron.FuncJob(func() {
		s.Tick(cycleCtx)
	}))
	c.Start()

	s.log.Info("Scheduler started",
		zap.Duration("interval", s.opts.Interval),
		zap.String("timezone", s.opts.Location.String()),
		zap.Int("hour_start", s.opts.Hours.Start),
		zap.Int("hour_end", s.opts.Hours.End),
	)

	<-ctx.Done()
	s.log.Info("Scheduler stopping, waiting for running cycle")
	<-c.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Tick applies the business-hours and single-flight gates, then runs one cycle.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	now := s.now().In(s.opts.Location)
	if !s.opts.Hours.Contains(now.Hour()) {
		s.logOutsideHours(now)
		return TickOutsideHours
	}

	if !s.running.CompareAndSwap(false, true) {
		s.log.Info("Previous cycle still running, skipping tick")
		return TickBusy
	}
	defer s.running.Store(false)

	report := s.runCycle(ctx, now)
	s.last.Store(&report)
	if report.Err != nil {
		return TickFailed
	}
	return TickRan
}

func (s *Scheduler) logOutsideHours(now time.Time) {
	s.skipMu.Lock()
	defer s.skipMu.Unlock()

	if !s.lastSkipLog.IsZero() && now.Sub(s.lastSkipLog) < s.opts.SkipLogEvery {
		return
	}
	s.lastSkipLog = now
	s.log.Info("Outside business hours, skipping",
		zap.Int("hour", now.Hour()),
		zap.Int("hour_start", s.opts.Hours.Start),
		zap.Int("hour_end", s.opts.Hours.End),
	)
}

func (s *Scheduler) runCycle(ctx context.Context, now time.Time) CycleReport {
	report := CycleReport{ID: uuid.NewString(), StartedAt: now}
	log := s.log.With(zap.String("cycle_id", report.ID))
	dispatcher := s.dispatcher.WithLogger(log)

	log.Debug("Cycle started")
	err := s.connector.WithConnection(ctx, func(repo Repository) error {
		for _, kind := range []models.Kind{models.KindWelcome, models.KindReminder} {
			report.Batches = append(report.Batches, s.runBatch(ctx, repo, dispatcher, kind, now, log))
		}
		return nil
	})
	report.FinishedAt = s.now()

	if err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			log.Error("Cycle aborted, store unavailable", zap.Error(err))
		} else {
			log.Error("Cycle failed", zap.Error(err))
		}
		report.Err = err
		return report
	}

	log.Debug("Cycle finished", zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))
	return report
}

func (s *Scheduler) runBatch(ctx context.Context, repo Repository, dispatcher *Dispatcher, kind models.Kind, now time.Time, log *zap.Logger) BatchReport {
	var (
		records []models.NotificationRecord
		err     error
	)
	if kind == models.KindReminder {
		records, err = repo.SelectReminderBatch(ctx, now)
	} else {
		records, err = repo.SelectWelcomeBatch(ctx, now)
	}
	if err != nil {
		log.Error("Selection failed, skipping batch", zap.String("kind", kind.String()), zap.Error(err))
		return BatchReport{Kind: kind, SelectErr: err, StartedAt: now, FinishedAt: s.now()}
	}
	if len(records) == 0 {
		log.Debug("Nothing due", zap.String("kind", kind.String()))
		return BatchReport{Kind: kind, StartedAt: now, FinishedAt: s.now()}
	}

	return dispatcher.Dispatch(ctx, repo, kind, records)
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (s *Scheduler) LastReport() *CycleReport {
	return s.last.Load()
}

// Running reports whether a cycle is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
