// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultDailySweepSpec  = "0 9 * * *"
	DefaultHourlyFlushSpec = "0 * * * *"

	sweepLockName = "reminders:sweep"
	flushLockName = "reminders:flush"
	sweepLockTTL  = 6 * time.Hour
	flushLockTTL  = 50 * time.Minute
)

// QuotaChecker is consulted before the sweep dispatches an SMS.
type QuotaChecker interface {
	Check(ctx context.Context, userID uuid.UUID) (*Usage, error)
}

type SchedulerOptions struct {
	Clients   ClientStore
	Reminders ReminderStore
	Activity  ActivityStore
	Channels  ChannelSet
	Quota     QuotaChecker // optional
	Locker    RunLocker    // defaults to a LocalLocker
	Clock     Clock
	Logger    *zap.Logger

	DailySpec  string
	HourlySpec string
}

// ReminderScheduler drives the daily expiry sweep and the hourly flush of
// scheduled reminders. Both runs can be triggered directly.
type ReminderScheduler struct {
	clients   ClientStore
	reminders ReminderStore
	activity  ActivityStore
	channels  ChannelSet
	quota     QuotaChecker
	locker    RunLocker
	clock     Clock
	log       *zap.Logger

	dailySpec  string
	hourlySpec string

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewReminderScheduler(opts SchedulerOptions) *ReminderScheduler {
	s := &ReminderScheduler{
		clients:    opts.Clients,
		reminders:  opts.Reminders,
		activity:   opts.Activity,
		channels:   opts.Channels,
		quota:      opts.Quota,
		locker:     opts.Locker,
		clock:      opts.Clock,
		log:        opts.Logger,
		dailySpec:  opts.DailySpec,
		hourlySpec: opts.HourlySpec,
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.dailySpec == "" {
		s.dailySpec = DefaultDailySweepSpec
	}
	if s.hourlySpec == "" {
		s.hourlySpec = DefaultHourlyFlushSpec
	}
	return s
}

// Start registers both triggers on a cron scheduler in the clock's location.
func (s *ReminderScheduler) Start() error {
	logger := cronLogger{log: s.log.Sugar()}
	c := cron.New(
		cron.WithLocation(s.clock.Now().Location()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := c.AddFunc(s.dailySpec, s.runSweep); err != nil {
		s.cancel()
		return errors.Wrapf(err, "schedule daily sweep %q", s.dailySpec)
	}
	if _, err := c.AddFunc(s.hourlySpec, s.runFlush); err != nil {
		s.cancel()
		return errors.Wrapf(err, "schedule hourly flush %q", s.hourlySpec)
	}

	s.cron = c
	c.Start()
	s.log.Info("reminder scheduler started",
		zap.String("dailySweep", s.dailySpec),
		zap.String("hourlyFlush", s.hourlySpec))
	return nil
}

// Stop waits for running jobs until ctx expires, then cancels them.
func (s *ReminderScheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("reminder scheduler stop timed out; cancelling running jobs")
	}
	s.cancel()
	s.log.Info("reminder scheduler stopped")
}

func (s *ReminderScheduler) runSweep() {
	if _, err := s.RunDailySweep(s.ctx); err != nil {
		s.log.Error("daily reminder sweep failed", zap.Error(err))
	}
}

func (s *ReminderScheduler) runFlush() {
	if _, err := s.RunHourlyFlush(s.ctx); err != nil {
		s.log.Error("scheduled reminder flush failed", zap.Error(err))
	}
}

// cronLogger routes robfig/cron's logging into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
