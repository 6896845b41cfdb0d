package idle

import (
	"time"

	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/interfaces"
	"github.com/Veraticus/past-midnight/pkg/logging"
)

// DefaultInterval is the idle check period.
const DefaultInterval = time.Second

// Gate is the activation side the scheduler triggers. It holds all selection logic.
type Gate interface {
	Enabled() bool
	Active() bool
	Timeout() time.Duration
	Activate()
}

// Scheduler periodically compares idle time against the gate's timeout.
type Scheduler struct {
	host     interfaces.Host
	detector interfaces.IdleDetector
	gate     Gate
	interval time.Duration
	logger   *zap.Logger

	cancel func()

	// failedFor is the last activity of an idle period whose activation failed.
	// No new attempt is made until activity moves past it.
	failedFor time.Time
	failed    bool
}

// NewScheduler creates a stopped scheduler. A non-positive interval uses DefaultInterval.
func NewScheduler(host interfaces.Host, detector interfaces.IdleDetector, gate Gate, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		host:     host,
		detector: detector,
		gate:     gate,
		interval: interval,
		logger:   logging.OrNop(logger).Named("scheduler"),
	}
}

// Start begins periodic checks. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	if s.cancel != nil {
		return
	}
	s.cancel = s.host.Every(s.interval, s.Tick)
}

// Stop cancels periodic checks.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// Running reports whether periodic checks are scheduled.
func (s *Scheduler) Running() bool {
	return s.cancel != nil
}

// Interval returns the check period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Tick performs one idle check.
func (s *Scheduler) Tick() {
	if !s.gate.Enabled() || s.gate.Active() {
		return
	}

	last := s.detector.LastActivity()
	if s.failed && last.Equal(s.failedFor) {
		return
	}
	s.failed = false

	idle, err := s.detector.IsUserIdle(s.gate.Timeout())
	if err != nil {
		s.logger.Warn("idle check failed", zap.Error(err))
		return
	}
	if !idle {
		return
	}

	s.logger.Debug("idle timeout reached", zap.Duration("timeout", s.gate.Timeout()))
	s.gate.Activate()
	if !s.gate.Active() {
		s.failed = true
		s.failedFor = last
	}
}
