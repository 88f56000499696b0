// Package heartbeat runs the periodic background pulse that keeps the
// companion checking in on its own state. Each beat records a pulse and
// may trigger a reflection pass when enough time has gone by.
package heartbeat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenlabs/companion/internal/config"
	"github.com/lumenlabs/companion/internal/logging"
	"github.com/lumenlabs/companion/internal/monitoring"
)

const defaultInterval = 5 * time.Minute

// Pulse is a snapshot of the most recent beat.
type Pulse struct {
	Count      int64     `json:"count"`
	LastBeat   time.Time `json:"last_beat"`
	LastStatus string    `json:"last_status"`
}

// Reflector is invoked when the reflection interval has elapsed.
type Reflector interface {
	Run(ctx context.Context) error
}

// Service manages the periodic heartbeat loop.
type Service struct {
	cfg       config.HeartbeatConfig
	log       *logging.Logger
	metrics   *monitoring.Metrics
	reflector Reflector
	notify    func(Pulse)

	mu             sync.Mutex
	running        bool
	cancel         context.CancelFunc
	pulse          Pulse
	lastReflection time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithReflector attaches a reflection pass to the beat cycle.
func WithReflector(r Reflector) Option {
	return func(s *Service) { s.reflector = r }
}

// WithNotify registers a callback invoked after every beat.
func WithNotify(fn func(Pulse)) Option {
	return func(s *Service) { s.notify = fn }
}

// NewService creates a heartbeat service.
func NewService(cfg config.HeartbeatConfig, log *logging.Logger, metrics *monitoring.Metrics, opts ...Option) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	s := &Service{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the heartbeat loop in a background goroutine.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.lastReflection = time.Now()

	go s.loop(ctx)
	s.log.Info("heartbeat started",
		zap.Duration("interval", s.cfg.Interval),
		zap.String("active_start", s.cfg.ActiveStart),
		zap.String("active_end", s.cfg.ActiveEnd),
	)
}

// Stop halts the heartbeat loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.running = false
	s.log.Info("heartbeat stopped")
}

// IsRunning reports whether the loop is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Beat performs a manual beat, bypassing the active-hours window.
func (s *Service) Beat(ctx context.Context) Pulse {
	return s.beat(ctx, true)
}

// Status returns a snapshot of the heartbeat state.
func (s *Service) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":     s.running,
		"interval":    s.cfg.Interval.String(),
		"beat_count":  s.pulse.Count,
		"last_status": s.pulse.LastStatus,
	}
	if !s.pulse.LastBeat.IsZero() {
		status["last_beat"] = s.pulse.LastBeat
	}
	if !s.lastReflection.IsZero() {
		status["last_reflection"] = s.lastReflection
	}
	if s.cfg.ActiveStart != "" && s.cfg.ActiveEnd != "" {
		status["active_hours"] = fmt.Sprintf("%s-%s", s.cfg.ActiveStart, s.cfg.ActiveEnd)
	}
	return status
}

func (s *Service) loop(ctx context.Context) {
	// Wait one full interval before the first beat.
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.beat(ctx, false)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) beat(ctx context.Context, manual bool) Pulse {
	if !manual && !inActiveHours(time.Now(), s.cfg.ActiveStart, s.cfg.ActiveEnd) {
		s.log.Debug("heartbeat skipped: outside active hours")
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.pulse
	}

	s.mu.Lock()
	s.pulse.Count++
	s.pulse.LastBeat = time.Now().UTC()
	s.pulse.LastStatus = "ok"
	reflect := s.reflector != nil && s.cfg.ReflectionInterval > 0 &&
		time.Since(s.lastReflection) >= s.cfg.ReflectionInterval
	if reflect {
		s.lastReflection = time.Now()
	}
	pulse := s.pulse
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.HeartbeatBeats.Inc()
	}
	s.log.Debug("heartbeat beat", zap.Int64("count", pulse.Count), zap.Bool("manual", manual))

	if reflect {
		if err := s.reflector.Run(ctx); err != nil {
			s.log.Warn("reflection failed", zap.Error(err))
			s.mu.Lock()
			s.pulse.LastStatus = "reflection_failed"
			pulse = s.pulse
			s.mu.Unlock()
		}
	}

	if s.notify != nil {
		s.notify(pulse)
	}
	return pulse
}

// inActiveHours checks whether t falls inside the HH:MM window.
// An empty window means always active; the window may wrap midnight.
func inActiveHours(t time.Time, start, end string) bool {
	if start == "" || end == "" {
		return true
	}

	startH, startM := parseHHMM(start)
	endH, endM := parseHHMM(end)

	currentMin := t.Hour()*60 + t.Minute()
	startMin := startH*60 + startM
	endMin := endH*60 + endM

	if startMin <= endMin {
		return currentMin >= startMin && currentMin < endMin
	}
	return currentMin >= startMin || currentMin < endMin
}

func parseHHMM(s string) (int, int) {
	var h, m int
	fmt.Sscanf(s, "%d:%d", &h, &m)
	return h, m
}
