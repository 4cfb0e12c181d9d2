package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"golang.org/x/time/rate"
)

// Pinger checks whether the backend answers at all.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AvailabilityStatus struct {
	Known     bool      `json:"known"`
	Active    bool      `json:"active"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type MonitorOptions struct {
	Interval time.Duration
	// Burst bounds how many on-demand probes may run back to back.
	Burst int
	// MinGap is the refill period of the on-demand budget.
	MinGap time.Duration
}

// Monitor holds the "API active" cell. Until the first probe completes the
// backend is assumed to be up.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	limiter  *rate.Limiter
	logger   *logger.Logger
	now      func() time.Time

	inFlight atomic.Bool

	mu      sync.RWMutex
	status  AvailabilityStatus
	subs    map[int]chan AvailabilityStatus
	nextSub int
}

func NewMonitor(pinger Pinger, opts MonitorOptions, log *logger.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 3
	}
	if opts.MinGap <= 0 {
		opts.MinGap = time.Second
	}
	return &Monitor{
		pinger:   pinger,
		interval: opts.Interval,
		limiter:  rate.NewLimiter(rate.Every(opts.MinGap), opts.Burst),
		logger:   log.With("component", "availability"),
		now:      time.Now,
		subs:     make(map[int]chan AvailabilityStatus),
	}
}

func (m *Monitor) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.status.Known || m.status.Active
}

func (m *Monitor) Status() AvailabilityStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Subscribe returns a channel that receives every probe result. Results are
// dropped for a subscriber whose buffer is full.
func (m *Monitor) Subscribe(buffer int) (int, <-chan AvailabilityStatus) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan AvailabilityStatus, buffer)
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	return id, ch
}

func (m *Monitor) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.subs[id]; ok {
		delete(m.subs, id)
		close(ch)
	}
}

// ProbeNow runs an on-demand probe. It returns the current status without
// probing when another probe is in flight or the on-demand budget is spent;
// probed reports which happened.
func (m *Monitor) ProbeNow(ctx context.Context) (status AvailabilityStatus, probed bool) {
	if !m.limiter.Allow() {
		return m.Status(), false
	}
	return m.probe(ctx)
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Availability monitor started", "interval", m.interval)
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Availability monitor stopped")
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) (AvailabilityStatus, bool) {
	if !m.inFlight.CompareAndSwap(false, true) {
		return m.Status(), false
	}
	defer m.inFlight.Store(false)

	err := m.pinger.Ping(ctx)
	if ctx.Err() != nil && err != nil {
		return m.Status(), false
	}

	next := AvailabilityStatus{Known: true, Active: err == nil, CheckedAt: m.now()}
	if err != nil {
		next.Error = err.Error()
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	for _, ch := range m.subs {
		select {
		case ch <- next:
		default:
		}
	}
	m.mu.Unlock()

	if prev.Known && prev.Active != next.Active {
		m.logger.Info("Backend availability changed", "active", next.Active, "error", next.Error)
	} else if !next.Active {
		m.logger.Debug("Backend probe failed", "error", next.Error)
	}
	return next, true
}
