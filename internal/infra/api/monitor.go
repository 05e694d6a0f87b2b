package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vocalyze/client-go/internal/infra/metrics"
)

// ConnState is the connection monitor state.
type ConnState int

const (
	StateUnknown ConnState = iota
	StateChecking
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectionStatus is the monitor's published status record.
type ConnectionStatus struct {
	State         ConnState
	Latency       time.Duration // valid only when connected
	LastError     string        // valid only when disconnected
	LastCheckedAt time.Time     // zero until the first probe completes
}

// HealthPath is the probe endpoint; it is expected to answer any 2xx
// quickly.
const HealthPath = "/health"

// Monitor periodically and reactively probes the service's health
// endpoint and publishes a ConnectionStatus. Probes are single-attempt: a
// failed probe is simply retried on the next trigger, so the monitor
// never sits in a backoff wait.
type Monitor struct {
	client       *Client
	interval     time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	checking bool
	closed   bool
	started  bool
	status   ConnectionStatus
	subs     map[int]func(ConnectionStatus)
	nextSub  int

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewMonitor creates a monitor probing through client. It does nothing
// until Start is called.
func NewMonitor(client *Client, interval, probeTimeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		client:       client,
		interval:     interval,
		probeTimeout: probeTimeout,
		logger:       logger,
		status:       ConnectionStatus{State: StateUnknown},
		subs:         make(map[int]func(ConnectionStatus)),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the interval timer and performs an immediate first
// probe. Calling it more than once is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()
		go m.loop(ctx)
	})
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		}
	}
}

// Close stops the timer, waits for the loop to exit and detaches all
// subscribers. It is idempotent.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		started := m.started
		m.subs = make(map[int]func(ConnectionStatus))
		m.mu.Unlock()

		close(m.stop)
		if started {
			<-m.done
		}
	})
}

// Status returns a copy of the current status.
func (m *Monitor) Status() ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe registers fn to be called on every status change and returns
// an unsubscribe function.
func (m *Monitor) Subscribe(fn func(ConnectionStatus)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// CheckNow triggers a probe immediately. It is a no-op while a probe is
// already in flight.
func (m *Monitor) CheckNow(ctx context.Context) {
	m.check(ctx)
}

// NotifyOnline signals that connectivity was (re)gained; the monitor
// verifies with a probe.
func (m *Monitor) NotifyOnline(ctx context.Context) {
	m.check(ctx)
}

// NotifyFocus signals that the application regained foreground focus.
func (m *Monitor) NotifyFocus(ctx context.Context) {
	m.check(ctx)
}

// NotifyOffline transitions directly to Disconnected without issuing any
// network call. Ignored while a probe is in flight.
func (m *Monitor) NotifyOffline() {
	m.mu.Lock()
	if m.checking || m.closed {
		m.mu.Unlock()
		return
	}
	next := ConnectionStatus{
		State:         StateDisconnected,
		LastError:     "offline",
		LastCheckedAt: time.Now(),
	}
	subs := m.setStatusLocked(next)
	m.mu.Unlock()

	m.notify(subs, next)
}

// check reads and sets the checking flag within one critical section so
// closely-spaced triggers cannot start overlapping probes.
func (m *Monitor) check(ctx context.Context) {
	m.mu.Lock()
	if m.checking || m.closed {
		m.mu.Unlock()
		return
	}
	m.checking = true
	next := ConnectionStatus{
		State:         StateChecking,
		LastCheckedAt: m.status.LastCheckedAt,
	}
	subs := m.setStatusLocked(next)
	m.mu.Unlock()

	m.notify(subs, next)
	m.probe(ctx)
}

func (m *Monitor) probe(ctx context.Context) {
	desc := NewRequest(http.MethodGet, HealthPath)
	desc.Timeout = m.probeTimeout

	env, err := m.client.DoOnce(ctx, desc)

	next := ConnectionStatus{LastCheckedAt: time.Now()}
	if err != nil {
		next.State = StateDisconnected
		next.LastError = err.Error()
		m.logger.Debug("health probe failed", "error", err)
	} else {
		next.State = StateConnected
		next.Latency = env.Elapsed
		metrics.ProbeLatency.Observe(env.Elapsed.Seconds())
		m.logger.Debug("health probe ok", "latency", env.Elapsed)
	}

	m.mu.Lock()
	m.checking = false
	subs := m.setStatusLocked(next)
	m.mu.Unlock()

	m.notify(subs, next)
}

// setStatusLocked updates the status and returns the subscribers to
// notify. Callers must hold mu and invoke notify after releasing it.
func (m *Monitor) setStatusLocked(s ConnectionStatus) []func(ConnectionStatus) {
	m.status = s
	metrics.ConnectionState.Set(float64(s.State))

	subs := make([]func(ConnectionStatus), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (m *Monitor) notify(subs []func(ConnectionStatus), status ConnectionStatus) {
	for _, fn := range subs {
		fn(status)
	}
}
