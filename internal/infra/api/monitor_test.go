package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vocalyze/client-go/internal/core/config"
)

func newMonitorClient(baseURL string, transport http.RoundTripper) *Client {
	cfg := config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second, ErrorThreshold: 400}
	retryCfg := config.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
	opts := []Option{}
	if transport != nil {
		opts = append(opts, WithTransport(transport))
	}
	return New(cfg, retryCfg, opts...)
}

// blockingTransport holds every request until released, counting calls.
type blockingTransport struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (b *blockingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	<-b.release
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       http.NoBody,
		Request:    req,
	}, nil
}

func (b *blockingTransport) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestMonitor_ProbeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != HealthPath {
			t.Errorf("expected probe on %s, got %s", HealthPath, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	m := NewMonitor(newMonitorClient(server.URL, nil), time.Minute, 5*time.Second, nil)
	defer m.Close()

	m.CheckNow(context.Background())

	status := m.Status()
	if status.State != StateConnected {
		t.Fatalf("expected Connected, got %v", status.State)
	}
	if status.Latency <= 0 {
		t.Errorf("expected measured latency, got %v", status.Latency)
	}
	if status.LastCheckedAt.IsZero() {
		t.Error("expected LastCheckedAt to be set")
	}
	if status.LastError != "" {
		t.Errorf("expected empty LastError, got %q", status.LastError)
	}
}

func TestMonitor_ProbeFailure(t *testing.T) {
	transport := &scriptedTransport{outcomes: []outcome{
		{err: timeoutError{}},
	}}
	m := NewMonitor(newMonitorClient("http://vocalyze.test", transport), time.Minute, 5*time.Second, nil)
	defer m.Close()

	m.CheckNow(context.Background())

	status := m.Status()
	if status.State != StateDisconnected {
		t.Fatalf("expected Disconnected, got %v", status.State)
	}
	if status.LastError == "" {
		t.Error("expected LastError to carry the classified message")
	}
}

func TestMonitor_OfflineWithoutTransportCall(t *testing.T) {
	transport := &scriptedTransport{}
	m := NewMonitor(newMonitorClient("http://vocalyze.test", transport), time.Minute, 5*time.Second, nil)
	defer m.Close()

	m.NotifyOffline()

	status := m.Status()
	if status.State != StateDisconnected {
		t.Fatalf("expected Disconnected, got %v", status.State)
	}
	if transport.callCount() != 0 {
		t.Errorf("offline must not issue network calls, got %d", transport.callCount())
	}
}

func TestMonitor_NoOverlappingProbes(t *testing.T) {
	transport := &blockingTransport{release: make(chan struct{})}
	m := NewMonitor(newMonitorClient("http://vocalyze.test", transport), time.Minute, 5*time.Second, nil)
	defer m.Close()

	var mu sync.Mutex
	var events []ConnState
	unsubscribe := m.Subscribe(func(s ConnectionStatus) {
		mu.Lock()
		events = append(events, s.State)
		mu.Unlock()
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		m.CheckNow(context.Background())
		close(done)
	}()

	// Wait for the probe to be in flight, then fire triggers faster than
	// it can complete.
	for transport.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	m.CheckNow(context.Background())
	m.NotifyOnline(context.Background())
	m.NotifyFocus(context.Background())
	m.NotifyOffline()

	close(transport.release)
	<-done

	if got := transport.callCount(); got != 1 {
		t.Errorf("expected a single probe, got %d", got)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(events); i++ {
		if events[i] == StateChecking && events[i-1] == StateChecking {
			t.Fatalf("two Checking states without an intervening result: %v", events)
		}
	}
}

func TestMonitor_IntervalProbes(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMonitor(newMonitorClient(server.URL, nil), 20*time.Millisecond, time.Second, nil)
	m.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 interval probes, got %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Close()

	if m.Status().State != StateConnected {
		t.Errorf("expected Connected after successful probes, got %v", m.Status().State)
	}
}

func TestMonitor_CloseReleasesEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMonitor(newMonitorClient(server.URL, nil), 10*time.Millisecond, time.Second, nil)
	m.Start(context.Background())

	notified := make(chan struct{}, 16)
	m.Subscribe(func(ConnectionStatus) {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	<-notified
	m.Close()
	m.Close() // idempotent

	// Triggers after Close are ignored
	m.CheckNow(context.Background())
	m.NotifyOffline()

	drained := len(notified)
	time.Sleep(50 * time.Millisecond)
	if len(notified) != drained {
		t.Error("subscribers must be detached after Close")
	}
}
