package client

import (
	"context"
	"sync"
	"time"

	"github.com/KeyurIITGN/Strife/libs/logging"
)

// Monitor is the connectivity supervisor: one long-lived background task
// that probes the gateway each tick, reopens a dead channel, and replays
// queued payments while a session token is held. Starting a running monitor
// is a no-op so a reconnect can never double-replay.
type Monitor struct {
	client   *Client
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewMonitor - a stopped supervisor over the client
func NewMonitor(client *Client, interval time.Duration) *Monitor {
	return &Monitor{
		client:   client,
		interval: interval,
	}
}

// Running reports whether the supervisor task is live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start launches the supervisor; it reports whether a new task was started.
func (m *Monitor) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return false
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(ctx, m.stop, m.done)
	return true
}

// Stop signals the supervisor and waits for the current tick to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	<-done
}

func (m *Monitor) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick probes the channel, reconnects on failure, and serially replays
// every pending payment when a session is held.
func (m *Monitor) tick(ctx context.Context) {
	logger := logging.Logger(ctx, "client.Monitor")

	if m.client.Connected() && !m.client.Probe(ctx) {
		logger.Warn().Msg("gateway unreachable, reopening channel")
		if err := m.client.Reconnect(ctx); err != nil {
			logger.Warn().Err(err).Msg("reconnect failed")
			return
		}
	}

	if !m.client.Connected() || !m.client.Authenticated() {
		return
	}

	pending, err := m.client.Queue().List()
	if err != nil {
		logger.Error().Err(err).Msg("failed to list pending payments")
		return
	}

	for _, p := range pending {
		resp, err := m.client.Replay(ctx, p)
		if err != nil {
			logger.Warn().Err(err).Str("paymentID", p.PaymentID).Msg("replay failed")
			continue
		}
		logger.Info().
			Str("paymentID", p.PaymentID).
			Bool("success", resp.Success).
			Str("status", string(resp.Status)).
			Msg("pending payment replayed")
	}
}
