package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fetcher reloads notifications.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Gate reports whether the session may currently poll.
type Gate interface {
	Allowed(ctx context.Context) bool
}

// NotificationPoller periodically refreshes one session's notifications. It is
// owned by the session lifecycle: started when the session enters a protected
// context and stopped on logout or when the context leaves that area.
type NotificationPoller struct {
	fetcher  Fetcher
	gate     Gate
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotificationPoller creates a stopped poller.
func NewNotificationPoller(fetcher Fetcher, gate Gate, interval time.Duration, logger *zap.Logger) *NotificationPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationPoller{
		fetcher:  fetcher,
		gate:     gate,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the polling loop with an immediate first fetch. It returns
// false if the poller is already running.
func (p *NotificationPoller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, p.done)
	p.logger.Debug("notification poller started", zap.Duration("interval", p.interval))
	return true
}

// Stop cancels the loop and waits for it to exit. Stopping a stopped poller
// is a no-op.
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Debug("notification poller stopped")
}

// Running reports whether the loop is active.
func (p *NotificationPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *NotificationPoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *NotificationPoller) tick(ctx context.Context) {
	if p.gate != nil && !p.gate.Allowed(ctx) {
		return
	}
	if err := p.fetcher.Fetch(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("notification poll failed", zap.Error(err))
	}
}
