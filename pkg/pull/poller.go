package pull

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// Fetcher returns the full current notification list for one identity.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) ([]notifications.Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]notifications.Record, error)

func (f FetcherFunc) FetchSnapshot(ctx context.Context) ([]notifications.Record, error) {
	return f(ctx)
}

// Ingester receives each successful snapshot.
type Ingester interface {
	IngestSnapshot(ctx context.Context, records []notifications.Record) error
}

// Status describes the outcome of recent fetches.
type Status struct {
	LastAttempt         time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger for the Poller.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces the clock driving the interval ticker.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// Poller fetches a snapshot on start, on every interval tick and on demand.
// A failed fetch never touches the store.
type Poller struct {
	fetcher  Fetcher
	sink     Ingester
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	trigger  chan struct{}

	mu     sync.Mutex
	status Status
}

func NewPoller(fetcher Fetcher, sink Ingester, cfg Config, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		sink:     sink,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		trigger:  make(chan struct{}, 1),
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled and then returns nil.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			p.poll(ctx)
		case <-p.trigger:
			p.poll(ctx)
		}
	}
}

// Refresh asks for a fetch as soon as possible. Requests made while one is
// already queued are coalesced.
func (p *Poller) Refresh() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Status returns the outcome of recent fetches.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) poll(ctx context.Context) {
	start := p.clock.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	records, err := p.fetcher.FetchSnapshot(fetchCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		failures := p.recordFailure(start, err)
		p.logger.LogAttrs(ctx, slog.LevelWarn, "notification fetch failed, keeping current feed",
			slog.Int("consecutive_failures", failures),
			logger.Error(err),
		)
		return
	}

	if err := p.sink.IngestSnapshot(ctx, records); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, notifications.ErrStoreClosed) {
			level = slog.LevelDebug
		}
		p.logger.LogAttrs(ctx, level, "snapshot not ingested", logger.Error(err))
		return
	}

	p.recordSuccess(start)
	p.logger.LogAttrs(ctx, slog.LevelDebug, "notification snapshot ingested",
		logger.Count(len(records)),
		logger.Duration(p.clock.Since(start)),
	)
}

func (p *Poller) recordFailure(at time.Time, err error) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastAttempt = at
	p.status.LastError = err
	p.status.ConsecutiveFailures++
	return p.status.ConsecutiveFailures
}

func (p *Poller) recordSuccess(at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastAttempt = at
	p.status.LastSuccess = at
	p.status.LastError = nil
	p.status.ConsecutiveFailures = 0
}
