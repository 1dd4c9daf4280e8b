// Package publisher emits audit events either synchronously or through a
// bounded buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/platform/audit/worker"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is full.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

// Metrics counts audit outcomes.
type Metrics struct {
	Emitted  *prometheus.CounterVec
	Dropped  prometheus.Counter
	Failures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_audit_events_emitted_total",
			Help: "Audit events accepted for persistence by category",
		}, []string{"category"}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_audit_events_dropped_total",
			Help: "Audit events dropped because the async buffer was full",
		}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "carewatch_audit_persist_failures_total",
			Help: "Audit events the store failed to persist",
		}),
	}
}

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics

	bufferSize int
	inbox      chan audit.Event
	wg         sync.WaitGroup

	// mu guards closed; senders hold it shared so Close never races a send.
	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		w := worker.NewWorker(store, p.inbox,
			worker.WithLogger(p.logger),
			worker.WithErrorHook(func(audit.Event, error) { p.incFailure() }),
		)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records an event. The category is derived from the action and a zero
// timestamp is filled with the current time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.incFailure()
			return err
		}
		p.incEmitted(event.Category)
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- event:
		p.incEmitted(event.Category)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.metrics != nil {
			p.metrics.Dropped.Inc()
		}
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for buffered ones to be persisted.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		if p.inbox != nil {
			close(p.inbox)
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) incEmitted(c audit.EventCategory) {
	if p.metrics != nil {
		p.metrics.Emitted.WithLabelValues(string(c)).Inc()
	}
}

func (p *Publisher) incFailure() {
	if p.metrics != nil {
		p.metrics.Failures.Inc()
	}
}
