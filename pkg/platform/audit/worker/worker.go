package worker

import (
	"context"
	"log/slog"

	audit "carewatch/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A failed
// append is reported and skipped; the worker stops when the inbox is closed
// or ctx is done.
type Worker struct {
	store   audit.Store
	inbox   <-chan audit.Event
	logger  *slog.Logger
	onError func(audit.Event, error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithErrorHook is called for every failed append, e.g. to count failures.
func WithErrorHook(fn func(audit.Event, error)) Option {
	return func(w *Worker) {
		w.onError = fn
	}
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the inbox until it is closed. Events are persisted with a
// background context so a cancelled request never loses its audit record.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.persist(event)
		}
	}
}

func (w *Worker) persist(event audit.Event) {
	if err := w.store.Append(context.Background(), event); err != nil {
		if w.logger != nil {
			w.logger.Error("failed to persist audit event",
				"action", event.Action,
				"institution_id", event.InstitutionID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		if w.onError != nil {
			w.onError(event, err)
		}
	}
}
