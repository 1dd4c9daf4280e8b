package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestWorker_DrainsUntilInboxClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 3)
	for range 3 {
		inbox <- audit.Event{Action: string(audit.EventBookingCreated), InstitutionID: "O001"}
	}
	close(inbox)

	err := NewWorker(store, inbox).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
}

func TestWorker_ContinuesAfterAppendFailure(t *testing.T) {
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{Action: "a"}
	inbox <- audit.Event{Action: "b"}
	close(inbox)

	var failed []string
	w := NewWorker(failingStore{}, inbox, WithErrorHook(func(e audit.Event, _ error) {
		failed = append(failed, e.Action)
	}))
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []string{"a", "b"}, failed)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	inbox := make(chan audit.Event)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewWorker(memory.NewInMemoryStore(), inbox).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
