package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "carewatch/pkg/platform/audit"
)

type recordingProducer struct {
	keys    []string
	values  [][]byte
	headers []map[string]string
	err     error
}

func (p *recordingProducer) Publish(_ context.Context, key, value []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	p.headers = append(p.headers, headers)
	return nil
}

func TestStore_AppendKeysByInstitution(t *testing.T) {
	producer := &recordingProducer{}
	store := New(producer)

	ts := time.Date(2023, 11, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(context.Background(), audit.Event{
		Timestamp:     ts,
		Action:        string(audit.EventAllocationRecorded),
		InstitutionID: "O002",
		ResourceID:    "1",
	}))
	require.NoError(t, store.Append(context.Background(), audit.Event{
		Timestamp: ts,
		Action:    string(audit.EventAdvisoryRequested),
	}))

	require.Equal(t, []string{"O002", "platform"}, producer.keys)
	assert.Equal(t, "financial", producer.headers[0]["category"])

	var got payload
	require.NoError(t, json.Unmarshal(producer.values[0], &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "allocation_recorded", got.Action)
	assert.Equal(t, "2023-11-01T10:00:00Z", got.Timestamp)
	assert.Equal(t, "O002", got.InstitutionID)
}

func TestStore_AppendPropagatesProducerError(t *testing.T) {
	store := New(&recordingProducer{err: errors.New("broker down")})
	err := store.Append(context.Background(), audit.Event{Action: string(audit.EventBookingCreated)})
	require.Error(t, err)
}
