package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "carewatch/pkg/platform/audit"
)

// Producer is the subset of the platform Kafka producer the store needs.
type Producer interface {
	Publish(ctx context.Context, key, value []byte, headers map[string]string) error
}

// Store streams audit events to Kafka. Records are keyed by institution so
// one institution's events stay ordered within a partition.
type Store struct {
	producer Producer
}

func New(producer Producer) *Store {
	return &Store{producer: producer}
}

// payload is the JSON record value.
type payload struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Timestamp     string `json:"timestamp"`
	Action        string `json:"action"`
	InstitutionID string `json:"institution_id,omitempty"`
	ResourceID    string `json:"resource_id,omitempty"`
	Role          string `json:"role,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
	Device        string `json:"device,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()
	body, err := json.Marshal(payload{
		ID:            uuid.NewString(),
		Category:      string(category),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:        event.Action,
		InstitutionID: event.InstitutionID,
		ResourceID:    event.ResourceID,
		Role:          event.Role,
		Decision:      event.Decision,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		ClientIP:      event.ClientIP,
		Device:        event.Device,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	key := event.InstitutionID
	if key == "" {
		key = "platform"
	}
	headers := map[string]string{
		"category": string(category),
		"action":   event.Action,
	}
	return s.producer.Publish(ctx, []byte(key), body, headers)
}
