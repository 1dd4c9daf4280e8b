package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "carewatch/pkg/platform/audit"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an event under a fresh id. The category is always derived
// from the action so stored rows agree with the event catalogue.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, institution_id, resource_id,
			role, decision, reason, request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	category := audit.AuditEvent(event.Action).Category()
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		event.Action,
		event.InstitutionID,
		event.ResourceID,
		event.Role,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByInstitution returns events for one institution, oldest first.
func (s *Store) ListByInstitution(ctx context.Context, institutionID string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, institution_id, resource_id,
			   role, decision, reason, request_id, client_ip, device
		FROM audit_events
		WHERE institution_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, institutionID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Action,
			&event.InstitutionID,
			&event.ResourceID,
			&event.Role,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
			&event.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
