package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carewatch/internal/booking/models"
	"carewatch/internal/platform/postgres"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/tx"
)

// Postgres relies on the partial unique index bookings_confirmed_slot_uniq
// as the check-and-reserve guard.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const bookingColumns = `id, institution_id, visit_date, time_slot, visitor_name, status, created_at, cancelled_at`

func (s *Postgres) Reserve(ctx context.Context, b *models.Booking) error {
	_, err := tx.Or(ctx, s.db).ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID.String(), b.InstitutionID.String(), b.VisitDate.Time(), string(b.TimeSlot),
		b.VisitorName, string(b.Status), b.CreatedAt, b.CancelledAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *Postgres) BookedSlots(ctx context.Context, institutionID domain.InstitutionID, date domain.Date) ([]models.TimeSlot, error) {
	rows, err := tx.Or(ctx, s.db).QueryContext(ctx, `
		SELECT time_slot FROM bookings
		WHERE institution_id = $1 AND visit_date = $2 AND status = 'confirmed'`,
		institutionID.String(), date.Time())
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	defer rows.Close()
	var out []models.TimeSlot
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan booked slot: %w", err)
		}
		out = append(out, models.TimeSlot(slot))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booked slots: %w", err)
	}
	return out, nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.BookingID) (*models.Booking, error) {
	row := tx.Or(ctx, s.db).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id.String())
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return b, nil
}

// Cancel flips a confirmed row in one statement. When no row changes the
// booking is either missing or already cancelled.
func (s *Postgres) Cancel(ctx context.Context, id domain.BookingID, at time.Time) (*models.Booking, bool, error) {
	row := tx.Or(ctx, s.db).QueryRowContext(ctx, `
		UPDATE bookings SET status = 'cancelled', cancelled_at = $2
		WHERE id = $1 AND status = 'confirmed'
		RETURNING `+bookingColumns, id.String(), at)
	b, err := scanBooking(row)
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("cancel booking: %w", err)
	}
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func scanBooking(row *sql.Row) (*models.Booking, error) {
	var (
		b                      models.Booking
		id, inst, slot, status string
		visitDate              time.Time
		cancelledAt            sql.NullTime
	)
	if err := row.Scan(&id, &inst, &visitDate, &slot, &b.VisitorName, &status, &b.CreatedAt, &cancelledAt); err != nil {
		return nil, err
	}
	bookingID, err := domain.ParseBookingID(id)
	if err != nil {
		return nil, fmt.Errorf("parse booking id: %w", err)
	}
	b.ID = bookingID
	b.InstitutionID = domain.InstitutionID(inst)
	b.VisitDate = domain.DateOf(visitDate)
	b.TimeSlot = models.TimeSlot(slot)
	b.Status = models.Status(status)
	if cancelledAt.Valid {
		at := cancelledAt.Time
		b.CancelledAt = &at
	}
	return &b, nil
}
