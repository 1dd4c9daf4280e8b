package store

import (
	"context"
	"database/sql"
	"fmt"

	"carewatch/internal/donation/models"
	"carewatch/internal/platform/postgres"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/tx"
)

// Postgres persists donations in the donations table. Ids come from its BIGSERIAL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, rec *models.DonationRecord) (*models.DonationRecord, error) {
	var id int64
	// ids are assigned and committed in order per institution
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.Or(ctx, s.db)
		if err := postgres.LockKey(ctx, q, "donations:"+rec.InstitutionID.String()); err != nil {
			return err
		}
		return q.QueryRowContext(ctx, `
			INSERT INTO donations (institution_id, donor_label, amount, receipt_ref, recorded_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			rec.InstitutionID.String(), rec.DonorLabel, rec.Amount, rec.ReceiptRef, rec.RecordedAt,
		).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("insert donation: %w", err)
	}
	out := *rec
	out.ID = domain.DonationID(id)
	return &out, nil
}

func (s *Postgres) ListByInstitution(ctx context.Context, id domain.InstitutionID) ([]models.DonationRecord, error) {
	rows, err := tx.Or(ctx, s.db).QueryContext(ctx, `
		SELECT id, institution_id, donor_label, amount, receipt_ref, recorded_at
		FROM donations
		WHERE institution_id = $1
		ORDER BY id`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return scanDonations(rows)
}

func (s *Postgres) ListAll(ctx context.Context) ([]models.DonationRecord, error) {
	rows, err := tx.Or(ctx, s.db).QueryContext(ctx, `
		SELECT id, institution_id, donor_label, amount, receipt_ref, recorded_at
		FROM donations
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return scanDonations(rows)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := tx.Or(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM donations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count donations: %w", err)
	}
	return n, nil
}

func scanDonations(rows *sql.Rows) ([]models.DonationRecord, error) {
	defer rows.Close()
	out := []models.DonationRecord{}
	for rows.Next() {
		var (
			rec  models.DonationRecord
			id   int64
			inst string
		)
		if err := rows.Scan(&id, &inst, &rec.DonorLabel, &rec.Amount, &rec.ReceiptRef, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		rec.ID = domain.DonationID(id)
		rec.InstitutionID = domain.InstitutionID(inst)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return out, nil
}
