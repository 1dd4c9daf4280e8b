package store

import (
	"context"
	"database/sql"
	"fmt"

	"carewatch/internal/allocation/models"
	"carewatch/internal/platform/postgres"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/tx"
)

// Postgres persists allocations in fund_allocations.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, rec *models.FundAllocationRecord) (*models.FundAllocationRecord, error) {
	var id int64
	// ids are assigned and committed in order per institution
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.Or(ctx, s.db)
		if err := postgres.LockKey(ctx, q, "fund_allocations:"+rec.InstitutionID.String()); err != nil {
			return err
		}
		return q.QueryRowContext(ctx, `
			INSERT INTO fund_allocations (institution_id, source, amount, usage_category, proof_ref, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			rec.InstitutionID.String(), string(rec.Source), rec.Amount, string(rec.UsageCategory), rec.ProofRef, rec.RecordedAt,
		).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("insert allocation: %w", err)
	}
	out := *rec
	out.ID = domain.AllocationID(id)
	return &out, nil
}

func (s *Postgres) ListByInstitution(ctx context.Context, id domain.InstitutionID) ([]models.FundAllocationRecord, error) {
	rows, err := tx.Or(ctx, s.db).QueryContext(ctx, `
		SELECT id, institution_id, source, amount, usage_category, proof_ref, recorded_at
		FROM fund_allocations
		WHERE institution_id = $1
		ORDER BY id`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return scanAllocations(rows)
}

func (s *Postgres) ListAll(ctx context.Context) ([]models.FundAllocationRecord, error) {
	rows, err := tx.Or(ctx, s.db).QueryContext(ctx, `
		SELECT id, institution_id, source, amount, usage_category, proof_ref, recorded_at
		FROM fund_allocations
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return scanAllocations(rows)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := tx.Or(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM fund_allocations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return n, nil
}

func scanAllocations(rows *sql.Rows) ([]models.FundAllocationRecord, error) {
	defer rows.Close()
	out := []models.FundAllocationRecord{}
	for rows.Next() {
		var (
			rec           models.FundAllocationRecord
			id            int64
			inst, source  string
			usageCategory string
		)
		if err := rows.Scan(&id, &inst, &source, &rec.Amount, &usageCategory, &rec.ProofRef, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		rec.ID = domain.AllocationID(id)
		rec.InstitutionID = domain.InstitutionID(inst)
		rec.Source = models.Source(source)
		rec.UsageCategory = models.UsageCategory(usageCategory)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}
	return out, nil
}
