package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"object-detection-service/internal/domain"
)

var bomSchema = []string{`
	CREATE TABLE IF NOT EXISTS bom_entries (
		id               BIGSERIAL PRIMARY KEY,
		bom_code         TEXT NOT NULL,
		part_reference   TEXT NOT NULL DEFAULT '',
		part_name        TEXT NOT NULL,
		part_description TEXT NOT NULL DEFAULT '',
		quantity         INTEGER NOT NULL CHECK (quantity > 0),
		UNIQUE (bom_code, part_name)
	)`,
}

const uniqueViolation = "23505"

type bomRepo struct {
	pool *pgxpool.Pool
}

func NewBOMRepository(pool *pgxpool.Pool) domain.BOMRepository {
	return &bomRepo{pool: pool}
}

func (r *bomRepo) AddEntries(ctx context.Context, entries []*domain.BOMEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bom insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bom_entries (bom_code, part_reference, part_name, part_description, quantity)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`
	for _, e := range entries {
		err := tx.QueryRow(ctx, query,
			e.BOMCode, e.PartReference, e.PartName, e.PartDescription, e.Quantity,
		).Scan(&e.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s/%s", domain.ErrBOMEntryConflict, e.BOMCode, e.PartName)
			}
			return fmt.Errorf("insert bom entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bom insert: %w", err)
	}
	return nil
}

func (r *bomRepo) ListEntries(ctx context.Context, bomCode string) ([]*domain.BOMEntry, error) {
	query := `
		SELECT id, bom_code, part_reference, part_name, part_description, quantity
		FROM bom_entries
		WHERE $1::text = '' OR bom_code = $1
		ORDER BY bom_code, part_name, id
	`

	rows, err := r.pool.Query(ctx, query, bomCode)
	if err != nil {
		return nil, fmt.Errorf("list bom entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.BOMEntry, 0)
	for rows.Next() {
		e := &domain.BOMEntry{}
		if err := rows.Scan(&e.ID, &e.BOMCode, &e.PartReference, &e.PartName, &e.PartDescription, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan bom entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bom entries: %w", err)
	}
	return entries, nil
}
