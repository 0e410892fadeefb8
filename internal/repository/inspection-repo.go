package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"object-detection-service/internal/domain"
)

var inspectionSchema = []string{`
	CREATE TABLE IF NOT EXISTS inspections (
		bom_code        TEXT PRIMARY KEY,
		prediction_id   UUID NOT NULL,
		shortage_items  JSONB NOT NULL,
		surplus_items   JSONB NOT NULL,
		summary         JSONB NOT NULL,
		annotated_image TEXT NOT NULL DEFAULT '',
		is_finalized    BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`
	CREATE TABLE IF NOT EXISTS action_items (
		id            BIGSERIAL PRIMARY KEY,
		bom_code      TEXT NOT NULL,
		part_name     TEXT NOT NULL,
		item_type     TEXT NOT NULL,
		quantity_diff INTEGER NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS action_items_bom_code_idx ON action_items (bom_code)`,
}

const actionItemColumns = `id, bom_code, part_name, item_type, quantity_diff, status, created_at, updated_at`

type inspectionRepo struct {
	pool *pgxpool.Pool
}

func NewInspectionRepository(pool *pgxpool.Pool) domain.InspectionRepository {
	return &inspectionRepo{pool: pool}
}

func (r *inspectionRepo) Save(ctx context.Context, in *domain.Inspection) error {
	shortageJSON, err := marshalList(in.ShortageItems)
	if err != nil {
		return fmt.Errorf("marshal shortage items: %w", err)
	}
	surplusJSON, err := marshalList(in.SurplusItems)
	if err != nil {
		return fmt.Errorf("marshal surplus items: %w", err)
	}
	summaryJSON, err := marshalList(in.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := `
		INSERT INTO inspections
			(bom_code, prediction_id, shortage_items, surplus_items, summary,
			 annotated_image, is_finalized, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,FALSE,$7)
		ON CONFLICT (bom_code) DO UPDATE
		SET prediction_id   = EXCLUDED.prediction_id,
			shortage_items  = EXCLUDED.shortage_items,
			surplus_items   = EXCLUDED.surplus_items,
			summary         = EXCLUDED.summary,
			annotated_image = EXCLUDED.annotated_image,
			updated_at      = EXCLUDED.updated_at
		WHERE inspections.is_finalized = FALSE
	`

	tag, err := r.pool.Exec(ctx, query,
		in.BOMCode, in.PredictionID, shortageJSON, surplusJSON, summaryJSON,
		in.AnnotatedImage, in.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save inspection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInspectionFinalized
	}
	return nil
}

func (r *inspectionRepo) Get(ctx context.Context, bomCode string) (*domain.Inspection, error) {
	query := `
		SELECT bom_code, prediction_id, shortage_items, surplus_items, summary,
		       annotated_image, is_finalized, updated_at
		FROM inspections WHERE bom_code = $1
	`

	in := &domain.Inspection{}
	var shortageJSON, surplusJSON, summaryJSON []byte
	err := r.pool.QueryRow(ctx, query, bomCode).Scan(
		&in.BOMCode, &in.PredictionID, &shortageJSON, &surplusJSON, &summaryJSON,
		&in.AnnotatedImage, &in.Finalized, &in.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInspectionNotFound
		}
		return nil, fmt.Errorf("get inspection: %w", err)
	}

	if err := json.Unmarshal(shortageJSON, &in.ShortageItems); err != nil {
		return nil, fmt.Errorf("unmarshal shortage items: %w", err)
	}
	if err := json.Unmarshal(surplusJSON, &in.SurplusItems); err != nil {
		return nil, fmt.Errorf("unmarshal surplus items: %w", err)
	}
	if err := json.Unmarshal(summaryJSON, &in.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return in, nil
}

func (r *inspectionRepo) Delete(ctx context.Context, bomCode string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin inspection delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM action_items WHERE bom_code = $1", bomCode); err != nil {
		return fmt.Errorf("delete action items: %w", err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM inspections WHERE bom_code = $1", bomCode)
	if err != nil {
		return fmt.Errorf("delete inspection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInspectionNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit inspection delete: %w", err)
	}
	return nil
}

func (r *inspectionRepo) Statuses(ctx context.Context) (map[string]domain.BOMStatus, error) {
	rows, err := r.pool.Query(ctx, "SELECT bom_code, is_finalized FROM inspections")
	if err != nil {
		return nil, fmt.Errorf("list inspection statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.BOMStatus)
	for rows.Next() {
		var code string
		var finalized bool
		if err := rows.Scan(&code, &finalized); err != nil {
			return nil, fmt.Errorf("scan inspection status: %w", err)
		}
		statuses[code] = domain.BOMStatus{HasInspection: true, Finalized: finalized}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inspection statuses: %w", err)
	}
	return statuses, nil
}

func (r *inspectionRepo) Finalize(ctx context.Context, bomCode string, items []*domain.ActionItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	var finalized bool
	err = tx.QueryRow(ctx,
		"SELECT is_finalized FROM inspections WHERE bom_code = $1 FOR UPDATE", bomCode,
	).Scan(&finalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInspectionNotFound
		}
		return fmt.Errorf("lock inspection: %w", err)
	}
	if finalized {
		return domain.ErrInspectionFinalized
	}

	if _, err := tx.Exec(ctx,
		"UPDATE inspections SET is_finalized = TRUE, updated_at = NOW() WHERE bom_code = $1", bomCode,
	); err != nil {
		return fmt.Errorf("mark inspection finalized: %w", err)
	}

	query := `
		INSERT INTO action_items
			(bom_code, part_name, item_type, quantity_diff, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`
	for _, item := range items {
		err := tx.QueryRow(ctx, query,
			item.BOMCode, item.PartName, string(item.Type), item.QuantityDiff,
			string(item.Status), item.CreatedAt, item.UpdatedAt,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert action item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

func (r *inspectionRepo) ListActionItems(ctx context.Context) ([]*domain.ActionItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM action_items
		ORDER BY CASE status WHEN 'new' THEN 0 WHEN 'in_progress' THEN 1 ELSE 2 END,
		         created_at DESC, id DESC
	`, actionItemColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.ActionItem, 0)
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action items: %w", err)
	}
	return items, nil
}

func (r *inspectionRepo) UpdateActionItemStatus(ctx context.Context, id int64, status domain.ActionStatus) (*domain.ActionItem, error) {
	query := fmt.Sprintf(`
		UPDATE action_items SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s
	`, actionItemColumns)

	item, err := scanActionItem(r.pool.QueryRow(ctx, query, string(status), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActionItemNotFound
		}
		return nil, fmt.Errorf("update action item status: %w", err)
	}
	return item, nil
}

func scanActionItem(row pgx.Row) (*domain.ActionItem, error) {
	item := &domain.ActionItem{}
	var itemType, status string
	err := row.Scan(
		&item.ID, &item.BOMCode, &item.PartName, &itemType, &item.QuantityDiff,
		&status, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Type = domain.ActionItemType(itemType)
	item.Status = domain.ActionStatus(status)
	return item, nil
}

// marshalList encodes nil slices as [] so JSONB columns never hold null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
