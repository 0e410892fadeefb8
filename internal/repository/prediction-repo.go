package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"object-detection-service/internal/domain"
)

var predictionSchema = []string{`
	CREATE TABLE IF NOT EXISTS predictions (
		id              UUID PRIMARY KEY,
		created_at      TIMESTAMPTZ NOT NULL,
		request_id      TEXT NOT NULL DEFAULT '',
		image_filename  TEXT NOT NULL DEFAULT '',
		model_source    TEXT NOT NULL,
		model_filename  TEXT NOT NULL DEFAULT '',
		config          JSONB NOT NULL,
		detection_count INTEGER NOT NULL,
		summary         JSONB NOT NULL,
		latency_ms      BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS predictions_created_at_idx ON predictions (created_at DESC)`,
}

const selectColumns = `
	id, created_at, request_id, image_filename, model_source, model_filename,
	config, detection_count, summary, latency_ms
`

type predictionRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionRepository(pool *pgxpool.Pool) domain.PredictionRepository {
	return &predictionRepo{pool: pool}
}

// EnsureSchema creates the prediction, BOM and inspection tables when they do
// not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	groups := []struct {
		name  string
		stmts []string
	}{
		{"predictions", predictionSchema},
		{"bom", bomSchema},
		{"inspections", inspectionSchema},
	}
	for _, g := range groups {
		for _, stmt := range g.stmts {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ensure %s schema: %w", g.name, err)
			}
		}
	}
	return nil
}

func (r *predictionRepo) Save(ctx context.Context, rec *domain.PredictionRecord) error {
	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	summary := rec.Summary
	if summary == nil {
		summary = []domain.ClassSummary{}
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := `
		INSERT INTO predictions
			(id, created_at, request_id, image_filename, model_source, model_filename,
			 config, detection_count, summary, latency_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.CreatedAt, rec.RequestID, rec.ImageFilename,
		string(rec.ModelSource), rec.ModelFilename,
		configJSON, rec.DetectionCount, summaryJSON, rec.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (r *predictionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PredictionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM predictions WHERE id = $1", selectColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPredictionNotFound
		}
		return nil, fmt.Errorf("get prediction by id: %w", err)
	}
	return rec, nil
}

func (r *predictionRepo) List(ctx context.Context, filter domain.PredictionListFilter) ([]*domain.PredictionRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM predictions").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM predictions
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, selectColumns)

	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.PredictionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan prediction row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return records, total, nil
}

// scanRecord accepts both pgx.Row and pgx.Rows.
func scanRecord(row pgx.Row) (*domain.PredictionRecord, error) {
	rec := &domain.PredictionRecord{}
	var source string
	var configJSON, summaryJSON []byte

	err := row.Scan(
		&rec.ID, &rec.CreatedAt, &rec.RequestID, &rec.ImageFilename,
		&source, &rec.ModelFilename,
		&configJSON, &rec.DetectionCount, &summaryJSON, &rec.LatencyMs,
	)
	if err != nil {
		return nil, err
	}
	rec.ModelSource = domain.ModelSource(source)

	if err := json.Unmarshal(configJSON, &rec.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal(summaryJSON, &rec.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return rec, nil
}
