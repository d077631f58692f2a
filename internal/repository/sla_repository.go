package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/certpath/certpath-api/internal/models"
)

// SLARepository persists the per-stage deadline table.
type SLARepository struct {
	db *sqlx.DB
}

// NewSLARepository constructs the repository.
func NewSLARepository(db *sqlx.DB) *SLARepository {
	return &SLARepository{db: db}
}

// List returns every persisted SLA row ordered by stage id.
func (r *SLARepository) List(ctx context.Context) ([]models.SLAConfig, error) {
	const query = `SELECT stage_id, days_limit, warning_days, updated_by, updated_at
FROM sla_configs ORDER BY stage_id ASC`
	var configs []models.SLAConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list sla configs: %w", err)
	}
	return configs, nil
}

// ReplaceAll upserts the provided rows within a transaction.
func (r *SLARepository) ReplaceAll(ctx context.Context, configs []models.SLAConfig) error {
	if len(configs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sla tx: %w", err)
	}
	const query = `INSERT INTO sla_configs (stage_id, days_limit, warning_days, updated_by, updated_at)
VALUES (:stage_id, :days_limit, :warning_days, :updated_by, :updated_at)
ON CONFLICT (stage_id)
DO UPDATE SET days_limit = EXCLUDED.days_limit, warning_days = EXCLUDED.warning_days,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	for i := range configs {
		configs[i].UpdatedAt = time.Now().UTC()
		if _, err := tx.NamedExecContext(ctx, query, configs[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert sla config: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sla tx: %w", err)
	}
	return nil
}
