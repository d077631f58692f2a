package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/certpath/certpath-api/internal/dto"
	"github.com/certpath/certpath-api/internal/models"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
)

const slaTableCacheKey = "certpath:sla:table"

type slaRepository interface {
	List(ctx context.Context) ([]models.SLAConfig, error)
	ReplaceAll(ctx context.Context, configs []models.SLAConfig) error
}

type slaCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type slaAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SLAService manages the administrator-editable deadline table.
type SLAService struct {
	repo      slaRepository
	cache     slaCache
	audit     slaAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewSLAService constructs the service.
func NewSLAService(repo slaRepository, cache slaCache, audit slaAuditLogger, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *SLAService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &SLAService{
		repo:      repo,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Table returns the deadline per stage, merging persisted rows over the
// built-in defaults. Storage trouble degrades to the defaults: a broken SLA
// table must never take down timeline rendering.
func (s *SLAService) Table(ctx context.Context) map[models.StageID]models.SLAConfig {
	table := make(map[models.StageID]models.SLAConfig, len(models.DefaultSLATable))
	for id, cfg := range models.DefaultSLATable {
		table[id] = cfg
	}

	var rows []models.SLAConfig
	if s.cache != nil {
		if err := s.cache.Get(ctx, slaTableCacheKey, &rows); err == nil {
			for _, row := range rows {
				table[row.StageID] = row
			}
			return table
		}
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("sla table unavailable, using defaults", zap.Error(err))
		return table
	}
	for _, row := range rows {
		table[row.StageID] = row
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, slaTableCacheKey, rows, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache sla table", zap.Error(err))
		}
	}
	return table
}

// List returns the full table in registry order for the admin UI.
func (s *SLAService) List(ctx context.Context) []models.SLAConfig {
	table := s.Table(ctx)
	items := make([]models.SLAConfig, 0, len(models.StageRegistry))
	for _, stage := range models.StageRegistry {
		items = append(items, table[stage.ID])
	}
	return items
}

// Update replaces the provided rows transactionally, invalidates the cache
// and records the change in the audit trail. A warning window wider than the
// limit is accepted (the engine treats it defensively) but logged.
func (s *SLAService) Update(ctx context.Context, req dto.UpdateSLARequest, actor *models.JWTClaims) ([]models.SLAConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sla payload")
	}

	previous := s.Table(ctx)

	configs := make([]models.SLAConfig, 0, len(req.Items))
	for _, item := range req.Items {
		stageID := models.StageID(item.StageID)
		if !stageID.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStage, "unknown stage in sla payload: "+item.StageID)
		}
		if item.WarningDays > item.DaysLimit {
			s.logger.Warn("sla warning window exceeds limit",
				zap.String("stage", item.StageID),
				zap.Int("warning_days", item.WarningDays),
				zap.Int("days_limit", item.DaysLimit))
		}
		configs = append(configs, models.SLAConfig{
			StageID:     stageID,
			DaysLimit:   item.DaysLimit,
			WarningDays: item.WarningDays,
			UpdatedBy:   actorIDPtr(actor),
		})
	}

	if err := s.repo.ReplaceAll(ctx, configs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sla table")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, slaTableCacheKey); err != nil {
			s.logger.Warn("failed to invalidate sla cache", zap.Error(err))
		}
	}

	s.emitAudit(ctx, actor, previous, configs)
	return s.List(ctx), nil
}

func (s *SLAService) emitAudit(ctx context.Context, actor *models.JWTClaims, previous map[models.StageID]models.SLAConfig, updated []models.SLAConfig) {
	if s.audit == nil {
		return
	}
	oldRows := make([]models.SLAConfig, 0, len(updated))
	for _, row := range updated {
		oldRows = append(oldRows, previous[row.StageID])
	}
	oldBytes, _ := json.Marshal(oldRows)
	newBytes, _ := json.Marshal(updated)
	resourceID := "sla_table"
	log := &models.AuditLog{
		UserID:     actorIDPtr(actor),
		Action:     models.AuditActionSLAUpdate,
		Resource:   "sla_config",
		ResourceID: &resourceID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "sla-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record sla audit", zap.Error(err))
	}
}

func actorIDPtr(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	return &actor.UserID
}
