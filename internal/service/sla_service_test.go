package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpath/certpath-api/internal/dto"
	"github.com/certpath/certpath-api/internal/models"
	appErrors "github.com/certpath/certpath-api/pkg/errors"
)

type fakeSLARepo struct {
	rows       []models.SLAConfig
	listErr    error
	replaceErr error
	replaced   []models.SLAConfig
}

func (f *fakeSLARepo) List(context.Context) ([]models.SLAConfig, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeSLARepo) ReplaceAll(_ context.Context, configs []models.SLAConfig) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = configs
	return nil
}

type fakeCache struct {
	store   map[string][]byte
	deleted []string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.store, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func TestSLATableMergesPersistedOverDefaults(t *testing.T) {
	repo := &fakeSLARepo{rows: []models.SLAConfig{
		{StageID: models.StageWelcome, DaysLimit: 5, WarningDays: 2},
	}}
	svc := NewSLAService(repo, newFakeCache(), nil, nil, nil, time.Minute)

	table := svc.Table(context.Background())

	assert.Equal(t, 5, table[models.StageWelcome].DaysLimit)
	// untouched stages keep the defaults
	assert.Equal(t, 30, table[models.StageExamInProgress].DaysLimit)
	assert.Len(t, table, len(models.StageRegistry))
}

func TestSLATableDegradesToDefaultsOnError(t *testing.T) {
	repo := &fakeSLARepo{listErr: errors.New("db down")}
	svc := NewSLAService(repo, nil, nil, nil, nil, time.Minute)

	table := svc.Table(context.Background())

	assert.Equal(t, models.DefaultSLATable[models.StageWelcome].DaysLimit, table[models.StageWelcome].DaysLimit)
}

func TestSLATableServedFromCache(t *testing.T) {
	cache := newFakeCache()
	repo := &fakeSLARepo{rows: []models.SLAConfig{
		{StageID: models.StageWelcome, DaysLimit: 9, WarningDays: 1},
	}}
	svc := NewSLAService(repo, cache, nil, nil, nil, time.Minute)

	// first call populates the cache
	svc.Table(context.Background())
	// break the repo; the cached rows must still serve
	repo.listErr = errors.New("db down")
	table := svc.Table(context.Background())

	assert.Equal(t, 9, table[models.StageWelcome].DaysLimit)
}

func TestSLAListFollowsRegistryOrder(t *testing.T) {
	svc := NewSLAService(&fakeSLARepo{}, nil, nil, nil, nil, time.Minute)

	items := svc.List(context.Background())

	require.Len(t, items, len(models.StageRegistry))
	for i, stage := range models.StageRegistry {
		assert.Equal(t, stage.ID, items[i].StageID)
	}
}

func TestSLAUpdatePersistsAndInvalidatesCache(t *testing.T) {
	cache := newFakeCache()
	repo := &fakeSLARepo{}
	audit := &fakeAuditLogger{}
	svc := NewSLAService(repo, cache, audit, nil, nil, time.Minute)

	actor := &models.JWTClaims{UserID: "admin-1"}
	items, err := svc.Update(context.Background(), dto.UpdateSLARequest{
		Items: []dto.SLAConfigItem{
			{StageID: "welcome", DaysLimit: 4, WarningDays: 1},
		},
	}, actor)

	require.NoError(t, err)
	require.Len(t, repo.replaced, 1)
	assert.Equal(t, models.StageWelcome, repo.replaced[0].StageID)
	require.NotNil(t, repo.replaced[0].UpdatedBy)
	assert.Equal(t, "admin-1", *repo.replaced[0].UpdatedBy)
	assert.Contains(t, cache.deleted, "certpath:sla:table")
	assert.Len(t, items, len(models.StageRegistry))

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSLAUpdate, audit.logs[0].Action)
}

func TestSLAUpdateUnknownStage(t *testing.T) {
	svc := NewSLAService(&fakeSLARepo{}, nil, nil, nil, nil, time.Minute)

	_, err := svc.Update(context.Background(), dto.UpdateSLARequest{
		Items: []dto.SLAConfigItem{{StageID: "shipping", DaysLimit: 4}},
	}, nil)

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidStage.Code, typed.Code)
}

func TestSLAUpdateEmptyPayloadRejected(t *testing.T) {
	svc := NewSLAService(&fakeSLARepo{}, nil, nil, nil, nil, time.Minute)

	_, err := svc.Update(context.Background(), dto.UpdateSLARequest{}, nil)

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

// A warning window wider than the limit is tolerated: the verdict simply
// skips straight past ok.
func TestSLAUpdateAcceptsWideWarningWindow(t *testing.T) {
	repo := &fakeSLARepo{}
	svc := NewSLAService(repo, nil, nil, nil, nil, time.Minute)

	_, err := svc.Update(context.Background(), dto.UpdateSLARequest{
		Items: []dto.SLAConfigItem{
			{StageID: "welcome", DaysLimit: 2, WarningDays: 10},
		},
	}, nil)

	require.NoError(t, err)
	require.Len(t, repo.replaced, 1)
	assert.Equal(t, 10, repo.replaced[0].WarningDays)
}
