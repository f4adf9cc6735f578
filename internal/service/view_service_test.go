package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

func newFileViews(t *testing.T, store *sliceStore[models.File], cacheRepo CacheRepository) *ViewService[models.File] {
	t.Helper()
	engine, err := viewmodel.NewEngine(viewmodel.FileSchema(), viewmodel.DefaultRecentLimit)
	require.NoError(t, err)
	cache := NewCacheService(cacheRepo, nil, 0, zap.NewNop(), cacheRepo != nil)
	return NewViewService[models.File](store, engine, cache, NewMetricsService(), zap.NewNop(), ViewConfig{DefaultPageSize: 2, MaxPageSize: 3})
}

func TestViewServiceComputesPageAndOverview(t *testing.T) {
	store := &sliceStore[models.File]{records: fixtureFiles()}
	svc := newFileViews(t, store, nil)

	res, err := svc.View(context.Background(), models.ViewParameters{Type: "pdf", SortBy: "size", SortDir: models.SortDesc}, "")
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "f4", res.Items[0].ID)
	assert.Equal(t, "f1", res.Items[1].ID)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, int64(6144), res.Stats.TotalSize)
	assert.Equal(t, 4, res.Overview.Count)
	assert.Equal(t, 3, res.Overview.UniqueTypes)
	assert.Equal(t, models.Pagination{Page: 0, PageSize: 2, TotalCount: 2}, res.Pagination)
}

func TestViewServiceMineUsesCurrentUser(t *testing.T) {
	store := &sliceStore[models.File]{records: fixtureFiles()}
	svc := newFileViews(t, store, nil)

	res, err := svc.View(context.Background(), models.ViewParameters{Tab: models.TabMine, PageSize: 3}, "Ada")
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	for _, f := range res.Items {
		assert.Equal(t, "Ada", f.Owner)
	}
}

func TestViewServiceCapsPageSize(t *testing.T) {
	store := &sliceStore[models.File]{records: fixtureFiles()}
	svc := newFileViews(t, store, nil)

	res, err := svc.View(context.Background(), models.ViewParameters{PageSize: 50}, "")
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, 3, res.Pagination.PageSize)
	assert.Equal(t, 4, res.Pagination.TotalCount)
}

func TestViewServiceRejectsInvalidParameters(t *testing.T) {
	store := &sliceStore[models.File]{records: fixtureFiles()}
	svc := newFileViews(t, store, nil)

	cases := []models.ViewParameters{
		{Tab: "shared"},
		{SortBy: "colour"},
		{PageSize: -1},
		{Page: -2},
		{Filters: map[string]string{"nope": "x"}},
	}
	for _, params := range cases {
		_, err := svc.View(context.Background(), params, "")
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.Equal(t, http.StatusBadRequest, appErr.Status)

		var invalid *viewmodel.InvalidParameterError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, invalid.Param, appErr.Details["param"])
	}
	assert.Zero(t, store.calls, "invalid parameters must not load the collection")
}

func TestViewServiceStoreFailure(t *testing.T) {
	store := &sliceStore[models.File]{err: errors.New("db down")}
	svc := newFileViews(t, store, nil)

	_, err := svc.View(context.Background(), models.ViewParameters{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestViewServiceCachesCollection(t *testing.T) {
	store := &sliceStore[models.File]{records: fixtureFiles()}
	svc := newFileViews(t, store, newMemoryCache())
	ctx := context.Background()

	first, err := svc.View(ctx, models.ViewParameters{SortBy: "name"}, "")
	require.NoError(t, err)
	second, err := svc.View(ctx, models.ViewParameters{SortBy: "name"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)
	assert.True(t, first.Items[0].LastModified.Equal(second.Items[0].LastModified))

	svc.Invalidate(ctx)
	_, err = svc.View(ctx, models.ViewParameters{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestViewServiceCacheFailureFallsBackToStore(t *testing.T) {
	store := &sliceStore[models.File]{records: fixtureFiles()}
	cacheRepo := newMemoryCache()
	cacheRepo.err = errors.New("redis down")
	svc := newFileViews(t, store, cacheRepo)

	res, err := svc.View(context.Background(), models.ViewParameters{}, "")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
}

func TestViewServiceEmptyCollection(t *testing.T) {
	store := &sliceStore[models.File]{}
	svc := newFileViews(t, store, nil)

	res, err := svc.View(context.Background(), models.ViewParameters{Page: 3}, "")
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Total)
}
