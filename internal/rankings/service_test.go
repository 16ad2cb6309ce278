package rankings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/kratu/internal/cache"
	"github.com/ZanzyTHEbar/kratu/internal/database"
	"github.com/ZanzyTHEbar/kratu/internal/dataset"
	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/monitoring"
	"github.com/ZanzyTHEbar/kratu/internal/spaceships"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

type fixture struct {
	service *Service
	store   *cache.Cache
	metrics *monitoring.Metrics
	widgets *widget.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := cache.NewCache(time.Minute)
	t.Cleanup(func() { store.Close() })
	metrics := monitoring.NewMetrics()

	return &fixture{
		service: NewService(database.NewRepository(db), NewSnapshotCache(store, metrics)),
		store:   store,
		metrics: metrics,
		widgets: widget.NewManager(spaceships.Definitions),
	}
}

func (f *fixture) widget(t *testing.T) *widget.Widget {
	t.Helper()
	entities, err := dataset.Parse(spaceships.Dataset, dataset.FormatJSON)
	require.NoError(t, err)
	w, err := f.widgets.Create(spaceships.DatasetName, entities)
	require.NoError(t, err)
	return w
}

func TestSaveAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.widget(t)

	saved, err := f.service.Save(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, w.ID, saved.WidgetID)
	assert.Equal(t, 5, saved.Entities)
	require.NotNil(t, saved.TopEntity)
	assert.Equal(t, saved.Rows[0].Entity, *saved.TopEntity)

	// Served from cache
	cached, err := f.service.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Rows, cached.Rows)

	// Served from the database
	require.NoError(t, f.store.DeletePrefix(ctx, ""))
	loaded, err := f.service.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Rows, 5)
	for i, row := range loaded.Rows {
		assert.Equal(t, saved.Rows[i].Entity, row.Entity)
		assert.Equal(t, i+1, row.Rank)
		assert.InDelta(t, saved.Rows[i].Score, row.Score, 1e-9)
		assert.InDeltaMapValues(t, saved.Rows[i].Weights, row.Weights, 1e-9)
	}
	assert.Equal(t, saved.Columns, loaded.Columns)
}

func TestSnapshotsKeepColumnState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.widget(t)

	require.NoError(t, w.HandleHeaderEvent("cost", "click", nil))
	saved, err := f.service.Save(ctx, w)
	require.NoError(t, err)

	require.NoError(t, f.store.DeletePrefix(ctx, ""))
	loaded, err := f.service.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Columns[3].Disabled)
	for _, row := range loaded.Rows {
		assert.NotContains(t, row.Weights, "cost")
	}
}

func TestGetUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Get(context.Background(), "nope")
	assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.widget(t)

	first, err := f.service.Save(ctx, w)
	require.NoError(t, err)

	resp, err := f.service.List(ctx, spaceships.DatasetName, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, resp.Limit)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, first.ID, resp.Snapshots[0].ID)
	assert.Empty(t, resp.Snapshots[0].Rows)

	// A new snapshot invalidates cached listings
	_, err = f.service.Save(ctx, w)
	require.NoError(t, err)
	resp, err = f.service.List(ctx, spaceships.DatasetName, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	resp, err = f.service.List(ctx, "freighters", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)

	_, err = f.service.List(ctx, "", MaxListLimit+1)
	assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))
}

func TestDeleteAndCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.widget(t)

	saved, err := f.service.Save(ctx, w)
	require.NoError(t, err)
	_, err = f.service.List(ctx, "", 0)
	require.NoError(t, err)

	n, err := f.service.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, f.service.Delete(ctx, saved.ID))

	// Neither the cached snapshot nor the cached listing survives
	_, err = f.service.Get(ctx, saved.ID)
	assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
	resp, err := f.service.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)

	n, err = f.service.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = f.service.Delete(ctx, saved.ID)
	assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
	assert.Equal(t, "memory", f.service.CacheStats()["backend"])
}
