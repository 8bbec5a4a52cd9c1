package sqlite_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-optimizer/demand"
	"github.com/warp/inventory-optimizer/loader"
	"github.com/warp/inventory-optimizer/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fptr(v float64) *float64 { return &v }

func sampleDataset() *demand.Dataset {
	return &demand.Dataset{
		Forecasts: []demand.ForecastRecord{
			{
				SKU:        demand.SKU{StoreKey: "S1", ProdKey: "P1"},
				Date:       time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
				Prediction: 11.5,
				Upper95:    fptr(14),
				Lower95:    fptr(9),
			},
			{
				SKU:        demand.SKU{StoreKey: "S1", ProdKey: "P2"},
				Date:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Prediction: 3,
			},
		},
		Policies: []demand.PolicyRow{
			{SKU: demand.SKU{StoreKey: "S1", ProdKey: "P1"}, MuD: 11.5, SigmaD: 2.25},
			{SKU: demand.SKU{StoreKey: "S1", ProdKey: "P2"}, MuD: 3, SigmaD: 0},
		},
		HasInterval: true,
	}
}

func TestStore_ImportThenLoad(t *testing.T) {
	// GIVEN: a dataset imported into a fresh database
	store := newTestStore(t)
	ctx := context.Background()
	want := sampleDataset()
	require.NoError(t, store.Import(ctx, want))

	// WHEN
	got, err := store.Load(ctx)

	// THEN: the dataset round-trips
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ImportReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, sampleDataset()))
	smaller := sampleDataset()
	smaller.Forecasts = smaller.Forecasts[1:]
	smaller.Policies = smaller.Policies[:1]
	smaller.HasInterval = false
	require.NoError(t, store.Import(ctx, smaller))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Forecasts, 1)
	assert.Len(t, got.Policies, 1)
	assert.False(t, got.HasInterval)
}

func TestStore_ImportKeepsDuplicatePolicies(t *testing.T) {
	// GIVEN: a policy table that repeats a SKU, which the CSV source accepts
	store := newTestStore(t)
	ctx := context.Background()
	ds := sampleDataset()
	dup := ds.Policies[0]
	dup.SigmaD = 4
	ds.Policies = append(ds.Policies, dup)

	// WHEN
	require.NoError(t, store.Import(ctx, ds))
	got, err := store.Load(ctx)

	// THEN: every row comes back in import order
	require.NoError(t, err)
	assert.Equal(t, ds.Policies, got.Policies)
}

func TestStore_ImportPreservesTimeOfDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ds := sampleDataset()
	ds.Forecasts[0].Date = time.Date(2024, 5, 2, 13, 45, 30, 0, time.UTC)
	ds.Forecasts[1].Date = time.Date(2024, 5, 2, 8, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	require.NoError(t, store.Import(ctx, ds))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Forecasts, 2)
	assert.Equal(t, ds.Forecasts[0].Date, got.Forecasts[0].Date)
	assert.True(t, ds.Forecasts[1].Date.Equal(got.Forecasts[1].Date), "got %s", got.Forecasts[1].Date)
}

func TestStore_ImportIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ds := sampleDataset()
	ds.Policies = append(ds.Policies, demand.PolicyRow{
		SKU:    demand.SKU{StoreKey: "S9", ProdKey: "P9"},
		MuD:    1,
		SigmaD: -1,
	})
	assert.Error(t, store.Import(ctx, ds))

	// Nothing committed.
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Policies)
	assert.Empty(t, got.Forecasts)
}

func TestOpen_MissingFile(t *testing.T) {
	// GIVEN: a path with no database behind it
	path := filepath.Join(t.TempDir(), "missing.db")

	// WHEN
	store, err := sqlite.Open(path)

	// THEN: a data-load error naming the file, and nothing created
	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, errors.Is(err, loader.ErrDataLoad))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	var loadErr *loader.DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.db", loadErr.Artifact)
	assert.Equal(t, path, loadErr.Path)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestOpen_ReadsImportedDatabase(t *testing.T) {
	// GIVEN: a database built by an import
	path := filepath.Join(t.TempDir(), "inventory.db")
	writer, err := sqlite.New(path)
	require.NoError(t, err)
	want := sampleDataset()
	require.NoError(t, writer.Import(context.Background(), want))
	require.NoError(t, writer.Close())

	// WHEN: it is opened for serving
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// THEN: the dataset loads, and the connection refuses writes
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Error(t, store.Import(context.Background(), want))
}

func TestStore_UsableThroughCache(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Import(context.Background(), sampleDataset()))

	var src loader.Source = store
	ds, err := loader.NewCache(src).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, ds.Stores())
}
