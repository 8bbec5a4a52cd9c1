package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-optimizer/demand"
	"github.com/warp/inventory-optimizer/loader"
)

const forecastsCSV = `store_key,prod_key,date,prediction,upper_95,lower_95
S1,P1,2024-03-02,12.5,15,10
S1,P1,2024-03-01,10,13,7
S2,P9,2024-03-01,3,,
`

const policiesCSV = `prod_key,store_key,sigma_d,mu_d,extra
P1,S1,2.5,11.25,x
P9,S2,0,3,y
`

func writeDir(t *testing.T, forecasts, policies string) string {
	t.Helper()
	dir := t.TempDir()
	if forecasts != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, loader.ForecastFile), []byte(forecasts), 0o644))
	}
	if policies != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, loader.PolicyFile), []byte(policies), 0o644))
	}
	return dir
}

// =============================================================================
// CSV SOURCE
// =============================================================================

func TestCSVSource_Load(t *testing.T) {
	dir := writeDir(t, forecastsCSV, policiesCSV)

	ds, err := loader.NewCSVSource(dir).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Forecasts, 3)
	assert.True(t, ds.HasInterval)

	first := ds.Forecasts[0]
	assert.Equal(t, demand.SKU{StoreKey: "S1", ProdKey: "P1"}, first.SKU)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 12.5, first.Prediction)
	require.NotNil(t, first.Upper95)
	assert.Equal(t, 15.0, *first.Upper95)

	// Blank interval cells stay nil.
	assert.Nil(t, ds.Forecasts[2].Upper95)
	assert.Nil(t, ds.Forecasts[2].Lower95)

	// Columns are matched by name, not position.
	require.Len(t, ds.Policies, 2)
	assert.Equal(t, demand.PolicyRow{SKU: demand.SKU{StoreKey: "S1", ProdKey: "P1"}, MuD: 11.25, SigmaD: 2.5}, ds.Policies[0])
}

func TestCSVSource_NoIntervalColumns(t *testing.T) {
	dir := writeDir(t, "store_key,prod_key,date,prediction\nS,P,2024-01-01,4\n", policiesCSV)

	ds, err := loader.NewCSVSource(dir).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ds.HasInterval)
	assert.Nil(t, ds.Forecasts[0].Upper95)
}

func TestCSVSource_MissingFileNamesArtifact(t *testing.T) {
	// GIVEN: the policy file is absent
	dir := writeDir(t, forecastsCSV, "")

	// WHEN
	_, err := loader.NewCSVSource(dir).Load(context.Background())

	// THEN: fatal load error naming the missing artifact
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrDataLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var loadErr *loader.DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, loader.PolicyFile, loadErr.Artifact)
	assert.Contains(t, err.Error(), "inventory_policy.csv")
}

func TestCSVSource_MalformedRows(t *testing.T) {
	cases := map[string]struct {
		forecasts string
		policies  string
		artifact  string
		contains  string
	}{
		"missing column": {
			forecasts: "store_key,prod_key,prediction\nS,P,1\n",
			policies:  policiesCSV,
			artifact:  loader.ForecastFile,
			contains:  "missing required columns: date",
		},
		"bad date": {
			forecasts: "store_key,prod_key,date,prediction\nS,P,yesterday,1\n",
			policies:  policiesCSV,
			artifact:  loader.ForecastFile,
			contains:  "row 2",
		},
		"nan prediction": {
			forecasts: "store_key,prod_key,date,prediction\nS,P,2024-01-01,NaN\n",
			policies:  policiesCSV,
			artifact:  loader.ForecastFile,
			contains:  "finite",
		},
		"negative sigma": {
			forecasts: forecastsCSV,
			policies:  "store_key,prod_key,mu_d,sigma_d\nS,P,1,-2\n",
			artifact:  loader.PolicyFile,
			contains:  "sigma_d must be >= 0",
		},
		"ragged row": {
			forecasts: forecastsCSV,
			policies:  "store_key,prod_key,mu_d,sigma_d\nS,P,1\n",
			artifact:  loader.PolicyFile,
			contains:  "failed to read CSV",
		},
		"empty file": {
			forecasts: forecastsCSV,
			policies:  " ",
			artifact:  loader.PolicyFile,
			contains:  "missing required columns",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeDir(t, tc.forecasts, tc.policies)
			_, err := loader.NewCSVSource(dir).Load(context.Background())
			require.Error(t, err)

			var loadErr *loader.DataLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tc.artifact, loadErr.Artifact)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestReadPolicies_HeaderWithBOM(t *testing.T) {
	rows, err := loader.ReadPolicies(strings.NewReader("\ufeffstore_key,prod_key,mu_d,sigma_d\nS,P,1,2\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S", rows[0].StoreKey)
}

// =============================================================================
// CACHE
// =============================================================================

type countingSource struct {
	calls int
	ds    *demand.Dataset
	err   error
}

func (s *countingSource) Load(ctx context.Context) (*demand.Dataset, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ds, s.err
}

func TestCache_LoadsOnce(t *testing.T) {
	src := &countingSource{ds: &demand.Dataset{}}
	cache := loader.NewCache(src)

	for i := 0; i < 3; i++ {
		ds, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Same(t, src.ds, ds)
	}
	assert.Equal(t, 1, src.calls)
}

func TestCache_CancelledFirstCallerDoesNotPoison(t *testing.T) {
	// GIVEN: the first request is already cancelled
	src := &countingSource{ds: &demand.Dataset{}}
	cache := loader.NewCache(src)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	first, err1 := cache.Get(ctx)
	second, err2 := cache.Get(context.Background())

	// THEN: the shared load still succeeds for everyone
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, src.ds, first)
	assert.Same(t, src.ds, second)
	assert.Equal(t, 1, src.calls)
}

func TestCache_FailureIsSticky(t *testing.T) {
	src := &countingSource{err: &loader.DataLoadError{Artifact: "x.csv", Err: os.ErrNotExist}}
	cache := loader.NewCache(src)

	_, err1 := cache.Get(context.Background())
	_, err2 := cache.Get(context.Background())
	assert.ErrorIs(t, err1, loader.ErrDataLoad)
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, src.calls)
}
