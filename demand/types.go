/*
types.go - Demand data model

PURPOSE:
  Holds the two read-only inputs of the optimizer:
  - ForecastRecord: one precomputed daily forecast per (store, product, date)
  - PolicyRow:      aggregate demand statistics per (store, product)

  Forecasts are produced elsewhere; this package never computes them.

IMMUTABILITY:
  A Dataset is built once by a loader and never mutated afterwards. All
  functions in this package return fresh slices.

SEE ALSO:
  - selection.go: SKU filtering and series statistics
  - table.go: Catalog-wide policy table
  - loader/: Produces Datasets from CSV files
*/
package demand

import (
	"sort"
	"time"

	"github.com/warp/inventory-optimizer/policy"
)

// SKU identifies a product within a store.
type SKU struct {
	StoreKey string `json:"store_key"`
	ProdKey  string `json:"prod_key"`
}

func (k SKU) String() string { return k.StoreKey + "/" + k.ProdKey }

// ForecastRecord is one day of forecast output for a SKU.
// Upper95 and Lower95 are nil when the source has no prediction interval.
type ForecastRecord struct {
	SKU
	Date       time.Time `json:"date"`
	Prediction float64   `json:"prediction"`
	Upper95    *float64  `json:"upper_95,omitempty"`
	Lower95    *float64  `json:"lower_95,omitempty"`
}

// PolicyRow carries the demand statistics used for the catalog table.
type PolicyRow struct {
	SKU
	MuD    float64 `json:"mu_d"`
	SigmaD float64 `json:"sigma_d"`
}

// Demand converts the row to calculator input.
func (r PolicyRow) Demand() policy.Demand {
	return policy.Demand{MuD: r.MuD, SigmaD: r.SigmaD}
}

// Dataset bundles both source tables.
type Dataset struct {
	Forecasts []ForecastRecord
	Policies  []PolicyRow

	// HasInterval is true when the forecast table carried both
	// upper_95 and lower_95 columns.
	HasInterval bool
}

// Stores returns the distinct store keys of the forecast table, sorted.
func (ds *Dataset) Stores() []string {
	return distinct(ds.Forecasts, func(r ForecastRecord) string { return r.StoreKey })
}

// Products returns the distinct product keys of the forecast table, sorted.
func (ds *Dataset) Products() []string {
	return distinct(ds.Forecasts, func(r ForecastRecord) string { return r.ProdKey })
}

func distinct(records []ForecastRecord, key func(ForecastRecord) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
