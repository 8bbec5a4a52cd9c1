package demand

import (
	"sort"

	"github.com/warp/inventory-optimizer/policy"
	"gonum.org/v1/gonum/stat"
)

// Series is the date-ordered forecast of one SKU.
type Series struct {
	SKU     SKU
	Records []ForecastRecord
}

// Select returns the forecast rows of sku sorted by date.
// An empty match yields an *EmptySelectionError.
func (ds *Dataset) Select(sku SKU) (Series, error) {
	var records []ForecastRecord
	for _, r := range ds.Forecasts {
		if r.SKU == sku {
			records = append(records, r)
		}
	}
	if len(records) == 0 {
		return Series{}, &EmptySelectionError{SKU: sku}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return Series{SKU: sku, Records: records}, nil
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Records) }

// Demand derives daily demand statistics from the predictions.
//
// MuD is the arithmetic mean. SigmaD is the sample standard deviation (n-1);
// with fewer than two observations it is fallback instead, so a single point
// never yields a zero or undefined deviation. An empty series returns the
// zero Demand with the fallback sigma.
func (s Series) Demand(fallback float64) policy.Demand {
	n := len(s.Records)
	if n == 0 {
		return policy.Demand{SigmaD: fallback}
	}

	xs := s.Predictions()
	mean := stat.Mean(xs, nil)
	if n < 2 {
		return policy.Demand{MuD: mean, SigmaD: fallback}
	}
	return policy.Demand{MuD: mean, SigmaD: stat.StdDev(xs, nil)}
}

// Predictions returns the point forecasts in date order.
func (s Series) Predictions() []float64 {
	xs := make([]float64, len(s.Records))
	for i, r := range s.Records {
		xs[i] = r.Prediction
	}
	return xs
}

// HasInterval reports whether every record carries both interval bounds.
func (s Series) HasInterval() bool {
	if len(s.Records) == 0 {
		return false
	}
	for _, r := range s.Records {
		if r.Upper95 == nil || r.Lower95 == nil {
			return false
		}
	}
	return true
}
