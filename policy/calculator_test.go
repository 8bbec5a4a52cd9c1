package policy_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-optimizer/policy"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func params(sl policy.ServiceLevel, leadTime int) policy.Parameters {
	return policy.Parameters{
		ServiceLevel:          sl,
		LeadTimeDays:          leadTime,
		HoldingCostPerUnitDay: 0.50,
		StockoutCostPerUnit:   5.00,
	}
}

// =============================================================================
// SINGLE SKU
// =============================================================================

func TestCalculate_ReferenceValues(t *testing.T) {
	// GIVEN: mu=100, sigma=10, 7 day lead time, 95% service level
	d := policy.Demand{MuD: 100, SigmaD: 10}

	// WHEN
	res, err := policy.Calculate(d, params(policy.ServiceLevel95, 7))
	require.NoError(t, err)

	// THEN: safety stock = 1.65 * 10 * sqrt(7)
	assert.InDelta(t, 43.66, res.SafetyStock, 0.01)
	assert.InDelta(t, 743.66, res.ReorderPoint, 0.01)
	assert.InDelta(t, res.SafetyStock*0.50, res.HoldingCost, 1e-12)
	assert.InDelta(t, 10*0.10*5.00, res.StockoutCost, 1e-12)
}

func TestCalculate_TotalIsSumOfParts(t *testing.T) {
	demands := []policy.Demand{
		{MuD: 0, SigmaD: 0},
		{MuD: 3.7, SigmaD: 1.2},
		{MuD: 120.5, SigmaD: 33.3},
		{MuD: 9999, SigmaD: 512.25},
	}
	for _, d := range demands {
		for _, sl := range policy.AllServiceLevels {
			for lt := policy.MinLeadTimeDays; lt <= policy.MaxLeadTimeDays; lt++ {
				res, err := policy.Calculate(d, params(sl, lt))
				require.NoError(t, err)
				assert.InDelta(t, res.HoldingCost+res.StockoutCost, res.TotalCost, 1e-9)
			}
		}
	}
}

func TestCalculate_ZeroVariance(t *testing.T) {
	// GIVEN: perfectly flat demand
	d := policy.Demand{MuD: 42, SigmaD: 0}

	for lt := policy.MinLeadTimeDays; lt <= policy.MaxLeadTimeDays; lt++ {
		res, err := policy.Calculate(d, params(policy.ServiceLevel99, lt))
		require.NoError(t, err)

		// THEN: no buffer and no stockout cost
		assert.Equal(t, 0.0, res.SafetyStock)
		assert.Equal(t, 0.0, res.StockoutCost)
		assert.Equal(t, 42*float64(lt), res.ReorderPoint)
	}
}

func TestCalculate_SafetyStockMonotonicInServiceLevel(t *testing.T) {
	d := policy.Demand{MuD: 50, SigmaD: 12}

	prev := -1.0
	for _, sl := range policy.AllServiceLevels {
		res, err := policy.Calculate(d, params(sl, 5))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.SafetyStock, prev, "service level %s", sl)
		prev = res.SafetyStock
	}
}

func TestCalculate_ReorderPointMonotonicInLeadTime(t *testing.T) {
	d := policy.Demand{MuD: 50, SigmaD: 12}

	for _, sl := range policy.AllServiceLevels {
		prev := math.Inf(-1)
		for lt := policy.MinLeadTimeDays; lt <= policy.MaxLeadTimeDays; lt++ {
			res, err := policy.Calculate(d, params(sl, lt))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.ReorderPoint, prev, "lead time %d", lt)
			prev = res.ReorderPoint
		}
	}
}

func TestCalculate_InvalidServiceLevelRejected(t *testing.T) {
	// GIVEN: a service level outside the enum (zero value)
	p := params(0, 7)

	// WHEN
	_, err := policy.Calculate(policy.Demand{MuD: 1, SigmaD: 1}, p)

	// THEN: explicit rejection, no silent default
	require.Error(t, err)
	assert.ErrorIs(t, err, policy.ErrInvalidServiceLevel)
	var slErr *policy.InvalidServiceLevelError
	assert.True(t, errors.As(err, &slErr))
}

func TestCalculate_LeadTimeNotEnforced(t *testing.T) {
	// Range checking belongs to Parameters.Validate, not the formula.
	res, err := policy.Calculate(policy.Demand{MuD: 10, SigmaD: 2}, params(policy.ServiceLevel90, 30))
	require.NoError(t, err)
	assert.InDelta(t, 300+1.28*2*math.Sqrt(30), res.ReorderPoint, 1e-9)
}

// =============================================================================
// BATCH
// =============================================================================

func TestCalculateBatch_MatchesScalar(t *testing.T) {
	demands := []policy.Demand{
		{MuD: 10, SigmaD: 3},
		{MuD: 0, SigmaD: 0},
		{MuD: 250.25, SigmaD: 41.7},
		{MuD: 1, SigmaD: policy.FallbackSigma},
	}
	p := params(policy.ServiceLevel97, 14)

	batch, err := policy.CalculateBatch(demands, p)
	require.NoError(t, err)
	require.Len(t, batch, len(demands))

	for i, d := range demands {
		single, err := policy.Calculate(d, p)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "row %d", i)
	}
}

func TestCalculateBatch_Empty(t *testing.T) {
	batch, err := policy.CalculateBatch(nil, policy.DefaultParameters())
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestCalculateBatch_InvalidServiceLevel(t *testing.T) {
	_, err := policy.CalculateBatch([]policy.Demand{{MuD: 1}}, params(policy.ServiceLevel(9), 3))
	assert.ErrorIs(t, err, policy.ErrInvalidServiceLevel)
}

// =============================================================================
// COMPARISON TABLE
// =============================================================================

func TestCompareServiceLevels_AllLevels(t *testing.T) {
	d := policy.Demand{MuD: 100, SigmaD: 10}
	p := params(policy.ServiceLevel90, 7)

	rows, err := policy.CompareServiceLevels(d, p)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
	}
	assert.Equal(t, []string{"90%", "95%", "97%", "99%"}, labels)

	// 95% row matches a direct calculation, whatever p.ServiceLevel says.
	direct, err := policy.Calculate(d, p.WithServiceLevel(policy.ServiceLevel95))
	require.NoError(t, err)
	assert.Equal(t, direct, rows[1].Result)
	assert.Equal(t, int64(44), rows[1].SafetyStockUnits)
	assert.Equal(t, int64(744), rows[1].ReorderPointUnits)
}
