/*
calculator.go - Safety stock, reorder point and cost estimate

PURPOSE:
  Pure functions from (demand statistics, parameters) to a Result.
  No state, no caching, no I/O.

FORMULAS:
  z              = z-score of the service level
  safety_stock   = z * sigma_d * sqrt(lead_time_days)
  reorder_point  = mu_d * lead_time_days + safety_stock
  holding_cost   = safety_stock * holding_cost_per_unit_day
  stockout_cost  = sigma_d * 0.10 * stockout_cost_per_unit
  total_cost     = holding_cost + stockout_cost

  The stockout cost is a flat heuristic (10% of demand variability priced at
  the per-unit stockout cost), not an expected-shortage integral. Keep it
  literal: dashboards built on these numbers compare against it.

VARIANTS:
  Calculate:            one SKU, one parameter set
  CalculateBatch:       many SKUs, one parameter set (same formula per row)
  CompareServiceLevels: one SKU, every service level

SEE ALSO:
  - types.go: ServiceLevel, Parameters, Result
  - demand/table.go: Builds the catalog-wide policy table on top of CalculateBatch
*/
package policy

import (
	"fmt"
	"math"
)

// Calculate computes the policy for one SKU.
// The only error is an invalid service level.
func Calculate(d Demand, p Parameters) (Result, error) {
	z, err := p.ServiceLevel.Z()
	if err != nil {
		return Result{}, err
	}
	return calculate(z, d, p), nil
}

func calculate(z float64, d Demand, p Parameters) Result {
	leadTime := float64(p.LeadTimeDays)

	safetyStock := z * d.SigmaD * math.Sqrt(leadTime)
	reorderPoint := d.MuD*leadTime + safetyStock
	holding := safetyStock * p.HoldingCostPerUnitDay
	stockout := d.SigmaD * StockoutVariabilityShare * p.StockoutCostPerUnit

	return Result{
		SafetyStock:  safetyStock,
		ReorderPoint: reorderPoint,
		HoldingCost:  holding,
		StockoutCost: stockout,
		TotalCost:    holding + stockout,
	}
}

// CalculateBatch applies Calculate to every element of demands.
// results[i] corresponds to demands[i].
func CalculateBatch(demands []Demand, p Parameters) ([]Result, error) {
	z, err := p.ServiceLevel.Z()
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(demands))
	for i, d := range demands {
		results[i] = calculate(z, d, p)
	}
	return results, nil
}

// CompareServiceLevels computes the policy of one SKU for every service level,
// ignoring p.ServiceLevel.
func CompareServiceLevels(d Demand, p Parameters) ([]Comparison, error) {
	rows := make([]Comparison, 0, len(AllServiceLevels))
	for _, sl := range AllServiceLevels {
		res, err := Calculate(d, p.WithServiceLevel(sl))
		if err != nil {
			return nil, fmt.Errorf("service level %s: %w", sl, err)
		}
		rows = append(rows, Comparison{
			ServiceLevel:      sl,
			Label:             sl.Label(),
			Result:            res,
			SafetyStockUnits:  int64(math.RoundToEven(res.SafetyStock)),
			ReorderPointUnits: int64(math.RoundToEven(res.ReorderPoint)),
		})
	}
	return rows, nil
}
