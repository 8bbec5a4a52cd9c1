package demand

import (
	"github.com/shopspring/decimal"
	"github.com/warp/inventory-optimizer/policy"
)

// PolicyLine is one row of the catalog-wide policy table.
type PolicyLine struct {
	SKU
	policy.Demand
	policy.Result
}

// BuildPolicyTable computes the policy of every row under p.
// lines[i] corresponds to rows[i].
func BuildPolicyTable(rows []PolicyRow, p policy.Parameters) ([]PolicyLine, error) {
	demands := make([]policy.Demand, len(rows))
	for i, r := range rows {
		demands[i] = r.Demand()
	}

	results, err := policy.CalculateBatch(demands, p)
	if err != nil {
		return nil, err
	}

	lines := make([]PolicyLine, len(rows))
	for i, r := range rows {
		lines[i] = PolicyLine{SKU: r.SKU, Demand: demands[i], Result: results[i]}
	}
	return lines, nil
}

// FilterStore keeps the lines of one store. An empty store keeps everything.
func FilterStore(lines []PolicyLine, store string) []PolicyLine {
	if store == "" {
		return lines
	}
	out := make([]PolicyLine, 0, len(lines))
	for _, l := range lines {
		if l.StoreKey == store {
			out = append(out, l)
		}
	}
	return out
}

// TableSummary aggregates a policy table. Costs are summed in decimal and
// rounded to cents so the totals do not drift with row order.
type TableSummary struct {
	Rows             int             `json:"rows"`
	TotalSafetyStock decimal.Decimal `json:"total_safety_stock"`
	TotalHolding     decimal.Decimal `json:"total_holding_cost"`
	TotalStockout    decimal.Decimal `json:"total_stockout_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// Summarize totals the lines.
func Summarize(lines []PolicyLine) TableSummary {
	s := TableSummary{
		Rows:             len(lines),
		TotalSafetyStock: decimal.Zero,
		TotalHolding:     decimal.Zero,
		TotalStockout:    decimal.Zero,
	}
	for _, l := range lines {
		s.TotalSafetyStock = s.TotalSafetyStock.Add(decimal.NewFromFloat(l.SafetyStock))
		s.TotalHolding = s.TotalHolding.Add(decimal.NewFromFloat(l.HoldingCost))
		s.TotalStockout = s.TotalStockout.Add(decimal.NewFromFloat(l.StockoutCost))
	}
	s.TotalSafetyStock = s.TotalSafetyStock.Round(2)
	s.TotalHolding = s.TotalHolding.Round(2)
	s.TotalStockout = s.TotalStockout.Round(2)
	s.TotalCost = s.TotalHolding.Add(s.TotalStockout)
	return s
}
