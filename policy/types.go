/*
types.go - Inventory policy vocabulary

PURPOSE:
  Defines the inputs and outputs of the policy calculator:
  - ServiceLevel: closed set of target service levels, each bound to a z-score
  - Demand:       mean / standard deviation of daily demand for one SKU
  - Parameters:   user-adjustable what-if knobs
  - Result:       safety stock, reorder point and daily cost estimate

SERVICE LEVELS:
  Only four levels exist. They are modeled as an enum rather than a float so
  that a caller holding a ServiceLevel constant can never hit the
  invalid-level path. Floats coming from the outside (query strings, config)
  go through ParseServiceLevel first.

    90% -> z = 1.28
    95% -> z = 1.65
    97% -> z = 1.88
    99% -> z = 2.33

SEE ALSO:
  - calculator.go: The formulas
  - errors.go: Error taxonomy
*/
package policy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// SERVICE LEVEL
// =============================================================================

// ServiceLevel is a target probability of not stocking out during lead time.
// The zero value is not a valid level.
type ServiceLevel int

const (
	ServiceLevel90 ServiceLevel = iota + 1
	ServiceLevel95
	ServiceLevel97
	ServiceLevel99
)

// AllServiceLevels lists every supported level in ascending order.
var AllServiceLevels = []ServiceLevel{
	ServiceLevel90,
	ServiceLevel95,
	ServiceLevel97,
	ServiceLevel99,
}

var serviceLevelTable = map[ServiceLevel]struct {
	fraction float64
	z        float64
}{
	ServiceLevel90: {0.90, 1.28},
	ServiceLevel95: {0.95, 1.65},
	ServiceLevel97: {0.97, 1.88},
	ServiceLevel99: {0.99, 2.33},
}

// ParseServiceLevel maps a fraction (0.90, 0.95, 0.97, 0.99) to its level.
func ParseServiceLevel(fraction float64) (ServiceLevel, error) {
	for _, sl := range AllServiceLevels {
		if math.Abs(serviceLevelTable[sl].fraction-fraction) < 1e-9 {
			return sl, nil
		}
	}
	return 0, &InvalidServiceLevelError{Value: fraction}
}

// ParseServiceLevelString accepts "0.95", "95" or "95%".
func ParseServiceLevelString(s string) (ServiceLevel, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidServiceLevel, s)
	}
	if percent || v > 1 {
		v /= 100
	}
	return ParseServiceLevel(v)
}

// Valid reports whether sl is one of the enumerated levels.
func (sl ServiceLevel) Valid() bool {
	_, ok := serviceLevelTable[sl]
	return ok
}

// Z returns the z-score for the level.
func (sl ServiceLevel) Z() (float64, error) {
	entry, ok := serviceLevelTable[sl]
	if !ok {
		return 0, &InvalidServiceLevelError{Value: float64(sl)}
	}
	return entry.z, nil
}

// Fraction returns the level as a probability, or 0 for an invalid level.
func (sl ServiceLevel) Fraction() float64 {
	return serviceLevelTable[sl].fraction
}

// Label renders the level as an integer percentage, e.g. "95%".
func (sl ServiceLevel) Label() string {
	if !sl.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%d%%", int(math.Round(sl.Fraction()*100)))
}

func (sl ServiceLevel) String() string { return sl.Label() }

// =============================================================================
// INPUTS
// =============================================================================

// FallbackSigma is substituted for the standard deviation of a series with
// fewer than two observations.
const FallbackSigma = 5.0

// Lead time bounds accepted by Parameters.Validate.
const (
	MinLeadTimeDays = 1
	MaxLeadTimeDays = 21
)

// StockoutVariabilityShare is the fraction of sigma_d priced at the stockout
// cost in the simplified stockout estimate.
const StockoutVariabilityShare = 0.10

// Demand holds daily demand statistics for one SKU.
type Demand struct {
	MuD    float64 `json:"mu_d"`
	SigmaD float64 `json:"sigma_d"`
}

// Parameters are the what-if knobs of the policy simulation.
type Parameters struct {
	ServiceLevel          ServiceLevel `json:"-"`
	LeadTimeDays          int          `json:"lead_time_days"`
	HoldingCostPerUnitDay float64      `json:"holding_cost_per_unit_day"`
	StockoutCostPerUnit   float64      `json:"stockout_cost_per_unit"`
}

// DefaultParameters returns the initial control values of the dashboard.
func DefaultParameters() Parameters {
	return Parameters{
		ServiceLevel:          ServiceLevel95,
		LeadTimeDays:          7,
		HoldingCostPerUnitDay: 0.50,
		StockoutCostPerUnit:   5.00,
	}
}

// Validate checks the parameters against the ranges offered by the controls.
// Calculate does not call it: lead time range is the caller's contract.
func (p Parameters) Validate() error {
	if !p.ServiceLevel.Valid() {
		return &InvalidServiceLevelError{Value: float64(p.ServiceLevel)}
	}
	if p.LeadTimeDays < MinLeadTimeDays || p.LeadTimeDays > MaxLeadTimeDays {
		return fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidLeadTime,
			p.LeadTimeDays, MinLeadTimeDays, MaxLeadTimeDays)
	}
	if !validCost(p.HoldingCostPerUnitDay) {
		return fmt.Errorf("%w: holding cost %v", ErrInvalidCost, p.HoldingCostPerUnitDay)
	}
	if !validCost(p.StockoutCostPerUnit) {
		return fmt.Errorf("%w: stockout cost %v", ErrInvalidCost, p.StockoutCostPerUnit)
	}
	return nil
}

func validCost(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// WithServiceLevel returns a copy of p using sl.
func (p Parameters) WithServiceLevel(sl ServiceLevel) Parameters {
	p.ServiceLevel = sl
	return p
}

// =============================================================================
// OUTPUTS
// =============================================================================

// Result is the policy recommendation for one SKU under one set of parameters.
// Costs are per day.
type Result struct {
	SafetyStock  float64 `json:"safety_stock"`
	ReorderPoint float64 `json:"reorder_point"`
	HoldingCost  float64 `json:"holding_cost"`
	StockoutCost float64 `json:"stockout_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// Comparison is one row of the service level sensitivity table.
type Comparison struct {
	ServiceLevel ServiceLevel `json:"-"`
	Label        string       `json:"service_level"`
	Result       Result       `json:"result"`

	// Rounded half to even, as displayed.
	SafetyStockUnits  int64 `json:"safety_stock_units"`
	ReorderPointUnits int64 `json:"reorder_point_units"`
}
