/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  JSON shapes returned to the dashboard frontend. They decouple the
  calculator types from the wire contract and carry presentation details
  (labels, rounded display values, chart series) the calculator does not
  know about.

NAMING CONVENTION:
  - *DTO: Response types returned to clients

VALIDATION:
  Query parameters are validated in handlers (parseParameters), not here.

SEE ALSO:
  - handlers.go: Uses these types
  - policy/types.go: Result, Comparison
*/
package api

import (
	"fmt"
	"math"

	"github.com/warp/inventory-optimizer/demand"
	"github.com/warp/inventory-optimizer/policy"
)

// =============================================================================
// PARAMETERS & CATALOG
// =============================================================================

// ParametersDTO echoes the parameters a response was computed with.
type ParametersDTO struct {
	ServiceLevel          float64 `json:"service_level"`
	ServiceLevelLabel     string  `json:"service_level_label"`
	LeadTimeDays          int     `json:"lead_time_days"`
	HoldingCostPerUnitDay float64 `json:"holding_cost_per_unit_day"`
	StockoutCostPerUnit   float64 `json:"stockout_cost_per_unit"`
}

// ServiceLevelDTO is one option of the service level control.
type ServiceLevelDTO struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Z     float64 `json:"z"`
}

// RangeDTO is an inclusive integer range.
type RangeDTO struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CatalogDTO lists what can be selected.
type CatalogDTO struct {
	Stores        []string          `json:"stores"`
	Products      []string          `json:"products"`
	ServiceLevels []ServiceLevelDTO `json:"service_levels"`
	LeadTimeDays  RangeDTO          `json:"lead_time_days"`
	Defaults      ParametersDTO     `json:"defaults"`
	HasInterval   bool              `json:"has_interval"`
}

// =============================================================================
// SKU DASHBOARD
// =============================================================================

// DemandDTO holds the statistics derived from the selected series.
type DemandDTO struct {
	MuD           float64 `json:"mu_d"`
	SigmaD        float64 `json:"sigma_d"`
	Observations  int     `json:"observations"`
	SigmaFallback bool    `json:"sigma_fallback"`
}

// MetricsDTO is the headline metrics row.
type MetricsDTO struct {
	AvgDailyForecast float64 `json:"avg_daily_forecast"`
	SafetyStock      float64 `json:"safety_stock"`
	ReorderPoint     float64 `json:"reorder_point"`
	TotalCost        float64 `json:"total_cost"`
}

// ForecastPointDTO is one point of the forecast chart.
type ForecastPointDTO struct {
	Date       string   `json:"date"`
	Prediction float64  `json:"prediction"`
	Upper95    *float64 `json:"upper_95,omitempty"`
	Lower95    *float64 `json:"lower_95,omitempty"`
}

// ReferenceLineDTO is a horizontal line drawn over the forecast chart.
type ReferenceLineDTO struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// CostBarDTO is one bar of the cost breakdown chart.
type CostBarDTO struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// SKUDashboardDTO is everything the SKU section of the dashboard renders.
// When Empty is true only SKU, Parameters and Warning are set.
type SKUDashboardDTO struct {
	SKU        demand.SKU    `json:"sku"`
	Parameters ParametersDTO `json:"parameters"`
	Empty      bool          `json:"empty"`
	Warning    string        `json:"warning,omitempty"`

	Demand        *DemandDTO          `json:"demand,omitempty"`
	Metrics       *MetricsDTO         `json:"metrics,omitempty"`
	Result        *policy.Result      `json:"result,omitempty"`
	Series        []ForecastPointDTO  `json:"series,omitempty"`
	HasInterval   bool                `json:"has_interval"`
	ReorderLine   *ReferenceLineDTO   `json:"reorder_line,omitempty"`
	CostBreakdown []CostBarDTO        `json:"cost_breakdown,omitempty"`
	Comparison    []policy.Comparison `json:"comparison,omitempty"`
}

// =============================================================================
// POLICY TABLE
// =============================================================================

// PolicyLineDTO is one row of the full policy table, with display values.
type PolicyLineDTO struct {
	Store          string  `json:"store"`
	Product        string  `json:"product"`
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	SigmaD         float64 `json:"sigma_d"`
	SafetyStock    float64 `json:"safety_stock"`
	ReorderPoint   float64 `json:"reorder_point"`
	HoldingCost    float64 `json:"holding_cost"`
	StockoutCost   float64 `json:"stockout_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// PolicyTableDTO is the full policy table response.
type PolicyTableDTO struct {
	Parameters ParametersDTO       `json:"parameters"`
	Store      string              `json:"store,omitempty"`
	Rows       []PolicyLineDTO     `json:"rows"`
	Summary    demand.TableSummary `json:"summary"`
}

// ScenarioDTO is a named what-if preset.
type ScenarioDTO struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  ParametersDTO `json:"parameters"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toParametersDTO(p policy.Parameters) ParametersDTO {
	return ParametersDTO{
		ServiceLevel:          p.ServiceLevel.Fraction(),
		ServiceLevelLabel:     p.ServiceLevel.Label(),
		LeadTimeDays:          p.LeadTimeDays,
		HoldingCostPerUnitDay: p.HoldingCostPerUnitDay,
		StockoutCostPerUnit:   p.StockoutCostPerUnit,
	}
}

func toServiceLevelDTOs() []ServiceLevelDTO {
	dtos := make([]ServiceLevelDTO, len(policy.AllServiceLevels))
	for i, sl := range policy.AllServiceLevels {
		z, _ := sl.Z()
		dtos[i] = ServiceLevelDTO{Value: sl.Fraction(), Label: sl.Label(), Z: z}
	}
	return dtos
}

func toPolicyLineDTOs(lines []demand.PolicyLine) []PolicyLineDTO {
	dtos := make([]PolicyLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = PolicyLineDTO{
			Store:          l.StoreKey,
			Product:        l.ProdKey,
			AvgDailyDemand: l.MuD,
			SigmaD:         l.SigmaD,
			SafetyStock:    l.SafetyStock,
			ReorderPoint:   l.ReorderPoint,
			HoldingCost:    l.HoldingCost,
			StockoutCost:   l.StockoutCost,
			TotalCost:      l.TotalCost,
		}
	}
	return dtos
}

func toForecastPointDTOs(records []demand.ForecastRecord, withInterval bool) []ForecastPointDTO {
	dtos := make([]ForecastPointDTO, len(records))
	for i, r := range records {
		dtos[i] = ForecastPointDTO{
			Date:       r.Date.Format("2006-01-02"),
			Prediction: r.Prediction,
		}
		if withInterval {
			dtos[i].Upper95 = r.Upper95
			dtos[i].Lower95 = r.Lower95
		}
	}
	return dtos
}

func toCostBreakdown(res policy.Result) []CostBarDTO {
	return []CostBarDTO{
		{Label: "Holding Cost", Value: res.HoldingCost, Text: fmt.Sprintf("$%.2f", res.HoldingCost)},
		{Label: "Stockout Cost", Value: res.StockoutCost, Text: fmt.Sprintf("$%.2f", res.StockoutCost)},
		{Label: "Total Cost", Value: res.TotalCost, Text: fmt.Sprintf("$%.2f", res.TotalCost)},
	}
}

func reorderLine(res policy.Result) *ReferenceLineDTO {
	return &ReferenceLineDTO{
		Value: res.ReorderPoint,
		Label: fmt.Sprintf("Reorder Point: %.0f", math.RoundToEven(res.ReorderPoint)),
	}
}
