/*
scenarios.go - What-if presets

PURPOSE:
  Named parameter sets for common planning questions, so a user can jump to
  "what if the supplier takes two weeks" without moving four controls.
  Each preset starts from the configured defaults and overrides a few knobs.

SCENARIOS:
  baseline         Configured defaults
  fast-supplier    3 day lead time
  slow-supplier    14 day lead time
  premium-service  99% service level
  lean             90% service level, holding cost doubled
*/
package api

import (
	"net/http"

	"github.com/warp/inventory-optimizer/policy"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ID          string
	Name        string
	Description string
	Apply       func(policy.Parameters) policy.Parameters
}

var scenarios = []scenario{
	{
		ID:          "baseline",
		Name:        "Baseline",
		Description: "Default control values.",
		Apply:       func(p policy.Parameters) policy.Parameters { return p },
	},
	{
		ID:          "fast-supplier",
		Name:        "Fast Supplier",
		Description: "Replenishment arrives in 3 days.",
		Apply: func(p policy.Parameters) policy.Parameters {
			p.LeadTimeDays = 3
			return p
		},
	},
	{
		ID:          "slow-supplier",
		Name:        "Slow Supplier",
		Description: "Replenishment takes two weeks.",
		Apply: func(p policy.Parameters) policy.Parameters {
			p.LeadTimeDays = 14
			return p
		},
	},
	{
		ID:          "premium-service",
		Name:        "Premium Service",
		Description: "Target a 99% service level.",
		Apply: func(p policy.Parameters) policy.Parameters {
			return p.WithServiceLevel(policy.ServiceLevel99)
		},
	},
	{
		ID:          "lean",
		Name:        "Lean Inventory",
		Description: "90% service level with expensive storage.",
		Apply: func(p policy.Parameters) policy.Parameters {
			p = p.WithServiceLevel(policy.ServiceLevel90)
			p.HoldingCostPerUnitDay *= 2
			return p
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available presets resolved against the defaults.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Parameters:  toParametersDTO(s.Apply(h.Defaults)),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetScenarioPolicy returns the policy table under a preset.
// GET /api/scenarios/{id}/policy?store=S1
func (h *Handler) GetScenarioPolicy(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(urlParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	params := s.Apply(h.Defaults)
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}
	h.writePolicyTable(w, r, params)
}
