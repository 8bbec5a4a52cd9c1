/*
handlers.go - HTTP API handlers for the inventory optimizer

PURPOSE:
  Exposes the policy calculator to the dashboard. Each request carries the
  what-if parameters in its query string and gets a full recomputation;
  nothing is stored between requests.

ENDPOINTS:
  Catalog:
    GET /api/catalog                        Stores, products, control ranges, defaults

  SKU:
    GET /api/skus/{store}/{product}         Metrics, forecast series, cost breakdown,
                                            service level comparison

  Policy table:
    GET /api/policy                         Full policy table (?store= filters)
    GET /api/policy/export.csv              Same table as CSV download (?bom=1)

  Scenarios:
    GET /api/scenarios                      What-if presets
    GET /api/scenarios/{id}/policy          Policy table under a preset

QUERY PARAMETERS:
  service_level   0.90 | 0.95 | 0.97 | 0.99 (or 90, 95%, ...)
  lead_time_days  1-21
  holding_cost    >= 0, $ per unit per day
  stockout_cost   >= 0, $ per unit
  Missing parameters take the configured defaults.
  Flags (store_only, bom) accept strconv.ParseBool spellings; anything else
  is a 400.

PATH KEYS:
  {store} and {product} are percent-decoded, so keys containing "/" are
  reachable as %2F.

ERROR HANDLING:
  - 400: Invalid parameters
  - 404: Unknown scenario
  - 503: Dataset failed to load
  - 500: Anything else
  An empty SKU selection is NOT an error: 200 with empty=true and a warning.

SEE ALSO:
  - dto.go: Response structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/inventory-optimizer/demand"
	"github.com/warp/inventory-optimizer/export"
	"github.com/warp/inventory-optimizer/loader"
	"github.com/warp/inventory-optimizer/policy"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// DatasetProvider returns the immutable dataset. *loader.Cache implements it.
type DatasetProvider interface {
	Get(ctx context.Context) (*demand.Dataset, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Data          DatasetProvider
	Defaults      policy.Parameters
	FallbackSigma float64
}

// NewHandler creates a handler serving data with the given default parameters.
func NewHandler(data DatasetProvider, defaults policy.Parameters, fallbackSigma float64) *Handler {
	return &Handler{
		Data:          data,
		Defaults:      defaults,
		FallbackSigma: fallbackSigma,
	}
}

// dataset fetches the dataset or writes a 503 and returns nil.
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) *demand.Dataset {
	ds, err := h.Data.Get(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, loader.ErrDataLoad) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "Could not load data files", err)
		return nil
	}
	return ds
}

// =============================================================================
// CATALOG
// =============================================================================

// GetCatalog returns the selectable stores and products and control settings.
// GET /api/catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	writeJSON(w, http.StatusOK, CatalogDTO{
		Stores:        ds.Stores(),
		Products:      ds.Products(),
		ServiceLevels: toServiceLevelDTOs(),
		LeadTimeDays:  RangeDTO{Min: policy.MinLeadTimeDays, Max: policy.MaxLeadTimeDays},
		Defaults:      toParametersDTO(h.Defaults),
		HasInterval:   ds.HasInterval,
	})
}

// =============================================================================
// SKU DASHBOARD
// =============================================================================

// GetSKU returns the dashboard view of one store/product pair.
// GET /api/skus/{store}/{product}
func (h *Handler) GetSKU(w http.ResponseWriter, r *http.Request) {
	params, err := parseParameters(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}

	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	sku := demand.SKU{StoreKey: urlParam(r, "store"), ProdKey: urlParam(r, "product")}
	view, err := h.buildSKUView(ds, sku, params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute policy", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// buildSKUView selects the series, derives demand statistics and computes
// the policy plus the comparison over every service level.
func (h *Handler) buildSKUView(ds *demand.Dataset, sku demand.SKU, params policy.Parameters) (SKUDashboardDTO, error) {
	view := SKUDashboardDTO{SKU: sku, Parameters: toParametersDTO(params)}

	series, err := ds.Select(sku)
	if demand.IsEmptySelection(err) {
		selectionsTotal.WithLabelValues("empty").Inc()
		view.Empty = true
		view.Warning = "No forecast data found for this store/product combination."
		return view, nil
	}
	if err != nil {
		return view, err
	}
	selectionsTotal.WithLabelValues("ok").Inc()

	d := series.Demand(h.FallbackSigma)
	res, err := policy.Calculate(d, params)
	if err != nil {
		return view, err
	}
	comparison, err := policy.CompareServiceLevels(d, params)
	if err != nil {
		return view, err
	}
	computationsTotal.WithLabelValues("sku").Inc()

	view.Demand = &DemandDTO{
		MuD:           d.MuD,
		SigmaD:        d.SigmaD,
		Observations:  series.Len(),
		SigmaFallback: series.Len() < 2,
	}
	view.Metrics = &MetricsDTO{
		AvgDailyForecast: d.MuD,
		SafetyStock:      res.SafetyStock,
		ReorderPoint:     res.ReorderPoint,
		TotalCost:        res.TotalCost,
	}
	view.Result = &res
	view.HasInterval = ds.HasInterval && series.HasInterval()
	view.Series = toForecastPointDTOs(series.Records, view.HasInterval)
	view.ReorderLine = reorderLine(res)
	view.CostBreakdown = toCostBreakdown(res)
	view.Comparison = comparison

	return view, nil
}

// =============================================================================
// POLICY TABLE
// =============================================================================

// GetPolicyTable returns the full catalog policy table.
// GET /api/policy?store=S1
func (h *Handler) GetPolicyTable(w http.ResponseWriter, r *http.Request) {
	params, err := parseParameters(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}
	h.writePolicyTable(w, r, params)
}

func (h *Handler) writePolicyTable(w http.ResponseWriter, r *http.Request, params policy.Parameters) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	store := r.URL.Query().Get("store")
	lines, err := h.policyLines(ds, params, store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute policy table", err)
		return
	}

	writeJSON(w, http.StatusOK, PolicyTableDTO{
		Parameters: toParametersDTO(params),
		Store:      store,
		Rows:       toPolicyLineDTOs(lines),
		Summary:    demand.Summarize(lines),
	})
}

func (h *Handler) policyLines(ds *demand.Dataset, params policy.Parameters, store string) ([]demand.PolicyLine, error) {
	lines, err := demand.BuildPolicyTable(ds.Policies, params)
	if err != nil {
		return nil, err
	}
	computationsTotal.WithLabelValues("table").Inc()
	return demand.FilterStore(lines, store), nil
}

// ExportPolicy streams the policy table as CSV.
// GET /api/policy/export.csv?store=S1&bom=1
func (h *Handler) ExportPolicy(w http.ResponseWriter, r *http.Request) {
	params, err := parseParameters(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}
	bom, err := parseFlag(r, "bom", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}

	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	lines, err := h.policyLines(ds, params, r.URL.Query().Get("store"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute policy table", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, lines, export.Options{BOM: bom}); err != nil {
		// Headers are gone; all that is left is to log it.
		logf(r, "csv export failed: %v", err)
		return
	}
	exportsTotal.Inc()
}

// =============================================================================
// PARAMETERS
// =============================================================================

// parseParameters reads the what-if parameters from the query string,
// falling back to defaults for absent keys, and validates the result.
func parseParameters(r *http.Request, defaults policy.Parameters) (policy.Parameters, error) {
	q := r.URL.Query()
	p := defaults

	if v := q.Get("service_level"); v != "" {
		sl, err := policy.ParseServiceLevelString(v)
		if err != nil {
			return p, err
		}
		p.ServiceLevel = sl
	}
	if v := q.Get("lead_time_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: %q", policy.ErrInvalidLeadTime, v)
		}
		p.LeadTimeDays = n
	}
	if v := q.Get("holding_cost"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%w: holding_cost %q", policy.ErrInvalidCost, v)
		}
		p.HoldingCostPerUnitDay = f
	}
	if v := q.Get("stockout_cost"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%w: stockout_cost %q", policy.ErrInvalidCost, v)
		}
		p.StockoutCostPerUnit = f
	}

	return p, p.Validate()
}

// parseFlag reads a boolean query parameter; an absent key yields def.
func parseFlag(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// urlParam returns a decoded route parameter. chi matches on RawPath when
// the request has one, leaving escapes such as %2F in the captured value.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		switch {
		case errors.Is(err, policy.ErrInvalidServiceLevel):
			resp.Code = "invalid_service_level"
		case errors.Is(err, policy.ErrInvalidLeadTime):
			resp.Code = "invalid_lead_time"
		case errors.Is(err, policy.ErrInvalidCost):
			resp.Code = "invalid_cost"
		case errors.Is(err, loader.ErrDataLoad):
			resp.Code = "data_load"
		}
	}
	writeJSON(w, status, resp)
}
