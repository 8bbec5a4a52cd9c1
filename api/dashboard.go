package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/warp/inventory-optimizer/demand"
	"github.com/warp/inventory-optimizer/policy"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

var dashboardTemplate = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"units": func(v float64) string { return printer.Sprintf("%.0f units", v) },
		"num0":  func(v float64) string { return printer.Sprintf("%.0f", v) },
		"num1":  func(v float64) string { return printer.Sprintf("%.1f", v) },
		"money": func(v float64) string { return printer.Sprintf("$%.2f", v) },
		"deref": func(v *float64) float64 { return *v },
	}).ParseFS(templateFS, "templates/dashboard.html"),
)

// dashboardPage is the template data of the HTML dashboard.
type dashboardPage struct {
	Title         string
	Stores        []string
	Products      []string
	ServiceLevels []ServiceLevelDTO
	LeadTime      RangeDTO
	Params        ParametersDTO
	StoreOnly     bool
	SKU           SKUDashboardDTO
	Table         []PolicyLineDTO
	Summary       demand.TableSummary
	ExportURL     string
}

// Dashboard renders the server-side dashboard page.
// GET /?store=S1&product=P1&service_level=0.95&lead_time_days=7&store_only=true
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	params, err := parseParameters(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}

	storeOnly, err := parseFlag(r, "store_only", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters", err)
		return
	}

	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	q := r.URL.Query()
	stores, products := ds.Stores(), ds.Products()
	sku := demand.SKU{StoreKey: q.Get("store"), ProdKey: q.Get("product")}
	if sku.StoreKey == "" && len(stores) > 0 {
		sku.StoreKey = stores[0]
	}
	if sku.ProdKey == "" && len(products) > 0 {
		sku.ProdKey = products[0]
	}
	view, err := h.buildSKUView(ds, sku, params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute policy", err)
		return
	}

	tableStore := ""
	if storeOnly {
		tableStore = sku.StoreKey
	}
	lines, err := h.policyLines(ds, params, tableStore)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute policy table", err)
		return
	}

	page := dashboardPage{
		Title:         "Retail Demand Forecasting & Inventory Optimizer",
		Stores:        stores,
		Products:      products,
		ServiceLevels: toServiceLevelDTOs(),
		LeadTime:      RangeDTO{Min: policy.MinLeadTimeDays, Max: policy.MaxLeadTimeDays},
		Params:        toParametersDTO(params),
		StoreOnly:     storeOnly,
		SKU:           view,
		Table:         toPolicyLineDTOs(lines),
		Summary:       demand.Summarize(lines),
		ExportURL:     exportURL(params, tableStore),
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, page); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render dashboard", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func exportURL(p policy.Parameters, store string) string {
	q := url.Values{}
	q.Set("service_level", strconv.FormatFloat(p.ServiceLevel.Fraction(), 'f', 2, 64))
	q.Set("lead_time_days", strconv.Itoa(p.LeadTimeDays))
	q.Set("holding_cost", strconv.FormatFloat(p.HoldingCostPerUnitDay, 'f', -1, 64))
	q.Set("stockout_cost", strconv.FormatFloat(p.StockoutCostPerUnit, 'f', -1, 64))
	if store != "" {
		q.Set("store", store)
	}
	return "/api/policy/export.csv?" + q.Encode()
}
