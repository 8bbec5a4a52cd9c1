/*
csv.go - CSV source for the forecast and policy tables

PURPOSE:
  Reads the two static inputs:

    sku_forecasts.csv     store_key, prod_key, date, prediction[, upper_95, lower_95]
    inventory_policy.csv  store_key, prod_key, mu_d, sigma_d

  Columns are located by header name, so extra columns and any column order
  are accepted. upper_95/lower_95 are only used when both are present.

ERRORS:
  Every failure is wrapped in a *DataLoadError naming the file. Row numbers
  in messages are 1-based and count the header line.

SEE ALSO:
  - cache.go: Load-once wrapper
  - store/sqlite: Alternative source
*/
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/warp/inventory-optimizer/demand"
)

// Default artifact names.
const (
	ForecastFile = "sku_forecasts.csv"
	PolicyFile   = "inventory_policy.csv"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// Source produces a Dataset.
type Source interface {
	Load(ctx context.Context) (*demand.Dataset, error)
}

// CSVSource loads both tables from CSV files.
type CSVSource struct {
	ForecastPath string
	PolicyPath   string
}

// NewCSVSource uses the default file names inside dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{
		ForecastPath: filepath.Join(dir, ForecastFile),
		PolicyPath:   filepath.Join(dir, PolicyFile),
	}
}

// Load reads both files. Either failing fails the whole load.
func (s *CSVSource) Load(ctx context.Context) (*demand.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	forecasts, hasInterval, err := loadFile(s.ForecastPath, ReadForecasts)
	if err != nil {
		return nil, err
	}
	policies, _, err := loadFile(s.PolicyPath, func(r io.Reader) ([]demand.PolicyRow, bool, error) {
		rows, err := ReadPolicies(r)
		return rows, false, err
	})
	if err != nil {
		return nil, err
	}

	return &demand.Dataset{
		Forecasts:   forecasts,
		Policies:    policies,
		HasInterval: hasInterval,
	}, nil
}

func loadFile[T any](path string, read func(io.Reader) ([]T, bool, error)) ([]T, bool, error) {
	artifact := filepath.Base(path)

	file, err := os.Open(path)
	if err != nil {
		return nil, false, &DataLoadError{Artifact: artifact, Path: path, Err: err}
	}
	defer file.Close()

	rows, flag, err := read(file)
	if err != nil {
		return nil, false, &DataLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return rows, flag, nil
}

// =============================================================================
// TABLE READERS
// =============================================================================

// ReadForecasts parses a forecast table. The boolean reports whether both
// interval columns were present.
func ReadForecasts(r io.Reader) ([]demand.ForecastRecord, bool, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, false, err
	}

	cols, err := locate(header, "store_key", "prod_key", "date", "prediction")
	if err != nil {
		return nil, false, err
	}
	upperIdx, hasUpper := header["upper_95"]
	lowerIdx, hasLower := header["lower_95"]
	hasInterval := hasUpper && hasLower

	out := make([]demand.ForecastRecord, 0, len(records))
	for i, rec := range records {
		row := i + 2

		date, err := parseDate(rec[cols[2]])
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", row, err)
		}
		pred, err := parseFloat("prediction", rec[cols[3]])
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", row, err)
		}

		fr := demand.ForecastRecord{
			SKU:        demand.SKU{StoreKey: rec[cols[0]], ProdKey: rec[cols[1]]},
			Date:       date,
			Prediction: pred,
		}
		if hasInterval {
			if fr.Upper95, err = parseOptionalFloat("upper_95", rec[upperIdx]); err != nil {
				return nil, false, fmt.Errorf("row %d: %w", row, err)
			}
			if fr.Lower95, err = parseOptionalFloat("lower_95", rec[lowerIdx]); err != nil {
				return nil, false, fmt.Errorf("row %d: %w", row, err)
			}
		}
		out = append(out, fr)
	}
	return out, hasInterval, nil
}

// ReadPolicies parses a policy statistics table.
func ReadPolicies(r io.Reader) ([]demand.PolicyRow, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, err
	}

	cols, err := locate(header, "store_key", "prod_key", "mu_d", "sigma_d")
	if err != nil {
		return nil, err
	}

	out := make([]demand.PolicyRow, 0, len(records))
	for i, rec := range records {
		row := i + 2

		mu, err := parseFloat("mu_d", rec[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		sigma, err := parseFloat("sigma_d", rec[cols[3]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if sigma < 0 {
			return nil, fmt.Errorf("row %d: sigma_d must be >= 0, got %v", row, sigma)
		}

		out = append(out, demand.PolicyRow{
			SKU:    demand.SKU{StoreKey: rec[cols[0]], ProdKey: rec[cols[1]]},
			MuD:    mu,
			SigmaD: sigma,
		})
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func readAll(r io.Reader) (map[string]int, [][]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV is empty: header row required")
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		header[name] = i
	}
	return header, records[1:], nil
}

func locate(header map[string]int, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, name := range names {
		pos, ok := header[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[i] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
}

func parseFloat(column, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", column, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite, got %q", column, s)
	}
	return v, nil
}

func parseOptionalFloat(column, s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloat(column, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
