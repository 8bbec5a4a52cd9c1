/*
csv.go - Policy table CSV export

PURPOSE:
  Renders already-computed policy lines as CSV. The header matches the
  display column names of the policy table:

    Store, Product, Avg Daily Demand, Safety Stock, Reorder Point,
    Holding Cost $, Stockout Cost $, Total Cost $

PRECISION:
  Avg Daily Demand is written with 1 decimal, every other numeric column
  with 2. Values are rounded half away from zero. Currency symbols are not
  written so the file re-parses as plain numbers.

ENCODING:
  UTF-8. Options.BOM prefixes a byte order mark for spreadsheet tools that
  otherwise guess a legacy code page.

SEE ALSO:
  - api/handlers.go: ExportPolicy download endpoint
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-optimizer/demand"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileName is the suggested download name.
const FileName = "inventory_policy_export.csv"

// Columns is the header row.
var Columns = []string{
	"Store",
	"Product",
	"Avg Daily Demand",
	"Safety Stock",
	"Reorder Point",
	"Holding Cost $",
	"Stockout Cost $",
	"Total Cost $",
}

// Decimal places per numeric column, in Columns order starting at index 2.
var precision = []int32{1, 2, 2, 2, 2, 2}

// Options controls the output encoding.
type Options struct {
	BOM bool
}

// Row is a parsed export line.
type Row struct {
	Store          string
	Product        string
	AvgDailyDemand decimal.Decimal
	SafetyStock    decimal.Decimal
	ReorderPoint   decimal.Decimal
	HoldingCost    decimal.Decimal
	StockoutCost   decimal.Decimal
	TotalCost      decimal.Decimal
}

// Write renders lines to w.
func Write(w io.Writer, lines []demand.PolicyLine, opts Options) error {
	if opts.BOM {
		tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
		if err := writeCSV(tw, lines); err != nil {
			return err
		}
		return tw.Close()
	}
	return writeCSV(w, lines)
}

func writeCSV(w io.Writer, lines []demand.PolicyLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, l := range lines {
		values := []float64{l.MuD, l.SafetyStock, l.ReorderPoint, l.HoldingCost, l.StockoutCost, l.TotalCost}
		record := make([]string, 0, len(Columns))
		record = append(record, l.StoreKey, l.ProdKey)
		for i, v := range values {
			record = append(record, decimal.NewFromFloat(v).StringFixed(precision[i]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", l.SKU, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read parses a file produced by Write, with or without BOM.
func Read(r io.Reader) ([]Row, error) {
	r = transform.NewReader(r, unicode.UTF8BOM.NewDecoder())

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("export is empty: header row required")
	}
	if strings.Join(records[0], ",") != strings.Join(Columns, ",") {
		return nil, fmt.Errorf("export header mismatch. Expected: %v, Got: %v", Columns, records[0])
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		nums := make([]decimal.Decimal, len(precision))
		for j := range nums {
			d, err := decimal.NewFromString(rec[j+2])
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s %q", i+2, Columns[j+2], rec[j+2])
			}
			nums[j] = d
		}
		rows = append(rows, Row{
			Store:          rec[0],
			Product:        rec[1],
			AvgDailyDemand: nums[0],
			SafetyStock:    nums[1],
			ReorderPoint:   nums[2],
			HoldingCost:    nums[3],
			StockoutCost:   nums[4],
			TotalCost:      nums[5],
		})
	}
	return rows, nil
}
