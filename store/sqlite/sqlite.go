/*
Package sqlite provides a SQLite-backed source for the forecast and policy tables.

PURPOSE:
  Alternative to the CSV files: the same two tables living in one SQLite
  file. The optimizer only reads from it; Import exists to build such a file
  from a CSV dataset once, ahead of time.

OPEN VS NEW:
  Open is the serving path: the file must already exist and is opened
  read-only, without migration. A missing file is a *loader.DataLoadError.
  New creates the file and schema when needed and is only used to import.

KEY TABLES:
  sku_forecasts:    store_key, prod_key, date, prediction, upper_95, lower_95
  inventory_policy: store_key, prod_key, mu_d, sigma_d

INDEXES:
  - idx_sku_forecasts_sku_date: SKU selection ordered by date
  - idx_inventory_policy_sku:   policy lookup per SKU (not unique)

WAL MODE:
  Opened with WAL so a reader never blocks on an import into another
  connection.

USAGE:
  store, err := sqlite.Open("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  cache := loader.NewCache(store)

SEE ALSO:
  - loader/csv.go: CSV source with the same Source interface
  - cmd/server/main.go: -import flag
*/
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/inventory-optimizer/demand"
	"github.com/warp/inventory-optimizer/loader"
)

// Artifact names used in load errors.
const (
	ForecastTable = "sku_forecasts"
	PolicyTable   = "inventory_policy"
)

// Dates are stored as RFC3339 so a time of day survives an import.
// Date-only values written by older imports are still read.
const (
	dateLayout       = time.RFC3339
	legacyDateLayout = "2006-01-02"
)

// Store reads the dataset tables from a SQLite database.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens an existing database read-only for serving.
// It never creates the file or touches the schema.
func Open(dbPath string) (*Store, error) {
	artifact := filepath.Base(dbPath)

	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, &loader.DataLoadError{Artifact: artifact, Path: dbPath, Err: err}
	}
	if info.IsDir() {
		return nil, &loader.DataLoadError{Artifact: artifact, Path: dbPath, Err: errors.New("is a directory")}
	}

	db, err := sqlx.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, &loader.DataLoadError{Artifact: artifact, Path: dbPath, Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &loader.DataLoadError{Artifact: artifact, Path: dbPath, Err: err}
	}

	return &Store{db: db, path: dbPath}, nil
}

// New opens (and if needed creates) the database at dbPath for Import.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sku_forecasts (
		store_key TEXT NOT NULL,
		prod_key TEXT NOT NULL,
		date TEXT NOT NULL,
		prediction REAL NOT NULL,
		upper_95 REAL,
		lower_95 REAL
	);

	CREATE INDEX IF NOT EXISTS idx_sku_forecasts_sku_date
		ON sku_forecasts(store_key, prod_key, date);

	CREATE TABLE IF NOT EXISTS inventory_policy (
		store_key TEXT NOT NULL,
		prod_key TEXT NOT NULL,
		mu_d REAL NOT NULL,
		sigma_d REAL NOT NULL CHECK (sigma_d >= 0)
	);

	-- Not unique: the CSV source accepts repeated SKUs and so does this one.
	CREATE INDEX IF NOT EXISTS idx_inventory_policy_sku
		ON inventory_policy(store_key, prod_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROWS
// =============================================================================

type forecastRow struct {
	StoreKey   string   `db:"store_key"`
	ProdKey    string   `db:"prod_key"`
	Date       string   `db:"date"`
	Prediction float64  `db:"prediction"`
	Upper95    *float64 `db:"upper_95"`
	Lower95    *float64 `db:"lower_95"`
}

type policyRow struct {
	StoreKey string  `db:"store_key"`
	ProdKey  string  `db:"prod_key"`
	MuD      float64 `db:"mu_d"`
	SigmaD   float64 `db:"sigma_d"`
}

// =============================================================================
// SOURCE
// =============================================================================

// Load reads both tables. It implements loader.Source.
func (s *Store) Load(ctx context.Context) (*demand.Dataset, error) {
	var frows []forecastRow
	err := s.db.SelectContext(ctx, &frows, `
		SELECT store_key, prod_key, date, prediction, upper_95, lower_95
		FROM sku_forecasts
		ORDER BY rowid
	`)
	if err != nil {
		return nil, s.loadError(ForecastTable, err)
	}

	ds := &demand.Dataset{Forecasts: make([]demand.ForecastRecord, 0, len(frows))}
	for _, r := range frows {
		date, err := parseStoredDate(r.Date)
		if err != nil {
			return nil, s.loadError(ForecastTable, fmt.Errorf("invalid date %q for %s/%s", r.Date, r.StoreKey, r.ProdKey))
		}
		if r.Upper95 != nil && r.Lower95 != nil {
			ds.HasInterval = true
		}
		ds.Forecasts = append(ds.Forecasts, demand.ForecastRecord{
			SKU:        demand.SKU{StoreKey: r.StoreKey, ProdKey: r.ProdKey},
			Date:       date,
			Prediction: r.Prediction,
			Upper95:    r.Upper95,
			Lower95:    r.Lower95,
		})
	}

	var prows []policyRow
	err = s.db.SelectContext(ctx, &prows, `
		SELECT store_key, prod_key, mu_d, sigma_d
		FROM inventory_policy
		ORDER BY rowid
	`)
	if err != nil {
		return nil, s.loadError(PolicyTable, err)
	}

	ds.Policies = make([]demand.PolicyRow, len(prows))
	for i, r := range prows {
		ds.Policies[i] = demand.PolicyRow{
			SKU:    demand.SKU{StoreKey: r.StoreKey, ProdKey: r.ProdKey},
			MuD:    r.MuD,
			SigmaD: r.SigmaD,
		}
	}

	return ds, nil
}

func parseStoredDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(legacyDateLayout, s)
}

func (s *Store) loadError(table string, err error) error {
	return &loader.DataLoadError{
		Artifact: table + " table in " + filepath.Base(s.path),
		Path:     s.path,
		Err:      err,
	}
}

// =============================================================================
// IMPORT
// =============================================================================

// Import replaces the contents of both tables with ds, atomically.
func (s *Store) Import(ctx context.Context, ds *demand.Dataset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sku_forecasts"); err != nil {
		return fmt.Errorf("failed to clear forecasts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM inventory_policy"); err != nil {
		return fmt.Errorf("failed to clear policies: %w", err)
	}

	insertForecast, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO sku_forecasts (store_key, prod_key, date, prediction, upper_95, lower_95)
		VALUES (:store_key, :prod_key, :date, :prediction, :upper_95, :lower_95)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast insert: %w", err)
	}
	defer insertForecast.Close()

	for _, r := range ds.Forecasts {
		row := forecastRow{
			StoreKey:   r.StoreKey,
			ProdKey:    r.ProdKey,
			Date:       r.Date.Format(dateLayout),
			Prediction: r.Prediction,
			Upper95:    r.Upper95,
			Lower95:    r.Lower95,
		}
		if _, err := insertForecast.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("failed to insert forecast %s %s: %w", r.SKU, row.Date, err)
		}
	}

	insertPolicy, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO inventory_policy (store_key, prod_key, mu_d, sigma_d)
		VALUES (:store_key, :prod_key, :mu_d, :sigma_d)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare policy insert: %w", err)
	}
	defer insertPolicy.Close()

	for _, r := range ds.Policies {
		row := policyRow{StoreKey: r.StoreKey, ProdKey: r.ProdKey, MuD: r.MuD, SigmaD: r.SigmaD}
		if _, err := insertPolicy.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("failed to insert policy %s: %w", r.SKU, err)
		}
	}

	return tx.Commit()
}
