/*
main.go - Application entry point

PURPOSE:
  Starts the inventory optimizer dashboard server.
  Handles configuration, the one-time dataset load, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (YAML + env + defaults)
  3. Open the dataset source (CSV files or SQLite)
  4. Load the dataset once; any DataLoadError is fatal
  5. Configure HTTP router and start serving

COMMAND-LINE FLAGS:
  -config  YAML config path (default: config.yaml, optional)
  -addr    Listen address, overrides config
  -data    Directory holding sku_forecasts.csv and inventory_policy.csv
  -db      SQLite database path; switches the source to sqlite
  -import  Load the CSV files, write them into -db, and exit

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

EXAMPLES:
  # Serve CSV files from ./data
  ./server -data=./data

  # Convert CSV files to SQLite once, then serve from it
  ./server -data=./data -db=./inventory.db -import
  ./server -db=./inventory.db

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration sources
  - loader/cache.go: Load-once dataset cache
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/inventory-optimizer/api"
	"github.com/warp/inventory-optimizer/config"
	"github.com/warp/inventory-optimizer/loader"
	"github.com/warp/inventory-optimizer/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "config.yaml", "YAML config path")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dataDir := flag.String("data", "", "Directory with the CSV inputs (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path; serves from SQLite when set")
	importMode := flag.Bool("import", false, "Import the CSV inputs into -db and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
		if !*importMode {
			cfg.Source = config.SourceSQLite
		}
	}

	ctx := context.Background()
	csvSource := &loader.CSVSource{ForecastPath: cfg.ForecastPath(), PolicyPath: cfg.PolicyPath()}

	if *importMode {
		if err := runImport(ctx, csvSource, cfg.DBPath); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	// Dataset source
	var source loader.Source = csvSource
	if cfg.Source == config.SourceSQLite {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		source = store
	}

	// Load once, before serving. A broken dataset halts the process.
	data := loader.NewCache(source)
	ds, err := data.Get(ctx)
	if err != nil {
		log.Printf("Make sure %s and %s exist (or pass -db for a SQLite source).", loader.ForecastFile, loader.PolicyFile)
		log.Fatalf("Could not load data files: %v", err)
	}
	api.RecordDataset(ds)

	defaults, err := cfg.DefaultParameters()
	if err != nil {
		log.Fatalf("Invalid default parameters: %v", err)
	}

	handler := api.NewHandler(data, defaults, cfg.FallbackSigma)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s (source: %s)", cfg.Addr, cfg.Source)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func runImport(ctx context.Context, source loader.Source, dbPath string) error {
	ds, err := source.Load(ctx)
	if err != nil {
		return err
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(ctx, ds); err != nil {
		return err
	}
	log.Printf("Imported %d forecast rows and %d policy rows into %s", len(ds.Forecasts), len(ds.Policies), dbPath)
	return nil
}
