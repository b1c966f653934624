package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gazelab/gaze.report/internal/api"
	"github.com/gazelab/gaze.report/internal/config"
	"github.com/gazelab/gaze.report/internal/db"
	"github.com/gazelab/gaze.report/internal/gaze"
	"github.com/gazelab/gaze.report/internal/telemetry"
	"github.com/gazelab/gaze.report/internal/units"
	"github.com/gazelab/gaze.report/internal/version"
)

var (
	listen         = flag.String("listen", ":8080", "HTTP listen address")
	dbFile         = flag.String("db", "gaze.db", "Path to the SQLite database file")
	configPath     = flag.String("config", "config/analysis.defaults.json", "Path to the analysis config JSON")
	modelVersion   = flag.String("model-version", "v1", "Model version label stamped on derived events and metrics")
	displayUnits   = flag.String("units", units.PX, "Distance units for API output ("+units.GetValidUnitsString()+")")
	workerInterval = flag.Duration("worker-interval", time.Minute, "How often the event worker rescans for stale trials")
	disableWorker  = flag.Bool("disable-worker", false, "Disable the background event worker")
	migrationsDir  = flag.String("migrations", "db/migrations", "Path to the migrations directory")
)

// Main
func main() {
	flag.Parse()

	// 'gaze-report migrate <up|down|status|...>' runs the migration CLI and
	// exits without starting the server.
	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		db.RunMigrateCommand(args[1:], *dbFile, *migrationsDir)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*displayUnits) {
		log.Fatalf("Invalid units %q (valid: %s)", *displayUnits, units.GetValidUnitsString())
	}

	log.Printf("gaze.report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	analysisCfg, err := config.LoadAnalysisConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load analysis config: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if stale, err := database.CheckMigrations(*migrationsDir); err != nil {
		if stale {
			log.Fatalf("Migration check failed: %v", err)
		}
		log.Printf("Warning: could not check migration status: %v", err)
	}

	worker := db.NewEventWorker(database,
		gaze.ConfigFromAnalysis(analysisCfg), gaze.BoundsFromAnalysis(analysisCfg), *modelVersion)
	worker.Interval = *workerInterval

	// Create a wait group for the HTTP server and worker routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *disableWorker {
		log.Println("Event worker disabled (use the worker or a batch run to derive events)")
	} else {
		worker.Start()
		defer worker.Stop()

		// one immediate pass so trials ingested while the server was down
		// converge without waiting a full tick
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.RunOnce(ctx); err != nil {
				log.Printf("event worker initial pass: %v", err)
			}
		}()
		log.Printf("Event worker started (interval %s, model version %s)", worker.Interval, *modelVersion)
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		// prometheus scrape endpoint
		mux.Handle("/metrics", telemetry.Handler())

		// create a new API server instance over the database and mount the
		// API and chart handlers
		apiMux := api.NewServer(database, analysisCfg, *modelVersion, *displayUnits).ServeMux()
		mux.Handle("/", apiMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Starting HTTP server on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
