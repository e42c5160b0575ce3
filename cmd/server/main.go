package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/api"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/catalog"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/config"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/extraction"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/logger"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/snapshot"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/storage"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/upload"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), "BomEngine.config")
	if p := os.Getenv("BOM_ENGINE_CONFIG"); p != "" {
		configPath = p
	}

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Advanced.LogMode)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal("failed to create directories", "error", err)
	}

	rules, err := config.LoadMatchRules(cfg.Advanced.MatchRulesPath)
	if err != nil {
		log.Fatal("failed to load match rules", "path", cfg.Advanced.MatchRulesPath, "error", err)
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		log.Fatal("failed to initialize storage", "error", err)
	}

	snapshots, err := snapshot.NewDuckStore(cfg.Storage.SnapshotDBPath, log)
	if err != nil {
		log.Fatal("failed to open snapshot store", "error", err)
	}
	defer snapshots.Close()

	uploadMgr := upload.NewManager(fileStore, cfg.Storage.PublicBaseURL, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background cleanup of abandoned uploads
	if interval := time.Duration(cfg.Upload.CleanupIntervalMinutes) * time.Minute; interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					uploadMgr.CleanupStale(time.Duration(cfg.Upload.StaleSessionMinutes) * time.Minute)
				}
			}
		}()
	}

	deps := &api.Dependencies{
		Files:     fileStore,
		Uploads:   uploadMgr,
		Snapshots: snapshots,
		Rules:     rules,
		Log:       log,
		Version:   Version,
	}
	if c := catalog.NewClient(cfg.Catalog, log); c.Configured() {
		deps.Catalog = c
	}
	if x := extraction.NewClient(cfg.Extraction, log); x.Configured() {
		deps.Extractor = x
	}

	e := echo.New()
	e.HideBanner = true
	api.ShowErrorDetails = !strings.HasPrefix(strings.ToLower(cfg.Advanced.LogMode), "prod")
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 1 && origins[0] == "" {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, api.NewHandlers(deps))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           BOM Reconciliation Engine                       ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Log Mode:   %-45s║\n", cfg.Advanced.LogMode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Catalog:   %-46t║\n", deps.Catalog != nil)
	fmt.Printf("║  Extract:   %-46t║\n", deps.Extractor != nil)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
