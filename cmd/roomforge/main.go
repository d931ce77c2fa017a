package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/roomforge/internal/catalog"
	"github.com/lawnchairsociety/roomforge/internal/config"
	"github.com/lawnchairsociety/roomforge/internal/database"
	"github.com/lawnchairsociety/roomforge/internal/dungeon"
	"github.com/lawnchairsociety/roomforge/internal/logger"
	"github.com/lawnchairsociety/roomforge/internal/render"
	"github.com/lawnchairsociety/roomforge/internal/server"
	"golang.org/x/term"
)

func main() {
	configFile := flag.String("config", "data/roomforge.yaml", "Path to generator config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	seed := flag.Int64("seed", 0, "Generation seed (default: random based on current time)")
	catalogFile := flag.String("catalog", "", "Path to room catalog YAML file (overrides the config)")
	colorMode := flag.String("color", "auto", "Colored output: auto, always or never")
	showRooms := flag.Bool("rooms", true, "Show the room graph and room details")
	showLayout := flag.Bool("layout", true, "Show the grid layout")
	showLegend := flag.Bool("legend", true, "Show legend")
	serve := flag.Bool("serve", false, "Serve the WebSocket preview feed instead of printing one dungeon")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load generator config, using defaults", "path", *configFile, "error", err)
	}
	if *catalogFile != "" {
		cfg.Catalog = config.CatalogConfig{Source: config.SourceYAML, Path: *catalogFile}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid generator config: %v", err)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to load room catalog: %v", err)
	}
	logger.Info("Room catalog loaded", "source", cfg.Catalog.Source, "templates", cat.Len())

	if *serve {
		runPreview(*cfg, cat)
		return
	}

	genSeed := *seed
	if genSeed == 0 {
		genSeed = time.Now().UnixNano()
	}
	logger.Always("Generating dungeon", "seed", genSeed)

	d, err := dungeon.Build(*cfg, cat, genSeed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	style := render.Plain()
	switch *colorMode {
	case "always":
		style = render.DefaultStyle()
	case "auto":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			style = render.DefaultStyle()
		}
	}

	out := os.Stdout
	fmt.Fprintf(out, "Seed %d (attempt %d, seed %d)\n\n", d.Seed, d.Attempt, d.AttemptSeed())
	if *showRooms {
		if err := render.Rooms(out, d.Rooms, cfg.Rooms.Width, cfg.Rooms.Height, style); err != nil {
			log.Fatalf("Failed to render rooms: %v", err)
		}
		fmt.Fprintln(out)
	}
	if *showLayout {
		if err := render.Layout(out, d.Layout, style); err != nil {
			log.Fatalf("Failed to render layout: %v", err)
		}
	}
	if *showLegend {
		fmt.Fprintln(out)
		render.Legend(out, style)
	}
}

// loadCatalog reads the templates from the configured source. A YAML
// catalog that does not exist falls back to the built-in templates.
func loadCatalog(cfg *config.GeneratorConfig) (*catalog.Catalog, error) {
	if cfg.Catalog.Source == config.SourceDatabase {
		db, err := database.OpenWithConfig(database.ConfigFrom(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		return db.LoadCatalog()
	}

	if _, err := os.Stat(cfg.Catalog.Path); os.IsNotExist(err) {
		logger.Warning("Room catalog not found, using built-in templates", "path", cfg.Catalog.Path)
		return catalog.Default(), nil
	}
	return catalog.LoadFromYAML(cfg.Catalog.Path)
}

func runPreview(cfg config.GeneratorConfig, cat *catalog.Catalog) {
	if len(cfg.Preview.AllowedOrigins) == 0 {
		logger.Info("Preview CORS policy", "mode", "same-origin")
	} else if len(cfg.Preview.AllowedOrigins) == 1 && cfg.Preview.AllowedOrigins[0] == "*" {
		logger.Warning("Preview CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("Preview CORS policy", "allowed_origins", cfg.Preview.AllowedOrigins)
	}

	srv := server.NewPreviewServer(cfg.Preview, func(seed int64) (*dungeon.Dungeon, error) {
		logger.Always("Generating dungeon", "seed", seed)
		return dungeon.Build(cfg, cat, seed)
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatalf("Preview server error: %v", err)
		}
	}()
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down preview server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warning("Preview shutdown incomplete", "error", err)
	}
}
