// API server entry point for geomval.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/motifchem/geomval/internal/application/identity"
	"github.com/motifchem/geomval/internal/application/refinement"
	"github.com/motifchem/geomval/internal/application/validation"
	"github.com/motifchem/geomval/internal/config"
	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/database/postgres"
	"github.com/motifchem/geomval/internal/infrastructure/database/postgres/repositories"
	"github.com/motifchem/geomval/internal/infrastructure/database/redis"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/motifchem/geomval/internal/interfaces/http"
	"github.com/motifchem/geomval/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	if _, statErr := os.Stat(*configPath); statErr == nil {
		config.Watch(*configPath, func(_ *config.Config) {
			log.Info("configuration file reloaded; restart to apply",
				logging.String("path", *configPath))
		})
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

// loadConfig prefers the config file but falls back to environment variables
// when the file is absent, which is the normal container deployment.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	fmt.Fprintf(os.Stderr, "config file %s not found, using environment\n", path)
	return config.LoadFromEnv()
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx := context.Background()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "geomval",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return fmt.Errorf("metrics collector: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	// PostgreSQL is required: validation reports and refinement records
	// live there.
	conn, err := postgres.Connect(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	reportRepo := repositories.NewReportRepository(conn.Pool(), log)
	recordRepo := repositories.NewRefinementRepository(conn.Pool(), log)

	// Redis is optional: without it the canonicalization cache is skipped.
	var cache redis.Cache
	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, canonicalization cache disabled", logging.Err(err))
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, log)
	}

	identityOpts := []identity.Option{identity.WithMetrics(metrics)}
	if cache != nil {
		identityOpts = append(identityOpts, identity.WithCache(cache))
	}
	identitySvc := identity.NewService(log, identityOpts...)

	geomCfg := geometryConfig(cfg.Geometry)
	validationSvc := validation.NewService(geomCfg, log,
		validation.WithIdentity(identitySvc),
		validation.WithStore(reportRepo),
		validation.WithMetrics(metrics))

	refiner, err := refinement.NewRefiner(refinement.Params{
		MaxIterations:   cfg.Refinement.MaxIterations,
		StepSize:        cfg.Refinement.StepSize,
		Tolerance:       cfg.Refinement.Tolerance,
		DivergenceLimit: cfg.Refinement.DivergenceLimit,
	}, geomCfg, log)
	if err != nil {
		return fmt.Errorf("refiner: %w", err)
	}

	manager := refinement.NewManager(refiner, cfg.Worker, log,
		refinement.WithRecordStore(recordRepo),
		refinement.WithMetrics(metrics))
	manager.Start()
	defer manager.Stop()

	checks := map[string]handlers.HealthCheck{
		"postgres": conn.HealthCheck,
	}
	if cache != nil {
		checks["redis"] = cache.Ping
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ValidationHandler: handlers.NewValidationHandler(validationSvc),
		RefinementHandler: handlers.NewRefinementHandler(manager),
		MoleculeHandler:   handlers.NewMoleculeHandler(identitySvc),
		ReportHandler:     handlers.NewReportHandler(reportRepo),
		HealthHandler:     handlers.NewHealthHandler(log, checks),
		Logger:            log,
		Metrics:           metrics,
		Collector:         collector,
		Mode:              cfg.Server.Mode,
	})

	srv := httpserver.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	if err := srv.Stop(ctx); err != nil {
		return err
	}
	return <-errCh
}

// geometryConfig maps the file/env geometry section onto the domain config.
func geometryConfig(gc config.GeometryConfig) geometry.Config {
	return geometry.Config{
		Weights: geometry.Weights{
			BondLength:    gc.BondLengthWeight,
			BondAngle:     gc.BondAngleWeight,
			RingPlanarity: gc.RingPlanarityWeight,
			StericClash:   gc.StericClashWeight,
			Chirality:     gc.ChiralityWeight,
		},
		ClashThreshold: gc.ClashThreshold,
	}
}
