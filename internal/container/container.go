package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-trip-budget/app/db"
	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/config"
	"github.com/FACorreiaa/go-trip-budget/internal/api/export"
	"github.com/FACorreiaa/go-trip-budget/internal/api/geocoding"
	"github.com/FACorreiaa/go-trip-budget/internal/api/trip"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Metrics          *metrics.AppMetrics
	TripService      *trip.ServiceImpl
	TripHandler      *trip.HandlerImpl
	GeocodingHandler *geocoding.HandlerImpl
	ExportHandler    *export.HandlerImpl
}

// NewContainer connects to the database and wires repositories, services
// and handlers. Instruments come from the global MeterProvider, so tracing
// and metrics must be initialised first.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		pool.Close()
		logger.Error("Failed to create metric instruments", slog.Any("error", err))
		return nil, err
	}

	return newContainer(cfg, pool, pool, m, logger), nil
}

func newContainer(cfg *config.Config, pool *pgxpool.Pool, db trip.DB, m *metrics.AppMetrics, logger *slog.Logger) *Container {
	tripRepo := trip.NewRepository(db, m, logger)
	tripService := trip.NewServiceImpl(tripRepo, cfg.Planner, m, logger)
	tripHandler := trip.NewHandler(tripService, logger)

	geocodingService := geocoding.NewServiceImpl(cfg.Geocoding, m, logger)
	geocodingHandler := geocoding.NewHandler(geocodingService, logger)

	exportService := export.NewServiceImpl(tripService, m, logger)
	exportHandler := export.NewHandler(exportService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		Metrics:          m,
		TripService:      tripService,
		TripHandler:      tripHandler,
		GeocodingHandler: geocodingHandler,
		ExportHandler:    exportHandler,
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
