// Package app wires the application container: configuration, persistence,
// the remote booking service, live channels, and all command/query handlers.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	bookingCommands "github.com/felixgeelhaar/servana/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/servana/internal/booking/application/queries"
	"github.com/felixgeelhaar/servana/internal/booking/application/subscribers"
	"github.com/felixgeelhaar/servana/internal/booking/application/viewmodel"
	bookingDomain "github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/live"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/persistence"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/remote"
	"github.com/felixgeelhaar/servana/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/servana/pkg/config"
	"github.com/felixgeelhaar/servana/pkg/observability"

	_ "modernc.org/sqlite" // SQLite driver for the local cache
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Database
	DB       *pgxpool.Pool
	SQLiteDB *sql.DB

	// Redis
	RedisClient *redis.Client

	// Booking infrastructure
	BookingRepo   bookingDomain.Repository
	RemoteService remote.Service
	LiveAdapter   live.ChannelAdapter

	// LocalBus carries events in-process when no broker is configured.
	LocalBus *eventbus.InProcessEventBus

	// LocalLiveAdapter is set in local mode so callers can feed simulated
	// status changes into the live channel.
	LocalLiveAdapter *live.InProcessChannelAdapter

	// Publishers
	EventPublisher eventbus.Publisher

	// View models
	Registry *viewmodel.Registry

	// Booking command handlers
	CancelBookingHandler     *bookingCommands.CancelBookingHandler
	RescheduleBookingHandler *bookingCommands.RescheduleBookingHandler
	SubmitReviewHandler      *bookingCommands.SubmitReviewHandler

	// Booking query handlers
	GetBookingHandler   *bookingQueries.GetBookingHandler
	GetTimelineHandler  *bookingQueries.GetTimelineHandler
	ListBookingsHandler *bookingQueries.ListBookingsHandler

	// Subscribers
	StatusSubscriber *subscribers.StatusSubscriber
}

// NewContainer creates the full container. In local mode everything runs
// against SQLite and the in-process bus; otherwise PostgreSQL, Redis and
// RabbitMQ are connected.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg.LocalMode {
		return NewLocalContainer(ctx, cfg, logger)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	// Connect to PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	c.BookingRepo = persistence.NewPostgresBookingRepository(pool)
	logger.Info("connected to database")

	// Connect to Redis for the live channel
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, live updates will use the websocket gateway", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, live updates will use the websocket gateway", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Live channel: Redis Pub/Sub when available, websocket gateway otherwise.
	if c.RedisClient != nil {
		c.LiveAdapter = live.NewRedisChannelAdapter(live.RedisChannelAdapterConfig{
			Client:     c.RedisClient,
			MinBackoff: cfg.LiveReconnectMin,
			MaxBackoff: cfg.LiveReconnectMax,
			Logger:     logger,
			Metrics:    c.Metrics,
		})
	} else {
		c.LiveAdapter = live.NewWebsocketChannelAdapter(live.WebsocketChannelAdapterConfig{
			BaseURL:    cfg.RealtimeWSURL,
			MinBackoff: cfg.LiveReconnectMin,
			MaxBackoff: cfg.LiveReconnectMax,
			Logger:     logger,
			Metrics:    c.Metrics,
		})
	}

	// Remote booking service
	c.RemoteService = remote.NewHTTPService(
		cfg.APIBaseURL,
		&http.Client{Timeout: cfg.APITimeout},
		remote.BreakerConfig{
			MaxRequests:      cfg.BreakerMaxRequests,
			Interval:         cfg.BreakerInterval,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerFailureThreshold,
		},
		logger,
		c.Metrics,
	)

	// Event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	c.wireBooking()
	return c, nil
}

// NewLocalContainer creates a container backed by SQLite, the in-process
// event bus, and the in-process live channel. No network dependencies.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	sqliteDB, err := openSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	c.SQLiteDB = sqliteDB
	c.BookingRepo = persistence.NewSQLiteBookingRepository(sqliteDB)
	logger.Info("local mode: using SQLite cache", "path", cfg.SQLitePath)

	c.LocalBus = eventbus.NewInProcessEventBus(logger)
	c.EventPublisher = c.LocalBus

	localAdapter := live.NewInProcessChannelAdapter(logger)
	c.LocalLiveAdapter = localAdapter
	c.LiveAdapter = localAdapter

	c.RemoteService = NewLocalBookingService(c.BookingRepo, logger)

	c.wireBooking()
	c.LocalBus.RegisterConsumer(c.StatusSubscriber)
	return c, nil
}

// wireBooking builds the handlers and view model registry on top of the
// already-connected infrastructure.
func (c *Container) wireBooking() {
	c.Registry = viewmodel.NewRegistry(c.RemoteService, c.LiveAdapter, c.Logger, c.Metrics)

	c.CancelBookingHandler = bookingCommands.NewCancelBookingHandler(
		c.RemoteService, c.BookingRepo, c.EventPublisher, c.Logger, c.Metrics)
	c.RescheduleBookingHandler = bookingCommands.NewRescheduleBookingHandler(
		c.RemoteService, c.BookingRepo, c.EventPublisher, c.Logger, c.Metrics)
	c.SubmitReviewHandler = bookingCommands.NewSubmitReviewHandler(
		c.RemoteService, c.BookingRepo, c.EventPublisher, c.Logger)

	c.GetBookingHandler = bookingQueries.NewGetBookingHandler(c.RemoteService, c.BookingRepo, c.Logger)
	c.GetTimelineHandler = bookingQueries.NewGetTimelineHandler(c.GetBookingHandler)
	c.ListBookingsHandler = bookingQueries.NewListBookingsHandler(c.RemoteService, c.BookingRepo, c.Logger)

	c.StatusSubscriber = subscribers.NewStatusSubscriber(c.Registry, c.Logger, c.Metrics)
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Error("failed to close event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error("failed to close Redis client", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Error("failed to close SQLite cache", "error", err)
		}
	}
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	// DSN pragmas apply to every pooled connection, not just the first.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqliteDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite cache: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)

	if err := sqliteDB.PingContext(ctx); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("configuring SQLite cache: %w", err)
	}
	if err := persistence.InitSQLiteSchema(ctx, sqliteDB); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("initializing SQLite schema: %w", err)
	}
	return sqliteDB, nil
}
