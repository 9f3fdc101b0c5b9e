// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/allisson/enrollments/internal/cache"
	"github.com/allisson/enrollments/internal/config"
	"github.com/allisson/enrollments/internal/database"
	enrollmentHTTP "github.com/allisson/enrollments/internal/enrollment/http"
	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
	"github.com/allisson/enrollments/internal/http"
	"github.com/allisson/enrollments/internal/metrics"
	notificationService "github.com/allisson/enrollments/internal/notification/service"
	notificationUseCase "github.com/allisson/enrollments/internal/notification/usecase"
	paymentHTTP "github.com/allisson/enrollments/internal/payment/http"
	paymentService "github.com/allisson/enrollments/internal/payment/service"
	paymentUseCase "github.com/allisson/enrollments/internal/payment/usecase"
	"github.com/allisson/enrollments/internal/scheduler"
)

const connectTimeout = 10 * time.Second

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Lifetime of background helpers owned by the container (rate limiter cleanup).
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	mongoClient *mongo.Client
	redisClient *redis.Client
	bus         *notificationService.AMQPBus

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Enrollment
	courseRepository       enrollmentUseCase.CourseRepository
	userRepository         enrollmentUseCase.UserRepository
	courseCache            enrollmentUseCase.CourseCache
	enrollmentUseCase      enrollmentUseCase.EnrollmentUseCase
	accountDeletionUseCase enrollmentUseCase.AccountDeletionUseCase
	courseHandler          *enrollmentHTTP.CourseHandler
	accountHandler         *enrollmentHTTP.AccountHandler

	// Payment
	kmsService              paymentService.KMSService
	signatureVerifier       paymentService.SignatureVerifier
	ledgerRepository        paymentUseCase.LedgerRepository
	failedPaymentRepository paymentUseCase.FailedPaymentRepository
	webhookUseCase          paymentUseCase.WebhookUseCase
	webhookHandler          *paymentHTTP.WebhookHandler

	// Notification
	overflowRepository notificationUseCase.OverflowRepository
	notifier           notificationService.Notifier
	dispatcher         notificationUseCase.Dispatcher
	sweeper            notificationUseCase.Sweeper
	consumer           *notificationUseCase.Consumer

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	scheduler     *scheduler.Scheduler

	// Initialization flags and mutex for thread-safety
	mu                          sync.Mutex
	loggerInit                  sync.Once
	dbInit                      sync.Once
	mongoClientInit             sync.Once
	redisClientInit             sync.Once
	busInit                     sync.Once
	txManagerInit               sync.Once
	metricsProviderInit         sync.Once
	businessMetricsInit         sync.Once
	courseRepositoryInit        sync.Once
	userRepositoryInit          sync.Once
	courseCacheInit             sync.Once
	enrollmentUseCaseInit       sync.Once
	accountDeletionUseCaseInit  sync.Once
	courseHandlerInit           sync.Once
	accountHandlerInit          sync.Once
	kmsServiceInit              sync.Once
	signatureVerifierInit       sync.Once
	ledgerRepositoryInit        sync.Once
	failedPaymentRepositoryInit sync.Once
	webhookUseCaseInit          sync.Once
	webhookHandlerInit          sync.Once
	overflowRepositoryInit      sync.Once
	notifierInit                sync.Once
	dispatcherInit              sync.Once
	sweeperInit                 sync.Once
	consumerInit                sync.Once
	httpServerInit              sync.Once
	metricsServerInit           sync.Once
	schedulerInit               sync.Once
	initErrors                  map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// storedError returns the error recorded by a failed initialization of key.
func (c *Container) storedError(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[key]
}

// recordError stores the initialization error of key.
func (c *Container) recordError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[key] = err
}

// DB returns the SQL database connection.
// It creates and configures the connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.recordError("db", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("db"); storedErr != nil {
		return nil, storedErr
	}
	return c.db, nil
}

// MongoClient returns the MongoDB client used when DB_DRIVER is "mongodb".
func (c *Container) MongoClient() (*mongo.Client, error) {
	var err error
	c.mongoClientInit.Do(func() {
		c.mongoClient, err = c.initMongoClient()
		if err != nil {
			c.recordError("mongoClient", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("mongoClient"); storedErr != nil {
		return nil, storedErr
	}
	return c.mongoClient, nil
}

// MongoDatabase returns the configured MongoDB database handle.
func (c *Container) MongoDatabase() (*mongo.Database, error) {
	client, err := c.MongoClient()
	if err != nil {
		return nil, err
	}
	return client.Database(c.config.DBName), nil
}

// RedisClient returns the Redis client backing the ledger, the cache and the overflow queues.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.recordError("redisClient", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("redisClient"); storedErr != nil {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// Bus returns the RabbitMQ notification bus with its topology declared.
func (c *Container) Bus() (*notificationService.AMQPBus, error) {
	var err error
	c.busInit.Do(func() {
		c.bus, err = c.initBus()
		if err != nil {
			c.recordError("bus", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("bus"); storedErr != nil {
		return nil, storedErr
	}
	return c.bus, nil
}

// TxManager returns the transaction manager of the configured store.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.recordError("txManager", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("txManager"); storedErr != nil {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry meter provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.recordError("metricsProvider", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("metricsProvider"); storedErr != nil {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.recordError("businessMetrics", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("businessMetrics"); storedErr != nil {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.recordError("httpServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("httpServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.recordError("metricsServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("metricsServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Scheduler returns the worker scheduler with the email retry and account deletion jobs.
func (c *Container) Scheduler() (*scheduler.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		c.scheduler, err = c.initScheduler()
		if err != nil {
			c.recordError("scheduler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("scheduler"); storedErr != nil {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// HealthChecks returns the readiness checks of the initialized backends.
func (c *Container) HealthChecks() []http.HealthCheck {
	var checks []http.HealthCheck

	if c.db != nil {
		db := c.db
		checks = append(checks, http.HealthCheck{Name: "database", Ping: db.PingContext})
	}
	if c.mongoClient != nil {
		client := c.mongoClient
		checks = append(checks, http.HealthCheck{Name: "database", Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
	}
	if c.redisClient != nil {
		client := c.redisClient
		checks = append(checks, http.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	if c.bus != nil {
		checks = append(checks, http.HealthCheck{Name: "bus", Ping: c.bus.Ping})
	}

	return checks
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("bus close: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.mongoClient != nil {
		if err := c.mongoClient.Disconnect(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("mongodb disconnect: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) databaseConfig() database.Config {
	return database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	}
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	if !c.config.IsSQL() {
		return nil, fmt.Errorf("unsupported sql driver: %s", c.config.DBDriver)
	}
	db, err := database.Connect(c.databaseConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initMongoClient connects to MongoDB.
func (c *Container) initMongoClient() (*mongo.Client, error) {
	if c.config.DBDriver != config.DriverMongoDB {
		return nil, fmt.Errorf("unsupported document driver: %s", c.config.DBDriver)
	}
	ctx, cancel := context.WithTimeout(c.ctx, connectTimeout)
	defer cancel()

	client, err := database.ConnectMongo(ctx, c.databaseConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return client, nil
}

// initRedisClient connects to Redis.
func (c *Container) initRedisClient() (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(c.ctx, connectTimeout)
	defer cancel()

	client, err := cache.Connect(ctx, c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// initBus dials RabbitMQ and declares the notification topology.
func (c *Container) initBus() (*notificationService.AMQPBus, error) {
	bus, err := notificationService.NewAMQPBus(notificationService.BusConfig{
		URL:        c.config.RabbitMQURL,
		Exchange:   c.config.NotificationExchange,
		RoutingKey: c.config.NotificationRoutingKey,
		Queue:      c.config.NotificationQueue,
		Prefetch:   c.config.NotificationPrefetch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to notification bus: %w", err)
	}
	return bus, nil
}

// initTxManager creates the transaction manager matching the configured driver.
func (c *Container) initTxManager() (database.TxManager, error) {
	switch c.config.DBDriver {
	case config.DriverPostgres, config.DriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	case config.DriverMongoDB:
		client, err := c.MongoClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get mongodb client for tx manager: %w", err)
		}
		return database.NewMongoTxManager(client), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initMetricsProvider creates the meter provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the API server and its router.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	webhookHandler, err := c.WebhookHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook handler for http server: %w", err)
	}

	courseHandler, err := c.CourseHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get course handler for http server: %w", err)
	}

	accountHandler, err := c.AccountHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get account handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(c.HealthChecks(), c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(c.ctx, c.config, webhookHandler, courseHandler, accountHandler, metricsProvider)

	return server, nil
}

// initMetricsServer creates the metrics server and registers the overflow queue gauge.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	overflowRepository, err := c.OverflowRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get overflow repository for metrics server: %w", err)
	}

	if err := metrics.RegisterQueueDepthGauge(
		provider.MeterProvider(),
		c.config.MetricsNamespace,
		overflowQueues,
		overflowRepository.Len,
	); err != nil {
		return nil, err
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// initScheduler creates the scheduler of the worker.
func (c *Container) initScheduler() (*scheduler.Scheduler, error) {
	sweeper, err := c.Sweeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get sweeper for scheduler: %w", err)
	}

	accountDeletionUseCase, err := c.AccountDeletionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account deletion use case for scheduler: %w", err)
	}

	return scheduler.New(c.Logger(),
		scheduler.Job{
			Name:     "email-retry",
			Schedule: c.config.EmailRetrySchedule,
			Run: func(ctx context.Context) error {
				_, err := sweeper.Sweep(ctx)
				return err
			},
		},
		scheduler.Job{
			Name:     "account-deletion",
			Schedule: c.config.AccountDeletionSchedule,
			Run: func(ctx context.Context) error {
				_, err := accountDeletionUseCase.DeleteScheduled(ctx, false)
				return err
			},
		},
	)
}
