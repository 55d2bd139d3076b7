package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apihttp "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/eventlog"
	eventkafka "dispatch/internal/adapters/out/kafka"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redisgeo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/metrics"
	"dispatch/internal/pkg/clock"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type CompositionRoot struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	engine  *commands.AssignmentEngine
	reader  ports.AssignmentReader
	closers []func() error
}

// NewCompositionRoot connects the configured backends and builds the engine.
// On error every connection opened so far is closed.
func NewCompositionRoot(ctx context.Context, config Config, logger *slog.Logger) (_ *CompositionRoot, err error) {
	c := &CompositionRoot{
		config:  config,
		logger:  logger,
		metrics: metrics.New(true),
	}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	uowFactory, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	geo, err := c.openGeoIndex(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := c.openPublisher()
	if err != nil {
		return nil, err
	}

	c.engine, err = commands.NewAssignmentEngine(
		uowFactory,
		geo,
		publisher,
		clock.NewSystem(),
		config.Policy(),
		commands.WithLogger(logger),
		commands.WithMetrics(c.metrics),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) openStore(ctx context.Context) (commands.UoWFactory, error) {
	if c.config.Store == BackendMemory {
		c.logger.Warn("using in-memory assignment store; state is lost on restart")
		store := memory.NewStore()
		factory := memory.NewUnitOfWorkFactory(store)
		c.reader = memory.NewAssignmentReader(store)
		return FuncUoWFactory(func() commands.UoW {
			return factory.Create()
		}), nil
	}

	db, err := gorm.Open(postgresdriver.Open(c.config.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, sqlDB.Close)

	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	factory := postgres.NewGormUnitOfWorkFactory(db)
	c.reader = postgres.NewAssignmentReader(db)
	return FuncUoWFactory(func() commands.UoW {
		return factory.Create()
	}), nil
}

func (c *CompositionRoot) openGeoIndex(ctx context.Context) (ports.GeoIndex, error) {
	if c.config.Geo == BackendMemory {
		c.logger.Warn("using in-memory geo index; no partner positions are fed into it")
		return memory.NewGeoIndex(memory.DefaultCellDegrees), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.config.RedisAddr,
		Password: c.config.RedisPassword,
		DB:       c.config.RedisDB,
	})
	c.closers = append(c.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return redisgeo.NewGeoIndex(client, c.config.RedisKeyPrefix,
		redisgeo.WithLogger(c.logger.With("component", "redis-geo"))), nil
}

func (c *CompositionRoot) openPublisher() (ports.EventPublisher, error) {
	brokers := c.config.KafkaBrokers()
	if len(brokers) == 0 {
		return eventlog.NewEventPublisher(c.logger), nil
	}

	publisher, err := eventkafka.NewEventPublisher(eventkafka.NewWriter(brokers, c.config.KafkaOrderStatusTopic))
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, publisher.Close)
	return publisher, nil
}

// Close releases every connection in reverse order of opening.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) CreateCreateAssignmentCommandHandler() commands.CreateAssignmentCommandHandler {
	return commands.NewCreateAssignmentCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateAcceptAssignmentCommandHandler() commands.AcceptAssignmentCommandHandler {
	return commands.NewAcceptAssignmentCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateRejectAssignmentCommandHandler() commands.RejectAssignmentCommandHandler {
	return commands.NewRejectAssignmentCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateCancelAssignmentCommandHandler() commands.CancelAssignmentCommandHandler {
	return commands.NewCancelAssignmentCommandHandler(c.engine)
}

func (c *CompositionRoot) CreatePickUpOrderCommandHandler() commands.PickUpOrderCommandHandler {
	return commands.NewPickUpOrderCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateDeliverOrderCommandHandler() commands.DeliverOrderCommandHandler {
	return commands.NewDeliverOrderCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateSweepExpiredLeasesCommandHandler() commands.SweepExpiredLeasesCommandHandler {
	return commands.NewSweepExpiredLeasesCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateRetryPendingAssignmentsCommandHandler() commands.RetryPendingAssignmentsCommandHandler {
	return commands.NewRetryPendingAssignmentsCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateReconcileCapacityCommandHandler() commands.ReconcileCapacityCommandHandler {
	return commands.NewReconcileCapacityCommandHandler(c.engine)
}

func (c *CompositionRoot) CreateGetAssignmentQueryHandler() queries.GetAssignmentQueryHandler {
	return queries.NewGetAssignmentQueryHandler(c.reader)
}

func (c *CompositionRoot) CreateGetPartnerAssignmentsQueryHandler() queries.GetPartnerAssignmentsQueryHandler {
	return queries.NewGetPartnerAssignmentsQueryHandler(c.reader)
}

// CreateHTTPRouter wires the API server, health, metrics and docs routes.
func (c *CompositionRoot) CreateHTTPRouter() (*echo.Echo, error) {
	server := apihttp.NewServer(
		c.CreateCreateAssignmentCommandHandler(),
		c.CreateAcceptAssignmentCommandHandler(),
		c.CreateRejectAssignmentCommandHandler(),
		c.CreateCancelAssignmentCommandHandler(),
		c.CreatePickUpOrderCommandHandler(),
		c.CreateDeliverOrderCommandHandler(),
		c.CreateGetAssignmentQueryHandler(),
		c.CreateGetPartnerAssignmentsQueryHandler(),
		c.logger.With("component", "http"),
	)
	return apihttp.NewRouter(server, c.metrics.Handler(), c.logger)
}

// CreateJobManager wires the sweeper, retry and reconciliation jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateSweepExpiredLeasesCommandHandler(),
		c.CreateRetryPendingAssignmentsCommandHandler(),
		c.CreateReconcileCapacityCommandHandler(),
		c.config.Schedules(),
		c.logger,
	)
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
