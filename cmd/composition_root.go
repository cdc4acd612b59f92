package cmd

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redislease"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type CompositionRoot struct {
	cfg    Config
	logger *zap.Logger
	clock  ports.Clock

	gormDB      *gorm.DB
	redisClient *redis.Client
	uowFactory  ports.UnitOfWorkFactory
	leases      ports.LeaseManager
	oracle      ports.GeoCostOracle
	fallback    ports.GeoCostOracle
	zones       services.ZoneResolver
}

// NewCompositionRoot opens the storage and lease backends named by cfg. Close
// releases them.
func NewCompositionRoot(cfg Config, log *zap.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:      cfg,
		logger:   log,
		clock:    ports.SystemClock,
		fallback: geo.NewHaversineOracle(cfg.FallbackSpeedKmh),
		zones:    services.NewGridZoneResolver(cfg.ZoneCellDegrees),
	}

	if err := c.openStorage(); err != nil {
		return nil, err
	}
	if err := c.openLeases(); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.OracleAPIKey != "" {
		oracle, err := geo.NewORSMatrixOracle(geo.ORSConfig{
			BaseURL:     cfg.OracleURL,
			APIKey:      cfg.OracleAPIKey,
			Profile:     cfg.OracleProfile,
			HTTPTimeout: cfg.OracleTimeout,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		c.oracle = oracle
	} else {
		log.Warn("ORACLE_API_KEY is not set, route costs use straight-line estimates")
	}

	return c, nil
}

func (c *CompositionRoot) openStorage() error {
	switch c.cfg.StorageBackend {
	case BackendMemory:
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
		c.logger.Info("using in-memory storage")
		return nil
	case BackendPostgres:
		db, err := gorm.Open(postgresdriver.Open(c.cfg.DSN()), &gorm.Config{
			Logger: newGormLogger(c.logger),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		c.gormDB = db
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
		c.logger.Info("connected to postgres", zap.String("host", c.cfg.DBHost), zap.String("db", c.cfg.DBName))
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", c.cfg.StorageBackend)
	}
}

func (c *CompositionRoot) openLeases() error {
	switch c.cfg.LeaseBackend {
	case BackendMemory:
		c.leases = memory.NewLeaseManager()
		return nil
	case BackendPostgres:
		if c.gormDB == nil {
			return errors.New("postgres leases need postgres storage")
		}
		c.leases = postgres.NewGormLeaseManager(c.gormDB)
		return nil
	case BackendRedis:
		c.redisClient = redis.NewClient(&redis.Options{
			Addr: c.cfg.RedisAddr,
			DB:   c.cfg.RedisDB,
		})
		c.leases = redislease.NewLeaseManager(c.redisClient)
		c.logger.Info("using redis leases", zap.String("addr", c.cfg.RedisAddr))
		return nil
	default:
		return fmt.Errorf("unknown lease backend %q", c.cfg.LeaseBackend)
	}
}

// Close releases the database pool and the redis client.
func (c *CompositionRoot) Close() {
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				c.logger.Warn("failed to close database", zap.Error(err))
			}
		}
	}
}

func (c *CompositionRoot) HTTPHandlers() http.Handlers {
	return http.Handlers{
		CreateDelivery:      c.CreateCreateDeliveryCommandHandler(),
		TransitionDelivery:  commands.NewTransitionDeliveryCommandHandler(c.uow(), c.clock),
		CreateDriver:        commands.NewCreateDriverCommandHandler(c.driverUoW(), c.clock),
		UpdateDriver:        commands.NewUpdateDriverCommandHandler(c.driverUoW(), c.clock),
		OptimizeRoutes:      c.CreateOptimizeRoutesCommandHandler(),
		StartRoute:          commands.NewStartRouteCommandHandler(c.uow(), c.clock),
		CompleteStop:        commands.NewCompleteStopCommandHandler(c.uow(), c.clock),
		CancelRoute:         commands.NewCancelRouteCommandHandler(c.uow(), c.clock),
		RecordCollection:    commands.NewRecordCollectionCommandHandler(c.cashUoW(), c.clock),
		CloseReconciliation: commands.NewCloseReconciliationCommandHandler(c.cashUoW(), c.clock, c.cfg.CashToleranceMinor),

		GetDeliveries:       queries.NewGetDeliveriesQueryHandler(c.readers()),
		ListUnassigned:      queries.NewListUnassignedQueryHandler(c.readers(), 0),
		GetDeliveryStats:    queries.NewGetDeliveryStatsQueryHandler(c.readers()),
		GetDrivers:          queries.NewGetDriversQueryHandler(c.readers()),
		ListEligibleDrivers: queries.NewListEligibleDriversQueryHandler(c.readers(), c.cfg.MultiRoutePerDay),
		GetDriverDeliveries: queries.NewGetDriverDeliveriesQueryHandler(c.readers()),
		GetDriverStats:      queries.NewGetDriverStatsQueryHandler(c.readers()),
		GetRoutes:           queries.NewGetRoutesQueryHandler(c.readers()),
		GetDailySummary:     c.CreateGetDailySummaryQueryHandler(),
	}
}

func (c *CompositionRoot) CreateCreateDeliveryCommandHandler() commands.CreateDeliveryCommandHandler {
	var f commands.DeliveryUoWFactory = FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateDeliveryCommandHandler(f, c.zones, c.clock)
}

func (c *CompositionRoot) CreateOptimizeRoutesCommandHandler() commands.OptimizeRoutesCommandHandler {
	return commands.NewOptimizeRoutesCommandHandler(
		c.uow(),
		c.leases,
		c.oracle,
		c.fallback,
		c.clock,
		commands.OptimizeRoutesConfig{
			LeaseTTL:         c.cfg.LeaseTTL,
			LeaseWait:        c.cfg.LeaseWait,
			OracleTimeout:    c.cfg.OracleTimeout,
			Depot:            c.depot(),
			ShiftStart:       c.cfg.ShiftStart,
			ServiceTime:      c.cfg.ServiceTime,
			MaxStopsPerRoute: c.cfg.MaxStopsPerRoute,
			MultiRoutePerDay: c.cfg.MultiRoutePerDay,
			TwoOptEnabled:    c.cfg.TwoOptEnabled,
		},
		c.logger,
	)
}

func (c *CompositionRoot) CreateGetDailySummaryQueryHandler() queries.GetDailySummaryQueryHandler {
	return queries.NewGetDailySummaryQueryHandler(c.readers(), c.cfg.CashToleranceMinor)
}

// JobManager schedules the lease sweep and the nightly discrepancy audit.
func (c *CompositionRoot) JobManager() *jobs.JobManager {
	log := logger.Component(c.logger, "jobs")
	return jobs.NewJobManager(
		log,
		jobs.NewLeaseSweepJob(c.leases, c.clock, c.cfg.LeaseSweepSchedule, log),
		jobs.NewDiscrepancyAuditJob(c.CreateGetDailySummaryQueryHandler(), c.clock, c.cfg.DiscrepancyAuditSchedule, log),
	)
}

func (c *CompositionRoot) depot() kernel.Location {
	loc, err := kernel.NewLocation(c.cfg.DepotLat, c.cfg.DepotLon)
	if err != nil {
		c.logger.Warn("invalid depot coordinates, using 0,0", zap.Error(err))
		return kernel.Location{}
	}
	return loc
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) driverUoW() commands.DriverUoWFactory {
	return FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) cashUoW() commands.CashUoWFactory {
	return FuncCashUoWFactory(func() commands.CashUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) readers() queries.ReaderFactory {
	return FuncReaderFactory(func() queries.Reader {
		return c.uowFactory.Create()
	})
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

type FuncCashUoWFactory func() commands.CashUoW

func (f FuncCashUoWFactory) Create() commands.CashUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncReaderFactory func() queries.Reader

func (f FuncReaderFactory) Create() queries.Reader {
	return f()
}

func newGormLogger(log *zap.Logger) gormlogger.Interface {
	std, err := zap.NewStdLogAt(logger.Component(log, "gorm"), zapcore.WarnLevel)
	if err != nil {
		std = zap.NewStdLog(log)
	}
	return gormlogger.New(std, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
