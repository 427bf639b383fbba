package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/refresh"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/resolution"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/database/postgres"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/database/postgres/repositories"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/database/redis"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/messaging/kafka"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/metrics"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/search/opensearch"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/storage/minio"
)

// App aggregates the wired components shared by the serve, worker and
// refresh commands.  Postgres is mandatory; kafka, opensearch, minio and
// redis degrade to nil so a partial stack still starts in development.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Metrics

	DB       *postgres.Connection
	Redis    *redis.Client
	Cache    *redis.Cache
	Producer *kafka.Producer
	Search   *opensearch.Client
	Storage  *minio.Client

	Profiles *repositories.ProfileRepository
	Links    *repositories.LinkRepository
	Sources  *repositories.SourceRepository

	Resolver  *resolution.Service
	Refresher *refresh.Orchestrator
}

// buildApp constructs the full dependency graph from config.
func buildApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(prometheus.NewRegistry()),
	}

	// Postgres is the source of truth; without it nothing works.
	if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
		return nil, err
	}
	db, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.DB = db
	app.Profiles = repositories.NewProfileRepository(db.Pool(), logger)
	app.Links = repositories.NewLinkRepository(db.Pool(), logger)
	app.Sources = repositories.NewSourceRepository(db.Pool(), logger)

	// Optional infrastructure.  Each failure is logged and the component
	// left nil; the resolution service skips nil collaborators.
	var locker resolution.Locker
	if rc, err := redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, id allocation lock and cache disabled", logging.Err(err))
	} else {
		app.Redis = rc
		app.Cache = redis.NewCache(rc, cfg.Redis.DefaultTTL, logger)
		locker = redis.NewLocker(rc, cfg.Redis.LockTTL, logger)
	}

	var events resolution.EventPublisher
	if producer, err := kafka.NewProducer(cfg.Kafka, logger); err != nil {
		logger.Warn("kafka unavailable, event publishing disabled", logging.Err(err))
	} else {
		app.Producer = producer
		events = producer
	}

	var indexer resolution.ProfileIndexer
	if sc, err := opensearch.NewClient(cfg.OpenSearch, logger); err != nil {
		logger.Warn("opensearch unavailable, profile mirror disabled", logging.Err(err))
	} else {
		app.Search = sc
		pi := opensearch.NewProfileIndexer(sc, cfg.OpenSearch.IndexPrefix, logger)
		if err := pi.EnsureIndex(ctx); err != nil {
			logger.Warn("failed to prepare profile index", logging.Err(err))
		}
		indexer = pi
	}

	var archiver refresh.ReportArchiver
	if cfg.Refresh.ArchiveReport {
		if mc, err := minio.NewClient(cfg.MinIO, logger); err != nil {
			logger.Warn("object storage unavailable, report archiving disabled", logging.Err(err))
		} else {
			app.Storage = mc
			archiver = minio.NewReportArchiver(mc, logger)
		}
	}

	// Domain engine.
	matchCfg := cfg.Matching.ToMatchConfig()
	matcher := poi.NewMatcher(app.Profiles, matchCfg, poi.NewScorer(matchCfg), logger)
	alloc := poi.NewIDAllocator(app.Profiles, logger)
	writer := poi.NewWriter(app.Profiles, alloc, poi.NewNormalizer(matchCfg), logger)
	registrar := intel.NewRegistrar(app.Links, repositories.NewLegacyLinkWriter(db.Pool()), app.Profiles, logger)

	app.Resolver = resolution.NewService(matcher, writer, registrar, locker, events, indexer, app.Metrics, logger)
	app.Refresher = refresh.NewOrchestrator(app.Sources, app.Resolver, archiver, app.Metrics, logger)

	return app, nil
}

// Close releases held connections in reverse dependency order.
func (a *App) Close() {
	if a.Producer != nil {
		_ = a.Producer.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
