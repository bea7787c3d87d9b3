// Package bootstrap 按配置组装存储、发布者和服务，供 server 和 scheduler 共用。
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"weddingtimeline/internal/authz"
	"weddingtimeline/internal/config"
	"weddingtimeline/internal/notify"
	"weddingtimeline/internal/repository"
	"weddingtimeline/internal/service/activation"
	"weddingtimeline/internal/service/task"
	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/db"
	"weddingtimeline/pkg/mq"
	"weddingtimeline/pkg/redis"
)

// App 进程内共享的组件。内存模式下 DB、Publisher、Redis 为 nil。
type App struct {
	Config     *config.Config
	Catalog    *timeline.Catalog
	Classifier *timeline.Classifier
	Tasks      *task.Service
	Activator  *activation.Activator

	DB        *pgxpool.Pool
	Publisher *mq.Publisher
	Redis     *goredis.Client
	Memory    *repository.MemoryStore

	logger *zap.Logger
}

type storage interface {
	task.Store
	activation.Store
}

// New 按 cfg.Timeline.Storage 组装组件
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, logger: logger}

	catalog, classifier, err := loadCatalog(cfg.Timeline)
	if err != nil {
		return nil, err
	}
	app.Catalog, app.Classifier = catalog, classifier
	logger.Info("Template catalog loaded",
		zap.Int("templates", catalog.Len()),
		zap.Int("categories", len(classifier.Categories())),
	)

	var (
		store   storage
		clients activation.Clients
		notes   task.MeetingNotes
		pub     notify.Publisher
	)
	switch cfg.Timeline.Storage {
	case config.StorageMemory:
		mem := repository.NewMemoryStore()
		app.Memory = mem
		store, clients, notes = mem, mem, mem
		pub = notify.NewLogPublisher(logger)
		logger.Warn("Using in-memory storage, data is lost on restart")

	default:
		logger.Info("Initializing database connection...")
		pool, err := db.NewConnection(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		app.DB = pool

		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to init publisher: %w", err)
		}
		app.Publisher = publisher
		pub = publisher

		store = repository.NewPostgresStore(pool, logger)
		clients = repository.NewClientRepository(pool, logger)
		notes = repository.NewMeetingNoteRepository(pool)

		if cfg.Redis.Addr != "" {
			rdb := redis.NewRedisClient(cfg.Redis)
			if err := redis.Ping(ctx, rdb); err != nil {
				logger.Warn("Redis unavailable, activation uses process-local locks only", zap.Error(err))
				_ = rdb.Close()
			} else {
				app.Redis = rdb
			}
		}
	}

	events := notify.NewEventPublisher(pub, logger)
	breakerCfg := notify.DefaultBreakerConfig()
	if cfg.Notify.FailureThreshold > 0 {
		breakerCfg = notify.BreakerConfig{
			FailureThreshold:    cfg.Notify.FailureThreshold,
			SuccessThreshold:    cfg.Notify.SuccessThreshold,
			Timeout:             cfg.Notify.OpenTimeout,
			HalfOpenMaxRequests: cfg.Notify.HalfOpenMaxRequests,
		}
	}
	breaker := notify.NewCircuitBreaker(breakerCfg)

	app.Tasks = task.NewService(task.Deps{
		Store:        store,
		Catalog:      catalog,
		Classifier:   classifier,
		Authorizer:   authz.NewRBAC(),
		MeetingNotes: notes,
		Celebrations: events,
	}, logger)

	app.Activator = activation.NewActivator(activation.Deps{
		Catalog:  catalog,
		Store:    store,
		Creator:  app.Tasks,
		Notifier: notify.NewDispatcher(pub, breaker, logger),
		Events:   events,
		Locker:   activation.NewClientLocker(app.Redis, cfg.Timeline.LockTTL, logger),
		Clients:  clients,
	}, cfg.Timeline.LookaheadMonths, logger)

	return app, nil
}

// loadCatalog 配置了路径时从文件读取，否则使用内置数据
func loadCatalog(cfg config.TimelineConfig) (*timeline.Catalog, *timeline.Classifier, error) {
	catalog, err := timeline.DefaultCatalog()
	if cfg.CatalogPath != "" {
		data, rerr := os.ReadFile(cfg.CatalogPath)
		if rerr != nil {
			return nil, nil, fmt.Errorf("failed to read catalog: %w", rerr)
		}
		catalog, err = timeline.ParseCatalog(data, timeline.DefaultSections)
	}
	if err != nil {
		return nil, nil, err
	}

	classifier, err := timeline.DefaultClassifier()
	if cfg.CategoriesPath != "" {
		data, rerr := os.ReadFile(cfg.CategoriesPath)
		if rerr != nil {
			return nil, nil, fmt.Errorf("failed to read categories: %w", rerr)
		}
		classifier, err = timeline.ParseClassifier(data)
	}
	if err != nil {
		return nil, nil, err
	}
	return catalog, classifier, nil
}

// Close 释放外部连接
func (a *App) Close() {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
