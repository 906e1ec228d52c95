package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/handler/http"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/logger"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/memory"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/postgres"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/prometheus"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/redis"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/storage"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/config"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/services"

	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose"
	redisClient "github.com/redis/go-redis/v9"
)

type App struct {
	Config       *config.Container
	Logger       ports.LoggerPort
	DB           *sql.DB
	RedisClient  *redisClient.Client
	RedisAdapter ports.CachePort
	HTTPRouter   *http.Router
}

type repositories struct {
	bikes       ports.BikeRepository
	loaners     ports.LoanerRepository
	settlements ports.SettlementRepository
	tx          ports.Transactor
}

func New(ctx context.Context, cfg *config.Container) (*App, error) {
	// Set logger
	loggerAdapter := logger.NewLoggerAdapter(cfg.App.Env)
	loggerAdapter.Info("Starting the application", map[string]interface{}{
		"app":       cfg.App.Name,
		"env":       cfg.App.Env,
		"db_driver": cfg.DB.Driver,
	})

	// Set redis
	var redisConn *redisClient.Client
	var cacheAdapter ports.CachePort = redis.NewNopCache()
	if cfg.Redis.Address != "" {
		redisConn = redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := redisConn.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cacheAdapter = redis.NewRedisAdapter(redisConn)
	} else {
		loggerAdapter.Warn("REDIS_ADDRESS is empty, caching disabled", nil)
	}

	// Record store
	var db *sql.DB
	repos := repositories{}
	if cfg.DB.Driver == config.DriverMemory {
		store := memory.NewStore()
		repos = repositories{bikes: store, loaners: store, settlements: store}
	} else {
		var err error
		db, err = openPostgres(cfg.DB)
		if err != nil {
			closeRedis(redisConn)
			return nil, err
		}
		repos = repositories{
			bikes:       postgres.NewBikeRepository(db),
			loaners:     postgres.NewLoanerRepository(db),
			settlements: postgres.NewSettlementRepository(db),
			tx:          postgres.NewTransactor(db),
		}
	}

	// Image store
	var images ports.ImageStore = storage.NewNopImageStore()
	if cfg.Images.Bucket != "" {
		s3Store, err := storage.NewS3ImageStore(ctx, storage.Options{
			Endpoint:  cfg.Images.Endpoint,
			Region:    cfg.Images.Region,
			Bucket:    cfg.Images.Bucket,
			AccessKey: cfg.Images.AccessKey,
			SecretKey: cfg.Images.SecretKey,
			PublicURL: cfg.Images.PublicURL,
		})
		if err != nil {
			closeDB(db)
			closeRedis(redisConn)
			return nil, err
		}
		images = s3Store
	} else {
		loggerAdapter.Warn("IMAGES_BUCKET is empty, image upload disabled", nil)
	}

	// Validate
	validate := validator.New()

	// Observability
	metrics := prometheus.NewPrometheusAdapter()

	// Services
	bikeService := services.NewBikeService(repos.bikes, repos.settlements, repos.tx, images, loggerAdapter, validate, cacheAdapter, metrics).
		WithCacheTTL(cfg.Redis.CacheTTL)
	loanerService := services.NewLoanerService(repos.loaners, images, loggerAdapter, validate, cacheAdapter).
		WithCacheTTL(cfg.Redis.CacheTTL)
	dashboardService := services.NewDashboardService(bikeService, loanerService, loggerAdapter)
	exportService := services.NewExportService(bikeService, loanerService, loggerAdapter)

	// HTTP Handlers
	tokenService := http.NewJWTTokenService(cfg.Token.Secret, loggerAdapter)
	bikeHandler := http.NewBikeHandler(bikeService, loggerAdapter, metrics)
	loanerHandler := http.NewLoanerHandler(loanerService, loggerAdapter, metrics)
	settlementHandler := http.NewSettlementHandler(bikeService, loggerAdapter, metrics)
	dashboardHandler := http.NewDashboardHandler(dashboardService, exportService, loggerAdapter, metrics)

	// Init HTTP router
	router, err := http.NewRouter(
		cfg.HTTP,
		tokenService,
		bikeHandler,
		loanerHandler,
		settlementHandler,
		dashboardHandler,
	)
	if err != nil {
		closeDB(db)
		closeRedis(redisConn)
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	return &App{
		Config:       cfg,
		Logger:       loggerAdapter,
		DB:           db,
		RedisClient:  redisConn,
		RedisAdapter: cacheAdapter,
		HTTPRouter:   router,
	}, nil
}

func openPostgres(cfg *config.DB) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to database:%w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Failed to ping database:%w", err)
	}

	// Migrate DB
	if err := goose.Up(db, "./internal/adapter/postgres/migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("Failed to run migrations:%w", err)
	}
	return db, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}

func closeRedis(client *redisClient.Client) {
	if client != nil {
		client.Close()
	}
}

// Runs all services
func (a *App) Run() error {
	listenAddr := fmt.Sprintf("%s:%s", a.Config.HTTP.URL, a.Config.HTTP.Port)
	a.Logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": listenAddr,
	})

	if err := a.HTTPRouter.Serve(listenAddr); err != nil {
		a.Logger.Error("HTTP server error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Stops all services
func (a *App) Stop(ctx context.Context) error {
	a.Logger.Info("Shutting down gracefully...", nil)

	// Close database
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Database close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Close Redis
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Redis close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	a.Logger.Info("Application stopped successfully", nil)
	return nil
}
