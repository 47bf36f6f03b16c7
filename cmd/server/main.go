package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	catalogentity "github.com/onpaj/heblo/internal/catalog/entity"
	cataloghandler "github.com/onpaj/heblo/internal/catalog/handler"
	catalogrepo "github.com/onpaj/heblo/internal/catalog/repository"
	catalogservice "github.com/onpaj/heblo/internal/catalog/service"
	"github.com/onpaj/heblo/internal/config"
	"github.com/onpaj/heblo/internal/middleware"
	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/handler"
	"github.com/onpaj/heblo/internal/warehouse/repository"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting heblo warehouse service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate warehouse schema", zap.Error(err))
	}
	if err := catalogentity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate catalog schema", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	minioClient, err := initMinio(cfg.MinIO)
	if err != nil {
		zapLogger.Warn("MinIO unavailable, archive endpoints disabled", zap.Error(err))
	}

	productRepo := catalogrepo.NewProductRepository(db)
	productSvc := catalogservice.NewProductService(productRepo)

	repos := repository.NewRepositories(db)
	services := service.NewServices(service.Dependencies{
		Ledger:      repos.Ledger,
		Boxes:       repos.Boxes,
		Assemblies:  repos.GiftPackage,
		StockTaking: repos.StockTaking,
		Catalog:     productSvc,
		Picking:     service.NewHTTPPickingClient(cfg.Picking.Endpoint, cfg.Picking.Timeout),
		Redis:       rdb,
		Minio:       minioClient,
		MinioBucket: cfg.MinIO.Bucket,
	})
	handlers := handler.NewHandlers(services)
	productHandler := cataloghandler.NewProductHandler(productSvc)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	registerRoutes(router, handlers, productHandler, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	// TranslateError turns unique violations into gorm.ErrDuplicatedKey,
	// which the ledger relies on for idempotent replay.
	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinio(cfg config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, products *cataloghandler.ProductHandler, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		boxes := authorized.Group("/boxes")
		{
			boxes.GET("", h.Box.List)
			boxes.POST("", h.Box.Create)
			boxes.GET("/:id", h.Box.Get)
			boxes.POST("/:id/items", h.Box.AddItem)
			boxes.DELETE("/:id/items", h.Box.RemoveItem)
			boxes.POST("/:id/picking", h.Box.RequestPicking)
			boxes.POST("/:id/picking/lines", h.Box.MarkLinePicked)
			boxes.POST("/:id/pack", h.Box.MarkPacked)
			boxes.POST("/:id/ship", h.Box.Ship)
			boxes.POST("/:id/cancel", h.Box.Cancel)
		}

		giftPackages := authorized.Group("/gift-packages")
		{
			giftPackages.GET("", h.Assembly.List)
			giftPackages.POST("", h.Assembly.Assemble)
			giftPackages.GET("/:id", h.Assembly.Get)
		}

		stockTakings := authorized.Group("/stock-takings")
		{
			stockTakings.GET("", h.StockTaking.ListRuns)
			stockTakings.POST("", h.StockTaking.Reconcile)
			stockTakings.GET("/:id", h.StockTaking.GetRun)
			stockTakings.POST("/:id/lines", h.StockTaking.ReconcileLine)
			stockTakings.GET("/:id/results", h.StockTaking.Results)
			stockTakings.GET("/:id/export", h.StockTaking.Export)
			stockTakings.POST("/:id/archive", h.StockTaking.Archive)
		}

		ledger := authorized.Group("/ledger")
		{
			ledger.GET("/entries", h.Ledger.ListEntries)
			ledger.GET("/balances", h.Ledger.ListBalances)
			ledger.GET("/balances/:productCode", h.Ledger.GetBalance)
			ledger.POST("/corrections", middleware.RequireRole("warehouse_supervisor"), h.Ledger.AppendCorrection)
		}

		productGroup := authorized.Group("/products")
		{
			productGroup.GET("", products.List)
			productGroup.POST("", products.Create)
			productGroup.GET("/:id", products.Get)
		}
	}
}
