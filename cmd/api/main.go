package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/draw-master/draw-master-api/api/swagger"
	"github.com/draw-master/draw-master-api/internal/gateway"
	"github.com/draw-master/draw-master-api/internal/handler"
	"github.com/draw-master/draw-master-api/internal/middleware"
	"github.com/draw-master/draw-master-api/internal/models"
	"github.com/draw-master/draw-master-api/internal/repository"
	"github.com/draw-master/draw-master-api/internal/service"
	"github.com/draw-master/draw-master-api/pkg/cache"
	"github.com/draw-master/draw-master-api/pkg/config"
	"github.com/draw-master/draw-master-api/pkg/database"
	"github.com/draw-master/draw-master-api/pkg/jobs"
	"github.com/draw-master/draw-master-api/pkg/logger"
	corsmiddleware "github.com/draw-master/draw-master-api/pkg/middleware/cors"
	reqidmiddleware "github.com/draw-master/draw-master-api/pkg/middleware/requestid"
)

// @title Draw Master API
// @version 1.0.0
// @description Course marketplace backend: catalog, cart, checkout and payment ledger
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Redis is optional: the catalog just skips its cache without it.
	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	cartRepo := repository.NewCartRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "draw-master-api",
	})
	userSvc := service.NewUserService(userRepo, logr)
	classSvc := service.NewClassService(classRepo, cacheSvc, validate, logr, cfg.Catalog.PopularLimit)
	cartSvc := service.NewCartService(cartRepo, logr)

	stripeGateway := gateway.NewStripeGateway(cfg.Gateway, logr)

	cleanupQueue := jobs.NewQueue("cart-cleanup", service.CartCleanupHandler(cartRepo), jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	checkoutSvc := service.NewCheckoutService(classRepo, paymentRepo, cartRepo, stripeGateway,
		cleanupQueue, metricsSvc, validate, logr, cfg.Gateway.Currency)
	ledgerSvc := service.NewLedgerService(paymentRepo, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanupQueue.Start(rootCtx)
	defer cleanupQueue.Stop()

	var sweeper *cron.Cron
	if cfg.Ledger.SweepEnabled {
		sweeper = cron.New()
		if _, err := sweeper.AddFunc(cfg.Ledger.SweepSchedule, func() {
			sweepCtx, cancel := context.WithTimeout(rootCtx, time.Minute)
			defer cancel()
			ledgerSvc.Sweep(sweepCtx)
		}); err != nil {
			logr.Sugar().Fatalw("invalid sweep schedule", "schedule", cfg.Ledger.SweepSchedule, "error", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	classHandler := handler.NewClassHandler(classSvc)
	cartHandler := handler.NewCartHandler(cartSvc)
	paymentHandler := handler.NewPaymentHandler(checkoutSvc, ledgerSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	instructorOnly := middleware.RequireRoles(models.RoleInstructor)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/users", authRequired, adminOnly, userHandler.List)
	api.POST("/users", userHandler.Sync)
	api.PATCH("/users/role/:id", authRequired, adminOnly, userHandler.SetRole)
	api.GET("/instructors", userHandler.ListInstructors)

	api.GET("/classes", classHandler.ListApproved)
	api.GET("/classes/all", authRequired, adminOnly, classHandler.ListAll)
	api.GET("/my-classes", authRequired, instructorOnly, classHandler.ListMine)
	api.POST("/classes", authRequired, instructorOnly, classHandler.Create)
	api.PATCH("/class/:id", authRequired, instructorOnly, classHandler.Update)
	api.PATCH("/approve-class/:id", authRequired, adminOnly, classHandler.Approve)
	api.PATCH("/deny-class/:id", authRequired, adminOnly, classHandler.Deny)
	api.PATCH("/feedback-class/:id", authRequired, adminOnly, classHandler.Feedback)

	api.POST("/cart-classes", authRequired, studentOnly, cartHandler.Add)
	api.GET("/selected-classes", authRequired, studentOnly, cartHandler.List)
	api.DELETE("/delete-classes", authRequired, studentOnly, cartHandler.Remove)

	api.POST("/create-payment-intent", authRequired, studentOnly, paymentHandler.CreateIntent)
	api.POST("/payments/:id", authRequired, studentOnly, paymentHandler.Checkout)
	api.GET("/payments", authRequired, paymentHandler.ListMine)
	api.GET("/enrolled-classes", authRequired, paymentHandler.ListEnrolled)
	api.GET("/payments/export", authRequired, adminOnly, paymentHandler.Export)
	api.GET("/payments/reconciliation", authRequired, adminOnly, paymentHandler.ListReconciliation)
	api.PATCH("/payments/reconciliation/:id", authRequired, adminOnly, paymentHandler.Resolve)
	api.GET("/payments/:id/receipt", authRequired, paymentHandler.Receipt)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
