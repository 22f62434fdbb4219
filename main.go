package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/restaurant-waitlist/config"
	"github.com/yeremiapane/restaurant-waitlist/database"
	"github.com/yeremiapane/restaurant-waitlist/limiter"
	"github.com/yeremiapane/restaurant-waitlist/metrics"
	"github.com/yeremiapane/restaurant-waitlist/notify"
	"github.com/yeremiapane/restaurant-waitlist/router"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetJWTSecret(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if cfg.App.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	repo, err := config.OpenRepository(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			utils.ErrorLogger.Printf("Error closing database: %v", err)
		}
	}()
	if err := database.Migrate(ctx, repo); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}

	redisClient, err := config.InitRedis(ctx, cfg.Redis)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	notifier, stopWorker := setupNotifier(cfg, redisClient)
	defer stopWorker()

	var rateLimiter limiter.Limiter = limiter.NewMemoryLimiter()
	if redisClient != nil {
		rateLimiter = limiter.NewFailoverLimiter(limiter.NewRedisLimiter(redisClient), rateLimiter, utils.ErrorLogger)
	}

	// Inisialisasi service
	clock := services.SystemClock{}
	restaurantSvc := services.NewRestaurantService(repo)
	seatingSvc := services.NewSeatingService(repo, notifier, clock, cfg.Location(), cfg.App.PublicBaseURL)
	queueSvc := services.NewQueueService(repo, seatingSvc, notifier, clock, cfg.App.PublicBaseURL)
	tableSvc := services.NewTableService(repo)
	userSvc := services.NewUserService(repo)
	exporter := services.NewHistoryExporter(repo, clock, cfg.Location())

	if cfg.App.SeedDemo {
		if err := database.SeedDemo(ctx, restaurantSvc, tableSvc, userSvc); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	go utils.CleanupBlacklist(ctx, time.Hour)

	r := router.SetupRouter(router.Dependencies{
		Restaurants:    restaurantSvc,
		Queue:          queueSvc,
		Seating:        seatingSvc,
		Tables:         tableSvc,
		Users:          userSvc,
		Exporter:       exporter,
		Limiter:        rateLimiter,
		CORSOrigin:     cfg.App.CORSOrigin,
		JoinPerMinute:  cfg.Limits.JoinPerMinute,
		LoginPerMinute: cfg.Limits.LoginPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
}

// setupNotifier picks SMTP when configured and moves delivery onto an asynq worker when
// Redis is available. The returned func stops whatever was started.
func setupNotifier(cfg *config.Config, redisClient *redis.Client) (notify.Notifier, func()) {
	var delivery notify.Notifier = notify.LogNotifier{}
	if cfg.SMTP.Host != "" {
		delivery = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	if redisClient == nil {
		return delivery, func() {}
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	client := asynq.NewClient(redisOpt)
	srv, mux := notify.NewWorker(redisOpt, delivery)
	if err := srv.Start(mux); err != nil {
		utils.ErrorLogger.Printf("Email worker not started, sending inline: %v", err)
		_ = client.Close()
		return delivery, func() {}
	}

	utils.InfoLogger.Println("Email worker started")
	return notify.NewQueueNotifier(client), func() {
		srv.Shutdown()
		_ = client.Close()
	}
}
