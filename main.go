package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"qline-system/config"
	"qline-system/handlers"
	_ "qline-system/migrations"
	"qline-system/monitoring"
	"qline-system/security"
	"qline-system/services"
	"qline-system/utils"
)

func main() {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL)

	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
		log.Println("PubNub notifications enabled")
	} else {
		log.Println("PubNub keys not set, realtime notifications disabled")
	}

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient)
	}

	// Services
	queueService := services.NewQueueService(redisClient, pn, monitor, cfg)
	sessionService := services.NewSessionService(redisClient, cfg.SessionTTL)
	authService, err := services.NewAuthService(sessionService, queueService, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	statsService := services.NewStatsService(app)
	predictionService := services.NewPredictionService(cfg, monitor)
	arrivalSimulator := services.NewArrivalSimulator(queueService, cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(app, authService, sessionService)
	queueHandler := handlers.NewQueueHandler(app, queueService, sessionService)
	shopHandler := handlers.NewShopHandler(app, queueService, statsService, sessionService)
	predictionHandler := handlers.NewPredictionHandler(app, predictionService)

	rateLimiter := security.NewRateLimiter(redisClient)

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go queueService.UpdateQueuePositions(ctx)

	if cfg.Environment == "development" {
		go arrivalSimulator.Run(ctx)
	}

	go restoreQueues(ctx, redisClient, queueService)

	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Auth
		se.Router.POST("/api/auth/client/login", authHandler.ClientLogin)
		se.Router.POST("/api/auth/shopkeeper/login", authHandler.ShopkeeperLogin).
			BindFunc(rateLimiter.LoginThrottle(10))
		se.Router.POST("/api/auth/logout", authHandler.Logout)
		se.Router.GET("/api/session", authHandler.GetSession)

		// Customer queue view
		se.Router.GET("/api/queue/status", queueHandler.GetStatus)
		se.Router.POST("/api/queue/refresh", queueHandler.Refresh)
		se.Router.POST("/api/queue/leave", queueHandler.Leave)

		// Shopkeeper controls
		se.Router.GET("/api/shop/queue", shopHandler.GetQueue)
		se.Router.POST("/api/shop/serve-next", shopHandler.ServeNext)
		se.Router.POST("/api/shop/toggle", shopHandler.ToggleActive)
		se.Router.POST("/api/shop/counters", shopHandler.AdjustCounters)
		se.Router.POST("/api/shop/service-time", shopHandler.AdjustServiceTime)
		se.Router.POST("/api/shop/remove", shopHandler.RemoveCustomer)
		se.Router.GET("/api/shop/stats", shopHandler.GetStats)

		// Prediction widget
		se.Router.POST("/api/predict", predictionHandler.Predict)

		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{
				"status": "healthy",
			})
		})

		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		return se.Next()
	})

	log.Printf("Starting server on port %s (%s)", cfg.Port, cfg.Environment)

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// restoreQueues re-registers every queue that survived a restart in Redis and
// makes sure the default demo shop exists.
func restoreQueues(ctx context.Context, redisClient *redis.Client, queueService *services.QueueService) {
	keys, err := redisClient.Keys(ctx, "queue:waiting:*").Result()
	if err != nil {
		log.Printf("Error scanning existing queues: %v", err)
		return
	}

	for _, key := range keys {
		shopID := strings.TrimPrefix(key, "queue:waiting:")
		if err := queueService.EnsureQueue(ctx, shopID); err != nil {
			log.Printf("Error restoring queue for shop %s: %v", shopID, err)
			continue
		}
		if length, err := queueService.Length(ctx, shopID); err == nil {
			log.Printf("Restored queue for shop %s with %d waiting customers", shopID, length)
		}
	}

	if err := queueService.EnsureQueue(ctx, services.DefaultShopID); err != nil {
		log.Printf("Error ensuring default shop queue: %v", err)
	}
}

func handleShutdown(cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down background workers...")
	cancel()
}
