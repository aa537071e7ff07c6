package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cwmaia/townhub/cmd/api/app/routes"
	"github.com/cwmaia/townhub/logger"
	"github.com/cwmaia/townhub/metrics"
	"github.com/cwmaia/townhub/middlewares"
	"github.com/cwmaia/townhub/pkg/config"
	"github.com/cwmaia/townhub/pkg/database"
	"github.com/cwmaia/townhub/pkg/kafka"
	"github.com/cwmaia/townhub/pkg/models"
	"github.com/cwmaia/townhub/pkg/utils"
	"github.com/cwmaia/townhub/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	db, err := database.InitDB(os.Getenv("DATABASE_DSN"))
	if err != nil {
		panic("DB not init  " + err.Error())
	}
	err = database.MigrateDB(db,
		&models.Town{},
		&models.Business{},
		&models.Place{},
		&models.Event{},
		&models.User{},
		&models.Profile{},
		&models.Session{},
		&models.QuotaCounter{},
		&models.BusinessSubscription{},
		&models.PlaceSubscription{},
		&models.DeviceToken{},
		&models.Notification{},
		&models.NotificationDelivery{},
	)
	if err != nil {
		panic("DB migration failed  " + err.Error())
	}

	logr, err := logger.InitLogger()
	if err != nil {
		panic("Failed to initialize zap logger: " + err.Error())
	}
	defer logr.Sync()
	logr.Info("Logger initialized")

	shutdownTracer := tracing.InitTracer("townhub-api", logr)
	defer shutdownTracer()

	metrics.InitAPIMetrics()

	redisClient := database.InitRedis(utils.GetEnvDefault("REDIS_ADDR", "localhost:6379"))
	auth := &middlewares.MiddlewareConfig{
		RedisClient: redisClient,
		DB:          db,
	}

	cfg, err := config.LoadConfig(utils.GetEnvDefault("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		logr.Fatal("Failed to load provider config", zap.Error(err))
	}
	transport, err := config.BuildPushTransport(cfg)
	if err != nil {
		logr.Fatal("Failed to build push transport", zap.Error(err))
	}

	producer := kafka.NewProducerFromEnv()
	logr.Info("Kafka producer initialized", zap.String("broker", utils.GetEnv("KAFKA_BROKER")))

	limiter := middlewares.NewRateLimiter(rate.Limit(5), 10)

	router := gin.Default()
	router.Use(middlewares.GinMetricsMiddleware())
	router.Use(limiter.Middleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api")
	routes.Notifications(v1.Group("/notifications"), db, transport, producer, auth, logr)
	routes.Subscriptions(v1.Group("/subscriptions"), db, auth)
	routes.Devices(v1.Group("/devices"), db, auth)
	routes.Quotas(v1.Group("/quotas"), db, auth, logr)
	routes.Directory(v1, db, auth, logr)

	go handleShutdown(producer, logr)
	if err := router.Run(":" + utils.GetEnvDefault("PORT", "3000")); err != nil {
		logr.Fatal("Failed to start server", zap.Error(err))
	}
}

func handleShutdown(producer *kafka.Producer, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	if err := producer.Close(); err != nil {
		log.Error("Error closing Kafka producer", zap.Error(err))
	} else {
		log.Info("Kafka producer closed cleanly")
	}

	os.Exit(0)
}
