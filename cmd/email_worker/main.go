package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cwmaia/townhub/cmd/email_worker/handler"
	"github.com/cwmaia/townhub/logger"
	"github.com/cwmaia/townhub/metrics"
	"github.com/cwmaia/townhub/middlewares"
	"github.com/cwmaia/townhub/pkg/config"
	"github.com/cwmaia/townhub/pkg/database"
	"github.com/cwmaia/townhub/pkg/repositories"
	"github.com/cwmaia/townhub/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	logr, err := logger.InitLogger()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logr.Sync()

	db, err := database.InitDB(os.Getenv("DATABASE_DSN"))
	if err != nil {
		panic("failed to initialize Database: " + err.Error())
	}
	directoryRepo := repositories.NewDirectoryRepository(db)

	logr.Info("Starting email worker service")

	broker := utils.GetEnv("KAFKA_BROKER")
	logr.Info("Kafka broker resolved", zap.String("broker", broker))

	metrics.InitEmailMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(utils.GetEnvDefault("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		logr.Fatal(err.Error(), zap.Error(err))
	}
	mailer, err := config.BuildMailer(cfg)
	if err != nil {
		logr.Fatal(err.Error(), zap.Error(err))
	}
	logr.Info("Mail service initialized")

	go handler.HandleDispatchedEvents(ctx, mailer, logr, directoryRepo)

	wrappedMux := middlewares.MetricsMiddleware(mux)
	if err := http.ListenAndServe(":"+utils.GetEnvDefault("PORT", "3001"), wrappedMux); err != nil {
		logr.Fatal("metrics server failed", zap.Error(err))
	}
}
