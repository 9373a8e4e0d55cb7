package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medicare/medicare/config"
	"medicare/medicare/controllers"
	"medicare/medicare/routes"
	"medicare/medicare/services/llm"
	"medicare/medicare/sources/psql"
	"medicare/medicare/sources/psql/dao"
	"medicare/medicare/sources/storage"
	"medicare/medicare/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	transcriptDAO := dao.NewTranscriptDAO(db.Pool)

	images, err := storage.NewImageStore(cfg)
	if err != nil {
		logging.ErrorLogger.Error("minio connection error", zap.Error(err))
		os.Exit(1)
	}

	gateway := llm.NewGateway(llm.NewGeminiClient(cfg.GeminiAPIKey))
	assistantCtrl := controllers.NewAssistantController(gateway, transcriptDAO, images, cfg)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	r.Mount("/assistant", routes.AssistantRoutes(assistantCtrl, cfg))

	srv := &http.Server{
		Addr:    ":8000",
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
