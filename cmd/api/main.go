package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aitools-backend/cmd"
	"aitools-backend/internal/api"
	"aitools-backend/internal/config"
	"aitools-backend/internal/database"
	"aitools-backend/internal/metrics"
	"aitools-backend/internal/tools"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	log.Println("Starting API Server...")

	cfg, err := config.LoadConfig(cmd.EnvFileFlag())
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if cfg.LogFile != "" {
		f := cmd.SetupLogFile(cfg.LogFile)
		defer f.Close()
	}

	ctx := context.Background()

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	catalog, err := tools.LoadCatalog(cfg.ToolsFile)
	if err != nil {
		log.Fatalf("Failed to load tool catalog: %v", err)
	}

	service := api.NewAIService(db, cmd.CreateBindings(cfg), catalog, api.ServiceOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		HistoryCache:   cmd.CreateHistoryCache(ctx, cfg),
		ImageArchive:   cmd.CreateImageArchive(ctx, cfg),
	})

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(metrics.Middleware)

	r.Handle("/metrics", metrics.Handler())
	service.AddRoutes(r)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port, "postgres", cfg.UsesPostgres())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
