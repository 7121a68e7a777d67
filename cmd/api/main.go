package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/tourbay/internal/config"
	"github.com/joshua-takyi/tourbay/internal/connect"
	"github.com/joshua-takyi/tourbay/internal/container"
	"github.com/joshua-takyi/tourbay/internal/events"
	"github.com/joshua-takyi/tourbay/internal/metrics"
	"github.com/joshua-takyi/tourbay/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting Tourbay API server", "environment", cfg.Environment)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cld, err := connect.CloudinaryCredentials(cfg)
	if err != nil {
		logger.Error("Failed to connect to Cloudinary", "error", err)
		os.Exit(1)
	}

	// Initialize database connections
	supaClient, err := connect.InitSupabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	supaService, err := connect.InitSupabaseService(cfg)
	if err != nil {
		logger.Error("Failed to create Supabase service client", "error", err)
		os.Exit(1)
	}

	mongoClient, err := connect.MongoDBConnect(cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	clients := container.Clients{
		Supabase:        supaClient,
		SupabaseService: supaService,
		Mongo:           mongoClient,
		Cloudinary:      cld,
	}

	// Redis and NATS are optional outside production.
	if rdb, err := connect.RedisConnect(cfg.Redis); err != nil {
		if cfg.IsProduction() {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		logger.Warn("Redis unavailable", "error", err)
	} else {
		clients.Redis = rdb
		logger.Info("Connected to Redis successfully", "address", cfg.Redis.Address)
	}

	if nc, err := connect.NatsConnect(cfg.Nats, logger); err != nil {
		if cfg.IsProduction() {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		logger.Warn("NATS unavailable", "error", err)
	} else {
		clients.Nats = nc
		logger.Info("Connected to NATS successfully", "url", nc.ConnectedUrl())
	}

	// Initialize dependency container
	appContainer := container.NewContainer(cfg, logger, clients)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := appContainer.Mongo.EnsureIndexes(indexCtx); err != nil {
		logger.Error("Failed to ensure MongoDB indexes", "error", err)
	}
	cancelIndexes()

	metrics.Register()

	bookingLog, err := events.LogBookingEvents(appContainer.Bus, logger)
	if err != nil {
		logger.Warn("Failed to subscribe to booking events", "error", err)
	}

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// WriteTimeout stays off so message streams are not cut; handlers bound
	// their own work through request contexts.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if bookingLog != nil {
		_ = bookingLog.Unsubscribe()
	}
	if clients.Nats != nil {
		if err := clients.Nats.Drain(); err != nil {
			logger.Error("Error draining NATS", "error", err)
		}
	}
	if clients.Redis != nil {
		if err := clients.Redis.Close(); err != nil {
			logger.Error("Error closing Redis", "error", err)
		}
	}
	appContainer.TokenValidator.Close()

	// Close database connections
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
