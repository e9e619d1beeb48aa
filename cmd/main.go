package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tonnahe171051/poolmate-sub000/config"
	"github.com/tonnahe171051/poolmate-sub000/db"
	"github.com/tonnahe171051/poolmate-sub000/handlers"
	"github.com/tonnahe171051/poolmate-sub000/realtime"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
	"github.com/tonnahe171051/poolmate-sub000/routes"
	"github.com/tonnahe171051/poolmate-sub000/scorelock"
	"github.com/tonnahe171051/poolmate-sub000/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var locker scorelock.Locker = scorelock.NewMemoryLocker()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()
		defer redisClient.Close()
		locker = scorelock.NewRedisLocker(redisClient)
		logger.Info("redis score lock store connected", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("using in-process score lock store")
	}

	hub := realtime.NewHub(logger)
	go hub.Run()

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	tableRepo := repositories.NewPostgresTableRepository(dbConn)
	operatorRepo := repositories.NewPostgresOperatorRepository(dbConn)

	authService := services.NewAuthService(operatorRepo, cfg.JWTSecretKey)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, stageRepo, participantRepo, logger)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, stageRepo, participantRepo, matchRepo, tableRepo, hub, logger)
	matchService := services.NewMatchService(dbConn, matchRepo, stageRepo, tournamentRepo, tableRepo, locker, hub, logger)
	tableService := services.NewTableService(dbConn, tableRepo)

	router := routes.New(routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Bracket:    handlers.NewBracketHandler(bracketService),
		Match:      handlers.NewMatchHandler(matchService),
		Table:      handlers.NewTableHandler(tableService),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, logger),
	}, cfg.JWTSecretKey)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			_ = server.Close()
		}
	}

	logger.Info("server stopped")
}
