package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/rummy-backend/internal/config"
	"github.com/rocketscienceinc/rummy-backend/internal/repository"
	"github.com/rocketscienceinc/rummy-backend/internal/repository/storage"
	"github.com/rocketscienceinc/rummy-backend/internal/rummy"
	"github.com/rocketscienceinc/rummy-backend/internal/scheduler"
	"github.com/rocketscienceinc/rummy-backend/internal/service"
	"github.com/rocketscienceinc/rummy-backend/internal/usecase"
	"github.com/rocketscienceinc/rummy-backend/transport/rest"
	"github.com/rocketscienceinc/rummy-backend/transport/websocket"
)

var ErrSecretNotSet = errors.New("jwt secret key is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	if conf.JWTSecretKey == "" {
		return ErrSecretNotSet
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	locker := repository.NewLocker(redisStorage, conf.Lock)
	tableRepo := repository.NewTableRepository(redisStorage)
	userRepo := repository.NewUserRepository(redisStorage)
	poolRepo := repository.NewPoolRepository(redisStorage)
	walletRepo := repository.NewWalletRepository(redisStorage)
	historyRepo := repository.NewHistoryRepository(sqliteStorage.Connection)

	timer := scheduler.NewTimer(logger)
	defer timer.Close()

	hub := websocket.NewHub(logger)

	engine := usecase.NewEngine(logger, conf, locker, tableRepo, userRepo, timer, hub, walletRepo, historyRepo,
		rummy.NewRandomDealer())
	timer.SetHandler(engine.RunJob)

	matchmaker := usecase.NewMatchmaker(logger, conf, locker, poolRepo, tableRepo, userRepo, walletRepo, engine, hub)

	authService := service.NewAuthService(conf.JWTSecretKey)
	wsServer := websocket.New(logger, hub, authService, engine, matchmaker)

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		log.Info("Starting matchmaker", "interval", conf.Matchmaker.PollInterval)
		matchmaker.Run(ctx)
	}()

	// run HTTP server
	go func() {
		defer wg.Done()
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, redisStorage); httpErr != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
		}
	}()

	// run Websocket server
	go func() {
		defer wg.Done()
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			errCh <- fmt.Errorf("WebSocket server error: %w", wsErr)
		}
	}()

	select {
	case err = <-errCh:
		log.Error("server failed, shutting down", "error", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	cancel()
	wg.Wait()

	return err
}
