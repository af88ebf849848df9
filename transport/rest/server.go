package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisPinger struct {
	client *redis.Client
}

func (that redisPinger) Ping(ctx context.Context) error {
	return that.client.Ping(ctx).Err()
}

func Handler(logger *slog.Logger, client *redis.Client) http.Handler {
	return newMux(logger, redisPinger{client: client})
}

func newMux(logger *slog.Logger, store pinger) *http.ServeMux {
	h := &handlers{
		logger: logger.With("component", "rest"),
		redis:  store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.ping)
	mux.HandleFunc("GET /health", h.health)

	return mux
}

// Start - starts HTTP server. It returns when ctx is done.
func Start(ctx context.Context, logger *slog.Logger, port string, client *redis.Client) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Handler(logger, client),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
