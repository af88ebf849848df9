package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

func get(t *testing.T, handler http.Handler, path string) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	return rec.Code, string(body)
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	t.Run("Ping answers pong", func(t *testing.T) {
		code, body := get(t, newMux(logger, failingPinger{}), "/ping")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "pong", body)
	})

	t.Run("Health is ok while Redis answers", func(t *testing.T) {
		// Given: a reachable Redis
		server := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() {
			_ = client.Close()
		})

		// When: health is requested
		code, body := get(t, Handler(logger, client), "/health")

		// Then: the service is ready
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body)
	})

	t.Run("Health fails while Redis is down", func(t *testing.T) {
		code, _ := get(t, newMux(logger, failingPinger{}), "/health")

		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}
