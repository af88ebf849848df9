package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/usecase"
)

type tableEngine interface {
	Draw(ctx context.Context, userID string, card entity.Card) error
	Discard(ctx context.Context, userID string, card entity.Card) error
	Group(ctx context.Context, userID string, groups []entity.Cards) error
	Declare(ctx context.Context, userID string, card entity.Card, groups []entity.Cards) error
	FinishDeclare(ctx context.Context, userID string, groups []entity.Cards) error
	Drop(ctx context.Context, userID string) error
	Leave(ctx context.Context, userID string) error
	Reconnect(ctx context.Context, userID string) (*usecase.HandView, error)
}

type matchmaker interface {
	Enqueue(ctx context.Context, userID, tableType string) (*entity.WaitingPlayer, error)
	Cancel(ctx context.Context, userID, tableType string) error
}

type authService interface {
	ParseToken(token string) (string, error)
}

type handlerFunc func(ctx context.Context, userID string, payload ActionPayload) error

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type Server struct {
	logger *slog.Logger

	hub        *Hub
	auth       authService
	engine     tableEngine
	matchmaker matchmaker

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, hub *Hub, auth authService, engine tableEngine, matchmaker matchmaker) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		hub:        hub,
		auth:       auth,
		engine:     engine,
		matchmaker: matchmaker,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers["queue:join"] = server.handleQueueJoin
	server.handlers["queue:leave"] = server.handleQueueLeave
	server.handlers["card:draw"] = server.handleDraw
	server.handlers["card:discard"] = server.handleDiscard
	server.handlers["card:group"] = server.handleGroup
	server.handlers["game:declare"] = server.handleDeclare
	server.handlers["game:finish"] = server.handleFinish
	server.handlers["game:drop"] = server.handleDrop
	server.handlers["game:leave"] = server.handleLeave
	server.handlers["game:reconnect"] = server.handleReconnect

	return server
}

func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWs(ctx, w, r)
	})
	return mux
}

// Start - starts WebSocket server. It returns when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		that.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	that.logger.Info("websocket server listening", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWs authenticates the caller by the token query parameter and upgrades the connection.
func (that *Server) serveWs(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWs")

	userID, err := that.auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		log.Info("unauthorized connection", "error", err)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(userID, conn)
	that.hub.register(c)

	log.Info("WebSocket connection established", "userID", userID)

	go c.writePump()
	that.readPump(ctx, c)
}

// readPump handles the actions of one client in arrival order.
func (that *Server) readPump(ctx context.Context, c *client) {
	log := that.logger.With("method", "readPump", "userID", c.userID)

	defer that.hub.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed", "error", err)
			}
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Info("failed to unmarshal message", "error", err)
			that.sendError(c, "", fmt.Errorf("%w: malformed message", apperror.ErrValidation))
			continue
		}

		if err = that.dispatch(ctx, c.userID, &msg); err != nil {
			log.Info("action failed", "action", msg.Action, "error", err)
			that.sendError(c, msg.Action, err)
		}
	}
}

func (that *Server) dispatch(ctx context.Context, userID string, msg *Message) error {
	handler, ok := that.handlers[msg.Action]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownAction, msg.Action)
	}

	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	return handler(ctx, userID, payload)
}
