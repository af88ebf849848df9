package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

var errUnknownAction = fmt.Errorf("%w: unknown action", apperror.ErrValidation)

func (that *Server) sendError(c *client, action string, err error) {
	message := err.Error()
	code := apperror.Code(err)
	if code == apperror.CodeInternal {
		message = "internal error"
	}

	data, marshalErr := json.Marshal(Event{
		Event:   entity.EventError,
		Payload: errorPayload{Action: action, Code: code, Error: message},
	})
	if marshalErr != nil {
		that.logger.Error("failed to marshal error", "error", errors.Join(err, marshalErr))
		return
	}

	c.enqueue(data)
}

func (that *Server) handleQueueJoin(ctx context.Context, userID string, payload ActionPayload) error {
	_, err := that.matchmaker.Enqueue(ctx, userID, payload.TableType)
	return err
}

func (that *Server) handleQueueLeave(ctx context.Context, userID string, payload ActionPayload) error {
	return that.matchmaker.Cancel(ctx, userID, payload.TableType)
}

func (that *Server) handleDraw(ctx context.Context, userID string, payload ActionPayload) error {
	card, err := payload.card()
	if err != nil {
		return err
	}

	return that.engine.Draw(ctx, userID, card)
}

func (that *Server) handleDiscard(ctx context.Context, userID string, payload ActionPayload) error {
	card, err := payload.card()
	if err != nil {
		return err
	}

	return that.engine.Discard(ctx, userID, card)
}

func (that *Server) handleGroup(ctx context.Context, userID string, payload ActionPayload) error {
	groups, err := payload.groups()
	if err != nil {
		return err
	}

	return that.engine.Group(ctx, userID, groups)
}

func (that *Server) handleDeclare(ctx context.Context, userID string, payload ActionPayload) error {
	card, err := payload.card()
	if err != nil {
		return err
	}

	groups, err := payload.groups()
	if err != nil {
		return err
	}

	return that.engine.Declare(ctx, userID, card, groups)
}

func (that *Server) handleFinish(ctx context.Context, userID string, payload ActionPayload) error {
	groups, err := payload.groups()
	if err != nil {
		return err
	}

	return that.engine.FinishDeclare(ctx, userID, groups)
}

func (that *Server) handleDrop(ctx context.Context, userID string, _ ActionPayload) error {
	return that.engine.Drop(ctx, userID)
}

func (that *Server) handleLeave(ctx context.Context, userID string, _ ActionPayload) error {
	return that.engine.Leave(ctx, userID)
}

func (that *Server) handleReconnect(ctx context.Context, userID string, _ ActionPayload) error {
	_, err := that.engine.Reconnect(ctx, userID)
	return err
}
