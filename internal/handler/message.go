package handler

import (
	"context"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/messages"
	"github.com/nikalaichik/moderator-bot/internal/metrics"
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/platform"

	"go.opentelemetry.io/otel/attribute"
)

// Handle processes one inbound message. It is the dispatcher's handler, so
// calls for one chat never overlap.
func (h *Handler) Handle(ctx context.Context, msg platform.Message) error {
	start := time.Now()
	updateType := "message"
	switch {
	case msg.IsPrivate:
		updateType = "private_message"
	case len(msg.NewMembers) > 0:
		updateType = "new_members"
	case msg.IsEdited:
		updateType = "edited_message"
	}
	defer func() {
		metrics.ObserveUpdateProcessing(updateType, time.Since(start).Seconds(), nil)
	}()

	d := h.newDispatch()
	ctx, span := h.tracer.Start(ctx, "HandleMessage")
	defer span.End()

	span.SetAttributes(
		attribute.String("dispatch_id", d.id),
		attribute.String("update_type", updateType),
		attribute.Int64("chat_id", msg.ChatID),
		attribute.Int64("user_id", msg.From.ID),
	)

	d.logger.Debug("Dispatching message",
		"chat_id", msg.ChatID,
		"sender_id", msg.From.ID,
	)

	if msg.IsPrivate {
		h.handlePrivateMessage(ctx, d, msg)
		return nil
	}

	if len(msg.NewMembers) > 0 {
		h.svc.OnNewChatMembers(ctx, msg.ChatID, msg.NewMembers)
		return nil
	}

	if cmd, ok := parseCommand(msg.Text); ok && !msg.IsEdited {
		if handled := h.handleCommand(ctx, d, msg, cmd); handled {
			return nil
		}
	}

	h.handleGroupMessage(ctx, d, msg)
	return nil
}

func (h *Handler) handlePrivateMessage(ctx context.Context, d *dispatch, msg platform.Message) {
	cmd, ok := parseCommand(msg.Text)
	if !ok || cmd.name != "start" || msg.IsEdited {
		d.logger.Debug("Ignoring private message", "sender_id", msg.From.ID)
		return
	}
	h.svc.Notify(ctx, msg.ChatID, messages.MsgStart)
}

func (h *Handler) handleGroupMessage(ctx context.Context, d *dispatch, msg platform.Message) {
	event := pipeline.MessageEvent{
		ChatID:        msg.ChatID,
		UserID:        msg.From.ID,
		MessageID:     msg.MessageID,
		IsAdmin:       d.isAdmin(ctx, msg.ChatID, msg.From.ID),
		Text:          msg.Text,
		IsForwarded:   msg.IsForwarded,
		HasLinkEntity: msg.HasLinkEntity,
		IsEdited:      msg.IsEdited,
		Timestamp:     time.Now(),
	}

	decision := h.svc.OnMessage(ctx, event, msg.From)
	if !decision.IsAllowed() {
		d.logger.Info("Message blocked",
			"chat_id", msg.ChatID,
			"user_id", msg.From.ID,
			"reason", string(decision.Reason),
		)
		return
	}
	d.logger.Debug("Message allowed")
}
