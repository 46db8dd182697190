package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/admin"
	"github.com/nikalaichik/moderator-bot/internal/service"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const commandNoticeTTL = time.Minute

type noticeKey struct {
	chatID int64
	userID int64
	text   string
}

type Handler struct {
	logger      *slog.Logger
	svc         service.Service
	oracle      *admin.Oracle
	tracer      trace.Tracer
	defaultMute time.Duration

	// notified throttles replies to /start and rejected admin commands.
	notified *expirable.LRU[noticeKey, struct{}]
}

func NewHandler(logger *slog.Logger, svc service.Service, oracle *admin.Oracle, defaultMute time.Duration) *Handler {
	return &Handler{
		logger:      logger,
		svc:         svc,
		oracle:      oracle,
		tracer:      otel.Tracer("handler"),
		defaultMute: defaultMute,
		notified:    expirable.NewLRU[noticeKey, struct{}](4096, nil, commandNoticeTTL),
	}
}

// dispatch carries what one inbound message resolves once and shares
// between moderation and command handling.
type dispatch struct {
	id     string
	logger *slog.Logger
	admins *admin.Dispatch
}

func (h *Handler) newDispatch() *dispatch {
	id := uuid.NewString()
	return &dispatch{
		id:     id,
		logger: h.logger.With("dispatch_id", id),
		admins: h.oracle.ForDispatch(),
	}
}

func (d *dispatch) isAdmin(ctx context.Context, chatID, userID int64) bool {
	return d.admins.IsAdmin(ctx, chatID, userID)
}
