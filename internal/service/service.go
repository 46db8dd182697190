package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/activity"
	"github.com/nikalaichik/moderator-bot/internal/messages"
	"github.com/nikalaichik/moderator-bot/internal/metrics"
	"github.com/nikalaichik/moderator-bot/internal/nightmode"
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	"github.com/nikalaichik/moderator-bot/internal/registry"
	"github.com/nikalaichik/moderator-bot/internal/repository"
	"github.com/nikalaichik/moderator-bot/internal/utils"
	"github.com/nikalaichik/moderator-bot/internal/wordlist"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Service interface {
	OnMessage(ctx context.Context, event pipeline.MessageEvent, from platform.User) pipeline.Decision
	OnNewChatMembers(ctx context.Context, chatID int64, members []platform.User)
	EnableNightMode(ctx context.Context, chatID int64) error
	DisableNightMode(ctx context.Context, chatID int64) error
	ReloadForbiddenWords(words []string) int
	ReloadFromFile(ctx context.Context) (int, error)
	KickUser(ctx context.Context, chatID int64, target platform.User) error
	BanUser(ctx context.Context, chatID int64, target platform.User) error
	MuteUser(ctx context.Context, chatID int64, target platform.User, duration time.Duration) error
	UnmuteUser(ctx context.Context, chatID int64, target platform.User) error
	GetChatStats(ctx context.Context, chatID int64) (*repository.ChatStats, int, error)
	NightSchedule() nightmode.Schedule
	Notify(ctx context.Context, chatID int64, text string)
	StartMetricsUpdater(ctx context.Context)
	StartCleanupTask(ctx context.Context)
}

// NightMode is the part of the scheduler the service drives.
type NightMode interface {
	Enable(ctx context.Context, chatID int64) error
	Disable(ctx context.Context, chatID int64) error
	Schedule() nightmode.Schedule
}

type Deps struct {
	Client      platform.Client
	Registry    *registry.Registry
	Windows     *activity.Store
	Pipeline    *pipeline.Pipeline
	Night       NightMode
	MuteRepo    repository.MuteRepository
	TempRepo    repository.TemporaryMessageRepository
	StatsRepo   repository.StatsRepository
	WordsSource string
}

type Options struct {
	NoticeTTL  time.Duration
	RetryDelay time.Duration
	Clock      func() time.Time
}

type ModerationService struct {
	logger    *slog.Logger
	client    platform.Client
	registry  *registry.Registry
	windows   *activity.Store
	pipeline  *pipeline.Pipeline
	night     NightMode
	muteRepo  repository.MuteRepository
	tempRepo  repository.TemporaryMessageRepository
	statsRepo repository.StatsRepository

	wordsSource string
	noticeTTL   time.Duration
	retryDelay  time.Duration
	now         func() time.Time

	// chats already told the bot lacks rights, to avoid repeating it per message
	permWarned *expirable.LRU[int64, struct{}]

	tracer trace.Tracer
}

func NewModerationService(logger *slog.Logger, deps Deps, opts Options) *ModerationService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &ModerationService{
		logger:      logger,
		client:      deps.Client,
		registry:    deps.Registry,
		windows:     deps.Windows,
		pipeline:    deps.Pipeline,
		night:       deps.Night,
		muteRepo:    deps.MuteRepo,
		tempRepo:    deps.TempRepo,
		statsRepo:   deps.StatsRepo,
		wordsSource: deps.WordsSource,
		noticeTTL:   opts.NoticeTTL,
		retryDelay:  opts.RetryDelay,
		now:         opts.Clock,
		permWarned:  expirable.NewLRU[int64, struct{}](1024, nil, time.Hour),
		tracer:      otel.Tracer("service"),
	}
}

// OnMessage evaluates the message and applies the resulting decision.
// Side effects are best-effort: failures are logged and counted but the
// decision is returned unchanged.
func (s *ModerationService) OnMessage(ctx context.Context, event pipeline.MessageEvent, from platform.User) pipeline.Decision {
	ctx, span := s.tracer.Start(ctx, "OnMessage")
	defer span.End()

	decision, enforced := s.enforceSoftRestrictions(ctx, event)
	if !enforced {
		decision = s.pipeline.Evaluate(event)
	}

	span.SetAttributes(
		attribute.String("decision.action", decision.Action.String()),
		attribute.String("decision.reason", string(decision.Reason)),
	)
	metrics.IncDecision(decision.Action.String(), string(decision.Reason))

	if decision.IsAllowed() {
		return decision
	}

	s.logger.Info("Moderation decision",
		"chat_id", event.ChatID,
		"user_id", event.UserID,
		"action", decision.Action.String(),
		"reason", string(decision.Reason),
	)

	s.deleteMessage(ctx, event.ChatID, event.MessageID, decision.Reason)
	if enforced {
		return decision
	}

	if stat, ok := statForReason[decision.Reason]; ok {
		s.incrementStat(ctx, event.ChatID, stat)
	}

	if decision.Action == pipeline.ActionDeleteAndMute {
		s.applySpamMute(ctx, event.ChatID, from, decision)
		return decision
	}

	if text, ok := noticeForReason[decision.Reason]; ok {
		s.Notify(ctx, event.ChatID, fmt.Sprintf(text, from.Mention()))
	}
	return decision
}

var statForReason = map[pipeline.Reason]repository.Stat{
	pipeline.ReasonSpam:          repository.StatSpam,
	pipeline.ReasonForbiddenWord: repository.StatWord,
	pipeline.ReasonLink:          repository.StatLink,
	pipeline.ReasonForwarded:     repository.StatForward,
}

var noticeForReason = map[pipeline.Reason]string{
	pipeline.ReasonForbiddenWord: messages.MsgForbiddenWord,
	pipeline.ReasonLink:          messages.MsgLinkForbidden,
	pipeline.ReasonForwarded:     messages.MsgForwardForbidden,
}

// enforceSoftRestrictions covers platforms that cannot restrict members or
// close chats: the bot deletes messages of soft-muted users and, while a
// night chat is closed, of every non-admin.
func (s *ModerationService) enforceSoftRestrictions(ctx context.Context, event pipeline.MessageEvent) (pipeline.Decision, bool) {
	if event.IsAdmin {
		return pipeline.Decision{}, false
	}
	caps := s.client.Capabilities()

	if !caps.ChatPermissions {
		snap := s.registry.Snapshot(event.ChatID)
		if snap.Night.Enabled && snap.Night.Phase == registry.PhaseClosed {
			return pipeline.DeleteOnly(pipeline.ReasonNightClosed), true
		}
	}

	if !caps.NativeRestrict && s.muteRepo != nil {
		muted, _, err := s.muteRepo.IsMuted(ctx, event.ChatID, event.UserID, s.now())
		if err != nil {
			s.logger.Error("Failed to check mute status", "chat_id", event.ChatID, "user_id", event.UserID, "error", err)
			return pipeline.Decision{}, false
		}
		if muted {
			return pipeline.DeleteOnly(pipeline.ReasonMuted), true
		}
	}
	return pipeline.Decision{}, false
}

func (s *ModerationService) applySpamMute(ctx context.Context, chatID int64, user platform.User, decision pipeline.Decision) {
	until := s.now().Add(decision.MuteDuration())
	native, err := s.restrict(ctx, chatID, user, string(decision.Reason), until)
	if err != nil {
		s.logger.Warn("Failed to mute spammer", "chat_id", chatID, "user_id", user.ID, "error", err)
		return
	}
	s.incrementStat(ctx, chatID, repository.StatMute)
	metrics.IncBotAction("mute_spam")

	text := messages.MsgSpamMuted
	if !native {
		text = messages.MsgSpamSoftMuted
	}
	s.Notify(ctx, chatID, fmt.Sprintf(text, user.Mention(), utils.Plural(int64(decision.MuteHours), utils.HourForms)))
}

// restrict mutes the user until the given time, natively when the platform
// allows it and as a recorded soft mute otherwise. It reports whether the
// platform restriction was applied.
func (s *ModerationService) restrict(ctx context.Context, chatID int64, user platform.User, reason string, until time.Time) (bool, error) {
	native := s.client.Capabilities().NativeRestrict
	if native {
		err := s.withRetry(ctx, "restrict_member", func() error {
			return s.client.RestrictMember(ctx, chatID, user.ID, false, until)
		})
		switch {
		case err == nil:
		case errors.Is(err, platform.ErrUnsupported):
			native = false
		default:
			s.reportPlatformError(ctx, chatID, "restrict_member", err)
			return false, err
		}
	}

	if s.muteRepo != nil {
		if err := s.muteRepo.MuteUser(ctx, chatID, user.ID, user.Mention(), reason, until); err != nil {
			if !native {
				return false, fmt.Errorf("record soft mute: %w", err)
			}
			s.logger.Error("Failed to record mute", "chat_id", chatID, "user_id", user.ID, "error", err)
		}
	} else if !native {
		return false, platform.ErrUnsupported
	}
	return native, nil
}

func (s *ModerationService) deleteMessage(ctx context.Context, chatID int64, messageID string, reason pipeline.Reason) {
	if messageID == "" {
		return
	}
	err := s.withRetry(ctx, "delete_message", func() error {
		return s.client.DeleteMessage(ctx, chatID, messageID)
	})
	if err != nil {
		s.reportPlatformError(ctx, chatID, "delete_message", err)
		return
	}
	metrics.IncDeletedMessages(string(reason))
}

// withRetry runs fn and repeats it once after the retry delay when the
// first failure is transient.
func (s *ModerationService) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !platform.IsTransient(err) {
		return err
	}
	s.logger.Debug("Retrying transient platform failure", "op", op, "error", err)

	select {
	case <-ctx.Done():
		return err
	case <-time.After(s.retryDelay):
	}
	return fn()
}

func (s *ModerationService) reportPlatformError(ctx context.Context, chatID int64, op string, err error) {
	metrics.IncPlatformError(op, platform.Kind(err))
	s.logger.Error("Platform call failed", "op", op, "chat_id", chatID, "error", err)

	if platform.IsPermission(err) {
		if _, warned := s.permWarned.Get(chatID); warned {
			return
		}
		s.permWarned.Add(chatID, struct{}{})
		s.Notify(ctx, chatID, messages.MsgNoPermission)
	}
}

// Notify posts a silent notice that is removed after the notice TTL.
func (s *ModerationService) Notify(ctx context.Context, chatID int64, text string) {
	msgID, err := s.client.SendMessage(ctx, chatID, text, true)
	if err != nil {
		metrics.IncPlatformError("send_message", platform.Kind(err))
		s.logger.Warn("Failed to send notice", "chat_id", chatID, "error", err)
		return
	}
	if s.noticeTTL <= 0 || msgID == "" || s.tempRepo == nil {
		return
	}
	if err := s.tempRepo.Add(ctx, chatID, msgID, s.now().Add(s.noticeTTL)); err != nil {
		s.logger.Error("Failed to schedule notice deletion", "chat_id", chatID, "message_id", msgID, "error", err)
	}
}

func (s *ModerationService) incrementStat(ctx context.Context, chatID int64, stat repository.Stat) {
	if s.statsRepo == nil {
		return
	}
	if err := s.statsRepo.IncrementChatStat(ctx, chatID, stat); err != nil {
		s.logger.Error("Failed to increment chat stat", "chat_id", chatID, "stat", string(stat), "error", err)
	}
}

func (s *ModerationService) OnNewChatMembers(ctx context.Context, chatID int64, members []platform.User) {
	ctx, span := s.tracer.Start(ctx, "OnNewChatMembers")
	defer span.End()

	for _, m := range members {
		name := m.FullName
		if name == "" {
			name = m.Mention()
		}
		s.Notify(ctx, chatID, fmt.Sprintf(messages.MsgWelcome, name))
	}
}

func (s *ModerationService) EnableNightMode(ctx context.Context, chatID int64) error {
	ctx, span := s.tracer.Start(ctx, "EnableNightMode")
	defer span.End()
	return s.night.Enable(ctx, chatID)
}

func (s *ModerationService) DisableNightMode(ctx context.Context, chatID int64) error {
	ctx, span := s.tracer.Start(ctx, "DisableNightMode")
	defer span.End()
	return s.night.Disable(ctx, chatID)
}

func (s *ModerationService) NightSchedule() nightmode.Schedule {
	return s.night.Schedule()
}

// OnNightTransition records applied night-mode transitions in chat stats.
func (s *ModerationService) OnNightTransition(ctx context.Context, chatID int64, _ registry.Phase, err error) {
	if err != nil {
		return
	}
	s.incrementStat(ctx, chatID, repository.StatNightTransitions)
}

// ReloadForbiddenWords atomically replaces the forbidden-word set.
func (s *ModerationService) ReloadForbiddenWords(words []string) int {
	count := s.registry.ReplaceForbiddenWords(words)
	s.logger.Info("Forbidden words reloaded", "count", count)
	return count
}

// ReloadFromFile re-reads the configured word list. When the source is
// rejected the previous set stays active and its size is returned.
func (s *ModerationService) ReloadFromFile(ctx context.Context) (int, error) {
	_, span := s.tracer.Start(ctx, "ReloadFromFile")
	defer span.End()

	res, err := wordlist.Load(s.wordsSource)
	if err != nil {
		prior := len(s.registry.Config().ForbiddenWords)
		s.logger.Error("Forbidden words reload rejected", "source", s.wordsSource, "kept", prior, "error", err)
		return prior, err
	}
	if res.Skipped > 0 {
		s.logger.Warn("Skipped word list entries with whitespace", "source", s.wordsSource, "skipped", res.Skipped)
	}
	return s.ReloadForbiddenWords(res.Words), nil
}

func (s *ModerationService) KickUser(ctx context.Context, chatID int64, target platform.User) error {
	ctx, span := s.tracer.Start(ctx, "KickUser")
	defer span.End()

	if err := s.client.BanMember(ctx, chatID, target.ID); err != nil {
		metrics.IncPlatformError("ban_member", platform.Kind(err))
		return err
	}
	if err := s.client.UnbanMember(ctx, chatID, target.ID); err != nil && !errors.Is(err, platform.ErrUnsupported) {
		metrics.IncPlatformError("unban_member", platform.Kind(err))
		return err
	}
	metrics.IncBotAction("kick")
	return nil
}

func (s *ModerationService) BanUser(ctx context.Context, chatID int64, target platform.User) error {
	ctx, span := s.tracer.Start(ctx, "BanUser")
	defer span.End()

	if err := s.client.BanMember(ctx, chatID, target.ID); err != nil {
		metrics.IncPlatformError("ban_member", platform.Kind(err))
		return err
	}
	metrics.IncBotAction("ban")
	return nil
}

func (s *ModerationService) MuteUser(ctx context.Context, chatID int64, target platform.User, duration time.Duration) error {
	ctx, span := s.tracer.Start(ctx, "MuteUser")
	defer span.End()

	if _, err := s.restrict(ctx, chatID, target, "manual", s.now().Add(duration)); err != nil {
		return err
	}
	s.incrementStat(ctx, chatID, repository.StatMute)
	metrics.IncBotAction("mute")
	return nil
}

func (s *ModerationService) UnmuteUser(ctx context.Context, chatID int64, target platform.User) error {
	ctx, span := s.tracer.Start(ctx, "UnmuteUser")
	defer span.End()

	if s.client.Capabilities().NativeRestrict {
		err := s.withRetry(ctx, "restrict_member", func() error {
			return s.client.RestrictMember(ctx, chatID, target.ID, true, time.Time{})
		})
		if err != nil && !errors.Is(err, platform.ErrUnsupported) {
			metrics.IncPlatformError("restrict_member", platform.Kind(err))
			return err
		}
	}
	if s.muteRepo != nil {
		if err := s.muteRepo.UnmuteUser(ctx, chatID, target.ID); err != nil {
			return err
		}
	}
	metrics.IncBotAction("unmute")
	return nil
}

// GetChatStats returns all-time counters and the number of active mutes.
func (s *ModerationService) GetChatStats(ctx context.Context, chatID int64) (*repository.ChatStats, int, error) {
	ctx, span := s.tracer.Start(ctx, "GetChatStats")
	defer span.End()

	if s.statsRepo == nil {
		return nil, 0, errors.New("stats storage is not configured")
	}
	stats, err := s.statsRepo.GetChatTotalStats(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}
	var active int
	if s.muteRepo != nil {
		mutes, err := s.muteRepo.GetActiveMutes(ctx, chatID, s.now())
		if err != nil {
			return nil, 0, err
		}
		active = len(mutes)
	}
	return stats, active, nil
}
