package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/messages"
	"github.com/nikalaichik/moderator-bot/internal/nightmode"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	"github.com/nikalaichik/moderator-bot/internal/utils"
)

type command struct {
	name string
	args []string
}

// parseCommand splits "/name@bot arg1 arg2". ok is false for plain text.
func parseCommand(text string) (command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return command{}, false
	}
	return command{name: strings.ToLower(name), args: fields[1:]}, true
}

type commandFunc func(h *Handler, ctx context.Context, d *dispatch, msg platform.Message, cmd command)

var adminCommands = map[string]commandFunc{
	"night_mode_on":  (*Handler).handleNightModeOn,
	"night_mode_off": (*Handler).handleNightModeOff,
	"kick":           (*Handler).handleKick,
	"ban":            (*Handler).handleBan,
	"mute":           (*Handler).handleMute,
	"unmute":         (*Handler).handleUnmute,
	"reload_words":   (*Handler).handleReloadWords,
	"stats":          (*Handler).handleStats,
}

// handleCommand runs a known command and reports whether it did. Unknown
// commands, /start and rejected admin commands from members go through
// moderation like any other text, so repeating them counts toward the
// spam window.
func (h *Handler) handleCommand(ctx context.Context, d *dispatch, msg platform.Message, cmd command) bool {
	isAdmin := d.isAdmin(ctx, msg.ChatID, msg.From.ID)

	if cmd.name == "start" {
		h.notifyOnce(ctx, msg, messages.MsgStart)
		return isAdmin
	}

	fn, ok := adminCommands[cmd.name]
	if !ok {
		return false
	}

	if !isAdmin {
		d.logger.Info("Non-admin user tried an admin command", "user_id", msg.From.ID, "command", cmd.name)
		h.notifyOnce(ctx, msg, messages.MsgAdminOnly)
		return false
	}

	d.logger.Info("Admin command received", "chat_id", msg.ChatID, "admin_id", msg.From.ID, "command", cmd.name)
	fn(h, ctx, d, msg, cmd)
	return true
}

// replyTarget returns the author of the message the command replies to.
func (h *Handler) replyTarget(ctx context.Context, d *dispatch, msg platform.Message) (platform.User, bool) {
	if msg.ReplyTo == nil {
		h.svc.Notify(ctx, msg.ChatID, messages.MsgReplyRequired)
		return platform.User{}, false
	}
	target := *msg.ReplyTo
	if d.isAdmin(ctx, msg.ChatID, target.ID) {
		h.svc.Notify(ctx, msg.ChatID, messages.MsgCannotTargetAdmin)
		return platform.User{}, false
	}
	return target, true
}

func displayName(u platform.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Mention()
}

func (h *Handler) handleNightModeOn(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	err := h.svc.EnableNightMode(ctx, msg.ChatID)
	switch {
	case errors.Is(err, nightmode.ErrAlreadyEnabled):
		h.svc.Notify(ctx, msg.ChatID, messages.MsgNightAlreadyOn)
		return
	case err != nil:
		d.logger.Error("Failed to enable night mode", "chat_id", msg.ChatID, "error", err)
		return
	}

	sched := h.svc.NightSchedule()
	h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgNightEnabled,
		sched.NightStart.String(), sched.DayStart.String(), sched.Location.String()))
}

func (h *Handler) handleNightModeOff(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	err := h.svc.DisableNightMode(ctx, msg.ChatID)
	switch {
	case errors.Is(err, nightmode.ErrNotEnabled):
		h.svc.Notify(ctx, msg.ChatID, messages.MsgNightNotEnabled)
		return
	case err != nil:
		d.logger.Error("Failed to disable night mode", "chat_id", msg.ChatID, "error", err)
		return
	}
	h.svc.Notify(ctx, msg.ChatID, messages.MsgNightDisabled)
}

func (h *Handler) handleKick(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	target, ok := h.replyTarget(ctx, d, msg)
	if !ok {
		return
	}
	if err := h.svc.KickUser(ctx, msg.ChatID, target); err != nil {
		d.logger.Error("Failed to kick user", "chat_id", msg.ChatID, "user_id", target.ID, "error", err)
		h.svc.Notify(ctx, msg.ChatID, failureText(messages.MsgKickFailed, err))
		return
	}
	h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgKicked, displayName(target)))
}

func (h *Handler) handleBan(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	target, ok := h.replyTarget(ctx, d, msg)
	if !ok {
		return
	}
	if err := h.svc.BanUser(ctx, msg.ChatID, target); err != nil {
		d.logger.Error("Failed to ban user", "chat_id", msg.ChatID, "user_id", target.ID, "error", err)
		h.svc.Notify(ctx, msg.ChatID, failureText(messages.MsgBanFailed, err))
		return
	}
	h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgBanned, displayName(target)))
}

// parseMuteDuration accepts whole minutes ("30") or a Go duration ("2h").
func parseMuteDuration(args []string, fallback time.Duration) (time.Duration, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	if minutes, err := strconv.Atoi(args[0]); err == nil {
		if minutes <= 0 {
			return 0, fmt.Errorf("non-positive mute duration %d", minutes)
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return 0, err
	}
	if d < time.Minute {
		return 0, fmt.Errorf("mute duration %s is shorter than a minute", d)
	}
	return d, nil
}

func (h *Handler) handleMute(ctx context.Context, d *dispatch, msg platform.Message, cmd command) {
	duration, err := parseMuteDuration(cmd.args, h.defaultMute)
	if err != nil {
		d.logger.Info("Invalid mute duration format", "input", cmd.args, "error", err)
		h.svc.Notify(ctx, msg.ChatID, messages.MsgMuteDurationInvalid)
		return
	}
	target, ok := h.replyTarget(ctx, d, msg)
	if !ok {
		return
	}
	if err := h.svc.MuteUser(ctx, msg.ChatID, target, duration); err != nil {
		d.logger.Error("Failed to mute user", "chat_id", msg.ChatID, "user_id", target.ID, "error", err)
		h.svc.Notify(ctx, msg.ChatID, failureText(messages.MsgMuteFailed, err))
		return
	}
	minutes := int64(duration / time.Minute)
	h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgMuted, displayName(target), utils.Plural(minutes, utils.MinuteForms)))
}

func (h *Handler) handleUnmute(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	if msg.ReplyTo == nil {
		h.svc.Notify(ctx, msg.ChatID, messages.MsgReplyRequired)
		return
	}
	target := *msg.ReplyTo
	if err := h.svc.UnmuteUser(ctx, msg.ChatID, target); err != nil {
		d.logger.Error("Failed to unmute user", "chat_id", msg.ChatID, "user_id", target.ID, "error", err)
		h.svc.Notify(ctx, msg.ChatID, failureText(messages.MsgUnmuteFailed, err))
		return
	}
	h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgUnmuted, displayName(target)))
}

// handleReloadWords also drops the cached admin list of the chat, so a
// freshly promoted admin does not wait out the cache TTL.
func (h *Handler) handleReloadWords(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	h.oracle.Forget(ctx, msg.ChatID)

	count, err := h.svc.ReloadFromFile(ctx)
	if err != nil {
		d.logger.Error("Failed to reload forbidden words", "error", err)
		h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgWordsReloadFailed, count, err))
		return
	}
	h.svc.Notify(ctx, msg.ChatID, fmt.Sprintf(messages.MsgWordsReloaded, count))
}

func (h *Handler) handleStats(ctx context.Context, d *dispatch, msg platform.Message, _ command) {
	stats, activeMutes, err := h.svc.GetChatStats(ctx, msg.ChatID)
	if err != nil {
		d.logger.Error("Failed to get chat stats", "chat_id", msg.ChatID, "error", err)
		h.svc.Notify(ctx, msg.ChatID, messages.MsgStatsFailed)
		return
	}

	violationForms := [3]string{"нарушение", "нарушения", "нарушений"}
	muteForms := [3]string{"пользователь", "пользователя", "пользователей"}

	text := fmt.Sprintf(messages.MsgChatStatistics,
		msg.ChatID,
		time.Now().Format("02.01.2006 15:04"),
		utils.Plural(stats.SpamViolations, violationForms),
		utils.Plural(stats.WordViolations, violationForms),
		utils.Plural(stats.LinkViolations, violationForms),
		utils.Plural(stats.ForwardViolations, violationForms),
		utils.Plural(stats.MuteCount, muteForms),
		stats.NightTransitions,
		utils.Plural(int64(activeMutes), muteForms),
	)
	h.svc.Notify(ctx, msg.ChatID, text)
}

// failureText maps platform errors to something an admin can act on.
func failureText(format string, err error) string {
	switch {
	case platform.IsPermission(err):
		return messages.MsgNoPermission
	case errors.Is(err, platform.ErrUnsupported):
		return messages.MsgUnsupported
	default:
		return fmt.Sprintf(format, err)
	}
}

// notifyOnce sends text at most once per sender and chat within
// commandNoticeTTL.
func (h *Handler) notifyOnce(ctx context.Context, msg platform.Message, text string) {
	key := noticeKey{chatID: msg.ChatID, userID: msg.From.ID, text: text}
	if _, seen := h.notified.Get(key); seen {
		return
	}
	h.notified.Add(key, struct{}{})
	h.svc.Notify(ctx, msg.ChatID, text)
}
