package telegram

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	"github.com/go-telegram/bot"
)

// Bad Request descriptions Telegram uses when the bot lacks admin rights.
var rightsDescriptions = []string{
	"not enough rights",
	"chat_admin_required",
	"have no rights",
	"can't remove chat owner",
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case bot.IsTooManyRequestsError(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return &platform.TransientError{Op: op, Err: err}
	case errors.Is(err, bot.ErrorForbidden):
		return &platform.PermissionError{Op: op, Err: err}
	case errors.Is(err, bot.ErrorBadRequest):
		desc := strings.ToLower(err.Error())
		for _, d := range rightsDescriptions {
			if strings.Contains(desc, d) {
				return &platform.PermissionError{Op: op, Err: err}
			}
		}
	}
	return err
}
