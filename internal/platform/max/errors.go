package max

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/nikalaichik/moderator-bot/internal/platform"
)

// The MAX client reports API failures as text carrying the HTTP status and
// the API error code, so classification works on the message.
var (
	permissionMarkers = []string{"403", "forbidden", "access.denied", "chat.denied", "not.admin", "not enough rights"}
	transientMarkers  = []string{"429", "too.many.requests", "502", "503", "504", "timeout"}
)

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &platform.TransientError{Op: op, Err: err}
	}

	text := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(text, m) {
			return &platform.TransientError{Op: op, Err: err}
		}
	}
	for _, m := range permissionMarkers {
		if strings.Contains(text, m) {
			return &platform.PermissionError{Op: op, Err: err}
		}
	}
	return err
}
