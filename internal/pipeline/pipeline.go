package pipeline

import (
	"github.com/nikalaichik/moderator-bot/internal/activity"
	"github.com/nikalaichik/moderator-bot/internal/registry"
)

// Pipeline turns one message event into one Decision. It never talks to the
// platform: deletion, muting and notices are applied by the caller.
type Pipeline struct {
	registry *registry.Registry
	windows  *activity.Store
	content  *ContentFilter
}

func New(reg *registry.Registry, windows *activity.Store, content *ContentFilter) *Pipeline {
	return &Pipeline{
		registry: reg,
		windows:  windows,
		content:  content,
	}
}

// Evaluate short-circuits at the first exemption or verdict:
// admin, closed night chat, spam window (new messages only), then content
// filters.
func (p *Pipeline) Evaluate(event MessageEvent) Decision {
	if event.IsAdmin {
		return Allow()
	}

	snap := p.registry.Snapshot(event.ChatID)
	if snap.Night.Enabled && snap.Night.Phase == registry.PhaseClosed {
		// the platform-level restriction already covers closed chats
		return Allow()
	}

	cfg := snap.Config
	if !event.IsEdited {
		_, over := p.windows.RecordAndCheck(event.ChatID, event.UserID, event.Timestamp, cfg.SpamMessageLimit, cfg.SpamWindowSeconds)
		if over {
			p.windows.Reset(event.ChatID, event.UserID)
			return DeleteAndMute(ReasonSpam, cfg.SpamMuteDurationHours)
		}
	}

	if v := p.content.Classify(event, cfg); v != VerdictClean {
		return DeleteOnly(reasonFor(v))
	}
	return Allow()
}
