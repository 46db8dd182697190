package filters

import (
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/registry"
)

// ForwardFilter fires on forwarded messages regardless of their text, which
// may be empty for forwarded media.
type ForwardFilter struct{}

func NewForwardFilter() *ForwardFilter {
	return &ForwardFilter{}
}

func (f *ForwardFilter) Name() string {
	return "forward_filter"
}

func (f *ForwardFilter) Check(event pipeline.MessageEvent, _ *registry.ModerationConfig) pipeline.Verdict {
	if event.IsForwarded {
		return pipeline.VerdictForwarded
	}
	return pipeline.VerdictClean
}
