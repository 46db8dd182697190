package filters

import (
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/registry"
)

// LinkFilter fires on messages the platform marked with a url or text_link entity.
type LinkFilter struct{}

func NewLinkFilter() *LinkFilter {
	return &LinkFilter{}
}

func (f *LinkFilter) Name() string {
	return "link_filter"
}

func (f *LinkFilter) Check(event pipeline.MessageEvent, _ *registry.ModerationConfig) pipeline.Verdict {
	if event.HasLinkEntity {
		return pipeline.VerdictLink
	}
	return pipeline.VerdictClean
}
