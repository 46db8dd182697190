package pipeline

import "github.com/nikalaichik/moderator-bot/internal/registry"

// ContentFilter runs filters in order and stops at the first one that fires.
type ContentFilter struct {
	filters []Filter
}

func NewContentFilter(filters ...Filter) *ContentFilter {
	return &ContentFilter{filters: filters}
}

func (c *ContentFilter) Classify(event MessageEvent, cfg *registry.ModerationConfig) Verdict {
	for _, f := range c.filters {
		if v := f.Check(event, cfg); v != VerdictClean {
			return v
		}
	}
	return VerdictClean
}
