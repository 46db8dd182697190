package filters

import (
	"strings"

	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/registry"
)

// WordFilter fires when any forbidden word is a substring of the lowercased
// text. Matching is raw containment, so a word also matches inside longer
// words ("ass" in "class"); word lists are curated with that in mind.
type WordFilter struct{}

func NewWordFilter() *WordFilter {
	return &WordFilter{}
}

func (f *WordFilter) Name() string {
	return "word_filter"
}

func (f *WordFilter) Check(event pipeline.MessageEvent, cfg *registry.ModerationConfig) pipeline.Verdict {
	if event.Text == "" || len(cfg.ForbiddenWords) == 0 {
		return pipeline.VerdictClean
	}
	lowerMsg := strings.ToLower(event.Text)
	for _, word := range cfg.ForbiddenWords {
		if strings.Contains(lowerMsg, word) {
			return pipeline.VerdictForbiddenWord
		}
	}
	return pipeline.VerdictClean
}
