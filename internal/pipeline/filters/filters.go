package filters

import "github.com/nikalaichik/moderator-bot/internal/pipeline"

// Default returns the content filters in their fixed precedence order.
func Default() *pipeline.ContentFilter {
	return pipeline.NewContentFilter(
		NewWordFilter(),
		NewLinkFilter(),
		NewForwardFilter(),
	)
}
