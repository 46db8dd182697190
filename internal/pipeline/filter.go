package pipeline

import "github.com/nikalaichik/moderator-bot/internal/registry"

// Verdict is the outcome of content classification.
type Verdict int

const (
	VerdictClean Verdict = iota
	VerdictForbiddenWord
	VerdictLink
	VerdictForwarded
)

func (v Verdict) String() string {
	switch v {
	case VerdictForbiddenWord:
		return "forbidden_word"
	case VerdictLink:
		return "link"
	case VerdictForwarded:
		return "forwarded"
	default:
		return "clean"
	}
}

// Filter is a stateless content check. It returns VerdictClean when the
// message passes.
type Filter interface {
	Name() string
	Check(event MessageEvent, cfg *registry.ModerationConfig) Verdict
}
