package utils

import (
	"strings"

	"github.com/samber/lo"
)

func NormalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// NormalizeWords lowercases and trims words, dropping empties and duplicates
// while keeping the first-seen order.
func NormalizeWords(words []string) []string {
	normalized := lo.FilterMap(words, func(w string, _ int) (string, bool) {
		norm := NormalizeWord(w)
		return norm, norm != ""
	})
	return lo.Uniq(normalized)
}
