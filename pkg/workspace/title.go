package workspace

import "github.com/parleyhq/parley/pkg/models"

const (
	titleMaxLen   = 48
	titleCutLen   = 45
	titleEllipsis = "..."
)

// deriveTitle computes a conversation title from the first prompt. While
// the title is still the type-specific default it is replaced with the
// trimmed prompt, truncated to 45 characters plus "..." when longer than 48.
// A customized title is never overwritten.
func deriveTitle(current, convType, prompt string) string {
	if current != models.DefaultTitle(convType) {
		return current
	}
	r := []rune(prompt)
	if len(r) > titleMaxLen {
		return string(r[:titleCutLen]) + titleEllipsis
	}
	return prompt
}
