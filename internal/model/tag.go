package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Tag struct {
	ID      int64  `db:"id"`
	MediaID int64  `db:"media_id"`
	Text    string `db:"tag"`     // Always lower-cased
	Counter int64  `db:"counter"` // Selection feedback, only ever incremented
}

// NormalizeTag trims and lower-cases a tag so "Cat" and "cat" share one row.
func NormalizeTag(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// SplitTags tokenizes free text on whitespace, normalizing each token and
// dropping empties and repeats while preserving order.
func SplitTags(text string) []string {
	fields := strings.Fields(text)
	tags := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tag := NormalizeTag(f)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
