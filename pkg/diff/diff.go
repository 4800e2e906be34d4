// Package diff renders compact inline diffs for drifted field values in
// plan previews.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxInlineLen caps rendered values so option dumps stay readable.
const maxInlineLen = 120

// Inline renders a word-level diff between two field values using
// [-removed-] and {+added+} markers. Returns empty string when the values
// are identical.
func Inline(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(d.Text)
			b.WriteString("+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return clip(b.String())
}

// Field renders a named field change as a single line.
func Field(name, before, after string) string {
	rendered := Inline(before, after)
	if rendered == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", name, rendered)
}

func clip(s string) string {
	if len(s) <= maxInlineLen {
		return s
	}
	return s[:maxInlineLen] + "..."
}
