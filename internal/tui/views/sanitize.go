package views

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/tview"
)

// sanitizeForTerminal drops codepoints that tcell renders at the wrong width:
// skin tone modifiers, zero width joiners and variation selectors. A composed
// emoji degrades to its base glyph.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}

// display prepares user text for a dynamic-color view.
func display(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}
