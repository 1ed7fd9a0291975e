package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	"github.com/rivo/uniseg"
)

// MenuHint is one key binding shown in the header.
type MenuHint struct {
	Key         string
	Description string
}

// Menu lists the key hints of the current page next to the profile block.
type Menu struct {
	*tview.TextView
	theme *Theme
	rows  int
}

// NewMenu creates a menu that fills columns of rows lines each.
func NewMenu(theme *Theme, rows int) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	if rows < 1 {
		rows = 1
	}
	return &Menu{TextView: tv, theme: theme, rows: rows}
}

// Update replaces the hints. They run top to bottom, then on to the next column.
func (m *Menu) Update(hints []MenuHint) {
	m.SetText(m.render(hints))
}

func (m *Menu) render(hints []MenuHint) string {
	if len(hints) == 0 {
		return ""
	}
	cols := (len(hints) + m.rows - 1) / m.rows
	widths := make([]int, cols)
	for i, h := range hints {
		if w := hintWidth(h); w > widths[i/m.rows] {
			widths[i/m.rows] = w
		}
	}

	kc := ColorName(m.theme.MenuKeyColor)
	var b strings.Builder
	for r := 0; r < min(m.rows, len(hints)); r++ {
		for c := 0; c < cols; c++ {
			i := c*m.rows + r
			if i >= len(hints) {
				break
			}
			h := hints[i]
			fmt.Fprintf(&b, "[%s::b]<%s>[-:-:-] %s", kc, tview.Escape(h.Key), tview.Escape(h.Description))
			if c < cols-1 && i+m.rows < len(hints) {
				b.WriteString(strings.Repeat(" ", widths[c]-hintWidth(h)+2))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// hintWidth is the number of cells "<key> description" takes on screen.
func hintWidth(h MenuHint) int {
	return uniseg.StringWidth(h.Key) + 3 + uniseg.StringWidth(h.Description)
}
