package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/letschat/internal/presence"
	"github.com/matheus3301/letschat/internal/tui/ui"
)

// ContactInfo displays the details of one contact.
type ContactInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewContactInfo creates the details page.
func NewContactInfo(theme *ui.Theme) *ContactInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)
	return &ContactInfo{TextView: tv, theme: theme}
}

// Name implements Component.
func (ci *ContactInfo) Name() string { return "Details" }

// Start implements Component.
func (ci *ContactInfo) Start() {}

// Stop implements Component.
func (ci *ContactInfo) Stop() {}

// Update renders c.
func (ci *ContactInfo) Update(c presence.Contact, now time.Time) {
	ci.Clear()
	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)
	row := func(label, value string) {
		_, _ = fmt.Fprintf(ci, " [%s::b]%-10s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, display(value))
	}

	_, _ = fmt.Fprintln(ci)
	row("Name", c.Name)
	row("ID", c.ID)
	if c.Fixed {
		row("Type", "shared")
	} else {
		row("Status", statusText(c, now))
		friend := "no (press a to add)"
		if c.Friend {
			friend = "yes"
		}
		row("Friend", friend)
	}
	if c.Photo != "" {
		row("Photo", c.Photo)
	}
	ci.SetTitle(fmt.Sprintf(" %s ", display(c.Name)))
}
