package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// HeaderHeight is the number of rows the header occupies.
const HeaderHeight = 6

// Profile is the identity block shown in the header.
type Profile struct {
	Profile string
	UserID  string
	Name    string
	Status  string
	Friends int
	Online  int
}

// Header shows the signed-in profile, the key hints of the current page and
// the logo.
type Header struct {
	*tview.Flex
	theme *Theme
	info  *tview.TextView
	menu  *Menu
}

// NewHeader creates the header bar.
func NewHeader(theme *Theme) *Header {
	info := tview.NewTextView().SetDynamicColors(true)
	info.SetBackgroundColor(theme.BgColor)
	info.SetBorderPadding(0, 0, 1, 1)

	logo := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignRight)
	logo.SetBackgroundColor(theme.BgColor)
	logo.SetBorderPadding(0, 0, 0, 1)
	tc := ColorName(theme.TitleColor)
	_, _ = fmt.Fprintf(logo,
		"[%s::b]┬  ┌─┐┌┬┐┌─┐┌─┐┬ ┬┌─┐┌┬┐[-:-:-]\n"+
			"[%s::b]│  ├┤  │ └─┐│  ├─┤├─┤ │ [-:-:-]\n"+
			"[%s::b]┴─┘└─┘ ┴ └─┘└─┘┴ ┴┴ ┴ ┴ [-:-:-]",
		tc, tc, tc)

	h := &Header{
		Flex:  tview.NewFlex(),
		theme: theme,
		info:  info,
		menu:  NewMenu(theme, HeaderHeight),
	}
	h.SetBackgroundColor(theme.BgColor)
	h.AddItem(info, 0, 1, false).
		AddItem(h.menu, 0, 1, false).
		AddItem(logo, 28, 0, false)
	return h
}

// SetProfile renders the identity block.
func (h *Header) SetProfile(p Profile) {
	h.info.Clear()
	fg := ColorName(h.theme.FgColor)
	ct := ColorName(h.theme.CounterColor)
	row := func(label, value string) {
		_, _ = fmt.Fprintf(h.info, "[%s::b]%-8s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, tview.Escape(value))
	}
	row("Profile", p.Profile)
	row("User", fmt.Sprintf("%s (%s)", p.Name, p.UserID))
	row("Status", p.Status)
	row("Friends", fmt.Sprint(p.Friends))
	row("Online", fmt.Sprint(p.Online))
}

// SetHints renders the key hints of the current page.
func (h *Header) SetHints(hints []MenuHint) {
	h.menu.Update(hints)
}
