package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/letschat/internal/tui/ui"
)

// HelpView displays the key and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates the help page.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{TextView: tv, theme: theme}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Start implements Component.
func (hv *HelpView) Start() {}

// Stop implements Component.
func (hv *HelpView) Stop() {}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Contacts", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Search contacts by name"},
		{"d", "Contact details"},
		{"a / r", "Add / remove friend"},
	}},
	{"Conversation", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
		{"Esc", "Leave composer, then go back"},
	}},
	{"Commands", [][2]string{
		{":edit N text", "Edit your message #N"},
		{":delete N", "Delete message #N"},
		{":react N emoji", "Toggle a reaction on #N"},
		{":image ref [caption]", "Send an image (URL or file)"},
		{":add id / :remove id", "Manage friends"},
		{":invite / :accept code", "Share or accept an invite"},
		{":signout / :wipe", "Sign out / erase the account"},
		{":quit", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-24s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
