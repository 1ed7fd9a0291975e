package views

import (
	"fmt"

	"github.com/rivo/tview"
	"github.com/skip2/go-qrcode"

	"github.com/matheus3301/letschat/internal/friends"
	"github.com/matheus3301/letschat/internal/tui/ui"
)

// InviteView shows a freshly created invite as a QR code and as text.
type InviteView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewInviteView creates the invite page.
func NewInviteView(theme *ui.Theme) *InviteView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Invite ")
	tv.SetTitleColor(theme.TitleColor)
	return &InviteView{TextView: tv, theme: theme}
}

// Name implements Component.
func (iv *InviteView) Name() string { return "Invite" }

// Start implements Component.
func (iv *InviteView) Start() {}

// Stop implements Component.
func (iv *InviteView) Stop() { iv.Clear() }

// Show renders inv.
func (iv *InviteView) Show(inv friends.Invite) {
	iv.Clear()
	_, _ = fmt.Fprintln(iv)
	if qr, err := qrcode.New(inv.Code, qrcode.Low); err == nil {
		_, _ = fmt.Fprintln(iv, tview.Escape(qr.ToSmallString(false)))
	}
	ct := ui.ColorName(iv.theme.CounterColor)
	_, _ = fmt.Fprintf(iv, "[%s::b]%s[-:-:-]\n\n", ct, tview.Escape(inv.Code))
	_, _ = fmt.Fprintln(iv, "Your friend accepts it with :accept <code> or 'lchatctl invites accept <code>'.")
}
