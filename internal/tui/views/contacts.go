package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/letschat/internal/presence"
	"github.com/matheus3301/letschat/internal/tui/ui"
)

// ContactList is the main page: feeds, the bot and every other user.
type ContactList struct {
	*tview.Table
	theme    *ui.Theme
	contacts []presence.Contact
	query    string
}

// NewContactList creates the contact table.
func NewContactList(theme *ui.Theme) *ContactList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)
	return &ContactList{Table: table, theme: theme}
}

// Name implements Component.
func (cl *ContactList) Name() string { return "Contacts" }

// Start implements Component.
func (cl *ContactList) Start() {}

// Stop implements Component.
func (cl *ContactList) Stop() {}

// Update replaces the rows. query is the search that produced contacts.
// The selected contact keeps its selection when it is still listed.
func (cl *ContactList) Update(contacts []presence.Contact, query string, now time.Time) {
	prev, hadPrev := cl.Selected()
	cl.contacts = contacts
	cl.query = query
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 2},
		{" ID", 1},
		{" STATUS", 1},
		{" FRIEND", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	selected := 1
	for i, c := range contacts {
		row := i + 1
		status, color := statusText(c, now), cl.theme.MutedColor
		if c.Online && !c.Fixed {
			color = cl.theme.OnlineColor
		}
		friend := ""
		if c.Friend {
			friend = "*"
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+display(c.Name)).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+display(c.ID)).SetExpansion(1).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+status).SetExpansion(1).SetTextColor(color))
		cl.SetCell(row, 3, tview.NewTableCell(friend).SetAlign(tview.AlignCenter).SetTextColor(cl.theme.CounterColor))
		if hadPrev && c.ID == prev.ID {
			selected = row
		}
	}
	if len(contacts) > 0 {
		cl.Select(selected, 0)
	}

	if query != "" {
		cl.SetTitle(fmt.Sprintf(" Contacts (%d) search: %s ", len(contacts), tview.Escape(query)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Contacts (%d) ", len(contacts)))
	}
}

// Query returns the search shown in the title.
func (cl *ContactList) Query() string { return cl.query }

// Selected returns the contact under the cursor.
func (cl *ContactList) Selected() (presence.Contact, bool) {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cl.contacts) {
		return presence.Contact{}, false
	}
	return cl.contacts[idx], true
}

func statusText(c presence.Contact, now time.Time) string {
	switch {
	case c.Fixed:
		return ""
	case c.Online:
		return "online"
	default:
		return "last seen " + presence.LastSeen(c.LastSeen, now)
	}
}
