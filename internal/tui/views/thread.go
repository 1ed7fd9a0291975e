package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/chat"
	"github.com/matheus3301/letschat/internal/tui/ui"
)

// Thread shows one conversation: numbered messages, the typing line and the
// composer.
type Thread struct {
	*tview.Flex
	theme    *ui.Theme
	me       string
	messages *tview.TextView
	typing   *tview.TextView
	composer *tview.InputField

	conv  address.Conversation
	title string
	msgs  []chat.Message

	onSend      func(text string)
	onKeystroke func()
}

// NewThread creates the conversation page for the user me.
func NewThread(theme *ui.Theme, me string) *Thread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	typing := tview.NewTextView().SetDynamicColors(true)
	typing.SetBackgroundColor(theme.BgColor)
	typing.SetTextColor(theme.MutedColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus, Esc to leave) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(typing, 1, 0, false).
		AddItem(composer, 3, 0, false)

	t := &Thread{
		Flex:     flex,
		theme:    theme,
		me:       me,
		messages: messages,
		typing:   typing,
		composer: composer,
	}

	composer.SetChangedFunc(func(text string) {
		if text != "" && t.onKeystroke != nil {
			t.onKeystroke()
		}
	})
	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || t.onSend == nil {
			return
		}
		if text := strings.TrimSpace(composer.GetText()); text != "" {
			composer.SetText("")
			t.onSend(text)
		}
	})
	return t
}

// Name implements Component.
func (t *Thread) Name() string {
	if t.title != "" {
		return t.title
	}
	return "Conversation"
}

// Start implements Component.
func (t *Thread) Start() {}

// Stop clears the page so the next conversation starts empty.
func (t *Thread) Stop() {
	t.msgs = nil
	t.messages.Clear()
	t.typing.Clear()
	t.composer.SetText("")
}

// SetConversation points the page at conv, titled with the peer's name.
func (t *Thread) SetConversation(conv address.Conversation, title string) {
	t.conv = conv
	t.title = title
	t.msgs = nil
	t.messages.Clear()
	t.typing.Clear()
	t.messages.SetTitle(fmt.Sprintf(" %s ", display(title)))
}

// Conversation returns the conversation shown.
func (t *Thread) Conversation() address.Conversation { return t.conv }

// SetOnSend sets the callback for a submitted composer line.
func (t *Thread) SetOnSend(fn func(text string)) { t.onSend = fn }

// SetOnKeystroke sets the callback for composer edits.
func (t *Thread) SetOnKeystroke(fn func()) { t.onKeystroke = fn }

// Composer returns the composer input field (for focus management).
func (t *Thread) Composer() *tview.InputField { return t.composer }

// Messages returns the messages text view (for focus management).
func (t *Thread) Messages() *tview.TextView { return t.messages }

// Message returns the n-th message as numbered on screen, starting at 1.
func (t *Thread) Message(n int) (chat.Message, bool) {
	if n < 1 || n > len(t.msgs) {
		return chat.Message{}, false
	}
	return t.msgs[n-1], true
}

// SetTyping renders the typing status line.
func (t *Thread) SetTyping(status string) {
	t.typing.Clear()
	if status != "" {
		_, _ = fmt.Fprintf(t.typing, " [::i]%s[-:-:-]", display(status))
	}
}

// Update renders msgs, oldest first.
func (t *Thread) Update(msgs []chat.Message) {
	t.msgs = msgs
	t.messages.Clear()
	if len(msgs) == 0 {
		_, _ = fmt.Fprintf(t.messages, "[%s]No messages yet.[-]", ui.ColorName(t.theme.MutedColor))
		return
	}
	for i, m := range msgs {
		_, _ = fmt.Fprint(t.messages, t.format(i+1, m))
	}
	t.messages.ScrollToEnd()
}

func (t *Thread) format(n int, m chat.Message) string {
	color := t.theme.PeerColor
	sender := m.DisplayName
	switch m.SenderID {
	case t.me:
		color, sender = t.theme.OwnColor, "You"
	case address.BotID:
		color = t.theme.BotColor
	}
	if sender == "" {
		sender = m.SenderID
	}
	muted := ui.ColorName(t.theme.MutedColor)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]#%d[-] [%s::b]%s[-:-:-] [%s]%s[-]", muted, n, ui.ColorName(color), display(sender), muted, formatTime(m.CreatedAt))
	if m.SenderID == t.me && t.conv.HasReceipts() {
		b.WriteString(" " + receipt(m))
	}
	b.WriteString("\n")

	switch {
	case m.Deleted:
		fmt.Fprintf(&b, "[%s::i]%s[-:-:-]", muted, display(m.Body()))
	case m.Kind() == chat.KindImage:
		fmt.Fprintf(&b, "[image] %s [%s]%s[-]", display(m.Body()), muted, display(m.MediaRef()))
	default:
		b.WriteString(display(m.Body()))
	}
	if m.Edited && !m.Deleted {
		fmt.Fprintf(&b, " [%s](edited)[-]", muted)
	}
	if emojis := m.Emojis(); len(emojis) > 0 && !m.Deleted {
		b.WriteString("\n ")
		for _, e := range emojis {
			mark := ""
			if m.ReactedBy(e, t.me) {
				mark = "*"
			}
			fmt.Fprintf(&b, " %s %d%s", display(e), len(m.Reactions[e]), mark)
		}
	}
	b.WriteString("\n\n")
	return b.String()
}

func receipt(m chat.Message) string {
	switch {
	case m.Read:
		return "[blue]✓✓[-]"
	case m.Delivered:
		return "✓✓"
	default:
		return "✓"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02 15:04")
}
