package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/letschat/internal/app"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/chat"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/presence"
	"github.com/matheus3301/letschat/internal/status"
	"github.com/matheus3301/letschat/internal/subscription"
	"github.com/matheus3301/letschat/internal/tui/keys"
	"github.com/matheus3301/letschat/internal/tui/ui"
	"github.com/matheus3301/letschat/internal/tui/views"
)

const (
	pageContacts = "contacts"
	pageThread   = "thread"
	pageInfo     = "info"
	pageHelp     = "help"
	pageInvite   = "invite"

	modalConfirm = "confirm"
	modalRestore = "restore"

	promptHeight = 3
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	session  *app.Session
	profile  string
	logger   *zap.Logger
	registry *keys.Registry

	pages    *ui.Pages
	body     *tview.Flex
	header   *ui.Header
	crumbs   *ui.Crumbs
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	prompt   *ui.Prompt

	contacts *views.ContactList
	thread   *views.Thread
	info     *views.ContactInfo
	help     *views.HelpView
	invite   *views.InviteView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI for a session that has not signed in yet.
func NewApp(s *app.Session, profileName string, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		session:  s,
		profile:  profileName,
		logger:   logger.Named("tui"),
		registry: keys.NewRegistry(),
		pages:    ui.NewPages(),
		header:   ui.NewHeader(theme),
		crumbs:   ui.NewCrumbs(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		prompt:   ui.NewPrompt(theme),
		contacts: views.NewContactList(theme),
		thread:   views.NewThread(theme, s.Me().ID),
		info:     views.NewContactInfo(theme),
		help:     views.NewHelpView(theme),
		invite:   views.NewInviteView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.pages.Push(pageContacts)
	a.updateHeader()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(keys.Rune(':', "Command", func() { a.showPrompt(ui.PromptCommand, "") }))
	a.registry.AddGlobal(keys.Rune('?', "Help", func() {
		if a.pages.Current() != pageHelp {
			a.pages.Push(pageHelp)
			a.focusCurrent()
		}
	}))

	a.registry.Add(pageContacts, keys.Key(tcell.KeyEnter, "Open", a.openSelected))
	a.registry.Add(pageContacts, keys.Rune('/', "Search", func() { a.showPrompt(ui.PromptFilter, a.contacts.Query()) }))
	a.registry.Add(pageContacts, keys.Rune('d', "Details", a.showDetails))
	a.registry.Add(pageContacts, keys.Rune('a', "Add friend", func() {
		if c, ok := a.contacts.Selected(); ok {
			a.addFriend(c.ID)
		}
	}))
	a.registry.Add(pageContacts, keys.Rune('r', "Remove friend", func() {
		if c, ok := a.contacts.Selected(); ok {
			a.removeFriend(c.ID)
		}
	}))
	a.registry.Add(pageContacts, keys.Rune('n', "New invite", a.createInvite))
	a.registry.Add(pageContacts, keys.Rune('q', "Quit", a.app.Stop))

	a.registry.Add(pageInfo, keys.Key(tcell.KeyEnter, "Open", func() {
		if c, ok := a.contacts.Selected(); ok {
			a.openContact(c)
		}
	}))
	a.registry.Add(pageThread, keys.Rune('i', "Compose", func() { a.app.SetFocus(a.thread.Composer()) }))
	for _, page := range []string{pageThread, pageInfo, pageHelp, pageInvite} {
		a.registry.Add(page, keys.Key(tcell.KeyEscape, "Back", a.back))
	}
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(_ ui.Component, titles []string) {
		a.crumbs.Update(titles)
		a.header.SetHints(a.registry.Hints(a.pages.Current()))
	})

	a.thread.SetOnKeystroke(a.session.Keystroke)
	a.thread.SetOnSend(func(text string) {
		a.do("send", func(ctx context.Context) error {
			_, err := a.session.Send(ctx, text)
			return err
		})
	})

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.search(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptCommand && strings.TrimSpace(text) != "" {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.search("")
		}
		a.hidePrompt()
	})
}

func (a *App) setupLayout() {
	a.pages.Add(pageContacts, a.contacts, a.contacts)
	a.pages.Add(pageThread, a.thread, a.thread)
	a.pages.Add(pageInfo, a.info, a.info)
	a.pages.Add(pageHelp, a.help, a.help)
	a.pages.Add(pageInvite, a.invite, a.invite)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, ui.HeaderHeight, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.app.SetRoot(a.body, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.pages.ModalOpen() {
			return event
		}
		switch a.app.GetFocus() {
		case a.prompt.InputField:
			return event
		case a.thread.Composer():
			if event.Key() == tcell.KeyEscape {
				a.app.SetFocus(a.thread.Messages())
				return nil
			}
			return event
		}
		if a.registry.HandleEvent(a.pages.Current(), event) {
			return nil
		}
		if event.Key() == tcell.KeyEscape && a.contacts.Query() != "" {
			a.search("")
			return nil
		}
		return event
	})
}

// Run signs in and blocks until the user quits.
func (a *App) Run() error {
	events, unsub := a.session.Bus().Subscribe("", 256)
	defer unsub()
	defer a.cancel()

	go a.watchEvents(events)
	go a.watchFlash()
	go func() {
		if _, err := a.session.SignIn(a.ctx); err != nil {
			a.logger.Error("sign in failed", zap.Error(err))
			a.flash.Err(err)
		}
	}()
	return a.app.Run()
}

func (a *App) watchEvents(events <-chan bus.Event) {
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-events:
			a.app.QueueUpdateDraw(func() { a.handleEvent(evt) })
		}
	}
}

// watchFlash redraws the flash bar on new messages and once a second so
// expired ones disappear. Last-seen labels are refreshed every 30 seconds.
func (a *App) watchFlash() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	ticks := 0
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.flash.Watch():
		case <-ticker.C:
			ticks++
			if ticks%30 == 0 {
				a.app.QueueUpdateDraw(a.refreshContacts)
			}
		}
		a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.MessagesChanged:
		if upd, ok := evt.Payload.(subscription.Update); ok && a.showing(upd.Conversation.Address) {
			a.thread.Update(upd.Messages)
		}
	case bus.TypingChanged:
		if upd, ok := evt.Payload.(subscription.TypingUpdate); ok && a.showing(upd.Conversation.Address) {
			a.thread.SetTyping(upd.Status)
		}
	case bus.PresenceChanged, bus.FriendsChanged:
		a.refreshContacts()
	case bus.ConfirmationNeeded:
		if req, ok := evt.Payload.(confirm.Request); ok {
			a.showConfirm(req)
		}
	case bus.ConfirmationSettled:
		if d, ok := evt.Payload.(confirm.Decision); ok && d.Accepted && d.Err == nil {
			a.flash.Info(settledText(d.Request.Action))
		}
	case bus.RestoreChoiceNeeded:
		a.showRestore()
	case bus.MessageWriteFailed:
		if err, ok := evt.Payload.(error); ok {
			a.flash.Err(err)
		}
	default:
		if change, ok := evt.Payload.(status.Change); ok && change.Machine == "session" {
			a.updateHeader()
			if change.To == status.Online {
				a.refreshContacts()
			}
		}
	}
}

func settledText(action string) string {
	switch action {
	case confirm.DeleteMessage:
		return "Message deleted"
	case confirm.HideMessage:
		return "Message hidden"
	case confirm.RemoveFriend:
		return "Friend removed"
	case confirm.WipeAccount:
		return "Account erased"
	default:
		return "Done"
	}
}

func (a *App) showing(addr string) bool {
	return a.pages.Current() == pageThread && a.thread.Conversation().Address == addr
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case pageThread:
		a.app.SetFocus(a.thread.Messages())
	case pageInfo:
		a.app.SetFocus(a.info)
	case pageHelp:
		a.app.SetFocus(a.help)
	case pageInvite:
		a.app.SetFocus(a.invite)
	default:
		a.app.SetFocus(a.contacts)
	}
}

func (a *App) back() {
	if a.pages.Current() == pageThread {
		a.session.CloseConversation()
	}
	a.pages.Pop()
	a.focusCurrent()
}

func (a *App) showPrompt(mode ui.PromptMode, text string) {
	a.body.ResizeItem(a.prompt, promptHeight, 0)
	a.prompt.Activate(mode, text)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.body.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) search(query string) {
	if a.pages.Current() != pageContacts {
		a.leaveConversation()
	}
	a.contacts.Update(a.session.Directory().Contacts(query), query, time.Now())
}

func (a *App) leaveConversation() {
	if a.pages.Current() == pageContacts {
		return
	}
	a.session.CloseConversation()
	a.pages.Reset(pageContacts)
	a.focusCurrent()
}

func (a *App) refreshContacts() {
	if a.session.State() != status.Online {
		return
	}
	now := time.Now()
	list := a.session.Directory().Contacts(a.contacts.Query())
	a.contacts.Update(list, a.contacts.Query(), now)
	if a.pages.Current() == pageInfo {
		if c, ok := a.contacts.Selected(); ok {
			a.info.Update(c, now)
		}
	}
	a.updateHeader()
}

func (a *App) updateHeader() {
	me := a.session.Me()
	p := ui.Profile{
		Profile: a.profile,
		UserID:  me.ID,
		Name:    me.Name,
		Status:  string(a.session.State()),
		Friends: len(a.session.Friends().Friends()),
	}
	for _, c := range a.session.Directory().Contacts("") {
		if c.Online && !c.Fixed {
			p.Online++
		}
	}
	a.header.SetProfile(p)
}

func (a *App) openSelected() {
	if c, ok := a.contacts.Selected(); ok {
		a.openContact(c)
	}
}

func (a *App) openContact(c presence.Contact) {
	sub, err := a.session.Open(c.ID, subscription.Handlers{})
	if err != nil {
		a.flash.Err(err)
		return
	}
	a.thread.SetConversation(sub.Conversation(), c.Name)
	a.thread.Update(sub.Messages())
	a.thread.SetTyping(sub.TypingStatus())
	a.pages.Push(pageThread)
	a.app.SetFocus(a.thread.Composer())
}

func (a *App) showDetails() {
	c, ok := a.contacts.Selected()
	if !ok {
		return
	}
	a.info.Update(c, time.Now())
	a.pages.Push(pageInfo)
	a.focusCurrent()
}

// do runs fn off the UI goroutine and flashes its error.
func (a *App) do(what string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(a.ctx); err != nil {
			a.logger.Warn(what+" failed", zap.Error(err))
			a.flash.Err(fmt.Errorf("%s: %w", what, err))
		}
	}()
}

func (a *App) showConfirm(req confirm.Request) {
	modal := tview.NewModal().
		SetText(req.Prompt).
		AddButtons([]string{"Cancel", "Confirm"}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.HideModal(modalConfirm)
			a.focusCurrent()
			go a.resolve(req, label == "Confirm")
		})
	a.pages.ShowModal(modalConfirm, modal)
	a.app.SetFocus(modal)
}

func (a *App) resolve(req confirm.Request, accept bool) {
	err := a.session.Resolve(a.ctx, req.ID, accept)
	a.app.QueueUpdateDraw(func() {
		if err != nil {
			a.flash.Err(err)
		}
		var retry *confirm.RetryableError
		if errors.As(err, &retry) {
			a.showConfirm(retry.Request)
			return
		}
		if pending := a.session.Gate().Pending(); len(pending) > 0 {
			a.showConfirm(pending[0])
			return
		}
		if a.session.State() == status.AwaitingRestore {
			a.showRestore()
		}
	})
}

func (a *App) showRestore() {
	modal := tview.NewModal().
		SetText("You signed out last time. Restore your friends and conversations, or erase everything and start fresh?").
		AddButtons([]string{"Restore", "Start fresh", "Quit"}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.HideModal(modalRestore)
			a.focusCurrent()
			switch label {
			case "Restore":
				a.do("restore", a.session.ChooseRestore)
			case "Start fresh":
				if _, err := a.session.ChooseStartFresh(); err != nil {
					a.flash.Err(err)
					a.showRestore()
				}
			default:
				a.app.Stop()
			}
		})
	a.pages.ShowModal(modalRestore, modal)
	a.app.SetFocus(modal)
}

func (a *App) threadMessage(n int) (chat.Message, error) {
	if a.pages.Current() != pageThread {
		return chat.Message{}, errors.New("open a conversation first")
	}
	msg, ok := a.thread.Message(n)
	if !ok {
		return chat.Message{}, fmt.Errorf("no message #%d", n)
	}
	return msg, nil
}

func (a *App) runCommand(cmd Command) {
	var err error
	switch cmd.Name {
	case "q", "quit":
		a.app.Stop()
	case "h", "help":
		a.pages.Push(pageHelp)
		a.focusCurrent()
	case "search":
		a.search(cmd.Args)
	case "edit":
		err = a.editMessage(cmd)
	case "delete", "del":
		err = a.deleteMessage(cmd)
	case "react":
		err = a.react(cmd)
	case "image", "img":
		err = a.sendImage(cmd)
	case "add":
		var id string
		if id, err = cmd.Arg("user id"); err == nil {
			a.addFriend(id)
		}
	case "remove", "rm":
		var id string
		if id, err = cmd.Arg("user id"); err == nil {
			a.removeFriend(id)
		}
	case "invite":
		a.createInvite()
	case "accept":
		var code string
		if code, err = cmd.Arg("code"); err == nil {
			a.acceptInvite(code)
		}
	case "signout":
		a.signOut()
	case "wipe":
		a.session.Friends().RequestWipe()
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
	if err != nil {
		a.flash.Err(err)
	}
}

func (a *App) editMessage(cmd Command) error {
	n, text, err := cmd.Index()
	if err != nil {
		return err
	}
	msg, err := a.threadMessage(n)
	if err != nil {
		return err
	}
	a.do("edit", func(ctx context.Context) error {
		return a.session.Engine().Edit(ctx, msg.ID, text)
	})
	return nil
}

func (a *App) deleteMessage(cmd Command) error {
	n, _, err := cmd.Index()
	if err != nil {
		return err
	}
	msg, err := a.threadMessage(n)
	if err != nil {
		return err
	}
	a.do("delete", func(ctx context.Context) error {
		_, err := a.session.Engine().RequestDelete(ctx, msg.ID)
		return err
	})
	return nil
}

func (a *App) react(cmd Command) error {
	n, emoji, err := cmd.Index()
	if err != nil {
		return err
	}
	msg, err := a.threadMessage(n)
	if err != nil {
		return err
	}
	a.do("react", func(ctx context.Context) error {
		_, err := a.session.Engine().ToggleReaction(ctx, msg.ID, emoji)
		return err
	})
	return nil
}

func (a *App) sendImage(cmd Command) error {
	ref, caption, _ := strings.Cut(cmd.Args, " ")
	if ref == "" {
		return errors.New("usage: :image <url or file> [caption]")
	}
	if caption = strings.TrimSpace(caption); caption == "" {
		caption = filepath.Base(ref)
	}
	a.do("send image", func(ctx context.Context) error {
		_, err := a.session.SendImage(ctx, ref, caption)
		return err
	})
	return nil
}

func (a *App) addFriend(id string) {
	a.do("add friend", func(ctx context.Context) error {
		if err := a.session.Friends().Add(ctx, id); err != nil {
			return err
		}
		a.flash.Info("You and " + id + " are now friends")
		return nil
	})
}

func (a *App) removeFriend(id string) {
	if _, err := a.session.Friends().RequestRemove(id); err != nil {
		a.flash.Err(err)
	}
}

func (a *App) createInvite() {
	a.do("create invite", func(ctx context.Context) error {
		inv, err := a.session.Friends().CreateInvite(ctx)
		if err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() {
			a.invite.Show(inv)
			if a.pages.Current() != pageInvite {
				a.pages.Push(pageInvite)
			}
			a.focusCurrent()
		})
		return nil
	})
}

func (a *App) acceptInvite(code string) {
	a.do("accept invite", func(ctx context.Context) error {
		inv, err := a.session.Friends().AcceptInvite(ctx, code)
		if err != nil {
			return err
		}
		a.flash.Info("You and " + inv.Name + " are now friends")
		return nil
	})
}

func (a *App) signOut() {
	a.do("sign out", func(ctx context.Context) error {
		err := a.session.SignOut(ctx)
		if err == nil {
			a.app.Stop()
		}
		return err
	})
}
