// Package app composes the client-side engines into one signed-in session:
// presence, friends, the contact directory, the conversation engine and the
// single attached conversation.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/chat"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/friends"
	"github.com/matheus3301/letschat/internal/outbox"
	"github.com/matheus3301/letschat/internal/presence"
	"github.com/matheus3301/letschat/internal/responder"
	"github.com/matheus3301/letschat/internal/status"
	"github.com/matheus3301/letschat/internal/subscription"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNotOnline is returned by conversation operations before sign-in completes.
var ErrNotOnline = errors.New("session is not online")

// LocalCache is the per-profile state that survives restarts.
type LocalCache interface {
	friends.Cache
	SignedOut() (bool, error)
	SetSignedOut(v bool) error
}

// Options configures a Session. Store, Cache, Me and Logger are required.
type Options struct {
	Store          tree.Store
	Cache          LocalCache
	Me             address.Identity
	Clock          clock.Clock
	Bus            *bus.Bus
	Logger         *zap.Logger
	TypingDebounce time.Duration
	BotDelay       time.Duration
}

// Session is one signed-in client.
type Session struct {
	opts    Options
	machine *status.Machine

	gate      *confirm.Gate
	outbox    *outbox.Writer
	presence  *presence.Coordinator
	directory *presence.Directory
	friends   *friends.Manager
	bot       *responder.Sessions
	engine    *chat.Engine
	subs      *subscription.Manager

	mu     sync.Mutex
	typing *address.Conversation
}

// New wires the session components. Nothing touches the store until SignIn.
func New(opts Options) (*Session, error) {
	if err := opts.Me.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil || opts.Cache == nil {
		return nil, errors.New("app: store and cache are required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Bus == nil {
		opts.Bus = bus.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.With(zap.String("user", opts.Me.ID))

	s := &Session{
		opts:    opts,
		machine: status.NewMachine("session", status.SignedOut, status.SessionTable, opts.Bus),
		gate:    confirm.NewGate(opts.Bus, logger),
		outbox:  outbox.NewWriter(logger.Named("outbox"), 256),
		bot:     responder.NewSessions(opts.Clock),
	}
	s.presence = presence.New(presence.Config{
		Store:    opts.Store,
		Me:       opts.Me,
		Clock:    opts.Clock,
		Outbox:   s.outbox,
		Logger:   logger.Named("presence"),
		Debounce: opts.TypingDebounce,
	})

	fm, err := friends.New(friends.Config{
		Store:  opts.Store,
		Me:     opts.Me,
		Cache:  opts.Cache,
		Gate:   s.gate,
		Bus:    opts.Bus,
		Clock:  opts.Clock,
		Logger: logger.Named("friends"),
	})
	if err != nil {
		return nil, err
	}
	s.friends = fm
	s.directory = presence.NewDirectory(opts.Store, opts.Me.ID, fm.IsFriend, opts.Bus, logger.Named("directory"))

	s.engine = chat.NewEngine(chat.Config{
		Store:    opts.Store,
		Me:       opts.Me,
		Clock:    opts.Clock,
		Gate:     s.gate,
		Bus:      opts.Bus,
		Logger:   logger.Named("chat"),
		Bot:      s.bot,
		Typing:   s.presence,
		Friends:  fm,
		BotDelay: opts.BotDelay,
	})
	s.subs = subscription.NewManager(subscription.Config{
		Store:    opts.Store,
		Me:       opts.Me.ID,
		Receipts: s.engine,
		Filter:   s.engine,
		Outbox:   s.outbox,
		Bus:      opts.Bus,
		Logger:   logger.Named("subscription"),
	})
	s.engine.OnHidden(func() {
		if sub := s.subs.Active(); sub != nil {
			sub.Republish()
		}
	})

	s.outbox.Start(context.Background())
	return s, nil
}

// State returns the session lifecycle state.
func (s *Session) State() status.State { return s.machine.Current() }

// Me returns the signed-in identity.
func (s *Session) Me() address.Identity { return s.opts.Me }

// Bus returns the event bus frontends subscribe to.
func (s *Session) Bus() *bus.Bus { return s.opts.Bus }

// Engine returns the conversation engine.
func (s *Session) Engine() *chat.Engine { return s.engine }

// Friends returns the friend manager.
func (s *Session) Friends() *friends.Manager { return s.friends }

// Directory returns the contact directory.
func (s *Session) Directory() *presence.Directory { return s.directory }

// Gate returns the confirmation gate.
func (s *Session) Gate() *confirm.Gate { return s.gate }

// SignIn starts the session. When the previous run ended with an explicit
// sign-out the session parks in AWAITING_RESTORE_CHOICE, emits
// RestoreChoiceNeeded and returns needChoice; the frontend then calls
// ChooseRestore or ChooseStartFresh.
func (s *Session) SignIn(ctx context.Context) (needChoice bool, err error) {
	signedOut, err := s.opts.Cache.SignedOut()
	if err != nil {
		return false, fmt.Errorf("read sign-out flag: %w", err)
	}
	if signedOut {
		if err := s.machine.Transition(status.AwaitingRestore); err != nil {
			return false, err
		}
		s.opts.Bus.Emit(bus.RestoreChoiceNeeded, s.opts.Me.ID)
		return true, nil
	}
	if err := s.machine.Transition(status.Restoring); err != nil {
		return false, err
	}
	return false, s.restore(ctx, status.SignedOut)
}

// ChooseRestore keeps the existing account data and goes online. On failure
// the session waits for a choice again.
func (s *Session) ChooseRestore(ctx context.Context) error {
	if err := s.machine.Transition(status.Restoring); err != nil {
		return err
	}
	return s.restore(ctx, status.AwaitingRestore)
}

// ChooseStartFresh asks for confirmation to erase the account before going
// online. Declining leaves the session waiting for a choice.
func (s *Session) ChooseStartFresh() (confirm.Request, error) {
	if s.machine.Current() != status.AwaitingRestore {
		return confirm.Request{}, fmt.Errorf("start fresh: session is %s", s.machine.Current())
	}
	return s.gate.Ask(confirm.WipeAccount, "Erase all data of "+s.opts.Me.ID+" and start fresh?", func(ctx context.Context) error {
		if err := s.machine.Transition(status.Wiping); err != nil {
			return err
		}
		if err := s.friends.Wipe(ctx); err != nil {
			_ = s.machine.Transition(status.AwaitingRestore)
			return err
		}
		if err := s.machine.Transition(status.Restoring); err != nil {
			return err
		}
		return s.restore(ctx, status.AwaitingRestore)
	}), nil
}

// Resolve settles a pending confirmation.
func (s *Session) Resolve(ctx context.Context, id string, accept bool) error {
	return s.gate.Resolve(ctx, id, accept)
}

// restore brings the session online from RESTORING. A failure moves it to
// fallback.
func (s *Session) restore(ctx context.Context, fallback status.State) error {
	err := s.presence.Online(ctx)
	if err == nil {
		err = s.friends.Start(ctx)
	}
	if err == nil {
		err = s.directory.Start()
	}
	if err == nil {
		err = s.opts.Cache.SetSignedOut(false)
	}
	if err != nil {
		s.friends.Stop()
		s.directory.Stop()
		_ = s.machine.Transition(fallback)
		return fmt.Errorf("sign in: %w", err)
	}
	s.opts.Logger.Info("session online", zap.String("user", s.opts.Me.ID))
	return s.machine.Transition(status.Online)
}

// Open detaches the current conversation and attaches the one with peer,
// which may be a user id, the bot or a feed.
func (s *Session) Open(peer string, h subscription.Handlers) (*subscription.Subscription, error) {
	if s.machine.Current() != status.Online {
		return nil, ErrNotOnline
	}
	conv, err := address.For(s.opts.Me.ID, peer)
	if err != nil {
		return nil, err
	}
	s.stopTyping()
	s.engine.SetConversation(conv)
	sub, err := s.subs.Open(conv, h)
	if err != nil {
		s.engine.ClearConversation()
		return nil, err
	}
	return sub, nil
}

// CloseConversation detaches the open conversation, if any.
func (s *Session) CloseConversation() {
	s.stopTyping()
	s.subs.Close()
	s.engine.ClearConversation()
}

// Send writes a text message to the open conversation.
func (s *Session) Send(ctx context.Context, body string) (string, error) {
	if s.machine.Current() != status.Online {
		return "", ErrNotOnline
	}
	id, err := s.engine.Send(ctx, chat.Text{Body: body})
	if err == nil {
		s.mu.Lock()
		s.typing = nil
		s.mu.Unlock()
	}
	return id, err
}

// SendImage writes an image message to the open conversation.
func (s *Session) SendImage(ctx context.Context, ref, caption string) (string, error) {
	if s.machine.Current() != status.Online {
		return "", ErrNotOnline
	}
	return s.engine.Send(ctx, chat.Image{MediaRef: ref, Body: caption})
}

// Keystroke signals that the user is composing in the open conversation.
func (s *Session) Keystroke() {
	conv, err := s.engine.Conversation()
	if err != nil || !conv.HasTyping() {
		return
	}
	s.mu.Lock()
	s.typing = &conv
	s.mu.Unlock()
	s.presence.Keystroke(conv)
}

func (s *Session) stopTyping() {
	s.mu.Lock()
	conv := s.typing
	s.typing = nil
	s.mu.Unlock()
	if conv != nil {
		s.presence.StopTyping(*conv)
	}
}

// History reads the conversation with peer once, without attaching to it.
// Messages hidden locally or filtered out of the favorites feed are left out.
func (s *Session) History(ctx context.Context, peer string) ([]chat.Message, error) {
	conv, err := address.For(s.opts.Me.ID, peer)
	if err != nil {
		return nil, err
	}
	v, err := s.opts.Store.Get(ctx, conv.MessagesPath())
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	msgs := chat.DecodeAll(tree.Snapshot{Path: conv.MessagesPath(), Value: v})
	return s.engine.Visible(conv, msgs), nil
}

// LoadContacts reads the contact list once. See presence.BuildContacts.
func (s *Session) LoadContacts(ctx context.Context, query string) ([]presence.Contact, error) {
	v, err := s.opts.Store.Get(ctx, address.Users)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	return presence.BuildContacts(tree.Snapshot{Path: address.Users, Value: v}, s.opts.Me.ID, s.friends.IsFriend, query), nil
}

// SignOut publishes the offline state, detaches every listener and records
// the explicit sign-out so the next SignIn offers the restore choice.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.machine.Transition(status.SigningOut); err != nil {
		return err
	}
	s.CloseConversation()
	s.engine.Close()
	s.directory.Stop()
	s.friends.Stop()
	err := s.presence.Offline(ctx)
	err = multierr.Append(err, s.outbox.Flush(ctx))
	err = multierr.Append(err, s.opts.Cache.SetSignedOut(true))
	if terr := s.machine.Transition(status.SignedOut); terr != nil {
		err = multierr.Append(err, terr)
	}
	s.opts.Logger.Info("session signed out", zap.String("user", s.opts.Me.ID))
	return err
}

// Close releases the session without recording a sign-out. An online
// session is marked offline on a best-effort basis.
func (s *Session) Close() {
	online := s.machine.Current() == status.Online
	s.CloseConversation()
	s.engine.Close()
	s.directory.Stop()
	s.friends.Stop()
	if online {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.presence.Offline(ctx); err != nil {
			s.opts.Logger.Warn("publish offline failed", zap.Error(err))
		}
		cancel()
	}
	s.presence.Close()
	s.outbox.Stop()
}
