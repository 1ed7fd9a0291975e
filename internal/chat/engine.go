package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

// Responder produces the bot's answer to text sent in a bot conversation.
type Responder interface {
	Reply(conversation, text string) string
}

// TypingStopper clears the user's typing signal once a message is sent.
type TypingStopper interface {
	StopTyping(conv address.Conversation)
}

// FriendChecker answers friendship questions for the favorites feed filter.
type FriendChecker interface {
	IsFriend(id string) bool
}

// Config holds the engine collaborators. Store, Me, Gate and Logger are required.
type Config struct {
	Store    tree.Store
	Me       address.Identity
	Clock    clock.Clock
	Gate     *confirm.Gate
	Bus      *bus.Bus
	Logger   *zap.Logger
	Bot      Responder
	Typing   TypingStopper
	Friends  FriendChecker
	BotDelay time.Duration
}

// Engine creates and mutates messages of the open conversation.
type Engine struct {
	cfg Config

	mu       sync.Mutex
	current  *address.Conversation
	hidden   map[string]map[string]bool
	timers   []*clock.Timer
	onHidden func()
}

// NewEngine creates an engine with no open conversation.
func NewEngine(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Engine{
		cfg:    cfg,
		hidden: make(map[string]map[string]bool),
	}
}

// SetConversation scopes subsequent operations to conv.
func (e *Engine) SetConversation(conv address.Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = &conv
}

// ClearConversation leaves the engine without an open conversation.
func (e *Engine) ClearConversation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
}

// Conversation returns the open conversation.
func (e *Engine) Conversation() (address.Conversation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return address.Conversation{}, ErrNoConversation
	}
	return *e.current, nil
}

// OnHidden registers fn to run after a message is hidden locally.
func (e *Engine) OnHidden(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onHidden = fn
}

// Send writes a new message to the open conversation and returns its id.
// In a bot conversation the scripted reply is scheduled after the write.
func (e *Engine) Send(ctx context.Context, c Content) (string, error) {
	c, err := e.validate(c)
	if err != nil {
		return "", err
	}
	conv, err := e.Conversation()
	if err != nil {
		return "", err
	}

	me := e.cfg.Me
	id, err := e.cfg.Store.Push(ctx, conv.MessagesPath(), newRecord(me.ID, me.Name, c, e.cfg.Clock.Now()))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	e.cfg.Logger.Debug("message sent",
		zap.String("conversation", conv.Address),
		zap.String("msg_id", id),
		zap.String("kind", string(c.kind())),
	)

	if conv.HasTyping() && e.cfg.Typing != nil {
		e.cfg.Typing.StopTyping(conv)
	}
	if text, ok := c.(Text); ok && conv.Scope == address.Bot && e.cfg.Bot != nil {
		e.scheduleBotReply(conv, e.cfg.Bot.Reply(conv.Address, text.Body))
	}
	return id, nil
}

func (e *Engine) validate(c Content) (Content, error) {
	switch v := c.(type) {
	case Text:
		v.Body = strings.TrimSpace(v.Body)
		if v.Body == "" {
			return nil, ErrEmptyBody
		}
		return v, nil
	case Image:
		v.MediaRef = strings.TrimSpace(v.MediaRef)
		if v.MediaRef == "" {
			return nil, ErrEmptyBody
		}
		if err := checkImage(v.MediaRef); err != nil {
			return nil, err
		}
		if strings.TrimSpace(v.Body) == "" {
			v.Body = filepath.Base(v.MediaRef)
		}
		return v, nil
	default:
		return nil, ErrEmptyBody
	}
}

// checkImage accepts remote URLs as is and sniffs local files.
func checkImage(ref string) error {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return nil
	}
	mt, err := mimetype.DetectFile(ref)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%w: %s is %s", ErrNotImage, ref, mt.String())
	}
	return nil
}

func (e *Engine) scheduleBotReply(conv address.Conversation, reply string) {
	timer := e.cfg.Clock.AfterFunc(e.cfg.BotDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rec := newRecord(address.BotID, address.BotName, Text{Body: reply}, e.cfg.Clock.Now())
		if _, err := e.cfg.Store.Push(ctx, conv.MessagesPath(), rec); err != nil {
			e.cfg.Logger.Warn("bot reply failed", zap.String("conversation", conv.Address), zap.Error(err))
			e.cfg.Bus.Emit(bus.MessageWriteFailed, err)
		}
	})
	e.mu.Lock()
	e.timers = append(e.timers, timer)
	e.mu.Unlock()
}

// Close cancels bot replies that have not been written yet.
func (e *Engine) Close() {
	e.mu.Lock()
	timers := e.timers
	e.timers = nil
	e.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

// Edit replaces the body of one of the user's own messages.
func (e *Engine) Edit(ctx context.Context, id, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyBody
	}
	conv, err := e.Conversation()
	if err != nil {
		return err
	}
	_, err = tree.Transaction(ctx, e.cfg.Store, conv.MessagePath(id), func(cur any) (any, error) {
		rec, err := e.ownRecord(cur)
		if err != nil {
			return nil, err
		}
		if tree.Bool(rec[fieldDeleted]) {
			return nil, ErrDeleted
		}
		rec[fieldText] = body
		rec[fieldEdited] = true
		return rec, nil
	})
	if err != nil {
		return fmt.Errorf("edit %s: %w", id, err)
	}
	return nil
}

func (e *Engine) ownRecord(cur any) (map[string]any, error) {
	rec, ok := cur.(map[string]any)
	if !ok {
		return nil, ErrNotFound
	}
	if tree.String(rec[fieldSender]) != e.cfg.Me.ID {
		return nil, ErrNotSender
	}
	return rec, nil
}

// RequestDelete asks for confirmation before removing a message. The sender
// gets a soft delete of the shared record. Anyone else viewing a shared feed
// gets a local hide. Other cases are rejected.
func (e *Engine) RequestDelete(ctx context.Context, id string) (confirm.Request, error) {
	conv, err := e.Conversation()
	if err != nil {
		return confirm.Request{}, err
	}
	cur, err := e.cfg.Store.Get(ctx, conv.MessagePath(id))
	if err != nil {
		return confirm.Request{}, fmt.Errorf("load %s: %w", id, err)
	}
	msg, ok := Decode(id, cur)
	if !ok {
		return confirm.Request{}, ErrNotFound
	}

	switch {
	case msg.SenderID == e.cfg.Me.ID:
		return e.cfg.Gate.Ask(confirm.DeleteMessage, "Delete this message for everyone?", func(ctx context.Context) error {
			return e.softDelete(ctx, conv, id)
		}), nil
	case conv.Shared():
		return e.cfg.Gate.Ask(confirm.HideMessage, "Remove this message from your view?", func(context.Context) error {
			e.hide(conv.Address, id)
			return nil
		}), nil
	default:
		return confirm.Request{}, ErrNotSender
	}
}

func (e *Engine) softDelete(ctx context.Context, conv address.Conversation, id string) error {
	_, err := tree.Transaction(ctx, e.cfg.Store, conv.MessagePath(id), func(cur any) (any, error) {
		rec, err := e.ownRecord(cur)
		if err != nil {
			return nil, err
		}
		if tree.Bool(rec[fieldDeleted]) {
			return nil, tree.ErrAborted
		}
		rec[fieldText] = DeletedPlaceholder
		rec[fieldDeleted] = true
		delete(rec, fieldURL)
		return rec, nil
	})
	if err != nil && !errors.Is(err, tree.ErrAborted) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func (e *Engine) hide(addr, id string) {
	e.mu.Lock()
	if e.hidden[addr] == nil {
		e.hidden[addr] = make(map[string]bool)
	}
	e.hidden[addr][id] = true
	fn := e.onHidden
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Visible drops locally hidden messages and, in the favorites feed, posts
// from users who are neither the viewer nor a friend.
func (e *Engine) Visible(conv address.Conversation, msgs []Message) []Message {
	e.mu.Lock()
	hidden := e.hidden[conv.Address]
	e.mu.Unlock()

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if hidden[m.ID] {
			continue
		}
		if conv.Scope == address.FavoritesFeed && m.SenderID != e.cfg.Me.ID &&
			(e.cfg.Friends == nil || !e.cfg.Friends.IsFriend(m.SenderID)) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ToggleReaction adds the user to reactions[emoji], or removes them if already
// present. The reaction set is updated with compare-and-set so concurrent
// toggles by different users are all kept. It reports whether the user is now
// in the set.
func (e *Engine) ToggleReaction(ctx context.Context, id, emoji string) (bool, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || tree.ValidateKey(emoji) != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidReaction, emoji)
	}
	conv, err := e.Conversation()
	if err != nil {
		return false, err
	}
	path := conv.MessagePath(id)
	cur, err := e.cfg.Store.Get(ctx, tree.Join(path, fieldSender))
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, ErrNotFound
	}

	me := e.cfg.Me.ID
	added := false
	_, err = tree.Transaction(ctx, e.cfg.Store, tree.Join(path, fieldReactions, emoji), func(cur any) (any, error) {
		set, _ := cur.(map[string]any)
		if set == nil {
			set = make(map[string]any)
		}
		if _, ok := set[me]; ok {
			delete(set, me)
			added = false
		} else {
			set[me] = true
			added = true
		}
		if len(set) == 0 {
			return nil, nil
		}
		return set, nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle reaction on %s: %w", id, err)
	}
	return added, nil
}

// MarkDelivered records that the user received msg.
func (e *Engine) MarkDelivered(ctx context.Context, conv address.Conversation, msg Message) error {
	if msg.Delivered {
		return nil
	}
	return e.mark(ctx, conv, msg, fieldDelivered)
}

// MarkRead records that the user has seen msg.
func (e *Engine) MarkRead(ctx context.Context, conv address.Conversation, msg Message) error {
	if msg.Read {
		return nil
	}
	return e.mark(ctx, conv, msg, fieldRead)
}

func (e *Engine) mark(ctx context.Context, conv address.Conversation, msg Message, field string) error {
	if msg.SenderID == e.cfg.Me.ID {
		return ErrOwnReceipt
	}
	_, err := tree.Transaction(ctx, e.cfg.Store, conv.MessagePath(msg.ID), func(cur any) (any, error) {
		rec, ok := cur.(map[string]any)
		if !ok || tree.Bool(rec[field]) {
			return nil, tree.ErrAborted
		}
		if tree.String(rec[fieldSender]) == e.cfg.Me.ID {
			return nil, ErrOwnReceipt
		}
		rec[field] = true
		return rec, nil
	})
	if err != nil && !errors.Is(err, tree.ErrAborted) {
		return fmt.Errorf("mark %s %s: %w", field, msg.ID, err)
	}
	return nil
}
