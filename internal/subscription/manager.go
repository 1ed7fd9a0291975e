// Package subscription attaches the listeners of the open conversation and
// guarantees that at most one conversation is attached per client.
package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/bus"
	"github.com/matheus3301/letschat/internal/chat"
	"github.com/matheus3301/letschat/internal/outbox"
	"github.com/matheus3301/letschat/internal/presence"
	"github.com/matheus3301/letschat/internal/status"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

// Receipts records delivery and read receipts.
type Receipts interface {
	MarkDelivered(ctx context.Context, conv address.Conversation, msg chat.Message) error
	MarkRead(ctx context.Context, conv address.Conversation, msg chat.Message) error
}

// Filter decides which messages the user gets to see.
type Filter interface {
	Visible(conv address.Conversation, msgs []chat.Message) []chat.Message
}

// Handlers receive listener output. Either may be nil.
type Handlers struct {
	OnMessages func(conv address.Conversation, msgs []chat.Message)
	OnTyping   func(conv address.Conversation, status string)
}

// Update is the payload of message snapshot events.
type Update struct {
	Conversation address.Conversation
	Messages     []chat.Message
}

// TypingUpdate is the payload of typing status events.
type TypingUpdate struct {
	Conversation address.Conversation
	Status       string
}

// Config holds the manager collaborators.
type Config struct {
	Store    tree.Store
	Me       string
	Receipts Receipts
	Filter   Filter
	Outbox   *outbox.Writer
	Bus      *bus.Bus
	Logger   *zap.Logger
}

// Manager owns the single attached Subscription of a client.
type Manager struct {
	cfg Config

	openMu sync.Mutex
	mu     sync.Mutex
	active *Subscription
}

// NewManager creates a manager with nothing attached.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Active returns the attached subscription, or nil.
func (m *Manager) Active() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Open detaches the previous conversation, then attaches conv: its message
// listener and, for direct and bot conversations, its typing listener.
func (m *Manager) Open(conv address.Conversation, h Handlers) (*Subscription, error) {
	m.openMu.Lock()
	defer m.openMu.Unlock()

	m.mu.Lock()
	prev := m.active
	m.active = nil
	m.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	s := &Subscription{
		conv:     conv,
		mgr:      m,
		handlers: h,
		machine:  status.NewMachine("subscription", status.Idle, status.SubscriptionTable, m.cfg.Bus),
		pending:  make(map[string]bool),
	}
	if err := s.attach(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.active = s
	m.mu.Unlock()
	m.cfg.Logger.Debug("conversation attached", zap.String("conversation", conv.Address), zap.Stringer("scope", conv.Scope))
	return s, nil
}

// Close detaches the active subscription. Safe to call repeatedly.
func (m *Manager) Close() {
	m.openMu.Lock()
	defer m.openMu.Unlock()

	m.mu.Lock()
	s := m.active
	m.active = nil
	m.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// Subscription is the listener set of one open conversation.
type Subscription struct {
	conv     address.Conversation
	mgr      *Manager
	handlers Handlers
	machine  *status.Machine

	mu       sync.Mutex
	unsubs   []func()
	messages []chat.Message
	typing   string
	pending  map[string]bool
	closed   bool
}

// Conversation returns the attached conversation.
func (s *Subscription) Conversation() address.Conversation { return s.conv }

// State returns the lifecycle state.
func (s *Subscription) State() status.State { return s.machine.Current() }

// Messages returns the visible messages of the latest snapshot.
func (s *Subscription) Messages() []chat.Message {
	s.mu.Lock()
	msgs := append([]chat.Message(nil), s.messages...)
	s.mu.Unlock()
	return s.visible(msgs)
}

// TypingStatus returns the latest typing status string.
func (s *Subscription) TypingStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// Republish delivers the buffered messages again, e.g. after a local hide.
func (s *Subscription) Republish() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	msgs := append([]chat.Message(nil), s.messages...)
	s.mu.Unlock()
	s.deliver(s.visible(msgs))
}

func (s *Subscription) attach() error {
	if err := s.machine.Transition(status.Attaching); err != nil {
		return err
	}
	s.deliver(nil)

	cfg := s.mgr.cfg
	unsub, err := cfg.Store.Subscribe(s.conv.MessagesPath(), s.onMessages)
	if err != nil {
		_ = s.machine.Transition(status.Idle)
		return fmt.Errorf("attach messages of %s: %w", s.conv.Address, err)
	}
	s.unsubs = append(s.unsubs, unsub)

	if s.conv.HasTyping() {
		unsub, err := cfg.Store.Subscribe(s.conv.TypingPath(), s.onTyping)
		if err != nil {
			s.release()
			_ = s.machine.Transition(status.Idle)
			return fmt.Errorf("attach typing of %s: %w", s.conv.Address, err)
		}
		s.unsubs = append(s.unsubs, unsub)
	}
	return s.machine.Transition(status.Attached)
}

// Close detaches every listener. Safe to call repeatedly.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.machine.Transition(status.Detaching)
	s.release()
	_ = s.machine.Transition(status.Idle)
	s.mgr.cfg.Logger.Debug("conversation detached", zap.String("conversation", s.conv.Address))
}

func (s *Subscription) release() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

func (s *Subscription) visible(msgs []chat.Message) []chat.Message {
	if f := s.mgr.cfg.Filter; f != nil {
		return f.Visible(s.conv, msgs)
	}
	return msgs
}

func (s *Subscription) deliver(msgs []chat.Message) {
	if fn := s.handlers.OnMessages; fn != nil {
		fn(s.conv, msgs)
	}
	s.mgr.cfg.Bus.Emit(bus.MessagesChanged, Update{Conversation: s.conv, Messages: msgs})
}

func (s *Subscription) onMessages(snap tree.Snapshot) {
	msgs := chat.DecodeAll(snap)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = msgs
	s.mu.Unlock()

	s.deliver(s.visible(msgs))
	if s.conv.HasReceipts() {
		s.sendReceipts(msgs)
	}
}

// sendReceipts queues delivered-then-read writes for every unread message
// from someone else. A message already queued is not queued twice.
func (s *Subscription) sendReceipts(msgs []chat.Message) {
	cfg := s.mgr.cfg
	if cfg.Receipts == nil || cfg.Outbox == nil {
		return
	}
	for _, msg := range msgs {
		if msg.SenderID == cfg.Me || (msg.Delivered && msg.Read) {
			continue
		}
		s.mu.Lock()
		if s.pending[msg.ID] {
			s.mu.Unlock()
			continue
		}
		s.pending[msg.ID] = true
		s.mu.Unlock()

		msg := msg
		queued := cfg.Outbox.Enqueue(outbox.Op{
			Name: "receipts",
			Path: s.conv.MessagePath(msg.ID),
			Run: func(ctx context.Context) error {
				defer func() {
					s.mu.Lock()
					delete(s.pending, msg.ID)
					s.mu.Unlock()
				}()
				if err := cfg.Receipts.MarkDelivered(ctx, s.conv, msg); err != nil {
					return err
				}
				return cfg.Receipts.MarkRead(ctx, s.conv, msg)
			},
		})
		if !queued {
			s.mu.Lock()
			delete(s.pending, msg.ID)
			s.mu.Unlock()
		}
	}
}

func (s *Subscription) onTyping(snap tree.Snapshot) {
	text := presence.TypingStatus(snap, s.mgr.cfg.Me)

	s.mu.Lock()
	if s.closed || text == s.typing {
		s.mu.Unlock()
		return
	}
	s.typing = text
	s.mu.Unlock()

	if fn := s.handlers.OnTyping; fn != nil {
		fn(s.conv, text)
	}
	s.mgr.cfg.Bus.Emit(bus.TypingChanged, TypingUpdate{Conversation: s.conv, Status: text})
}
