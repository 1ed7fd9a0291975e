// Package presence publishes the user's online state and typing signals and
// reads the same signals from everyone else.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/clock"
	"github.com/matheus3301/letschat/internal/outbox"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

// DefaultTypingDebounce is how long typing stays on after the last keystroke.
const DefaultTypingDebounce = time.Second

// Config holds the coordinator collaborators.
type Config struct {
	Store    tree.Store
	Me       address.Identity
	Clock    clock.Clock
	Outbox   *outbox.Writer
	Logger   *zap.Logger
	Debounce time.Duration
}

// Coordinator owns the user's presence record and typing slots.
type Coordinator struct {
	cfg Config

	mu     sync.Mutex
	timers map[string]*clock.Timer
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultTypingDebounce
	}
	return &Coordinator{cfg: cfg, timers: make(map[string]*clock.Timer)}
}

// Online marks the user online and publishes their profile.
func (c *Coordinator) Online(ctx context.Context) error {
	me := c.cfg.Me
	err := c.cfg.Store.Update(ctx, address.User(me.ID), map[string]any{
		"name":     me.Name,
		"photo":    me.Photo,
		"online":   true,
		"lastSeen": c.now(),
	})
	if err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

// Offline marks the user offline and stops any pending typing timers.
func (c *Coordinator) Offline(ctx context.Context) error {
	c.stopTimers()
	err := c.cfg.Store.Update(ctx, address.User(c.cfg.Me.ID), map[string]any{
		"online":   false,
		"lastSeen": c.now(),
	})
	if err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

// Keystroke publishes a typing signal for conv and re-arms the debounce timer
// that clears it.
func (c *Coordinator) Keystroke(conv address.Conversation) {
	if !conv.HasTyping() {
		return
	}
	c.writeTyping(conv, true)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.timers[conv.Address]; t != nil {
		t.Stop()
	}
	var timer *clock.Timer
	timer = c.cfg.Clock.AfterFunc(c.cfg.Debounce, func() {
		c.mu.Lock()
		if c.timers[conv.Address] != timer {
			c.mu.Unlock()
			return
		}
		delete(c.timers, conv.Address)
		c.mu.Unlock()
		c.writeTyping(conv, false)
	})
	c.timers[conv.Address] = timer
}

// StopTyping clears the typing signal for conv immediately.
func (c *Coordinator) StopTyping(conv address.Conversation) {
	if !conv.HasTyping() {
		return
	}
	c.mu.Lock()
	if t := c.timers[conv.Address]; t != nil {
		t.Stop()
		delete(c.timers, conv.Address)
	}
	c.mu.Unlock()
	c.writeTyping(conv, false)
}

// Close cancels pending debounce timers.
func (c *Coordinator) Close() {
	c.stopTimers()
}

func (c *Coordinator) stopTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, t := range c.timers {
		t.Stop()
		delete(c.timers, addr)
	}
}

func (c *Coordinator) writeTyping(conv address.Conversation, typing bool) {
	path := address.TypingSlot(conv.Address, c.cfg.Me.ID)
	value := map[string]any{"typing": typing, "name": c.cfg.Me.Name}
	c.cfg.Outbox.Enqueue(outbox.Op{
		Name: "typing",
		Path: path,
		Run: func(ctx context.Context) error {
			return c.cfg.Store.Set(ctx, path, value)
		},
	})
}

func (c *Coordinator) now() float64 {
	return float64(c.cfg.Clock.Now().UnixMilli())
}
