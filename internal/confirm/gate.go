// Package confirm turns destructive operations into a request/response
// exchange: the operation is parked as a Request, the frontend asks the human,
// and the decision comes back through Resolve.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/matheus3301/letschat/internal/bus"
	"go.uber.org/zap"
)

// Actions that require confirmation.
const (
	DeleteMessage = "delete_message"
	HideMessage   = "hide_message"
	RemoveFriend  = "remove_friend"
	WipeAccount   = "wipe_account"
)

// ErrUnknownRequest is returned by Resolve for ids that are not pending.
var ErrUnknownRequest = errors.New("unknown confirmation request")

// Request describes an operation waiting for a decision.
type Request struct {
	ID     string
	Action string
	Prompt string
	seq    uint64
}

// Decision is the payload of a settled request.
type Decision struct {
	Request  Request
	Accepted bool
	Err      error
}

// RetryableError is returned when a confirmed operation failed. The request
// stays pending so the same id can be resolved again.
type RetryableError struct {
	Request Request
	Err     error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s failed, retry with request %s: %v", e.Request.Action, e.Request.ID, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Gate holds pending requests.
type Gate struct {
	mu      sync.Mutex
	pending map[string]*pending
	seq     uint64
	bus     *bus.Bus
	logger  *zap.Logger
}

type pending struct {
	req Request
	run func(ctx context.Context) error
}

// NewGate creates an empty gate.
func NewGate(b *bus.Bus, logger *zap.Logger) *Gate {
	return &Gate{
		pending: make(map[string]*pending),
		bus:     b,
		logger:  logger,
	}
}

// Ask parks run until the request is resolved and announces it on the bus.
func (g *Gate) Ask(action, prompt string, run func(ctx context.Context) error) Request {
	g.mu.Lock()
	g.seq++
	req := Request{ID: uuid.NewString(), Action: action, Prompt: prompt, seq: g.seq}
	g.pending[req.ID] = &pending{req: req, run: run}
	g.mu.Unlock()

	g.logger.Debug("confirmation requested", zap.String("id", req.ID), zap.String("action", action))
	g.bus.Emit(bus.ConfirmationNeeded, req)
	return req
}

// Pending returns the requests awaiting a decision, oldest first.
func (g *Gate) Pending() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, 0, len(g.pending))
	for _, p := range g.pending {
		out = append(out, p.req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Resolve settles a request. Declining drops it. Accepting runs the parked
// operation; if that fails the request is re-armed and a *RetryableError is
// returned.
func (g *Gate) Resolve(ctx context.Context, id string, accept bool) error {
	g.mu.Lock()
	p, ok := g.pending[id]
	if ok {
		delete(g.pending, id)
	}
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}

	if !accept {
		g.logger.Debug("confirmation declined", zap.String("id", id), zap.String("action", p.req.Action))
		g.bus.Emit(bus.ConfirmationSettled, Decision{Request: p.req})
		return nil
	}

	if err := p.run(ctx); err != nil {
		g.mu.Lock()
		g.pending[id] = p
		g.mu.Unlock()
		g.logger.Warn("confirmed operation failed",
			zap.String("id", id),
			zap.String("action", p.req.Action),
			zap.Error(err),
		)
		rerr := &RetryableError{Request: p.req, Err: err}
		g.bus.Emit(bus.ConfirmationSettled, Decision{Request: p.req, Accepted: true, Err: rerr})
		return rerr
	}
	g.bus.Emit(bus.ConfirmationSettled, Decision{Request: p.req, Accepted: true})
	return nil
}
