// Package outbox runs best-effort store writes in the background: delivery and
// read receipts, typing signals and presence heartbeats. Failures are logged and
// dropped; nothing here is retried or surfaced to the user.
package outbox

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Op is one queued write.
type Op struct {
	Name string
	Path string
	Run  func(ctx context.Context) error
}

// Writer executes queued ops one at a time, in enqueue order.
type Writer struct {
	logger  *zap.Logger
	queue   chan Op
	timeout time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool

	failed atomic.Uint64
}

// NewWriter creates a writer with room for size queued ops.
func NewWriter(logger *zap.Logger, size int) *Writer {
	if size <= 0 {
		size = 256
	}
	return &Writer{
		logger:  logger,
		queue:   make(chan Op, size),
		timeout: 5 * time.Second,
	}
}

// Start begins draining the queue.
func (w *Writer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)
}

// Stop runs the ops already queued, then stops the loop. Ops enqueued after
// Stop are dropped.
func (w *Writer) Stop() {
	w.mu.Lock()
	if w.stopped || w.done == nil {
		w.stopped = true
		w.mu.Unlock()
		return
	}
	w.stopped = true
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// Enqueue schedules op. It never blocks; when the queue is full the op is dropped.
func (w *Writer) Enqueue(op Op) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		w.logger.Debug("outbox stopped, dropping write", zap.String("op", op.Name), zap.String("path", op.Path))
		return false
	}
	select {
	case w.queue <- op:
		return true
	default:
		w.failed.Add(1)
		w.logger.Warn("outbox full, dropping write", zap.String("op", op.Name), zap.String("path", op.Path))
		return false
	}
}

// Flush waits until every op enqueued before the call has run.
func (w *Writer) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !w.Enqueue(Op{Name: "flush", Run: func(context.Context) error {
		close(barrier)
		return nil
	}}) {
		return nil
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failed returns how many ops were dropped or returned an error.
func (w *Writer) Failed() uint64 {
	return w.failed.Load()
}

func (w *Writer) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case op := <-w.queue:
			w.run(op)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		select {
		case op := <-w.queue:
			w.run(op)
		default:
			return
		}
	}
}

func (w *Writer) run(op Op) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := op.Run(ctx); err != nil {
		w.failed.Add(1)
		w.logger.Warn("best-effort write failed",
			zap.String("op", op.Name),
			zap.String("path", op.Path),
			zap.Error(err),
		)
	}
}
