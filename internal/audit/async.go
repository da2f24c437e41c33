package audit

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
)

const (
	defaultQueueSize = 1024
	writeTimeout     = 3 * time.Second
)

// Async desacopla el núcleo del sink real: Record encola y vuelve enseguida.
// Con la cola llena el evento se descarta y se cuenta en OnDrop.
type Async struct {
	next   Sink
	queue  chan Event
	OnDrop func()

	mu     sync.RWMutex // closed y el close de queue
	closed bool
	done   chan struct{}
}

func NewAsync(next Sink, size int) *Async {
	if size <= 0 {
		size = defaultQueueSize
	}
	a := &Async{next: next, queue: make(chan Event, size), done: make(chan struct{})}
	go a.run()
	return a
}

// RecordEvent nunca bloquea y nunca devuelve error.
func (a *Async) RecordEvent(ctx context.Context, ev Event) error {
	ev = stamp(ev)
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.drop(ctx, ev, "audit closed, event dropped")
		return nil
	}
	select {
	case a.queue <- ev:
	default:
		a.drop(ctx, ev, "audit queue full, event dropped")
	}
	return nil
}

func (a *Async) drop(ctx context.Context, ev Event, msg string) {
	logger.From(ctx).Warn(msg,
		logger.String("audit_id", ev.ID), logger.String("detail", ev.Detail))
	if a.OnDrop != nil {
		a.OnDrop()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := a.next.RecordEvent(ctx, ev); err != nil {
			logger.L().Error("audit sink failed", logger.String("audit_id", ev.ID), logger.Err(err))
		}
		cancel()
	}
}

// Close deja de aceptar eventos y espera a vaciar la cola o a que venza ctx.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
