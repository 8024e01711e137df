package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc is a subscribed reaction to one event kind. A returned error
// is captured and logged by the dispatcher; it never reaches the emitter
// and never affects sibling handlers.
type HandlerFunc func(ctx context.Context, payload Payload) error

type subscription struct {
	name    string
	handler HandlerFunc
}

// HandlerResult captures the outcome of one handler invocation.
type HandlerResult struct {
	Handler string
	Err     error
}

// Recorder receives bus metrics. Implemented by the observability package.
type Recorder interface {
	EventEmitted(ctx context.Context, kind string)
	EventDropped(ctx context.Context, kind string)
	HandlerFailed(ctx context.Context, kind, handler string)
}

// Bus is an in-process, at-most-once, best-effort event bus. Registration
// happens at startup; dispatch runs on a single background goroutine so
// emitters are never blocked by automation work.
type Bus struct {
	log            *zap.Logger
	recorder       Recorder
	handlerTimeout time.Duration

	mu          sync.RWMutex
	subscribers map[Kind][]subscription

	queue  chan Event
	stopCh chan struct{}
	doneCh chan struct{}
}

// Option configures a Bus.
type Option func(*Bus)

// WithQueueSize sets the deferred-dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan Event, n)
		}
	}
}

// WithHandlerTimeout bounds a single handler invocation. Timeout is treated
// as a handler failure.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Bus) { b.recorder = r }
}

// New creates a Bus. Start must be called before events are delivered.
func New(log *zap.Logger, opts ...Option) *Bus {
	b := &Bus{
		log:            log.Named("eventbus"),
		handlerTimeout: 30 * time.Second,
		subscribers:    make(map[Kind][]subscription),
		queue:          make(chan Event, 256),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a named handler for kind. Registration order is
// preserved and determines dispatch order. There is no de-registration.
func (b *Bus) Subscribe(kind Kind, name string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], subscription{name: name, handler: handler})
}

// Emit enqueues an event for deferred dispatch and returns immediately.
// If the queue is full the event is dropped and logged; delivery is
// best-effort by contract.
func (b *Bus) Emit(kind Kind, payload Payload) {
	evt := Event{Kind: kind, Payload: payload}
	select {
	case b.queue <- evt:
		if b.recorder != nil {
			b.recorder.EventEmitted(context.Background(), string(kind))
		}
	default:
		b.log.Warn("event queue full, dropping event", zap.String("kind", string(kind)))
		if b.recorder != nil {
			b.recorder.EventDropped(context.Background(), string(kind))
		}
	}
}

// Start launches the dispatcher goroutine.
func (b *Bus) Start() {
	go b.run()
}

// Stop signals the dispatcher and waits for the in-flight event to finish.
// Queued events that were not yet dispatched are lost, per the
// at-most-once delivery contract.
func (b *Bus) Stop(ctx context.Context) error {
	close(b.stopCh)
	select {
	case <-b.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run() {
	defer close(b.doneCh)
	for {
		select {
		case <-b.stopCh:
			return
		case evt := <-b.queue:
			b.Dispatch(context.Background(), evt)
		}
	}
}

// Dispatch invokes every handler registered for the event's kind, in
// registration order. Each invocation is isolated: a failing or panicking
// handler is logged and does not prevent later handlers from running.
// Exported so tests and synchronous callers can drive delivery directly.
func (b *Bus) Dispatch(ctx context.Context, evt Event) []HandlerResult {
	b.mu.RLock()
	subs := b.subscribers[evt.Kind]
	b.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	results := make([]HandlerResult, 0, len(subs))
	for _, sub := range subs {
		err := b.invoke(ctx, sub, evt)
		results = append(results, HandlerResult{Handler: sub.name, Err: err})
		if err != nil {
			b.log.Error("handler failed",
				zap.String("kind", string(evt.Kind)),
				zap.String("handler", sub.name),
				zap.Error(err),
			)
			if b.recorder != nil {
				b.recorder.HandlerFailed(ctx, string(evt.Kind), sub.name)
			}
		}
	}
	return results
}

// DispatchNext delivers at most one queued event on the caller's
// goroutine and reports whether one was pending. Lets tests and
// synchronous callers drain the queue without starting the dispatcher.
func (b *Bus) DispatchNext(ctx context.Context) bool {
	select {
	case evt := <-b.queue:
		b.Dispatch(ctx, evt)
		return true
	default:
		return false
	}
}

func (b *Bus) invoke(ctx context.Context, sub subscription, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()

	return sub.handler(ctx, evt.Payload)
}
