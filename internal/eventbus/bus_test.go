package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDispatchRegistrationOrder(t *testing.T) {
	bus := New(zap.NewNop())

	var mu sync.Mutex
	var order []string
	record := func(name string) HandlerFunc {
		return func(ctx context.Context, payload Payload) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	bus.Subscribe(NewContact, "first", record("first"))
	bus.Subscribe(NewContact, "second", record("second"))
	bus.Subscribe(NewContact, "third", record("third"))

	bus.Dispatch(context.Background(), Event{Kind: NewContact})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("handlers invoked = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("handlers invoked = %v, want %v", order, want)
		}
	}
}

func TestDispatchIsolatesFailingHandler(t *testing.T) {
	bus := New(zap.NewNop())

	invoked := false
	bus.Subscribe(NewContact, "failing", func(ctx context.Context, payload Payload) error {
		return errors.New("boom")
	})
	bus.Subscribe(NewContact, "next", func(ctx context.Context, payload Payload) error {
		invoked = true
		return nil
	})

	results := bus.Dispatch(context.Background(), Event{Kind: NewContact})

	if !invoked {
		t.Fatal("handler after a failing one was not invoked")
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("failing handler error was not captured")
	}
	if results[1].Err != nil {
		t.Fatalf("second handler err = %v, want nil", results[1].Err)
	}
}

func TestDispatchRecoversPanickingHandler(t *testing.T) {
	bus := New(zap.NewNop())

	invoked := false
	bus.Subscribe(NewContact, "panicking", func(ctx context.Context, payload Payload) error {
		panic("boom")
	})
	bus.Subscribe(NewContact, "next", func(ctx context.Context, payload Payload) error {
		invoked = true
		return nil
	})

	results := bus.Dispatch(context.Background(), Event{Kind: NewContact})

	if !invoked {
		t.Fatal("handler after a panicking one was not invoked")
	}
	if results[0].Err == nil {
		t.Fatal("panic was not converted into a handler error")
	}
}

func TestDispatchSeparatesKinds(t *testing.T) {
	bus := New(zap.NewNop())

	var contactCalls, bookingCalls int
	bus.Subscribe(NewContact, "contact", func(ctx context.Context, payload Payload) error {
		contactCalls++
		return nil
	})
	bus.Subscribe(BookingCreated, "booking", func(ctx context.Context, payload Payload) error {
		bookingCalls++
		return nil
	})

	bus.Dispatch(context.Background(), Event{Kind: NewContact})

	if contactCalls != 1 {
		t.Fatalf("contact handler calls = %d, want 1", contactCalls)
	}
	if bookingCalls != 0 {
		t.Fatalf("booking handler calls = %d, want 0", bookingCalls)
	}
}

func TestEmitDefersDispatch(t *testing.T) {
	bus := New(zap.NewNop())

	done := make(chan struct{})
	bus.Subscribe(NewContact, "handler", func(ctx context.Context, payload Payload) error {
		close(done)
		return nil
	})

	bus.Emit(NewContact, Payload{"contact_id": int64(1)})

	// Nothing runs until the dispatcher does.
	select {
	case <-done:
		t.Fatal("handler ran before dispatch")
	default:
	}

	bus.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never dispatched")
	}
}

func TestEmitDropsWhenQueueFull(t *testing.T) {
	bus := New(zap.NewNop(), WithQueueSize(1))

	// The dispatcher is not running, so the second emit finds the queue
	// full and must drop rather than block.
	done := make(chan struct{})
	go func() {
		bus.Emit(NewContact, nil)
		bus.Emit(NewContact, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full queue")
	}
}

func TestHandlerTimeoutIsFailure(t *testing.T) {
	bus := New(zap.NewNop(), WithHandlerTimeout(20*time.Millisecond))

	bus.Subscribe(NewContact, "slow", func(ctx context.Context, payload Payload) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	results := bus.Dispatch(context.Background(), Event{Kind: NewContact})
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want one timeout failure", results)
	}
}
