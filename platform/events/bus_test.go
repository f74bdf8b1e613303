package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"collectflow_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func newTestBus() *InMemoryBus {
	return NewInMemoryBus(logger.New("development"))
}

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	bus := newTestBus()

	var calls int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}))
	}

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "thing.happened"}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 handler calls, got %d", got)
	}
}

func TestPublishSyncFailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := newTestBus()

	var secondCalled bool
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		return errors.New("boom")
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		secondCalled = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})
	if err == nil {
		t.Fatalf("expected error from failing handler")
	}
	if !secondCalled {
		t.Fatalf("second handler was not called after first failed")
	}
}

func TestPublishSyncRecoversHandlerPanic(t *testing.T) {
	bus := newTestBus()

	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		panic("unexpected")
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})
	if err == nil {
		t.Fatalf("expected panic to surface as error")
	}
}

func TestPublishIsAsyncAndIsolated(t *testing.T) {
	bus := newTestBus()

	var calls int32
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		return errors.New("boom")
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})
	bus.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected healthy handler to run once, got %d", got)
	}
}

func TestPublishSurvivesCancelledPublisherContext(t *testing.T) {
	bus := newTestBus()

	done := make(chan struct{})
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		select {
		case <-ctx.Done():
			t.Error("handler context cancelled with publisher context")
		case <-time.After(10 * time.Millisecond):
		}
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{NewBaseEvent(), "thing.happened"})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("handler did not finish")
	}
	bus.Wait()
}

func TestSubscribeUnknownEventNameNoSubscribers(t *testing.T) {
	bus := newTestBus()
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "nobody.cares"}); err != nil {
		t.Fatalf("publishing with no subscribers should be a no-op, got %v", err)
	}
}
