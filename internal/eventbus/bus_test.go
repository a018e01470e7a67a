package eventbus_test

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/coffeebar/internal/eventbus"
)

func newBus(workers int) eventbus.EventBus {
	return eventbus.New(workers, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishAndReceive(t *testing.T) {
	bus := newBus(2)
	defer bus.Close()

	var received []eventbus.Event
	var mu sync.Mutex

	bus.Subscribe(func(e eventbus.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	bus.Publish("machine.drink.brewed", map[string]string{"drink": "espresso"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "machine.drink.brewed", received[0].Type)
	assert.Equal(t, "espresso", received[0].Payload["drink"])
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestMultipleListeners(t *testing.T) {
	bus := newBus(2)
	defer bus.Close()

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(eventbus.Event) { count.Add(1) })
	}

	bus.Publish("multi", nil)
	assert.Eventually(t, func() bool { return count.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestUnsubscribe(t *testing.T) {
	bus := newBus(1)

	var kept, removed atomic.Int32
	bus.Subscribe(func(eventbus.Event) { kept.Add(1) })
	unsubscribe := bus.Subscribe(func(eventbus.Event) { removed.Add(1) })
	unsubscribe()

	bus.Publish("after-unsubscribe", nil)
	bus.Close()

	assert.EqualValues(t, 1, kept.Load())
	assert.EqualValues(t, 0, removed.Load())
}

func TestListenerPanicDoesNotCrash(t *testing.T) {
	bus := newBus(1)

	var called atomic.Bool
	bus.Subscribe(func(eventbus.Event) { panic("boom") })
	bus.Subscribe(func(eventbus.Event) { called.Store(true) })

	assert.NotPanics(t, func() {
		bus.Publish("panic-test", nil)
		bus.Close()
	})
	assert.True(t, called.Load())
}

func TestCloseDrainsPendingEvents(t *testing.T) {
	bus := newBus(1)

	var count atomic.Int32
	bus.Subscribe(func(eventbus.Event) { count.Add(1) })
	for i := 0; i < 10; i++ {
		bus.Publish("drain", nil)
	}
	bus.Close()

	assert.EqualValues(t, 10, count.Load())
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	bus := newBus(1)
	bus.Close()

	assert.NotPanics(t, func() {
		bus.Publish("late", nil)
		bus.Close()
	})
}
