package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("cancelled context removes the subscription", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		ctx, cancel := context.WithCancel(context.Background())

		ch := broker.Subscribe(ctx)
		require.NotNil(t, ch)
		assert.Equal(t, 1, broker.SubscriberCount())

		cancel()
		assert.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("subscribe after shutdown yields a closed channel", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		broker.Shutdown()

		_, ok := <-broker.Subscribe(context.Background())
		assert.False(t, ok)
	})
}

func TestBrokerPublishKeepsOrderPerSubscriber(t *testing.T) {
	t.Parallel()
	broker := NewBroker[int]()
	ch := broker.Subscribe(t.Context())

	for i := range 10 {
		broker.Publish(EventUpdated, i)
	}

	for want := range 10 {
		select {
		case ev := <-ch:
			assert.Equal(t, EventUpdated, ev.Type)
			assert.Equal(t, want, ev.Payload)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for event %d", want)
		}
	}
}

func TestBrokerShutdown(t *testing.T) {
	t.Parallel()
	broker := NewBroker[string]()

	ch1 := broker.Subscribe(context.Background())
	ch2 := broker.Subscribe(context.Background())
	assert.Equal(t, 2, broker.SubscriberCount())

	broker.Shutdown()
	broker.Shutdown()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	assert.False(t, ok1, "channel 1 should be closed")
	assert.False(t, ok2, "channel 2 should be closed")
	assert.Equal(t, 0, broker.SubscriberCount())

	// publishing after shutdown is a logged no-op
	broker.Publish(EventCreated, "late")
}

func TestBrokerConcurrentSubscribers(t *testing.T) {
	t.Parallel()
	broker := NewBroker[int]()

	const n = 50
	var ready, done sync.WaitGroup
	ready.Add(n)
	done.Add(n)
	received := make(chan int, n)

	for i := range n {
		go func(id int) {
			defer done.Done()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch := broker.Subscribe(ctx)
			ready.Done()
			select {
			case ev := <-ch:
				received <- ev.Payload
			case <-time.After(time.Second):
				t.Errorf("timeout waiting for event in subscriber %d", id)
			}
		}(i)
	}

	ready.Wait()
	broker.Publish(EventCreated, 7)
	done.Wait()
	close(received)

	count := 0
	for v := range received {
		assert.Equal(t, 7, v)
		count++
	}
	assert.Equal(t, n, count)
	assert.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBrokerUnsubscribeDuringLateDelivery(t *testing.T) {
	t.Parallel()

	broker := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)

	for i := range defaultBufferSize + 1 {
		broker.Publish(EventStateChanged, i)
	}
	cancel()

	received := 0
	timeout := time.After(slowSubscriberWait + time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				assert.GreaterOrEqual(t, received, defaultBufferSize)
				assert.LessOrEqual(t, received, defaultBufferSize+1)
				assert.Zero(t, broker.SubscriberCount())
				return
			}
			received++
		case <-timeout:
			t.Fatal("subscription was not closed")
		}
	}
}
