package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultBufferSize  = 64
	slowSubscriberWait = 2 * time.Second
)

// Broker fans published events out to every live subscriber. Subscriptions
// end when their context is cancelled or the broker shuts down.
type Broker[T any] struct {
	subs   map[chan Event[T]]context.CancelFunc
	mu     sync.RWMutex
	closed bool
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]context.CancelFunc),
	}
}

func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for ch, cancel := range b.subs {
		cancel()
		close(ch)
		delete(b.subs, ch)
	}
	b.mu.Unlock()
	slog.Debug("pubsub broker shut down", "type", fmt.Sprintf("%T", *new(T)))
}

func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan Event[T], defaultBufferSize)
	b.subs[ch] = cancel

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			close(ch)
			delete(b.subs, ch)
		}
	}()

	return ch
}

func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("publish on closed pubsub broker", "type", eventType)
		return
	}

	event := Event[T]{Type: eventType, Payload: payload}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Full buffer: hand off so the publisher (usually the UI loop)
			// never blocks. Ordering for this subscriber is no longer strict.
			go b.deliverLate(ch, event)
		}
	}
}

// deliverLate holds the read lock for the whole send, so the subscription
// cannot be closed underneath it. Unsubscribe and Shutdown wait at most
// slowSubscriberWait.
func (b *Broker[T]) deliverLate(ch chan Event[T], event Event[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, live := b.subs[ch]; !live {
		return
	}
	select {
	case ch <- event:
	case <-time.After(slowSubscriberWait):
		slog.Warn("pubsub dropped event for slow subscriber", "type", event.Type)
	}
}

func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
