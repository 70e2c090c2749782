package pubsub

import "context"

type EventType string

const (
	// EventCreated is published when a new record enters a collection.
	EventCreated EventType = "created"
	// EventUpdated is published when an existing record changes in place.
	EventUpdated EventType = "updated"
	// EventStateChanged carries a full renderable snapshot of a component.
	EventStateChanged EventType = "state_changed"
)

type Event[T any] struct {
	Type    EventType
	Payload T
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
