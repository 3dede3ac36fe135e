// Package pubsub fans engine notifications out to any number of observers.
package pubsub

import (
	"context"
	"time"
)

type EventType string

const (
	// SnapshotEvent carries the full observable state after a change.
	SnapshotEvent EventType = "snapshot"
	// NoticeEvent carries a one-line message for the user, such as a rejected settings update.
	NoticeEvent EventType = "notice"
)

type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
