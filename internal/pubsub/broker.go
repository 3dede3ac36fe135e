package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 16

// Broker delivers every published event to all live subscriptions. A slow
// subscriber loses its oldest queued event rather than blocking the publisher,
// so it always ends up holding the most recent state.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[chan Event[T]]struct{}
	closed     bool
	bufferSize int
}

func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	if size < 1 {
		size = 1
	}
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		bufferSize: size,
	}
}

func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(chan Event[T], b.bufferSize)
	if b.closed {
		close(sub)
		return sub
	}
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub)
		}
	}()
	return sub
}

func (b *Broker[T]) Publish(eventType EventType, payload T) {
	// Write lock: evicting from a full channel must not interleave with another publisher.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	event := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for sub := range b.subs {
		for {
			select {
			case sub <- event:
			default:
				select {
				case <-sub:
				default:
				}
				continue
			}
			break
		}
	}
}

func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
