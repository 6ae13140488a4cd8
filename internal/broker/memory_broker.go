package broker

import (
	"context"
	"errors"
	"sync"

	"github.com/buildtalk/forum/pkg/logger"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("broker closed")

// MemoryEventBroker delivers events within one process. Slow subscribers
// lose events instead of blocking publishers.
type MemoryEventBroker struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func NewMemoryEventBroker() *MemoryEventBroker {
	return &MemoryEventBroker{subscribers: make(map[chan Event]struct{})}
}

func (b *MemoryEventBroker) Publish(ctx context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logger.Log.Warn("Subscriber buffer full, dropping event",
				zap.String("event_type", event.Type),
			)
		}
	}
	return nil
}

func (b *MemoryEventBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()
	return ch, nil
}

func (b *MemoryEventBroker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *MemoryEventBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	return nil
}
