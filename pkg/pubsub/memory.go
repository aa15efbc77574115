package pubsub

import (
	"context"
	"sync"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
)

type memorySubscription struct {
	pattern string
	ch      chan *Event
	cancel  context.CancelFunc
	once    sync.Once
}

func (s *memorySubscription) close() {
	s.once.Do(func() {
		s.cancel()
		close(s.ch)
	})
}

// MemoryPubSub implements PubSub inside one process.
type MemoryPubSub struct {
	subscriptions map[string]*memorySubscription
	mu            sync.RWMutex
	closed        bool
}

// NewMemoryPubSub creates an in-process PubSub.
func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{
		subscriptions: make(map[string]*memorySubscription),
	}
}

// Publish delivers event to every subscription whose channel or pattern matches.
func (m *MemoryPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	for _, sub := range m.subscriptions {
		if !matchPattern(sub.pattern, channel) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Channel full, skip message
			l := log.Ctx(ctx)
			l.Warn().Str(log.FieldChannel, channel).Msg("memory pubsub subscriber full, event dropped")
		}
	}
	return nil
}

// Subscribe subscribes to a specific channel.
func (m *MemoryPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	return m.subscribe(ctx, channel)
}

// SubscribePattern subscribes to channels matching a pattern.
func (m *MemoryPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	return m.subscribe(ctx, pattern)
}

func (m *MemoryPubSub) subscribe(ctx context.Context, key string) (<-chan *Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if existing, ok := m.subscriptions[key]; ok {
		existing.close()
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &memorySubscription{
		pattern: key,
		ch:      make(chan *Event, subscriberBuffer),
		cancel:  cancel,
	}
	m.subscriptions[key] = sub

	go func() {
		<-subCtx.Done()
		m.mu.Lock()
		if m.subscriptions[key] == sub {
			delete(m.subscriptions, key)
		}
		sub.close()
		m.mu.Unlock()
	}()

	return sub.ch, nil
}

// Unsubscribe unsubscribes from a channel or pattern.
func (m *MemoryPubSub) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subscriptions[channel]; ok {
		sub.close()
		delete(m.subscriptions, channel)
	}
	return nil
}

// Close closes all subscriptions.
func (m *MemoryPubSub) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, sub := range m.subscriptions {
		sub.close()
		delete(m.subscriptions, key)
	}
	m.closed = true
	return nil
}
