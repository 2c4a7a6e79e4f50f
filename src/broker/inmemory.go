package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("broker is closed")

const subscriberBuffer = 100

type subscriber struct {
	ch   chan Message
	done <-chan struct{}
}

// InMemoryBroker delivers every published message to every subscriber of its topic.
// Publish blocks while a subscriber's buffer is full.
type InMemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	closed bool
	seq    atomic.Int64

	quit     chan struct{}
	quitOnce sync.Once
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs: make(map[string][]*subscriber),
		quit: make(chan struct{}),
	}
}

// Publish implements Broker.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	// Subscriber channels are only closed under the write lock, so sends
	// under the read lock never race with close.
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    b.seq.Add(1) - 1,
		Timestamp: time.Now().UnixMilli(),
	}

	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-b.quit:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe implements Broker. groupID is ignored; every subscriber sees every message.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{
		ch:   make(chan Message, subscriberBuffer),
		done: ctx.Done(),
	}
	b.subs[topic] = append(b.subs[topic], sub)

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(topic, sub)
		case <-b.quit:
		}
	}()

	return sub.ch, nil
}

// Close closes every subscription channel.
func (b *InMemoryBroker) Close() error {
	b.quitOnce.Do(func() { close(b.quit) })

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, topic)
	}
	return nil
}

func (b *InMemoryBroker) unsubscribe(topic string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s == sub {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}
