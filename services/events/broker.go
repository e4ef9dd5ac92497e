// Package events fans view invalidations out to live console sessions.
package events

import (
	"context"
	"sync"

	"github.com/speakhq/speakadmin/core"
)

// subscriberBuffer bounds how far a slow subscriber may lag before it misses events.
const subscriberBuffer = 16

// Broker delivers invalidations to subscribers of this process.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan core.Invalidation]struct{}
}

var _ core.Invalidator = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan core.Invalidation]struct{})}
}

// Invalidate never blocks: a subscriber whose buffer is full skips the event.
func (b *Broker) Invalidate(_ context.Context, views ...string) error {
	if len(views) == 0 {
		return nil
	}
	b.broadcast(core.Invalidation{Views: views})
	return nil
}

func (b *Broker) broadcast(inv core.Invalidation) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- inv:
		default:
		}
	}
}

// Subscribe returns a channel that is closed once ctx is done.
func (b *Broker) Subscribe(ctx context.Context) (<-chan core.Invalidation, error) {
	ch := make(chan core.Invalidation, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Subscribers is the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
