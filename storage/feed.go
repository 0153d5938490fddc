package storage

import (
	"sync"
	"sync/atomic"
)

// Feed fans full snapshots out to subscribers. Deliveries are serialized so
// every subscriber sees snapshots in the order they were published.
// Subscribers share each snapshot slice and must treat it as read-only.
type Feed[T any] struct {
	// deliver is held while a snapshot is produced and handed out.
	deliver sync.Mutex

	mu   sync.Mutex
	next uint64
	subs map[uint64]*subscriber[T]
}

type subscriber[T any] struct {
	fn     func([]T)
	closed atomic.Bool
}

// NewFeed creates a Feed with no subscribers.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[uint64]*subscriber[T])}
}

// Subscribe registers fn and immediately delivers the snapshot returned by
// current. Publishes cannot interleave between the initial delivery and
// registration.
func (f *Feed[T]) Subscribe(current func() []T, fn func([]T)) Unsubscribe {
	f.deliver.Lock()
	defer f.deliver.Unlock()

	sub := &subscriber[T]{fn: fn}

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	fn(nonNil(current()))

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.closed.Store(true)
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish runs mutate (which may be nil) and then delivers the snapshot
// returned by current to every subscriber, all under the delivery lock.
func (f *Feed[T]) Publish(mutate func(), current func() []T) {
	f.deliver.Lock()
	defer f.deliver.Unlock()

	if mutate != nil {
		mutate()
	}

	f.mu.Lock()
	subs := make([]*subscriber[T], 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	snapshot := nonNil(current())
	for _, s := range subs {
		if !s.closed.Load() {
			s.fn(snapshot)
		}
	}
}

// Len reports the number of active subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
