// Package event is a small named-subscription notification bus.
package event

import "sync"

// Handler receives an emitted value.
type Handler[E any] func(E)

// Subscription identifies one registered handler.
type Subscription struct {
	name string
	id   uint64
}

// Name returns the event name the subscription listens to.
func (s Subscription) Name() string { return s.name }

type entry[E any] struct {
	id uint64
	h  Handler[E]
}

// Bus dispatches values to the handlers registered under a name. Handlers
// run synchronously on the emitting goroutine, in registration order.
type Bus[E any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]entry[E]
}

// NewBus returns an empty bus.
func NewBus[E any]() *Bus[E] {
	return &Bus[E]{subs: make(map[string][]entry[E])}
}

// On registers h for name.
func (b *Bus[E]) On(name string, h Handler[E]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[name] = append(b.subs[name], entry[E]{id: b.nextID, h: h})
	return Subscription{name: name, id: b.nextID}
}

// Off removes a subscription and reports whether it was registered.
func (b *Bus[E]) Off(s Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.name]
	for i, e := range list {
		if e.id == s.id {
			b.subs[s.name] = append(list[:i:i], list[i+1:]...)
			if len(b.subs[s.name]) == 0 {
				delete(b.subs, s.name)
			}
			return true
		}
	}
	return false
}

// OffAll removes every handler registered for name.
func (b *Bus[E]) OffAll(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, name)
}

// Emit calls every handler registered for name with v and returns how many
// were called. Handlers may subscribe or unsubscribe while being called.
func (b *Bus[E]) Emit(name string, v E) int {
	b.mu.RLock()
	list := b.subs[name]
	b.mu.RUnlock()
	for _, e := range list {
		e.h(v)
	}
	return len(list)
}

// Has reports whether name has any handler.
func (b *Bus[E]) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name]) > 0
}
