// File: event/signal.go
// Package event implements multicast lifecycle callbacks.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Signal holds the callbacks registered for one event kind. Emitting hands
// each callback to a Dispatcher instead of running it inline, so the loop
// raising the event never waits on application code.

package event

import "sync"

// Handler receives the object that raised the event and its payload.
type Handler[S, E any] func(sender S, ev E)

// Dispatcher runs tasks off the caller's goroutine, in submission order.
type Dispatcher interface {
	Submit(task func()) error
}

type subscription[S, E any] struct {
	id uint64
	fn Handler[S, E]
}

// Signal is a list of callbacks for one event kind. The zero value is ready
// to use. A Signal must not be copied after first use.
type Signal[S, E any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription[S, E]
}

// Subscribe registers fn and returns a function removing it again.
func (s *Signal[S, E]) Subscribe(fn Handler[S, E]) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[S, E]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Signal[S, E]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered callbacks.
func (s *Signal[S, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Emit schedules every callback registered at call time, in registration
// order. With no callbacks it does nothing and returns nil.
func (s *Signal[S, E]) Emit(d Dispatcher, sender S, ev E) error {
	s.mu.RLock()
	subs := s.subs
	s.mu.RUnlock()

	for _, sub := range subs {
		fn := sub.fn
		if err := d.Submit(func() { fn(sender, ev) }); err != nil {
			return err
		}
	}
	return nil
}
