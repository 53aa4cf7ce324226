// File: event/signal_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/momentics/xsocket/event"
)

// inline runs tasks synchronously and records how many it got.
type inline struct {
	mu    sync.Mutex
	tasks int
	err   error
}

func (d *inline) Submit(task func()) error {
	d.mu.Lock()
	d.tasks++
	err := d.err
	d.mu.Unlock()
	if err != nil {
		return err
	}
	task()
	return nil
}

func TestEmitWithoutSubscribersIsNoop(t *testing.T) {
	var s event.Signal[string, int]
	d := &inline{}
	if err := s.Emit(d, "sender", 1); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if d.tasks != 0 {
		t.Fatalf("dispatched %d tasks with no subscribers", d.tasks)
	}
}

func TestEmitInRegistrationOrder(t *testing.T) {
	var s event.Signal[string, int]
	var got []string
	s.Subscribe(func(sender string, v int) { got = append(got, "first") })
	s.Subscribe(func(sender string, v int) { got = append(got, "second") })
	s.Subscribe(func(sender string, v int) {
		if sender != "src" || v != 7 {
			t.Errorf("handler got (%q, %d)", sender, v)
		}
		got = append(got, "third")
	})

	if err := s.Emit(&inline{}, "src", 7); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	var s event.Signal[struct{}, struct{}]
	calls := 0
	cancel := s.Subscribe(func(struct{}, struct{}) { calls++ })
	s.Subscribe(func(struct{}, struct{}) { calls += 10 })
	if s.Len() != 2 {
		t.Fatalf("Len = %d", s.Len())
	}
	cancel()
	cancel()
	if s.Len() != 1 {
		t.Fatalf("Len after cancel = %d", s.Len())
	}
	s.Emit(&inline{}, struct{}{}, struct{}{})
	if calls != 10 {
		t.Fatalf("calls = %d, want 10", calls)
	}
}

func TestEmitReportsDispatchFailure(t *testing.T) {
	var s event.Signal[int, int]
	s.Subscribe(func(int, int) {})
	boom := errors.New("closed")
	if err := s.Emit(&inline{err: boom}, 0, 0); !errors.Is(err, boom) {
		t.Fatalf("Emit error = %v", err)
	}
}
