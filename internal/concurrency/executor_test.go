// File: internal/concurrency/executor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutorPreservesOrder(t *testing.T) {
	e := NewExecutor(nil)
	const n = 1000
	got := make([]int, 0, n)
	for i := range n {
		if err := e.Submit(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
	}
	e.Wait()
	if len(got) != n {
		t.Fatalf("ran %d tasks, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestExecutorDoesNotBlockSubmitter(t *testing.T) {
	e := NewExecutor(nil)
	release := make(chan struct{})
	if err := e.Submit(func() { <-release }); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	submitted := make(chan struct{})
	go func() {
		e.Submit(func() {})
		close(submitted)
	}()
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked behind a running task")
	}
	close(release)
	e.Wait()
}

func TestExecutorRecoversPanics(t *testing.T) {
	var recovered atomic.Value
	e := NewExecutor(func(r any) { recovered.Store(r) })

	var ran atomic.Bool
	e.Submit(func() { panic("boom") })
	e.Submit(func() { ran.Store(true) })
	e.Wait()

	if recovered.Load() != "boom" {
		t.Errorf("panic handler got %v", recovered.Load())
	}
	if !ran.Load() {
		t.Error("task after a panic did not run")
	}
	if s := e.Stats(); s["panics"] != 1 || s["completed_tasks"] != 2 {
		t.Errorf("unexpected stats: %v", s)
	}
}

func TestExecutorClose(t *testing.T) {
	e := NewExecutor(nil)
	var ran atomic.Bool
	e.Submit(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	})
	e.Close()
	if err := e.Submit(func() {}); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("Submit after Close: %v", err)
	}
	e.Wait()
	if !ran.Load() {
		t.Fatal("pending task dropped by Close")
	}
}

func TestExecutorWaitIdle(t *testing.T) {
	e := NewExecutor(nil)
	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an idle executor")
	}
}
