// File: internal/concurrency/executor.go
// Package concurrency
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor runs submitted tasks one at a time in submission order. A drain
// goroutine exists only while tasks are pending, so an idle executor costs
// no goroutine.

package concurrency

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = fmt.Errorf("executor is closed")

// PanicHandler receives values recovered from panicking tasks.
type PanicHandler func(recovered any)

// Executor is an ordered asynchronous task queue.
type Executor struct {
	mu       sync.Mutex
	idle     *sync.Cond
	tasks    *queue.Queue
	draining bool
	closed   bool
	onPanic  PanicHandler

	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	panics         atomic.Int64
}

// NewExecutor creates an executor. onPanic may be nil.
func NewExecutor(onPanic PanicHandler) *Executor {
	e := &Executor{
		tasks:   queue.New(),
		onPanic: onPanic,
	}
	e.idle = sync.NewCond(&e.mu)
	return e
}

// Submit enqueues task. It never blocks on task execution.
func (e *Executor) Submit(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrExecutorClosed
	}
	e.tasks.Add(task)
	e.totalTasks.Add(1)
	if !e.draining {
		e.draining = true
		go e.drain()
	}
	return nil
}

func (e *Executor) drain() {
	for {
		e.mu.Lock()
		if e.tasks.Length() == 0 {
			e.draining = false
			e.idle.Broadcast()
			e.mu.Unlock()
			return
		}
		task := e.tasks.Remove().(func())
		e.mu.Unlock()
		e.execute(task)
	}
}

// execute runs the task, recovering from panics so one faulty callback
// cannot stall the queue.
func (e *Executor) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.panics.Add(1)
			if e.onPanic != nil {
				e.onPanic(r)
			}
		}
		e.completedTasks.Add(1)
	}()
	task()
}

// Wait blocks until every task submitted so far has run.
// It must not be called from inside a task.
func (e *Executor) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.draining {
		e.idle.Wait()
	}
}

// Close rejects further submissions. Pending tasks still run.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	total := e.totalTasks.Load()
	done := e.completedTasks.Load()
	return map[string]int64{
		"total_tasks":     total,
		"completed_tasks": done,
		"pending_tasks":   total - done,
		"panics":          e.panics.Load(),
	}
}
