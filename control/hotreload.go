// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload hooks run when a program re-reads its configuration.

package control

import (
	"slices"
	"sync"
)

// ReloadHooks is a set of config-reload listeners.
type ReloadHooks struct {
	mu    sync.Mutex
	seq   int
	hooks map[int]func()
}

// NewReloadHooks creates an empty hook set.
func NewReloadHooks() *ReloadHooks {
	return &ReloadHooks{hooks: make(map[int]func())}
}

// RegisterReloadHook adds a reload listener. The returned func removes it.
func (r *ReloadHooks) RegisterReloadHook(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := r.seq
	r.hooks[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.hooks, id)
		r.mu.Unlock()
	}
}

// TriggerHotReload dispatches all hooks asynchronously.
func (r *ReloadHooks) TriggerHotReload() {
	for _, fn := range r.snapshot() {
		go fn()
	}
}

// TriggerHotReloadSync invokes all hooks in registration order and returns
// when the last one has finished.
func (r *ReloadHooks) TriggerHotReloadSync() {
	for _, fn := range r.snapshot() {
		fn()
	}
}

func (r *ReloadHooks) snapshot() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.hooks))
	for id := range r.hooks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(), len(ids))
	for i, id := range ids {
		out[i] = r.hooks[id]
	}
	return out
}
