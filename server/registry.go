// File: server/registry.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sharded connection registry. Ids come from a monotonic counter, so
// id & mask spreads consecutive connections across shards.

package server

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/xsocket/client"
)

// Registry maps connection ids to live clients.
type Registry struct {
	shards []*registryShard
	mask   uint64
	size   atomic.Int64
}

type registryShard struct {
	mu      sync.RWMutex
	clients map[uint64]*client.Client
}

// NewRegistry constructs a registry with shardCount shards.
func NewRegistry(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*registryShard, m)
	for i := range shards {
		shards[i] = &registryShard{clients: make(map[uint64]*client.Client)}
	}
	return &Registry{shards: shards, mask: uint64(m - 1)}
}

func (r *Registry) shard(id uint64) *registryShard {
	return r.shards[id&r.mask]
}

// Insert registers c under id. It reports false if id is taken.
func (r *Registry) Insert(id uint64, c *client.Client) bool {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.clients[id]; ok {
		return false
	}
	sh.clients[id] = c
	r.size.Add(1)
	return true
}

// Remove unregisters id, reporting whether it was present.
func (r *Registry) Remove(id uint64) bool {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.clients[id]; !ok {
		return false
	}
	delete(sh.clients, id)
	r.size.Add(-1)
	return true
}

// Get fetches a client if present.
func (r *Registry) Get(id uint64) (*client.Client, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	c, ok := sh.clients[id]
	return c, ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return int(r.size.Load())
}

// Snapshot returns the clients registered at call time. Clients added or
// removed while it runs may or may not appear.
func (r *Registry) Snapshot() []*client.Client {
	out := make([]*client.Client, 0, r.Len())
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, c := range sh.clients {
			out = append(out, c)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Range applies fn to every client until fn returns false.
func (r *Registry) Range(fn func(id uint64, c *client.Client) bool) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		for id, c := range sh.clients {
			if !fn(id, c) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
