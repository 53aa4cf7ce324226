// File: server/registry_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync"
	"testing"

	"github.com/momentics/xsocket/client"
	"github.com/momentics/xsocket/fake"
	"github.com/momentics/xsocket/protocol"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint32]uint32{1: 1, 2: 2, 3: 4, 16: 16, 17: 32, 1000: 1024}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRegistryInsertRemove(t *testing.T) {
	r := NewRegistry(3)
	if len(r.shards) != 4 {
		t.Fatalf("shards = %d", len(r.shards))
	}
	a, _ := fake.Pipe()
	c := client.FromHandle(protocol.NewHandle(a))

	if !r.Insert(7, c) {
		t.Fatal("first insert rejected")
	}
	if r.Insert(7, c) {
		t.Fatal("duplicate id accepted")
	}
	if got, ok := r.Get(7); !ok || got != c {
		t.Fatal("Get after Insert failed")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
	if !r.Remove(7) || r.Remove(7) {
		t.Fatal("Remove should succeed exactly once")
	}
	if _, ok := r.Get(7); ok || r.Len() != 0 {
		t.Fatal("client still registered")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(8)
	a, _ := fake.Pipe()
	c := client.FromHandle(protocol.NewHandle(a))

	const n = 256
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			r.Insert(id, c)
		}(uint64(i + 1))
	}
	wg.Wait()
	if r.Len() != n || len(r.Snapshot()) != n {
		t.Fatalf("Len = %d, snapshot = %d", r.Len(), len(r.Snapshot()))
	}

	visited := 0
	r.Range(func(uint64, *client.Client) bool {
		visited++
		return visited < 10
	})
	if visited != 10 {
		t.Fatalf("Range visited %d entries after stop", visited)
	}

	for i := range n {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			r.Remove(id)
		}(uint64(i + 1))
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Fatalf("Len = %d after removal", r.Len())
	}
}
