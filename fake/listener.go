// Package fake
// Author: momentics <momentics@gmail.com>

package fake

import (
	"context"
	"sync"

	"github.com/momentics/xsocket/api"
)

// Listener is an in-memory api.Listener. Connect creates a pipe and queues
// its far end for Accept.
type Listener struct {
	addr    Address
	pending chan *Socket
	done    chan struct{}

	mu       sync.Mutex
	running  bool
	closed   bool
	accepted []*Socket
	dialed   []*Socket
}

// NewListener creates an idle in-memory listener.
func NewListener(name string) *Listener {
	return &Listener{
		addr:    Address(name),
		pending: make(chan *Socket, 64),
		done:    make(chan struct{}),
	}
}

func (l *Listener) Run() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return api.ErrListenerClosed
	}
	l.running = true
	return nil
}

func (l *Listener) Accept(ctx context.Context) (api.Socket, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	select {
	case s := <-l.pending:
		l.mu.Lock()
		l.accepted = append(l.accepted, s)
		l.mu.Unlock()
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, api.ErrListenerClosed
	}
}

// Connect does not require the listener to be running, only open.
func (l *Listener) Connect(ctx context.Context) (api.Socket, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, api.ErrListenerClosed
	}
	near, far := Pipe()
	select {
	case l.pending <- far:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, api.ErrListenerClosed
	}
	l.mu.Lock()
	l.dialed = append(l.dialed, near)
	l.mu.Unlock()
	return near, nil
}

func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return api.ErrListenerClosed
	}
	if !l.running {
		return api.ErrListenerNotRunning
	}
	l.closed = true
	l.running = false
	close(l.done)
	return nil
}

func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Listener) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Listener) LocalAddr() api.Address     { return l.addr }
func (l *Listener) Protocol() api.ProtocolType { return api.ProtocolMemory }

// Accepted returns the server-side sockets handed out by Accept.
func (l *Listener) Accepted() []*Socket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Socket(nil), l.accepted...)
}

// Dialed returns the client-side sockets handed out by Connect.
func (l *Listener) Dialed() []*Socket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Socket(nil), l.dialed...)
}

func (l *Listener) check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.closed:
		return api.ErrListenerClosed
	case !l.running:
		return api.ErrListenerNotRunning
	}
	return nil
}

var _ api.Listener = (*Listener)(nil)
