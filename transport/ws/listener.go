// File: transport/ws/listener.go
// Package ws carries XTCP frames inside a WebSocket binary message stream.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The WebSocket layer only supplies a byte stream: every Write becomes one
// binary message and reads stream across message boundaries, so XTCP framing
// runs on top unchanged.

package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/momentics/xsocket/api"
	"github.com/momentics/xsocket/transport"
)

const (
	stateIdle int32 = iota
	stateRunning
	stateClosed
)

// DefaultPath is the upgrade route used when none is given.
const DefaultPath = "/xsocket"

// Option customizes a Listener.
type Option func(*Listener)

// WithAcceptOptions sets the options used when upgrading inbound requests.
func WithAcceptOptions(opts *websocket.AcceptOptions) Option {
	return func(l *Listener) {
		l.acceptOpts = opts
	}
}

// WithDialOptions sets the options used by Connect.
func WithDialOptions(opts *websocket.DialOptions) Option {
	return func(l *Listener) {
		l.dialOpts = opts
	}
}

// Listener serves a single upgrade route over HTTP and hands every upgraded
// connection to Accept.
type Listener struct {
	addr       transport.IPAddress
	path       string
	acceptOpts *websocket.AcceptOptions
	dialOpts   *websocket.DialOptions

	mu    sync.Mutex
	ln    net.Listener
	srv   *http.Server
	conns chan net.Conn
	done  chan struct{}
	state atomic.Int32
}

// NewListener creates an idle listener for addr serving path.
func NewListener(addr transport.IPAddress, path string, opts ...Option) *Listener {
	if path == "" {
		path = DefaultPath
	}
	l := &Listener{
		addr:  addr,
		path:  path,
		conns: make(chan net.Conn),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Listen parses "host:port" and returns an idle listener.
func Listen(endpoint, path string, opts ...Option) (*Listener, error) {
	addr, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return NewListener(addr, path, opts...), nil
}

// Run binds the endpoint and starts serving upgrades.
func (l *Listener) Run() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state.Load() {
	case stateRunning:
		return nil
	case stateClosed:
		return api.ErrListenerClosed
	}
	ln, err := net.Listen("tcp", l.addr.String())
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.addr, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(l.path, l.upgrade)
	l.ln = ln
	l.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Close()
		}
	}()
	l.state.Store(stateRunning)
	return nil
}

func (l *Listener) upgrade(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, l.acceptOpts)
	if err != nil {
		return
	}
	// The stream outlives this handler, so it must not inherit r.Context().
	nc := websocket.NetConn(context.Background(), c, websocket.MessageBinary)
	select {
	case l.conns <- nc:
	case <-l.done:
		nc.Close()
	}
}

// Accept waits for the next upgraded connection.
func (l *Listener) Accept(ctx context.Context) (api.Socket, error) {
	switch l.state.Load() {
	case stateIdle:
		return nil, api.ErrListenerNotRunning
	case stateClosed:
		return nil, api.ErrListenerClosed
	}
	select {
	case nc := <-l.conns:
		return transport.NewNetSocket(nc), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, api.ErrListenerClosed
	}
}

// Connect dials the upgrade route of the listener's endpoint.
func (l *Listener) Connect(ctx context.Context) (api.Socket, error) {
	url := "ws://" + l.LocalAddr().String() + l.path
	c, _, err := websocket.Dial(ctx, url, l.dialOpts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	return transport.NewNetSocket(websocket.NetConn(context.Background(), c, websocket.MessageBinary)), nil
}

// Close stops serving. Connections already accepted are owned by their
// sockets and stay open.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state.Load() {
	case stateIdle:
		return api.ErrListenerNotRunning
	case stateClosed:
		return api.ErrListenerClosed
	}
	l.state.Store(stateClosed)
	close(l.done)
	return l.srv.Close()
}

func (l *Listener) Running() bool              { return l.state.Load() == stateRunning }
func (l *Listener) Closed() bool               { return l.state.Load() == stateClosed }
func (l *Listener) Protocol() api.ProtocolType { return api.ProtocolWebSocket }
func (l *Listener) Path() string               { return l.path }

// LocalAddr returns the bound address once running.
func (l *Listener) LocalAddr() api.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln != nil {
		return transport.AddressOf(l.ln.Addr())
	}
	return l.addr
}

var _ api.Listener = (*Listener)(nil)
