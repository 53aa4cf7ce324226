// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/xsocket/api"
	"github.com/momentics/xsocket/transport"
)

const (
	stateIdle int32 = iota
	stateRunning
	stateClosed
)

// Listener binds one TCP endpoint. The same value also acts as the
// connector clients use to dial that endpoint.
type Listener struct {
	addr   transport.IPAddress
	dialer net.Dialer

	mu    sync.Mutex
	ln    *net.TCPListener
	state atomic.Int32
}

// NewListener creates an idle listener for addr.
func NewListener(addr transport.IPAddress) *Listener {
	return &Listener{addr: addr}
}

// Listen parses "host:port" and returns an idle listener.
func Listen(endpoint string) (*Listener, error) {
	addr, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return NewListener(addr), nil
}

// Run binds the endpoint. Calling Run on a running listener is a no-op.
func (l *Listener) Run() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state.Load() {
	case stateRunning:
		return nil
	case stateClosed:
		return api.ErrListenerClosed
	}
	ln, err := net.ListenTCP("tcp", l.addr.TCPAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.addr, err)
	}
	l.ln = ln
	l.state.Store(stateRunning)
	return nil
}

// Accept waits for the next connection. Cancelling ctx interrupts the wait
// without closing the listener. Only one Accept should be in flight.
func (l *Listener) Accept(ctx context.Context) (api.Socket, error) {
	ln, err := l.listener()
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ln.SetDeadline(time.Now())
	})
	defer stop()

	for {
		conn, err := ln.AcceptTCP()
		if err == nil {
			if err := transport.Tune(conn); err != nil {
				conn.Close()
				return nil, fmt.Errorf("tune %s: %w", conn.RemoteAddr(), err)
			}
			return transport.NewNetSocket(conn), nil
		}
		if ctx.Err() != nil {
			_ = ln.SetDeadline(time.Time{})
			return nil, ctx.Err()
		}
		if l.Closed() {
			return nil, api.ErrListenerClosed
		}
		// A deadline left over from an earlier cancelled Accept.
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			_ = ln.SetDeadline(time.Time{})
			continue
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
}

// Connect dials the listener's endpoint (the bound one when running).
func (l *Listener) Connect(ctx context.Context) (api.Socket, error) {
	target := l.LocalAddr().String()
	conn, err := l.dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	if err := transport.Tune(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tune %s: %w", target, err)
	}
	return transport.NewNetSocket(conn), nil
}

// Close stops listening. It fails with api.ErrListenerNotRunning if Run
// never succeeded and api.ErrListenerClosed on repeated calls.
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
	return l.ln.Close()
}

func (l *Listener) Running() bool              { return l.state.Load() == stateRunning }
func (l *Listener) Closed() bool               { return l.state.Load() == stateClosed }
func (l *Listener) Protocol() api.ProtocolType { return api.ProtocolXTCP }

// LocalAddr returns the bound address once running, so a ":0" port
// resolves to the one the kernel picked.
func (l *Listener) LocalAddr() api.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln != nil {
		return transport.AddressOf(l.ln.Addr())
	}
	return l.addr
}

func (l *Listener) listener() (*net.TCPListener, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state.Load() {
	case stateIdle:
		return nil, api.ErrListenerNotRunning
	case stateClosed:
		return nil, api.ErrListenerClosed
	}
	return l.ln, nil
}

var _ api.Listener = (*Listener)(nil)
