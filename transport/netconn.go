// File: transport/netconn.go
// Package transport adapts net.Conn streams to api.Socket.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/momentics/xsocket/api"
)

// NetSocket implements api.Socket over a net.Conn.
type NetSocket struct {
	conn   net.Conn
	local  api.Address
	remote api.Address
	closed atomic.Bool
}

// NewNetSocket takes ownership of conn.
func NewNetSocket(conn net.Conn) *NetSocket {
	return &NetSocket{
		conn:   conn,
		local:  AddressOf(conn.LocalAddr()),
		remote: AddressOf(conn.RemoteAddr()),
	}
}

// Send writes all of p.
func (s *NetSocket) Send(p []byte) error {
	for len(p) > 0 {
		n, err := s.conn.Write(p)
		if err != nil {
			return s.fail("send", err)
		}
		p = p[n:]
	}
	return nil
}

// ReadFull reads exactly len(p) bytes.
func (s *NetSocket) ReadFull(p []byte) error {
	if _, err := io.ReadFull(s.conn, p); err != nil {
		return s.fail("recv", err)
	}
	return nil
}

// Close closes the connection once; later calls return nil.
func (s *NetSocket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

func (s *NetSocket) LocalAddr() api.Address  { return s.local }
func (s *NetSocket) RemoteAddr() api.Address { return s.remote }

// Conn exposes the wrapped connection, e.g. for deadlines.
func (s *NetSocket) Conn() net.Conn {
	return s.conn
}

func (s *NetSocket) fail(op string, err error) error {
	if s.closed.Load() {
		err = fmt.Errorf("%w: %w", api.ErrSocketClosed, err)
	}
	return &api.TransportError{Op: op, Err: err}
}
