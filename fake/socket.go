// Package fake
// Author: momentics <momentics@gmail.com>
//
// In-memory sockets and listeners for tests. Sockets are the two ends of a
// synchronous net.Pipe, with injectable send and receive failures.

package fake

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/xsocket/api"
)

// Address names one end of an in-memory pipe.
type Address string

func (a Address) Family() api.AddressFamily { return api.FamilyUnspecified }
func (a Address) Network() string           { return "memory" }
func (a Address) String() string            { return string(a) }

var pipeSeq atomic.Uint64

// Socket is one end of an in-memory duplex stream.
type Socket struct {
	conn   net.Conn
	local  Address
	remote Address

	mu        sync.Mutex
	sendError error
	recvError error

	closed    atomic.Bool
	bytesSent atomic.Int64
	bytesRecv atomic.Int64
}

// Pipe returns two connected sockets.
func Pipe() (*Socket, *Socket) {
	n := pipeSeq.Add(1)
	a, b := net.Pipe()
	la := Address(fmt.Sprintf("pipe-%d-a", n))
	lb := Address(fmt.Sprintf("pipe-%d-b", n))
	return &Socket{conn: a, local: la, remote: lb},
		&Socket{conn: b, local: lb, remote: la}
}

// Send implements api.Socket.Send.
func (s *Socket) Send(p []byte) error {
	if err := s.injected(&s.sendError); err != nil {
		return &api.TransportError{Op: "send", Err: err}
	}
	n, err := s.conn.Write(p)
	s.bytesSent.Add(int64(n))
	if err != nil {
		return s.fail("send", err)
	}
	return nil
}

// ReadFull implements api.Socket.ReadFull.
func (s *Socket) ReadFull(p []byte) error {
	if err := s.injected(&s.recvError); err != nil {
		if api.IsTemporary(err) {
			return err
		}
		return &api.TransportError{Op: "recv", Err: err}
	}
	n, err := io.ReadFull(s.conn, p)
	s.bytesRecv.Add(int64(n))
	if err != nil {
		return s.fail("recv", err)
	}
	return nil
}

// Close implements api.Socket.Close.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

func (s *Socket) LocalAddr() api.Address  { return s.local }
func (s *Socket) RemoteAddr() api.Address { return s.remote }

// IsClosed reports whether Close was called on this end.
func (s *Socket) IsClosed() bool {
	return s.closed.Load()
}

// BytesSent returns the number of bytes written by this end.
func (s *Socket) BytesSent() int64 {
	return s.bytesSent.Load()
}

// BytesReceived returns the number of bytes read by this end.
func (s *Socket) BytesReceived() int64 {
	return s.bytesRecv.Load()
}

// SetSendError makes every following Send fail with err. Nil clears it.
func (s *Socket) SetSendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendError = err
}

// SetRecvError makes every following ReadFull fail with err. A read that
// is already blocked is not interrupted. Errors wrapping api.ErrTemporary
// are returned as they are; others come wrapped in *api.TransportError.
func (s *Socket) SetRecvError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recvError = err
}

func (s *Socket) injected(slot *error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *slot
}

func (s *Socket) fail(op string, err error) error {
	if s.closed.Load() {
		err = fmt.Errorf("%w: %w", api.ErrSocketClosed, err)
	}
	return &api.TransportError{Op: op, Err: err}
}

var _ api.Socket = (*Socket)(nil)
