// File: protocol/handle.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle carries one duplex stream of discrete messages over a Socket and
// drives the close handshake:
//
//	Open --Close()--> LocalClosing --peer close--> Closed (socket released)
//	Open --peer close--> Closed (ack sent, reads fail)

package protocol

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/xsocket/api"
)

var closeFrame = AppendFrame(nil, true, OpConnectionClose, nil)

// HandleOption customizes a Handle.
type HandleOption func(*Handle)

// WithLimits bounds inbound message reassembly.
func WithLimits(l Limits) HandleOption {
	return func(h *Handle) {
		h.limits = l
	}
}

// Handle owns one api.Socket.
type Handle struct {
	sock   api.Socket
	src    *socketReader
	limits Limits

	// wmu serializes frame writes and state transitions driven by them,
	// so a close frame never lands between the frames of one message.
	wmu   sync.Mutex
	state atomic.Int32

	releaseOnce sync.Once
	releaseErr  error
	released    chan struct{}

	bytesReceived    atomic.Int64
	bytesSent        atomic.Int64
	messagesReceived atomic.Int64
	framesSent       atomic.Int64
}

// NewHandle wraps sock. The handle becomes its exclusive owner.
func NewHandle(sock api.Socket, opts ...HandleOption) *Handle {
	h := &Handle{
		sock:     sock,
		src:      &socketReader{sock: sock},
		limits:   DefaultLimits(),
		released: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current handshake state.
func (h *Handle) State() api.HandleState {
	return api.HandleState(h.state.Load())
}

// Closed reports whether no further send or receive is permitted.
func (h *Handle) Closed() bool {
	return h.State() == api.HandleClosed
}

// Done is closed once the socket has been released.
func (h *Handle) Done() <-chan struct{} {
	return h.released
}

func (h *Handle) LocalAddr() api.Address  { return h.sock.LocalAddr() }
func (h *Handle) RemoteAddr() api.Address { return h.sock.RemoteAddr() }

// Send encodes data as one message and writes its frames in order.
// Only OpData messages may be sent; the close frame belongs to Close.
func (h *Handle) Send(data []byte, op OpCode) error {
	if op != OpData {
		return api.ErrInvalidParameter
	}
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if h.State() != api.HandleOpen {
		return api.ErrHandleClosed
	}
	for frame := range Frames(data, op) {
		if err := h.sock.Send(frame); err != nil {
			return transportError("send", err)
		}
		h.framesSent.Add(1)
	}
	h.bytesSent.Add(int64(len(data)))
	return nil
}

// Receive returns the payload of the next inbound message.
// See ReceiveMessage for the close handshake.
func (h *Handle) Receive() ([]byte, error) {
	_, data, err := h.ReceiveMessage()
	return data, err
}

// ReceiveMessage returns the next inbound message with its opcode.
//
// Socket failures are returned as *api.TransportError, except a read
// failing with api.ErrTemporary before any byte of the message arrived;
// that one is returned unchanged and the handle stays usable.
//
// On a peer-initiated close it sends the acknowledgment and returns
// api.ErrPeerClosed; the socket stays open until Release. When the peer
// acknowledges a local Close it releases the socket and returns
// api.ErrConnectionAborted.
func (h *Handle) ReceiveMessage() (OpCode, []byte, error) {
	if h.Closed() {
		return 0, nil, api.ErrHandleClosed
	}
	h.src.consumed = 0
	op, data, err := ReadMessage(h.src, h.limits)
	if err != nil {
		return 0, nil, err
	}
	h.messagesReceived.Add(1)
	if op != OpConnectionClose {
		h.bytesReceived.Add(int64(len(data)))
		return op, data, nil
	}

	h.wmu.Lock()
	if h.state.CompareAndSwap(int32(api.HandleOpen), int32(api.HandleClosed)) {
		err := h.sock.Send(closeFrame)
		h.wmu.Unlock()
		if err != nil {
			h.Release()
			return 0, nil, transportError("send", err)
		}
		h.framesSent.Add(1)
		return 0, nil, api.ErrPeerClosed
	}
	h.wmu.Unlock()

	h.Release()
	return 0, nil, api.ErrConnectionAborted
}

// Close starts the local close handshake by sending a ConnectionClose frame.
// The socket is left open until the peer acknowledges; calls after the
// first are no-ops.
func (h *Handle) Close() error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if !h.state.CompareAndSwap(int32(api.HandleOpen), int32(api.HandleLocalClosing)) {
		return nil
	}
	if err := h.sock.Send(closeFrame); err != nil {
		return transportError("send", err)
	}
	h.framesSent.Add(1)
	return nil
}

// Release closes the socket unconditionally and marks the handle closed.
// It does not wait for a pending Send to finish; closing the socket is what
// unblocks it.
func (h *Handle) Release() error {
	h.releaseOnce.Do(func() {
		h.state.Store(int32(api.HandleClosed))
		h.releaseErr = h.sock.Close()
		close(h.released)
	})
	return h.releaseErr
}

// AwaitRelease waits up to timeout for the peer to drop the stream after a
// peer-initiated close, then releases the socket.
func (h *Handle) AwaitRelease(timeout time.Duration) {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		var b [1]byte
		for h.sock.ReadFull(b[:]) == nil {
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
	case <-h.released:
	}
	h.Release()
	<-drained
}

// Stats returns transfer counters.
func (h *Handle) Stats() map[string]int64 {
	return map[string]int64{
		"bytes_received":    h.bytesReceived.Load(),
		"bytes_sent":        h.bytesSent.Load(),
		"messages_received": h.messagesReceived.Load(),
		"frames_sent":       h.framesSent.Load(),
	}
}

// socketReader adapts Socket.ReadFull to io.Reader. Every Read fills p
// completely or fails, which is what the codec's io.ReadFull calls expect.
// consumed counts the bytes of the message being read.
type socketReader struct {
	sock     api.Socket
	consumed int
}

func (r *socketReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.sock.ReadFull(p); err != nil {
		if api.IsTemporary(err) {
			if r.consumed == 0 {
				return 0, err
			}
			// The frame boundary is lost, so the stream cannot be resumed.
			err = fmt.Errorf("interrupted after %d bytes of a message: %v", r.consumed, err)
		}
		return 0, transportError("recv", err)
	}
	r.consumed += len(p)
	return len(p), nil
}

// transportError wraps a socket failure unless the socket already did.
func transportError(op string, err error) error {
	var te *api.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &api.TransportError{Op: op, Err: err}
}
