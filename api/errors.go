// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy shared by the codec, handles, clients and servers.
// Loops classify failures with errors.Is against these sentinels only.

package api

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Protocol errors. Fatal to the connection that produced them.
var (
	ErrProtocolViolation = fmt.Errorf("protocol violation")
	ErrMessageTooLarge   = fmt.Errorf("%w: message exceeds size limit", ErrProtocolViolation)
)

// Connection errors.
var (
	// ErrConnectionReset marks a transport-level failure (reset, EOF, broken pipe).
	ErrConnectionReset = fmt.Errorf("connection reset")
	// ErrConnectionAborted is returned by Receive once the local close handshake completed.
	ErrConnectionAborted = fmt.Errorf("connection aborted")
	// ErrPeerClosed is returned by Receive after the peer initiated the close handshake
	// and the acknowledgment was sent.
	ErrPeerClosed = fmt.Errorf("connection closed by peer")
	// ErrTemporary marks a socket read that failed before consuming any byte;
	// the stream stays usable and the read may be retried.
	ErrTemporary = fmt.Errorf("temporary failure")
)

// Usage errors, returned synchronously to the caller.
var (
	ErrHandleClosed       = fmt.Errorf("handle is closed")
	ErrSocketClosed       = fmt.Errorf("socket is closed")
	ErrClientClosed       = fmt.Errorf("client is closed")
	ErrServerClosed       = fmt.Errorf("server is closed")
	ErrListenerClosed     = fmt.Errorf("listener is closed")
	ErrListenerNotRunning = fmt.Errorf("listener is not running")
	ErrNotConnected       = fmt.Errorf("not connected")
	ErrInvalidParameter   = fmt.Errorf("invalid parameter")
)

// TransportError wraps a failure reported by a Socket read or write.
// It matches both ErrConnectionReset and the underlying cause.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the reset category and the cause to errors.Is/As.
func (e *TransportError) Unwrap() []error {
	return []error{ErrConnectionReset, e.Err}
}

// IsTransport reports whether err means the underlying stream is gone.
// Besides the package sentinels it recognises the errors net.Conn
// implementations report for a dead stream.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrConnectionReset) ||
		errors.Is(err, ErrSocketClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// IsTemporary reports whether err leaves the stream usable.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTemporary)
}

// IsControl reports whether err is an expected close-handshake signal
// rather than a failure.
func IsControl(err error) bool {
	return errors.Is(err, ErrPeerClosed) ||
		errors.Is(err, ErrConnectionAborted) ||
		errors.Is(err, ErrHandleClosed)
}

// IsFatal reports whether err must terminate a receive loop.
func IsFatal(err error) bool {
	return IsControl(err) || IsTransport(err) || errors.Is(err, ErrProtocolViolation)
}
