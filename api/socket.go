// File: api/socket.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Collaborator contracts consumed by the protocol core: byte-stream sockets,
// connectors, listeners and endpoint addresses.

package api

import (
	"context"
	"fmt"
)

// Socket exclusively owns one underlying stream connection.
type Socket interface {
	// Send writes all of p or fails.
	Send(p []byte) error
	// ReadFull blocks until len(p) bytes were read or the stream failed.
	// An error wrapping ErrTemporary promises that nothing was consumed;
	// any other error ends the stream.
	ReadFull(p []byte) error
	Close() error
	LocalAddr() Address
	RemoteAddr() Address
}

// Connector creates outbound sockets to a fixed endpoint.
type Connector interface {
	Connect(ctx context.Context) (Socket, error)
	LocalAddr() Address
	Protocol() ProtocolType
}

// Listener binds an endpoint and accepts inbound sockets.
// Accept honours ctx without closing the listener. Close on a listener
// that was never run returns ErrListenerNotRunning.
type Listener interface {
	Connector
	Run() error
	Accept(ctx context.Context) (Socket, error)
	Close() error
	Running() bool
	Closed() bool
}

// Address is an endpoint value with an address-family tag.
type Address interface {
	Family() AddressFamily
	Network() string
	String() string
}

// AddressFamily mirrors the socket address families the library understands.
type AddressFamily int

const (
	FamilyUnspecified    AddressFamily = 0
	FamilyUnix           AddressFamily = 1
	FamilyInterNetwork   AddressFamily = 2
	FamilyInterNetworkV6 AddressFamily = 23
)

func (f AddressFamily) String() string {
	switch f {
	case FamilyUnspecified:
		return "unspecified"
	case FamilyUnix:
		return "unix"
	case FamilyInterNetwork:
		return "inet"
	case FamilyInterNetworkV6:
		return "inet6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ProtocolType identifies the byte-stream transport under the framing.
type ProtocolType int

const (
	ProtocolXTCP ProtocolType = iota
	ProtocolWebSocket
	ProtocolMemory
)

func (p ProtocolType) String() string {
	switch p {
	case ProtocolXTCP:
		return "xtcp"
	case ProtocolWebSocket:
		return "websocket"
	case ProtocolMemory:
		return "memory"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}
