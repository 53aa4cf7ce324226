// File: client/events.go
// Package client
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/momentics/xsocket/event"
	"github.com/momentics/xsocket/protocol"
)

// OpenEvent is raised once a connector-built client has connected.
type OpenEvent struct{}

// CloseEvent is raised exactly once when the receive loop exits.
// Err is nil for a completed close handshake.
type CloseEvent struct {
	Err error
}

// MessageEvent carries one inbound message.
type MessageEvent struct {
	OpCode protocol.OpCode
	Data   []byte
}

// Decode unmarshals a CBOR payload sent with SendValue.
func (e MessageEvent) Decode(v any) error {
	return cbor.Unmarshal(e.Data, v)
}

// ErrorEvent reports a failure that did not necessarily end the loop.
type ErrorEvent struct {
	Err error
}

type (
	OpenHandler    = event.Handler[*Client, OpenEvent]
	CloseHandler   = event.Handler[*Client, CloseEvent]
	MessageHandler = event.Handler[*Client, MessageEvent]
	ErrorHandler   = event.Handler[*Client, ErrorEvent]
)

type events struct {
	open    event.Signal[*Client, OpenEvent]
	close   event.Signal[*Client, CloseEvent]
	message event.Signal[*Client, MessageEvent]
	errors  event.Signal[*Client, ErrorEvent]
}

// OnOpen registers fn for Open events. The returned func unregisters it.
func (c *Client) OnOpen(fn OpenHandler) func() { return c.events.open.Subscribe(fn) }

// OnClose registers fn for the Close event.
func (c *Client) OnClose(fn CloseHandler) func() { return c.events.close.Subscribe(fn) }

// OnMessage registers fn for inbound messages.
func (c *Client) OnMessage(fn MessageHandler) func() { return c.events.message.Subscribe(fn) }

// OnError registers fn for reported failures.
func (c *Client) OnError(fn ErrorHandler) func() { return c.events.errors.Subscribe(fn) }
