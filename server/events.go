// File: server/events.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/xsocket/client"
	"github.com/momentics/xsocket/event"
)

// OpenEvent is raised once when the accept loop starts.
type OpenEvent struct{}

// CloseEvent is raised once when the accept loop exits.
type CloseEvent struct{}

// ErrorEvent reports a failed accept iteration. The loop keeps running.
type ErrorEvent struct {
	Err error
}

// AcceptEvent is raised after a connection was registered and started.
type AcceptEvent struct {
	ID     uint64
	Client *client.Client
}

type (
	OpenHandler   = event.Handler[*Server, OpenEvent]
	CloseHandler  = event.Handler[*Server, CloseEvent]
	ErrorHandler  = event.Handler[*Server, ErrorEvent]
	AcceptHandler = event.Handler[*Server, AcceptEvent]
)

type events struct {
	open   event.Signal[*Server, OpenEvent]
	close  event.Signal[*Server, CloseEvent]
	errors event.Signal[*Server, ErrorEvent]
	accept event.Signal[*Server, AcceptEvent]
}

// OnOpen registers fn for the Open event. The returned func unregisters it.
func (s *Server) OnOpen(fn OpenHandler) func() { return s.events.open.Subscribe(fn) }

// OnClose registers fn for the Close event.
func (s *Server) OnClose(fn CloseHandler) func() { return s.events.close.Subscribe(fn) }

// OnError registers fn for accept failures.
func (s *Server) OnError(fn ErrorHandler) func() { return s.events.errors.Subscribe(fn) }

// OnAccept registers fn for new connections.
func (s *Server) OnAccept(fn AcceptHandler) func() { return s.events.accept.Subscribe(fn) }
