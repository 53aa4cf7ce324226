// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/rs/zerolog"

	"github.com/momentics/xsocket/client"
)

// Option customizes server initialization.
type Option func(*Server)

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.cfg = *cfg
		}
	}
}

// WithLogger sets the server logger; accepted clients derive theirs from it.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithBroadcastConcurrency caps concurrent sends per Broadcast.
func WithBroadcastConcurrency(n int) Option {
	return func(s *Server) {
		s.cfg.BroadcastConcurrency = n
	}
}

// WithClientOptions appends options applied to every accepted client.
func WithClientOptions(opts ...client.Option) Option {
	return func(s *Server) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithClientInit registers fn to run on every accepted client before its
// receive loop starts. Subscribe to client events there; a handler added
// from an Accept callback may miss the first messages.
func WithClientInit(fn func(*client.Client)) Option {
	return func(s *Server) {
		s.clientInit = append(s.clientInit, fn)
	}
}
