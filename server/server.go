// File: server/server.go
// Package server accepts XTCP connections and keeps a registry of them.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Run starts the listener and an accept loop that wraps every accepted
// socket in a client.Client, registers it under a fresh id and removes it
// again when the client's Close event fires.

package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/xsocket/api"
	"github.com/momentics/xsocket/client"
	"github.com/momentics/xsocket/control"
	"github.com/momentics/xsocket/internal/concurrency"
	"github.com/momentics/xsocket/protocol"
)

// Server owns a Listener and the clients it accepted.
type Server struct {
	cfg        Config
	log        zerolog.Logger
	listener   api.Listener
	clientOpts []client.Option
	clientInit []func(*client.Client)

	registry  *Registry
	nextID    atomic.Uint64
	fanoutCap atomic.Int64

	mu       sync.Mutex
	state    atomic.Int32
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}

	exec    *concurrency.Executor
	events  events
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
}

// New creates an idle server around l.
func New(l api.Listener, opts ...Option) *Server {
	s := &Server{
		cfg:      *DefaultConfig(),
		log:      zerolog.Nop(),
		listener: l,
		loopDone: make(chan struct{}),
		metrics:  control.NewMetricsRegistry(),
		probes:   control.NewDebugProbes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.cfg.RegistryShards)
	s.fanoutCap.Store(int64(s.cfg.BroadcastConcurrency))
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.exec = concurrency.NewExecutor(func(r any) {
		s.log.Error().Interface("panic", r).Msg("event callback panicked")
	})

	s.probes.RegisterProbe("state", func() any { return s.State().String() })
	s.probes.RegisterProbe("clients", func() any { return s.registry.Len() })
	s.probes.RegisterProbe("executor", func() any { return s.exec.Stats() })
	s.probes.RegisterProbe("broadcast_concurrency", func() any { return s.fanoutCap.Load() })
	control.RegisterPlatformProbes(s.probes)
	return s
}

// Run starts the listener and the accept loop. It is a no-op on a running
// server and fails with api.ErrServerClosed after Close.
func (s *Server) Run() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch api.LoopState(s.state.Load()) {
	case api.StateRunning:
		return nil
	case api.StateClosed:
		return api.ErrServerClosed
	}
	if err := s.listener.Run(); err != nil {
		return fmt.Errorf("run listener: %w", err)
	}
	// Tagged only now: a ":0" endpoint has its real port once bound.
	s.log = s.log.With().Str("listener", s.listener.LocalAddr().String()).Logger()
	s.state.Store(int32(api.StateRunning))
	s.log.Info().Str("protocol", s.listener.Protocol().String()).Msg("server running")
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer close(s.loopDone)
	s.events.open.Emit(s.exec, s, OpenEvent{})

	var delay time.Duration
	for !s.Closed() {
		sock, err := s.listener.Accept(s.ctx)
		if err != nil {
			if s.Closed() {
				break
			}
			s.metrics.Add("accept_errors", 1)
			s.log.Warn().Err(err).Msg("accept failed")
			s.events.errors.Emit(s.exec, s, ErrorEvent{Err: err})

			delay = s.cfg.backoff(delay)
			select {
			case <-time.After(delay):
			case <-s.ctx.Done():
			}
			continue
		}
		delay = 0
		s.admit(sock)
	}

	s.log.Info().Msg("accept loop exited")
	s.events.close.Emit(s.exec, s, CloseEvent{})
}

func (s *Server) admit(sock api.Socket) {
	id := s.nextID.Add(1)
	h := protocol.NewHandle(sock, protocol.WithLimits(protocol.Limits{
		MaxMessageSize: s.cfg.Client.MaxMessageSize,
	}))
	opts := append([]client.Option{
		client.WithConfig(&s.cfg.Client),
		client.WithLogger(s.log),
	}, s.clientOpts...)
	opts = append(opts, client.WithID(id))
	c := client.FromHandle(h, opts...)

	c.OnClose(func(*client.Client, client.CloseEvent) {
		if s.registry.Remove(id) {
			s.metrics.Add("closed", 1)
		}
	})
	for _, fn := range s.clientInit {
		fn(c)
	}
	s.registry.Insert(id, c)
	s.metrics.Add("accepted", 1)
	c.Run()

	s.log.Debug().Uint64("conn_id", id).Str("remote", sock.RemoteAddr().String()).Msg("accepted")
	s.events.accept.Emit(s.exec, s, AcceptEvent{ID: id, Client: c})
}

// Close stops accepting, waits for the accept loop to exit, closes every
// registered client concurrently and finally closes the listener.
// Calls after the first return nil.
func (s *Server) Close() error {
	s.mu.Lock()
	prev := api.LoopState(s.state.Swap(int32(api.StateClosed)))
	s.mu.Unlock()
	switch prev {
	case api.StateIdle:
		close(s.loopDone)
		s.exec.Close()
		return nil
	case api.StateClosed:
		return nil
	}

	s.cancel()
	<-s.loopDone

	clients := s.registry.Snapshot()
	errs := make([]error, len(clients))
	var g errgroup.Group
	for i, c := range clients {
		g.Go(func() error {
			errs[i] = c.Close()
			return nil
		})
	}
	_ = g.Wait()

	err := multierr.Combine(errs...)
	if lerr := s.listener.Close(); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("close listener: %w", lerr))
	}
	s.exec.Close()
	s.log.Info().Int("clients", len(clients)).Msg("server closed")
	return err
}

// Broadcast sends data to every registered client concurrently and waits
// for all sends. A failing client does not prevent delivery to the others;
// the returned error combines the individual failures.
func (s *Server) Broadcast(data []byte) error {
	if !s.Running() {
		return api.ErrServerClosed
	}
	clients := s.registry.Snapshot()
	s.metrics.Add("broadcasts", 1)

	errs := make([]error, len(clients))
	var g errgroup.Group
	if n := s.fanoutCap.Load(); n > 0 {
		g.SetLimit(int(n))
	}
	for i, c := range clients {
		g.Go(func() error {
			if err := c.Send(data); err != nil {
				errs[i] = fmt.Errorf("client %d: %w", c.ID(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := multierr.Combine(errs...)
	if n := len(multierr.Errors(err)); n > 0 {
		s.metrics.Add("broadcast_failures", int64(n))
	}
	return err
}

// SetBroadcastConcurrency changes the cap on concurrent sends of later
// Broadcast calls; n <= 0 removes it.
func (s *Server) SetBroadcastConcurrency(n int) {
	s.fanoutCap.Store(int64(n))
}

// BroadcastString broadcasts s.
func (s *Server) BroadcastString(str string) error {
	return s.Broadcast([]byte(str))
}

// BroadcastValue broadcasts v encoded as CBOR.
func (s *Server) BroadcastValue(v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	return s.Broadcast(data)
}

// State returns the lifecycle state.
func (s *Server) State() api.LoopState {
	return api.LoopState(s.state.Load())
}

func (s *Server) Running() bool { return s.State() == api.StateRunning }
func (s *Server) Closed() bool  { return s.State() == api.StateClosed }

// LocalAddr returns the listener endpoint.
func (s *Server) LocalAddr() api.Address {
	return s.listener.LocalAddr()
}

// Family returns the address family of the listener endpoint.
func (s *Server) Family() api.AddressFamily {
	return s.listener.LocalAddr().Family()
}

// Protocol returns the transport protocol of the listener.
func (s *Server) Protocol() api.ProtocolType {
	return s.listener.Protocol()
}

// Len returns the number of registered clients.
func (s *Server) Len() int {
	return s.registry.Len()
}

// Client returns the registered client with id.
func (s *Server) Client(id uint64) (*client.Client, bool) {
	return s.registry.Get(id)
}

// Clients returns the clients registered at call time.
func (s *Server) Clients() []*client.Client {
	return s.registry.Snapshot()
}

// Stats returns server counters together with the live client count.
func (s *Server) Stats() map[string]any {
	out := s.metrics.GetSnapshot()
	out["active"] = s.registry.Len()
	return out
}

// Debug returns the server's probe registry.
func (s *Server) Debug() *control.DebugProbes {
	return s.probes
}

// Wait blocks until the accept loop has exited and every server event has
// been delivered. Do not call it from a callback.
func (s *Server) Wait() {
	<-s.loopDone
	s.exec.Wait()
}
