// File: client/client.go
// Package client runs the receive loop of one XTCP connection.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Client owns one protocol.Handle, either handed over by a server accept
// loop or created by connecting through an api.Connector. Run starts a
// background loop that turns inbound messages into Message events and ends
// with exactly one Close event. Callbacks run on a per-client ordered
// executor, never on the loop itself.

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/momentics/xsocket/api"
	"github.com/momentics/xsocket/internal/concurrency"
	"github.com/momentics/xsocket/protocol"
)

// Client is one end of an XTCP connection.
type Client struct {
	cfg       Config
	log       zerolog.Logger
	id        uint64
	session   uuid.UUID
	connector api.Connector

	handle  atomic.Pointer[protocol.Handle]
	state   atomic.Int32
	closing atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	runOnce   sync.Once
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}

	exec   *concurrency.Executor
	events events
}

// New creates a client that connects through conn when Run is called.
func New(conn api.Connector, opts ...Option) *Client {
	c := newClient(opts)
	c.connector = conn
	return c
}

// FromHandle creates a client around an established handle.
func FromHandle(h *protocol.Handle, opts ...Option) *Client {
	c := newClient(opts)
	c.handle.Store(h)
	return c
}

func newClient(opts []Option) *Client {
	c := &Client{
		cfg:     *DefaultConfig(),
		log:     zerolog.Nop(),
		session: uuid.New(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	ctx := c.log.With().Str("session", c.session.String())
	if c.id != 0 {
		ctx = ctx.Uint64("conn_id", c.id)
	}
	c.log = ctx.Logger()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.exec = concurrency.NewExecutor(func(r any) {
		c.log.Error().Interface("panic", r).Msg("event callback panicked")
	})
	return c
}

// Run starts the receive loop. Later calls, and calls after Close, do nothing.
func (c *Client) Run() {
	c.runOnce.Do(func() {
		if !c.state.CompareAndSwap(int32(api.StateIdle), int32(api.StateRunning)) {
			return
		}
		go c.loop()
	})
}

func (c *Client) loop() {
	var cause error
	defer func() {
		if h := c.handle.Load(); h != nil {
			h.Release()
		}
		c.state.Store(int32(api.StateClosed))
		c.cancel()
		c.log.Debug().Err(cause).Msg("receive loop exited")
		c.events.close.Emit(c.exec, c, CloseEvent{Err: cause})
		c.exec.Close()
		close(c.done)
	}()

	h := c.handle.Load()
	if h == nil {
		var err error
		if h, err = c.connect(); err != nil {
			cause = err
			if !c.closing.Load() {
				c.events.errors.Emit(c.exec, c, ErrorEvent{Err: err})
			}
			return
		}
		c.events.open.Emit(c.exec, c, OpenEvent{})
	}

	failures := 0
	for {
		op, data, err := h.ReceiveMessage()
		if err == nil {
			failures = 0
			c.events.message.Emit(c.exec, c, MessageEvent{OpCode: op, Data: data})
			continue
		}

		switch {
		case errors.Is(err, api.ErrPeerClosed):
			c.log.Debug().Msg("peer closed connection")
			h.AwaitRelease(c.cfg.CloseTimeout)
			return
		case errors.Is(err, api.ErrConnectionAborted), errors.Is(err, api.ErrHandleClosed):
			return
		case api.IsTransport(err):
			if !c.closing.Load() {
				cause = err
			}
			return
		case errors.Is(err, api.ErrProtocolViolation):
			c.log.Warn().Err(err).Msg("protocol violation")
			cause = err
			c.events.errors.Emit(c.exec, c, ErrorEvent{Err: err})
			return
		}

		c.log.Debug().Err(err).Msg("receive failed")
		c.events.errors.Emit(c.exec, c, ErrorEvent{Err: err})
		failures++
		if c.cfg.MaxConsecutiveErrors > 0 && failures >= c.cfg.MaxConsecutiveErrors {
			cause = fmt.Errorf("giving up after %d consecutive errors: %w", failures, err)
			return
		}
	}
}

func (c *Client) connect() (*protocol.Handle, error) {
	ctx := c.ctx
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}
	sock, err := c.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	h := protocol.NewHandle(sock, protocol.WithLimits(c.cfg.limits()))
	c.handle.Store(h)
	// Close may have run while connecting and seen no handle.
	if c.closing.Load() {
		return nil, api.ErrClientClosed
	}
	c.log.Debug().Str("remote", sock.RemoteAddr().String()).Msg("connected")
	return h, nil
}

// Close performs the close handshake and returns once the receive loop has
// exited. The wait for the peer's acknowledgment is bounded by
// Config.CloseTimeout, after which the transport is force-closed.
// Close on a client that is not running does nothing.
func (c *Client) Close() error {
	if api.LoopState(c.state.Load()) != api.StateRunning {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		c.cancel()
		if h := c.handle.Load(); h != nil {
			c.closeErr = c.handshake(h)
		}
	})
	<-c.done
	return c.closeErr
}

func (c *Client) handshake(h *protocol.Handle) error {
	sent := make(chan error, 1)
	go func() { sent <- h.Close() }()

	timer := time.NewTimer(c.cfg.CloseTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return nil
	case err := <-sent:
		if err != nil {
			h.Release()
			<-c.done
			if api.IsTransport(err) {
				return nil
			}
			return err
		}
	case <-timer.C:
		c.log.Debug().Dur("timeout", c.cfg.CloseTimeout).Msg("close frame not sent in time")
		h.Release()
		<-c.done
		return nil
	}

	select {
	case <-c.done:
	case <-timer.C:
		c.log.Debug().Dur("timeout", c.cfg.CloseTimeout).Msg("close not acknowledged in time")
		h.Release()
		<-c.done
	}
	return nil
}

// Wait blocks until the receive loop has exited and every event it raised,
// including Close, has been delivered. Do not call it from a callback.
func (c *Client) Wait() {
	<-c.done
	c.exec.Wait()
}

// Done is closed when the receive loop has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send transmits data as one message.
func (c *Client) Send(data []byte) error {
	if !c.Running() {
		return api.ErrClientClosed
	}
	h := c.handle.Load()
	if h == nil {
		return api.ErrNotConnected
	}
	if err := h.Send(data, protocol.OpData); err != nil {
		if errors.Is(err, api.ErrHandleClosed) {
			return fmt.Errorf("%w: %w", api.ErrClientClosed, err)
		}
		return err
	}
	return nil
}

// SendString transmits s as one message.
func (c *Client) SendString(s string) error {
	return c.Send([]byte(s))
}

// SendValue transmits v encoded as CBOR; peers decode it with
// MessageEvent.Decode.
func (c *Client) SendValue(v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	return c.Send(data)
}

// State returns the lifecycle state.
func (c *Client) State() api.LoopState {
	return api.LoopState(c.state.Load())
}

// Running reports whether the loop runs and Close has not been requested.
func (c *Client) Running() bool {
	return c.State() == api.StateRunning && !c.closing.Load()
}

// Closed reports whether the receive loop has terminated.
func (c *Client) Closed() bool {
	return c.State() == api.StateClosed
}

// ID returns the server-assigned connection id, or zero.
func (c *Client) ID() uint64 {
	return c.id
}

// SessionID returns the random id tagging this client's log lines.
func (c *Client) SessionID() uuid.UUID {
	return c.session
}

// LocalAddr returns the local endpoint of the connection, or the
// connector's endpoint before connecting.
func (c *Client) LocalAddr() api.Address {
	if h := c.handle.Load(); h != nil {
		return h.LocalAddr()
	}
	if c.connector != nil {
		return c.connector.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the peer endpoint, or api.ErrNotConnected.
func (c *Client) RemoteAddr() (api.Address, error) {
	h := c.handle.Load()
	if h == nil {
		return nil, api.ErrNotConnected
	}
	return h.RemoteAddr(), nil
}

// Family returns the address family of the local endpoint.
func (c *Client) Family() api.AddressFamily {
	if a := c.LocalAddr(); a != nil {
		return a.Family()
	}
	return api.FamilyUnspecified
}

// Stats returns transfer counters of the underlying handle.
func (c *Client) Stats() map[string]int64 {
	if h := c.handle.Load(); h != nil {
		return h.Stats()
	}
	return map[string]int64{}
}
