// File: facade/facade.go
// Package facade wires transports, servers and clients from configuration.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The facade maps a transport name ("tcp" or "websocket") onto the
// matching api.Listener so programs can switch transports from a config
// file without touching code.

package facade

import (
	"fmt"
	"strings"

	"github.com/momentics/xsocket/api"
	"github.com/momentics/xsocket/client"
	"github.com/momentics/xsocket/server"
	"github.com/momentics/xsocket/transport/tcp"
	"github.com/momentics/xsocket/transport/ws"
)

// Endpoint names a transport and the address it binds or dials.
type Endpoint struct {
	Transport string `toml:"transport" yaml:"transport"`
	Addr      string `toml:"addr" yaml:"addr"`
	Path      string `toml:"path" yaml:"path"`
}

// NewListener builds an idle listener for ep.
func NewListener(ep Endpoint) (api.Listener, error) {
	switch strings.ToLower(ep.Transport) {
	case "", "tcp", "xtcp":
		return tcp.Listen(ep.Addr)
	case "websocket", "ws":
		return ws.Listen(ep.Addr, ep.Path)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", api.ErrInvalidParameter, ep.Transport)
	}
}

// NewServer builds an idle server listening where cfg says.
func NewServer(cfg *server.Config, opts ...server.Option) (*server.Server, error) {
	if cfg == nil {
		cfg = server.DefaultConfig()
	}
	l, err := NewListener(Endpoint{Transport: cfg.Transport, Addr: cfg.ListenAddr, Path: cfg.Path})
	if err != nil {
		return nil, err
	}
	return server.New(l, append([]server.Option{server.WithConfig(cfg)}, opts...)...), nil
}

// NewClient builds an idle client that connects to ep on Run.
func NewClient(ep Endpoint, cfg *client.Config, opts ...client.Option) (*client.Client, error) {
	conn, err := NewListener(ep)
	if err != nil {
		return nil, err
	}
	return client.New(conn, append([]client.Option{client.WithConfig(cfg)}, opts...)...), nil
}
