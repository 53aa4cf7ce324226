// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"github.com/momentics/xsocket/client"
	"github.com/momentics/xsocket/control"
	"github.com/momentics/xsocket/server"
)

// ClientConfig is the file layout of a client program.
type ClientConfig struct {
	Endpoint Endpoint      `toml:"endpoint" yaml:"endpoint"`
	Client   client.Config `toml:"client" yaml:"client"`
}

// DefaultClientConfig dials the default server endpoint over TCP.
func DefaultClientConfig() *ClientConfig {
	def := server.DefaultConfig()
	return &ClientConfig{
		Endpoint: Endpoint{Transport: def.Transport, Addr: def.ListenAddr, Path: def.Path},
		Client:   *client.DefaultConfig(),
	}
}

// LoadServerConfig reads a server config file over the defaults.
// An empty path returns the defaults.
func LoadServerConfig(path string) (*server.Config, error) {
	cfg := server.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if err := control.LoadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientConfig reads a client config file over the defaults.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path == "" {
		return cfg, nil
	}
	if err := control.LoadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReloadServer re-reads path and applies the settings a running server can
// change: currently the broadcast concurrency. Other fields take effect on
// the next start.
func ReloadServer(path string, srv *server.Server) error {
	cfg, err := LoadServerConfig(path)
	if err != nil {
		return err
	}
	srv.SetBroadcastConcurrency(cfg.BroadcastConcurrency)
	return nil
}
