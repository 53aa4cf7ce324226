// File: server/types.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"time"

	"github.com/momentics/xsocket/client"
)

// Config holds all server-side configuration parameters.
type Config struct {
	// Transport selects the stream transport built by NewListener:
	// "tcp" or "websocket".
	Transport  string `toml:"transport" yaml:"transport"`
	ListenAddr string `toml:"listen_addr" yaml:"listen_addr"`
	// Path is the upgrade route of the websocket transport.
	Path string `toml:"path" yaml:"path"`

	// RegistryShards is rounded up to a power of two.
	RegistryShards int `toml:"registry_shards" yaml:"registry_shards"`
	// BroadcastConcurrency caps concurrent sends per Broadcast; 0 is unlimited.
	BroadcastConcurrency int `toml:"broadcast_concurrency" yaml:"broadcast_concurrency"`

	AcceptBackoffMin time.Duration `toml:"accept_backoff_min" yaml:"accept_backoff_min"`
	AcceptBackoffMax time.Duration `toml:"accept_backoff_max" yaml:"accept_backoff_max"`

	// Client configures every accepted connection.
	Client client.Config `toml:"client" yaml:"client"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Transport:            "tcp",
		ListenAddr:           "127.0.0.1:9000",
		Path:                 "/xsocket",
		RegistryShards:       16,
		BroadcastConcurrency: 0,
		AcceptBackoffMin:     5 * time.Millisecond,
		AcceptBackoffMax:     time.Second,
		Client:               *client.DefaultConfig(),
	}
}

// backoff doubles prev within [AcceptBackoffMin, AcceptBackoffMax].
func (c *Config) backoff(prev time.Duration) time.Duration {
	next := prev * 2
	if next < c.AcceptBackoffMin {
		next = c.AcceptBackoffMin
	}
	if c.AcceptBackoffMax > 0 && next > c.AcceptBackoffMax {
		next = c.AcceptBackoffMax
	}
	return next
}
