// File: client/config.go
// Package client
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"time"

	"github.com/momentics/xsocket/protocol"
)

// Config holds client-side parameters.
type Config struct {
	// CloseTimeout bounds how long Close waits for the peer to acknowledge
	// the close handshake (and how long a peer-closed client waits for the
	// peer to drop the stream) before the transport is force-closed.
	CloseTimeout time.Duration `toml:"close_timeout" yaml:"close_timeout"`
	// ConnectTimeout bounds the connect step of connector-built clients.
	// Zero means no timeout beyond Close.
	ConnectTimeout time.Duration `toml:"connect_timeout" yaml:"connect_timeout"`
	// MaxMessageSize rejects larger inbound messages as a protocol violation.
	MaxMessageSize int `toml:"max_message_size" yaml:"max_message_size"`
	// MaxConsecutiveErrors stops the receive loop after this many
	// temporary receive failures in a row. Zero means unlimited.
	MaxConsecutiveErrors int `toml:"max_consecutive_errors" yaml:"max_consecutive_errors"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CloseTimeout:         5 * time.Second,
		ConnectTimeout:       10 * time.Second,
		MaxMessageSize:       0,
		MaxConsecutiveErrors: 16,
	}
}

func (c *Config) limits() protocol.Limits {
	return protocol.Limits{MaxMessageSize: c.MaxMessageSize}
}
