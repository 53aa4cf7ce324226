// File: client/options.go
// Package client defines functional options for Client.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"time"

	"github.com/rs/zerolog"
)

// Option customizes client initialization.
type Option func(*Client)

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(c *Client) {
		if cfg != nil {
			c.cfg = *cfg
		}
	}
}

// WithCloseTimeout overrides Config.CloseTimeout.
func WithCloseTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.cfg.CloseTimeout = d
	}
}

// WithLogger sets the parent logger. Client fields are added to it.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithID tags the client with a server-assigned connection id.
func WithID(id uint64) Option {
	return func(c *Client) {
		c.id = id
	}
}
