// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the XTCP stream transport: a TCP listener that
// accepts api.Socket connections and a connector dialing the same endpoint.
package tcp
