// File: transport/sockopt_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !linux

package transport

import "net"

// Tune applies linger(0) and no-delay to a TCP connection.
func Tune(conn net.Conn) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetLinger(0); err != nil {
		return err
	}
	return tc.SetNoDelay(true)
}
