// File: transport/address.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Endpoint value types implementing api.Address.

package transport

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/momentics/xsocket/api"
)

// IPAddress is an IPv4 or IPv6 endpoint. The zero value is invalid.
type IPAddress struct {
	ap netip.AddrPort
}

// ParseIPAddress validates host and port. An empty host binds all IPv4
// interfaces; "localhost" maps to the IPv4 loopback.
func ParseIPAddress(host string, port int) (IPAddress, error) {
	if port < 0 || port > 65535 {
		return IPAddress{}, fmt.Errorf("%w: port %d out of range", api.ErrInvalidParameter, port)
	}
	var ip netip.Addr
	switch strings.ToLower(host) {
	case "":
		ip = netip.IPv4Unspecified()
	case "localhost":
		ip = netip.AddrFrom4([4]byte{127, 0, 0, 1})
	default:
		var err error
		if ip, err = netip.ParseAddr(strings.Trim(host, "[]")); err != nil {
			return IPAddress{}, fmt.Errorf("%w: address %q: %w", api.ErrInvalidParameter, host, err)
		}
	}
	return IPAddress{ap: netip.AddrPortFrom(ip.Unmap(), uint16(port))}, nil
}

// ParseEndpoint parses "host:port".
func ParseEndpoint(endpoint string) (IPAddress, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return IPAddress{}, fmt.Errorf("%w: endpoint %q: %w", api.ErrInvalidParameter, endpoint, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return IPAddress{}, fmt.Errorf("%w: port %q", api.ErrInvalidParameter, portStr)
	}
	return ParseIPAddress(host, port)
}

// IPAddressFrom converts a resolved netip.AddrPort.
func IPAddressFrom(ap netip.AddrPort) IPAddress {
	return IPAddress{ap: netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())}
}

func (a IPAddress) Family() api.AddressFamily {
	switch {
	case !a.ap.IsValid():
		return api.FamilyUnspecified
	case a.ap.Addr().Is4():
		return api.FamilyInterNetwork
	default:
		return api.FamilyInterNetworkV6
	}
}

func (a IPAddress) Network() string          { return "tcp" }
func (a IPAddress) String() string           { return a.ap.String() }
func (a IPAddress) Port() int                { return int(a.ap.Port()) }
func (a IPAddress) AddrPort() netip.AddrPort { return a.ap }

// TCPAddr converts the endpoint for net.ListenTCP / net.DialTCP.
func (a IPAddress) TCPAddr() *net.TCPAddr {
	return net.TCPAddrFromAddrPort(a.ap)
}

// UnixAddress is a unix-domain socket path.
type UnixAddress string

func (a UnixAddress) Family() api.AddressFamily { return api.FamilyUnix }
func (a UnixAddress) Network() string           { return "unix" }
func (a UnixAddress) String() string            { return string(a) }

type opaqueAddress struct {
	network string
	addr    string
}

func (a opaqueAddress) Family() api.AddressFamily { return api.FamilyUnspecified }
func (a opaqueAddress) Network() string           { return a.network }
func (a opaqueAddress) String() string            { return a.addr }

// AddressOf converts a net.Addr into an api.Address.
func AddressOf(addr net.Addr) api.Address {
	switch a := addr.(type) {
	case nil:
		return opaqueAddress{}
	case *net.TCPAddr:
		return IPAddressFrom(a.AddrPort())
	case *net.UnixAddr:
		return UnixAddress(a.Name)
	default:
		return opaqueAddress{network: addr.Network(), addr: addr.String()}
	}
}
