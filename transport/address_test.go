// File: transport/address_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"net"
	"testing"

	"github.com/momentics/xsocket/api"
)

func TestParseIPAddress(t *testing.T) {
	cases := []struct {
		host   string
		port   int
		want   string
		family api.AddressFamily
	}{
		{"", 80, "0.0.0.0:80", api.FamilyInterNetwork},
		{"localhost", 9000, "127.0.0.1:9000", api.FamilyInterNetwork},
		{"LOCALHOST", 1, "127.0.0.1:1", api.FamilyInterNetwork},
		{"10.1.2.3", 0, "10.1.2.3:0", api.FamilyInterNetwork},
		{"::1", 443, "[::1]:443", api.FamilyInterNetworkV6},
		{"[fe80::1]", 8080, "[fe80::1]:8080", api.FamilyInterNetworkV6},
		{"::ffff:192.0.2.1", 5, "192.0.2.1:5", api.FamilyInterNetwork},
	}
	for _, tc := range cases {
		a, err := ParseIPAddress(tc.host, tc.port)
		if err != nil {
			t.Fatalf("ParseIPAddress(%q, %d): %v", tc.host, tc.port, err)
		}
		if a.String() != tc.want || a.Family() != tc.family || a.Port() != tc.port {
			t.Errorf("ParseIPAddress(%q, %d) = %s (%s)", tc.host, tc.port, a, a.Family())
		}
	}
}

func TestParseIPAddressRejects(t *testing.T) {
	for _, tc := range []struct {
		host string
		port int
	}{
		{"127.0.0.1", -1},
		{"127.0.0.1", 65536},
		{"not-an-ip", 80},
		{"300.1.1.1", 80},
	} {
		if _, err := ParseIPAddress(tc.host, tc.port); !errors.Is(err, api.ErrInvalidParameter) {
			t.Errorf("ParseIPAddress(%q, %d) error = %v", tc.host, tc.port, err)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	a, err := ParseEndpoint("127.0.0.1:9000")
	if err != nil || a.String() != "127.0.0.1:9000" {
		t.Fatalf("ParseEndpoint = %v, %v", a, err)
	}
	for _, bad := range []string{"127.0.0.1", "127.0.0.1:http", ":99999"} {
		if _, err := ParseEndpoint(bad); !errors.Is(err, api.ErrInvalidParameter) {
			t.Errorf("ParseEndpoint(%q) error = %v", bad, err)
		}
	}
}

func TestZeroIPAddressIsUnspecified(t *testing.T) {
	var a IPAddress
	if a.Family() != api.FamilyUnspecified {
		t.Fatalf("zero family = %s", a.Family())
	}
}

func TestAddressOf(t *testing.T) {
	tcp := AddressOf(&net.TCPAddr{IP: net.ParseIP("192.0.2.7"), Port: 42})
	if tcp.String() != "192.0.2.7:42" || tcp.Family() != api.FamilyInterNetwork {
		t.Errorf("tcp address = %s (%s)", tcp, tcp.Family())
	}
	unix := AddressOf(&net.UnixAddr{Name: "/tmp/x.sock", Net: "unix"})
	if unix.String() != "/tmp/x.sock" || unix.Family() != api.FamilyUnix {
		t.Errorf("unix address = %s (%s)", unix, unix.Family())
	}
	if nilAddr := AddressOf(nil); nilAddr.Family() != api.FamilyUnspecified {
		t.Errorf("nil address family = %s", nilAddr.Family())
	}
}

func TestNetSocketClosedErrors(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	s := NewNetSocket(a)
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	err := s.Send([]byte{1})
	if !errors.Is(err, api.ErrSocketClosed) || !errors.Is(err, api.ErrConnectionReset) {
		t.Fatalf("Send after Close = %v", err)
	}
	var te *api.TransportError
	if !errors.As(err, &te) || te.Op != "send" {
		t.Fatalf("Send error is not a send TransportError: %v", err)
	}
}
