// File: transport/tcp/listener_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/xsocket/api"
	"github.com/momentics/xsocket/client"
	"github.com/momentics/xsocket/server"
	"github.com/momentics/xsocket/transport/tcp"
)

func newLoopback(t *testing.T) *tcp.Listener {
	t.Helper()
	ln, err := tcp.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}
	return ln
}

func TestListenerLifecycle(t *testing.T) {
	ln := newLoopback(t)
	if err := ln.Close(); !errors.Is(err, api.ErrListenerNotRunning) {
		t.Fatalf("Close before Run: %v", err)
	}
	if _, err := ln.Accept(context.Background()); !errors.Is(err, api.ErrListenerNotRunning) {
		t.Fatalf("Accept before Run: %v", err)
	}
	if err := ln.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if err := ln.Run(); err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if ln.LocalAddr().String() == "127.0.0.1:0" {
		t.Fatal("LocalAddr does not report the bound port")
	}
	if ln.LocalAddr().Family() != api.FamilyInterNetwork || ln.Protocol() != api.ProtocolXTCP {
		t.Fatalf("family %s protocol %s", ln.LocalAddr().Family(), ln.Protocol())
	}
	if err := ln.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := ln.Close(); !errors.Is(err, api.ErrListenerClosed) {
		t.Fatalf("second Close: %v", err)
	}
	if err := ln.Run(); !errors.Is(err, api.ErrListenerClosed) {
		t.Fatalf("Run after Close: %v", err)
	}
}

func TestAcceptHonoursContext(t *testing.T) {
	ln := newLoopback(t)
	if err := ln.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := ln.Accept(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Accept error = %v", err)
	}

	// A later Accept must not trip over the deadline set by the first one.
	accepted := make(chan error, 1)
	go func() {
		s, err := ln.Accept(context.Background())
		if err == nil {
			s.Close()
		}
		accepted <- err
	}()
	sock, err := ln.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer sock.Close()
	select {
	case err := <-accepted:
		if err != nil {
			t.Fatalf("Accept error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Accept did not return")
	}
}

func TestEchoOverLoopback(t *testing.T) {
	ln := newLoopback(t)
	srv := server.New(ln, server.WithClientInit(func(c *client.Client) {
		c.OnMessage(func(c *client.Client, ev client.MessageEvent) {
			c.Send(ev.Data)
		})
	}))
	if err := srv.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	defer srv.Close()

	c := client.New(ln)
	replies := make(chan []byte, 4)
	opened := make(chan struct{})
	c.OnOpen(func(*client.Client, client.OpenEvent) { close(opened) })
	c.OnMessage(func(_ *client.Client, ev client.MessageEvent) { replies <- ev.Data })
	c.Run()

	select {
	case <-opened:
	case <-time.After(3 * time.Second):
		t.Fatal("client did not connect")
	}

	big := bytes.Repeat([]byte("0123456789"), 20000)
	for _, msg := range [][]byte{[]byte("hello"), {}, big} {
		if err := c.Send(msg); err != nil {
			t.Fatalf("Send(%d bytes) error: %v", len(msg), err)
		}
		select {
		case got := <-replies:
			if !bytes.Equal(got, msg) {
				t.Fatalf("echo of %d bytes returned %d bytes", len(msg), len(got))
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no echo for %d bytes", len(msg))
		}
	}

	if err := c.Close(); err != nil {
		t.Fatalf("client Close error: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for srv.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("server still tracks %d clients", srv.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// lockedBuffer is a bytes.Buffer safe for concurrent log writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServerLogsBoundAddress(t *testing.T) {
	var out lockedBuffer
	srv := server.New(newLoopback(t), server.WithLogger(zerolog.New(&out)))
	if err := srv.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	defer srv.Close()

	want := fmt.Sprintf(`"listener":"%s"`, srv.LocalAddr())
	if srv.LocalAddr().String() == "127.0.0.1:0" {
		t.Fatal("server reports the unbound address")
	}
	if logs := out.String(); !strings.Contains(logs, want) {
		t.Fatalf("log output lacks %s:\n%s", want, logs)
	}
}
