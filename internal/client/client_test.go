package client

import (
	"errors"
	"net"
	"testing"

	"github.com/jassi-singh/kvs/internal/engine"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/server"
)

// startEchoServer runs a real server.Server (backed by a real
// engine.KVEngine over a temp dir) on an ephemeral port, so client tests
// exercise the full dial/send/receive path.
func startEchoServer(t *testing.T) string {
	t.Helper()

	eng, err := engine.Open(t.TempDir())
	if err != nil {
		t.Fatalf("engine.Open() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	srv := server.New(eng)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go srv.Handle(conn)
		}
	}()

	return listener.Addr().String()
}

func TestClientSetGetRemove(t *testing.T) {
	addr := startEchoServer(t)
	c := New(addr)

	if err := c.Set("a", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get("a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "1" {
		t.Errorf("Get() = %q, want %q", got, "1")
	}

	if err := c.Remove("a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := c.Get("a"); !errors.Is(err, kvserr.ErrKeyNotFound) {
		t.Errorf("Get() after Remove() error = %v, want ErrKeyNotFound", err)
	}
}

func TestClientRemoveMissingKeyReturnsErrKeyNotFound(t *testing.T) {
	addr := startEchoServer(t)
	c := New(addr)

	if err := c.Remove("missing"); !errors.Is(err, kvserr.ErrKeyNotFound) {
		t.Errorf("Remove() error = %v, want ErrKeyNotFound", err)
	}
}
