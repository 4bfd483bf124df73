package server

import (
	"net"
	"testing"

	"github.com/jassi-singh/kvs/internal/format"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/protocol"
)

// memEngine is a minimal in-memory engine.Engine stand-in, so server
// tests exercise dispatch logic without touching disk.
type memEngine struct {
	data map[string]string
}

func newMemEngine() *memEngine {
	return &memEngine{data: make(map[string]string)}
}

func (e *memEngine) Set(key, value string) error {
	e.data[key] = value
	return nil
}

func (e *memEngine) Get(key string) (string, error) {
	v, ok := e.data[key]
	if !ok {
		return "", kvserr.ErrKeyNotFound
	}
	return v, nil
}

func (e *memEngine) Remove(key string) error {
	if _, ok := e.data[key]; !ok {
		return kvserr.ErrKeyNotFound
	}
	delete(e.data, key)
	return nil
}

func (e *memEngine) Close() error { return nil }

func startTestServer(t *testing.T) (addr string, eng *memEngine) {
	t.Helper()
	eng = newMemEngine()
	srv := New(eng)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			srv.Handle(conn)
		}
	}()
	t.Cleanup(func() { listener.Close() })

	return listener.Addr().String(), eng
}

func roundTrip(t *testing.T, addr string, req protocol.Request) protocol.Response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, req); err != nil {
		t.Fatalf("WriteRequest() error = %v", err)
	}
	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	return resp
}

func TestServeSetGetRemove(t *testing.T) {
	addr, _ := startTestServer(t)

	setResp := roundTrip(t, addr, protocol.Request{Kind: format.CommandSet, Key: "a", Value: "1"})
	if setResp.Kind != protocol.ResponseOk {
		t.Fatalf("Set response = %+v, want Ok", setResp)
	}

	getResp := roundTrip(t, addr, protocol.Request{Kind: format.CommandGet, Key: "a"})
	if getResp.Kind != protocol.ResponseValue || getResp.Value != "1" {
		t.Fatalf("Get response = %+v, want Value(1)", getResp)
	}

	removeResp := roundTrip(t, addr, protocol.Request{Kind: format.CommandRemove, Key: "a"})
	if removeResp.Kind != protocol.ResponseOk {
		t.Fatalf("Remove response = %+v, want Ok", removeResp)
	}

	getAfterRemove := roundTrip(t, addr, protocol.Request{Kind: format.CommandGet, Key: "a"})
	if getAfterRemove.Kind != protocol.ResponseOk {
		t.Fatalf("Get-after-remove response = %+v, want bare Ok", getAfterRemove)
	}
}

func TestServeRemoveMissingKeyReturnsErrorResponse(t *testing.T) {
	addr, _ := startTestServer(t)

	resp := roundTrip(t, addr, protocol.Request{Kind: format.CommandRemove, Key: "missing"})
	if resp.Kind != protocol.ResponseError || resp.ErrKind != protocol.ErrKindKeyNotFound {
		t.Fatalf("Remove(missing) response = %+v, want Error(KeyNotFound)", resp)
	}
}

func TestServeMalformedRequestClosesConnection(t *testing.T) {
	addr, _ := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	// End the request stream so the server sees a short size header
	// rather than waiting for the remaining header bytes.
	if err := conn.(*net.TCPConn).CloseWrite(); err != nil {
		t.Fatalf("CloseWrite() error = %v", err)
	}

	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("Read() after malformed request should error (connection closed, no response)")
	}
}
