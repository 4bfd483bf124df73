// Package client implements the TCP client side of the protocol: dial,
// send one framed request, read one framed response, close.
package client

import (
	"fmt"
	"net"

	"github.com/jassi-singh/kvs/internal/format"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/protocol"
)

// Client talks to one kvs-server address. Each call opens a fresh
// connection, matching the server's one-request-per-connection contract.
type Client struct {
	addr string
}

// New returns a Client that dials addr on every call.
func New(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) roundTrip(req protocol.Request) (protocol.Response, error) {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return protocol.Response{}, kvserr.IO(fmt.Errorf("client: dial %s: %w", c.addr, err))
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, req); err != nil {
		return protocol.Response{}, kvserr.IO(fmt.Errorf("client: send request: %w", err))
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return protocol.Response{}, kvserr.IO(fmt.Errorf("client: read response: %w", err))
	}
	return resp, nil
}

// Set sends a Set request and returns the server's error, if any.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(protocol.Request{Kind: format.CommandSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	if resp.Kind == protocol.ResponseError {
		return protocol.ErrFromKind(resp.ErrKind, resp.Message)
	}
	return nil
}

// Get sends a Get request. It returns kvserr.ErrKeyNotFound when the
// server reports the key absent (a bare Ok response).
func (c *Client) Get(key string) (string, error) {
	resp, err := c.roundTrip(protocol.Request{Kind: format.CommandGet, Key: key})
	if err != nil {
		return "", err
	}
	switch resp.Kind {
	case protocol.ResponseValue:
		return resp.Value, nil
	case protocol.ResponseOk:
		return "", kvserr.ErrKeyNotFound
	default:
		return "", protocol.ErrFromKind(resp.ErrKind, resp.Message)
	}
}

// Remove sends a Remove request and returns the server's error, if any.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(protocol.Request{Kind: format.CommandRemove, Key: key})
	if err != nil {
		return err
	}
	if resp.Kind == protocol.ResponseError {
		return protocol.ErrFromKind(resp.ErrKind, resp.Message)
	}
	return nil
}
