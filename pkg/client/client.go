// Package client implements the ingestion pipeline and request/reply
// exchange used by the command-line client to talk to a server.
package client

import (
	"fmt"
	"net"
	"sync"

	"github.com/mstor/docindex/pkg/wire"
)

// Client owns one TCP connection to a server and serializes every
// request/reply exchange across it, since the connection is shared by the
// command loop and every ingestion worker.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Connect dials addr and returns a Client wrapping the new connection.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Connected reports whether a connection is currently held.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// exchange sends payload and blocks for exactly one reply frame, holding
// the connection mutex for the whole send-then-receive-ack span so that
// concurrent ingestion workers never interleave frames on the wire.
func (c *Client) exchange(payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	if err := wire.WriteFrame(c.conn, payload); err != nil {
		return nil, err
	}
	return wire.ReadFrame(c.conn)
}

// Search issues a SEARCH request for terms and returns the server's reply.
func (c *Client) Search(terms []string) (wire.SearchReply, error) {
	encoded, err := wire.EncodeSearchRequest(wire.SearchRequest{Terms: terms})
	if err != nil {
		return wire.SearchReply{}, err
	}
	reply, err := c.exchange(encoded)
	if err != nil {
		return wire.SearchReply{}, err
	}
	return wire.DecodeSearchReply(reply)
}

// Quit sends the QUIT frame and closes the connection.
func (c *Client) Quit() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = wire.WriteFrame(conn, wire.QuitFrame())
	return conn.Close()
}

// Close drops the connection without sending QUIT.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}
