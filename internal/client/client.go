// Package client implements a minimal TCP client for the netsrv front end,
// grounded on original_source's kvs-client.rs request function: connect,
// write one encoded command, read one encoded response, close.
package client

import (
	"fmt"
	"net"

	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/wire"
)

// Client issues one request per call, opening a fresh connection each time
// to match the server's one-request-per-connection protocol.
type Client struct {
	addr string
}

// New returns a Client that dials addr for every request.
func New(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) roundTrip(cmd record.Command) (wire.Response, error) {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return wire.Response{}, fmt.Errorf("client: dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	body, err := wire.EncodeRequest(cmd)
	if err != nil {
		return wire.Response{}, err
	}
	if _, err := conn.Write(body); err != nil {
		return wire.Response{}, fmt.Errorf("client: write request: %w", err)
	}
	if err := conn.(*net.TCPConn).CloseWrite(); err != nil {
		return wire.Response{}, fmt.Errorf("client: close write half: %w", err)
	}

	resp, err := wire.DecodeResponse(conn)
	if err != nil {
		return wire.Response{}, fmt.Errorf("client: read response: %w", err)
	}
	return resp, nil
}

// Get requests the value of key. ok is false when the server reports the
// key has no value.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	resp, err := c.roundTrip(record.Get(key))
	if err != nil {
		return "", false, err
	}
	switch resp.Kind {
	case wire.KindValue:
		return resp.Value, true, nil
	case wire.KindNone:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("client: %s", resp.Message)
	}
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(record.Set(key, value))
	if err != nil {
		return err
	}
	if resp.Kind == wire.KindError {
		return fmt.Errorf("client: %s", resp.Message)
	}
	return nil
}

// Remove deletes key's current value.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(record.Remove(key))
	if err != nil {
		return err
	}
	if resp.Kind == wire.KindError {
		return fmt.Errorf("client: %s", resp.Message)
	}
	return nil
}
