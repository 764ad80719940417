// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package signer

import (
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/kiln-chain/kiln/cry"
)

// Client talks to a remote signing server over one connection. Safe for
// concurrent use; requests are serialized on the connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to a signing server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "dial signer")
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req *request) (*response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writeMessage(c.conn, req); err != nil {
		return nil, err
	}
	var res response
	if err := readMessage(c.conn, &res); err != nil {
		return nil, err
	}
	if res.Err != "" {
		return nil, errors.New(res.Err)
	}
	return &res, nil
}

// Sign asks the server to sign msg with the key stored under alias.
func (c *Client) Sign(alias string, msg []byte) ([]byte, error) {
	res, err := c.roundTrip(&request{Cmd: cmdSign, Alias: alias, Data: msg})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// PublicKey fetches the scheme and serialized public key of alias.
func (c *Client) PublicKey(alias string) (cry.Scheme, []byte, error) {
	res, err := c.roundTrip(&request{Cmd: cmdPublicKey, Alias: alias})
	if err != nil {
		return "", nil, err
	}
	return cry.Scheme(res.Scheme), res.Data, nil
}
