package main

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/taskmaster/taskmaster/internal/rpc"
)

// dialTimeout bounds the connection attempt so a stuck/missing daemon fails
// fast instead of hanging the REPL.
const dialTimeout = 2 * time.Second

// Client is a one-request-one-response-per-connection socket client,
// mirroring the RpcServer's accept_one contract from the other side.
type Client struct {
	Socket string
}

// Call opens a fresh connection, sends req, reads the single Response, and
// closes. Each call is its own connection; taskmasterctl holds no
// long-lived socket.
func (c *Client) Call(method string, args []string) (*rpc.Response, error) {
	conn, err := net.DialTimeout("unix", c.Socket, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", c.Socket, err)
	}
	defer conn.Close()

	req := rpc.Request{Method: method, Args: args}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	var resp rpc.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &resp, nil
}
