// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stratumbridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const (
	// writeTimeout is the maximum time to wait for a write to the upstream
	// pool to complete.
	writeTimeout = 10 * time.Second

	// maxLineSize bounds a single upstream JSON-RPC line, guarding against
	// memory exhaustion from a line with no newline terminator.
	maxLineSize = 16 * 1024
)

// upstreamMessage is the union of everything C5 can read from the upstream
// Stratum connection: a response to a request this bridge sent (keyed by
// ID, carrying Result/Error) or a server-initiated notification (carrying
// Method/Params). Stratum V1 multiplexes both shapes over the same
// newline-delimited JSON stream, so the codec decodes generically and lets
// the bridge dispatch on which fields are present.
type upstreamMessage struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`

	// RejectReason is a non-standard top-level field some Stratum server
	// implementations send instead of an Error payload when rejecting a
	// submission.
	RejectReason *string `json:"reject-reason,omitempty"`
}

// isNotification reports whether m is a server-initiated notification
// rather than a response to a request this bridge sent.
func (m *upstreamMessage) isNotification() bool {
	return m.Method != ""
}

// upstreamRequest is a JSON-RPC request this bridge sends upstream.
type upstreamRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

// codec handles newline-delimited JSON-RPC encoding/decoding over the
// upstream Stratum connection. Grounded on p2pool-go's stratum.Codec, but
// used here from the client side: this bridge both sends requests
// (subscribe, authorize, submit) and receives a mix of responses and
// notifications on the same socket.
type codec struct {
	conn    net.Conn
	scanner *bufio.Scanner
	encoder *json.Encoder
}

func newCodec(conn net.Conn) *codec {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineSize)
	return &codec{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}
}

// readMessage reads and decodes a single line from the upstream connection.
func (c *codec) readMessage() (*upstreamMessage, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("stratumbridge: upstream read: %w", err)
		}
		return nil, fmt.Errorf("stratumbridge: upstream connection closed")
	}

	var msg upstreamMessage
	if err := json.Unmarshal(c.scanner.Bytes(), &msg); err != nil {
		return nil, fmt.Errorf("stratumbridge: malformed upstream JSON: %w", err)
	}
	return &msg, nil
}

// sendRequest writes a JSON-RPC request to the upstream connection.
func (c *codec) sendRequest(req *upstreamRequest) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.encoder.Encode(req)
}

func (c *codec) Close() error {
	return c.conn.Close()
}
