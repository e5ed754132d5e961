// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpcclient implements the node's HTTP/JSON-RPC transport: the two
// methods the pool ever calls, getblocktemplate (with long-polling) and
// submitblock, plus the basic-auth envelope both binaries need to dial the
// node.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/btcsuite/go-socks/socks"
)

// RPCError is the node's JSON-RPC error shape, or a synthesized one carrying
// the HTTP status code when the node's response isn't valid JSON at all.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client is a minimal JSON-RPC client for the node's getblocktemplate and
// submitblock methods. It is safe for concurrent use by multiple goroutines.
type Client struct {
	url      string
	user     string
	password string
	http     *http.Client
}

// New returns a Client that authenticates with HTTP basic auth using user and
// password, POSTing JSON-RPC requests to url.
func New(url, user, password string) *Client {
	return &Client{
		url:      url,
		user:     user,
		password: password,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// NewWithProxy is New, but dials the node through a SOCKS4/5 proxy at
// proxyAddr instead of connecting directly.
func NewWithProxy(url, user, password, proxyAddr, proxyUser, proxyPassword string) *Client {
	proxy := &socks.Proxy{
		Addr:     proxyAddr,
		Username: proxyUser,
		Password: proxyPassword,
	}
	transport := &http.Transport{
		Dial: func(network, addr string) (net.Conn, error) {
			return proxy.Dial(network, addr)
		},
	}
	return &Client{
		url:      url,
		user:     user,
		password: password,
		http:     &http.Client{Timeout: 60 * time.Second, Transport: transport},
	}
}

// call issues one JSON-RPC request and returns its raw result, or an
// *RPCError describing either the node's reported error or a transport-level
// failure (non-2xx status, unparseable body).
func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(request{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("rpcclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rpcclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.user, c.password)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &RPCError{Code: 500, Message: err.Error()}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RPCError{Code: 500, Message: err.Error()}
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return nil, &RPCError{Code: httpResp.StatusCode, Message: "HTTP status code"}
		}
		return nil, &RPCError{Code: 500, Message: err.Error()}
	}

	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// GetBlockTemplate requests a new block template using the odo algorithm
// hint, long-polling against longPollID when it's non-empty. The node blocks
// the HTTP response until a new template is ready or its internal long-poll
// timeout elapses.
func (c *Client) GetBlockTemplate(ctx context.Context, longPollID string) (*BlockTemplate, error) {
	params := map[string]any{"rules": []string{"segwit"}}
	if longPollID != "" {
		params["longpollid"] = longPollID
	}

	raw, err := c.call(ctx, "getblocktemplate", params, "odo")
	if err != nil {
		return nil, err
	}

	var tmpl BlockTemplate
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return nil, fmt.Errorf("rpcclient: unmarshal block template: %w", err)
	}
	return &tmpl, nil
}

// RejectedError is the node's explicit non-null submitblock result: a
// rejection reason, as distinct from a transport-level *RPCError. Callers
// use this distinction to decide whether a failed submission should be
// reported to the miner as the node's literal reason or as a generic "error".
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// SubmitBlock submits a fully assembled block's hex encoding. A nil error
// means the node accepted the block; a *RejectedError carries the node's
// literal rejection string; any other error is a transport/RPC failure.
func (c *Client) SubmitBlock(ctx context.Context, blockHex string) error {
	raw, err := c.call(ctx, "submitblock", blockHex)
	if err != nil {
		return err
	}

	var reason *string
	if err := json.Unmarshal(raw, &reason); err != nil {
		return fmt.Errorf("rpcclient: unmarshal submitblock result: %w", err)
	}
	if reason != nil && *reason != "" {
		return &RejectedError{Reason: *reason}
	}
	return nil
}
