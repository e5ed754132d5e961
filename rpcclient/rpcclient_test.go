// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBlockTemplateSendsOdoHintAndLongPollID(t *testing.T) {
	var gotParams []json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getblocktemplate", req.Method)
		gotParams = req.Params

		w.Write([]byte(`{"result":{"height":123,"bits":"1d00ffff","longpollid":"abc"},"error":null}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p")
	tmpl, err := c.GetBlockTemplate(context.Background(), "previous-id")
	require.NoError(t, err)
	assert.EqualValues(t, 123, tmpl.Height)
	assert.Equal(t, "abc", tmpl.LongPollID)

	require.Len(t, gotParams, 2)
	var algo string
	require.NoError(t, json.Unmarshal(gotParams[1], &algo))
	assert.Equal(t, "odo", algo)

	var reqParams map[string]any
	require.NoError(t, json.Unmarshal(gotParams[0], &reqParams))
	assert.Equal(t, "previous-id", reqParams["longpollid"])
}

func TestSubmitBlockAcceptedOnNullResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null,"error":null}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p")
	err := c.SubmitBlock(context.Background(), "00")
	assert.NoError(t, err)
}

func TestSubmitBlockRejectionReasonBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"bad-cb-amount","error":null}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p")
	err := c.SubmitBlock(context.Background(), "00")
	require.Error(t, err)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "bad-cb-amount", rejected.Reason)
}

func TestNonJSONResponseSurfacesHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("401 Unauthorized"))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p")
	_, err := c.GetBlockTemplate(context.Background(), "")
	require.Error(t, err)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, http.StatusUnauthorized, rpcErr.Code)
}
