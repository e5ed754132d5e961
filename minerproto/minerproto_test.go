// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package minerproto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPausedWorkLine(t *testing.T) {
	line := PausedWork()
	fields := strings.Fields(line)
	require.Len(t, fields, 4)
	assert.Equal(t, "work", fields[0])
	assert.Len(t, fields[1], 160)
	assert.Len(t, fields[2], 64)
	assert.Equal(t, "0", fields[3])
}

func TestParseSubmit(t *testing.T) {
	v, err := ParseMinerLine("submit " + strings.Repeat("ab", 80))
	require.NoError(t, err)
	submit, ok := v.(*Submit)
	require.True(t, ok)
	assert.Len(t, submit.HeaderHex, 160)
}

func TestParseSubmitNonce(t *testing.T) {
	v, err := ParseMinerLine("submit_nonce 5f000000 00000001 00 3")
	require.NoError(t, err)
	sn, ok := v.(*SubmitNonce)
	require.True(t, ok)
	assert.EqualValues(t, 3, sn.ExtraNonce2Dec)
}

func TestParseAuth(t *testing.T) {
	v, err := ParseMinerLine("auth alice secret")
	require.NoError(t, err)
	auth, ok := v.(*Auth)
	require.True(t, ok)
	assert.Equal(t, "alice", auth.User)
	assert.Equal(t, "secret", auth.Pass)
}

func TestParseUnknownLineIsMalformed(t *testing.T) {
	_, err := ParseMinerLine("frobnicate")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestParseEmptyLineIsMalformed(t *testing.T) {
	_, err := ParseMinerLine("")
	assert.ErrorIs(t, err, ErrMalformedLine)
}
