// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/odopool/odopool/chainutil"
	"github.com/odopool/odopool/rpcclient"
)

func zeroHash32Hex() string {
	return strings.Repeat("00", 32)
}

func simpleRawTemplate() *rpcclient.BlockTemplate {
	return &rpcclient.BlockTemplate{
		Version:           1,
		PreviousBlockHash: zeroHash32Hex(),
		Transactions:      nil,
		CoinbaseValue:     5_000_000_000,
		Height:            1,
		Bits:              "1d00ffff",
		CurTime:           1234,
		Target:            strings.Repeat("f", 64),
	}
}

func p2pkhScript(hash160 []byte) []byte {
	return chainutil.NewScript().PushP2PKH(hash160).Bytes()
}

func TestCoinbaseScriptSigMatchesKnownTemplate(t *testing.T) {
	raw := simpleRawTemplate()
	raw.CoinbaseAux.Set("cbstring", []byte("/test/"))

	split := RewardSplit{Allotments: []Allotment{
		{Script: p2pkhScript(make([]byte, 20)), Remainder: true},
	}}

	tmpl, err := New(raw, split)
	require.NoError(t, err)

	data, err := tmpl.Coinbase.data(0, false)
	require.NoError(t, err)

	hexData := hex.EncodeToString(data)
	assert.True(t, strings.HasPrefix(hexData, "01000000"), "tx version")

	wantScriptSig := hex.EncodeToString(chainutil.NewScript().
		PushInt(1, true).
		PushInt(0, false).
		PushBytes([]byte("/test/")).
		Bytes())

	expected := "01000000" + // version
		"01" + zeroHash32Hex() + "ffffffff" + // txin: count, prevout hash, prevout n
		hex.EncodeToString(chainutil.CompactSize(uint64(len(wantScriptSig)/2))) + wantScriptSig +
		"ffffffff" + // sequence
		"01" + // out count
		"00f2052a01000000" + // value = 5_000_000_000 little-endian u64
		hex.EncodeToString(chainutil.CompactSize(uint64(len(p2pkhScript(make([]byte, 20)))))) +
		hex.EncodeToString(p2pkhScript(make([]byte, 20))) +
		"00000000" // locktime

	assert.Equal(t, expected, hexData, "coinbase mismatch, got template:\n%s", spew.Sdump(tmpl))
}

func TestMerkleBranchWithThreeLeaves(t *testing.T) {
	aa := bytes32(0xaa)
	bb := bytes32(0xbb)
	cc := bytes32(0xcc)

	branch := chainutil.MerkleBranch([][]byte{aa, bb, cc})
	require.Len(t, branch, 2)
	assert.Equal(t, aa, branch[0])
	assert.Equal(t, chainutil.Sha256d(append(append([]byte{}, bb...), cc...)), branch[1])

	cbTxid := bytes32(0x01)
	root := chainutil.MerkleRoot(cbTxid, branch)
	assert.Len(t, root, 32)
}

func bytes32(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestHeaderLayoutAndMerkleRootPlacement(t *testing.T) {
	raw := simpleRawTemplate()
	split := RewardSplit{Allotments: []Allotment{{Script: p2pkhScript(make([]byte, 20)), Remainder: true}}}
	tmpl, err := New(raw, split)
	require.NoError(t, err)

	work, err := tmpl.GetWork(7)
	require.NoError(t, err)
	assert.Len(t, work, 160)

	headerBytes, err := hex.DecodeString(work)
	require.NoError(t, err)

	txid, err := tmpl.Coinbase.TxID(7)
	require.NoError(t, err)
	wantRoot := chainutil.MerkleRoot(txid, tmpl.MerkleBranch)
	assert.Equal(t, wantRoot, headerBytes[36:68], "header mismatch, got template:\n%s", spew.Sdump(tmpl))
}

func TestDistinctExtraNoncesYieldDistinctTxids(t *testing.T) {
	raw := simpleRawTemplate()
	split := RewardSplit{Allotments: []Allotment{{Script: p2pkhScript(make([]byte, 20)), Remainder: true}}}
	tmpl, err := New(raw, split)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		e1 := rapid.Uint32().Draw(t, "e1")
		e2 := rapid.Uint32().Draw(t, "e2")
		if e1 == e2 {
			return
		}
		t1, err := tmpl.Coinbase.TxID(e1)
		require.NoError(t, err)
		t2, err := tmpl.Coinbase.TxID(e2)
		require.NoError(t, err)
		assert.NotEqual(t, t1, t2)
	})
}

func TestWitnessCommitmentAppendedWhenSegwitTxPresent(t *testing.T) {
	raw := simpleRawTemplate()
	raw.Transactions = []rpcclient.TemplateTx{
		{Data: "aa", TxID: strings.Repeat("11", 32), Hash: strings.Repeat("22", 32)},
	}
	raw.DefaultWitnessCommitment = strings.Repeat("cc", 32)

	split := RewardSplit{Allotments: []Allotment{{Script: p2pkhScript(make([]byte, 20)), Remainder: true}}}
	tmpl, err := New(raw, split)
	require.NoError(t, err)

	require.True(t, tmpl.Coinbase.NeedsWitness)
	require.Len(t, tmpl.Coinbase.TxOuts, 2)
	assert.Equal(t, uint64(0), tmpl.Coinbase.TxOuts[1].Value)

	extended, err := tmpl.Coinbase.Extended(0)
	require.NoError(t, err)
	canonical, err := tmpl.Coinbase.data(0, false)
	require.NoError(t, err)
	assert.NotEqual(t, extended, canonical)
	assert.True(t, len(extended) > len(canonical))
}
