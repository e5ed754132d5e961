// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odopool/odopool/chaincfg"
)

func encodeSegwit(t *testing.T, hrp string, witver byte, witprog []byte) string {
	t.Helper()
	conv, err := bech32.ConvertBits(witprog, 8, 5, true)
	require.NoError(t, err)
	data := append([]byte{witver}, conv...)
	encoded, err := bech32.Encode(hrp, data)
	require.NoError(t, err)
	return encoded
}

func TestDecodeSegwitMainnet(t *testing.T) {
	witprog := make([]byte, 20)
	for i := range witprog {
		witprog[i] = byte(i)
	}
	addr := encodeSegwit(t, chaincfg.MainNetParams.Bech32HRPSegwit, 0, witprog)

	script, err := Decode(addr, chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), script[0])
	assert.Equal(t, byte(20), script[1])
	assert.Equal(t, witprog, script[2:])
}

func TestDecodeSegwitWrongNetwork(t *testing.T) {
	witprog := make([]byte, 20)
	addr := encodeSegwit(t, chaincfg.TestNet4Params.Bech32HRPSegwit, 0, witprog)

	_, err := Decode(addr, chaincfg.MainNetParams)
	assert.ErrorIs(t, err, ErrWrongNetwork)
}

func TestDecodeInvalidAddress(t *testing.T) {
	_, err := Decode("not-a-real-address", chaincfg.MainNetParams)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestDecodeBase58P2PKH(t *testing.T) {
	// DonationAddress is a known-good mainnet Base58Check P2PKH address.
	script, err := Decode(chaincfg.MainNetParams.DonationAddress, chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Len(t, script, 25)
	assert.Equal(t, byte(0x76), script[0]) // OP_DUP
	assert.Equal(t, byte(0xa9), script[1]) // OP_HASH160
}

func TestDecodeTestnetDonationAddress(t *testing.T) {
	script, err := Decode(chaincfg.TestNet4Params.DonationAddress, chaincfg.TestNet4Params)
	require.NoError(t, err)
	assert.NotEmpty(t, script)
}
