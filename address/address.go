// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package address implements the pool's address-decoding policy: turning a
// text payout address into an output script for a specific network. The
// bech32 and Base58Check math itself is treated as an opaque codec — this
// package only adds the decode-then-classify policy on top of it.
package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/odopool/odopool/chaincfg"
)

// ErrInvalidAddress is returned when addr cannot be decoded as either a
// bech32 SegWit address or a 25-byte Base58Check payload under any known
// network's parameters.
var ErrInvalidAddress = errors.New("address: invalid address format")

// ErrWrongNetwork is returned when addr decodes cleanly but under the
// parameters of the *other* network, distinguishing a malformed address from
// one that's simply pointed at the wrong chain.
var ErrWrongNetwork = errors.New("address: valid address for the other network")

// Decode turns addr into an output script under params's network rules.
//
// Policy: try SegWit bech32 decoding with params' HRP first;
// on success, emit <push-int witver> <push-bytes witprog>. Otherwise try
// Base58Check; a 20-byte payload whose version byte is params.PubKeyHashAddrID
// yields a P2PKH script, and ScriptHashAddrID yields a P2SH script. Anything
// else is reported as ErrInvalidAddress, except that Decode also probes the
// opposite network's parameters so CLI validation can report ErrWrongNetwork
// instead of a generic parse failure.
func Decode(addr string, params chaincfg.Params) ([]byte, error) {
	script, err := decodeFor(addr, params)
	if err == nil {
		return script, nil
	}

	if _, otherErr := decodeFor(addr, chaincfg.Other(params)); otherErr == nil {
		return nil, ErrWrongNetwork
	}

	return nil, ErrInvalidAddress
}

func decodeFor(addr string, params chaincfg.Params) ([]byte, error) {
	if hrp, data, berr := bech32.Decode(addr); berr == nil && hrp == params.Bech32HRPSegwit {
		return decodeSegwit(data)
	}

	decoded := base58.Decode(addr)
	if len(decoded) != 25 {
		return nil, ErrInvalidAddress
	}

	payload, checksum := decoded[:21], decoded[21:]
	want := chainhash.DoubleHashB(payload)[:4]
	for i := range want {
		if checksum[i] != want[i] {
			return nil, ErrInvalidAddress
		}
	}

	version, hash := payload[0], payload[1:]
	switch version {
	case params.PubKeyHashAddrID:
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_DUP).
			AddOp(txscript.OP_HASH160).
			AddData(hash).
			AddOp(txscript.OP_EQUALVERIFY).
			AddOp(txscript.OP_CHECKSIG).
			Script()
	case params.ScriptHashAddrID:
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_HASH160).
			AddData(hash).
			AddOp(txscript.OP_EQUAL).
			Script()
	default:
		return nil, ErrInvalidAddress
	}
}

func decodeSegwit(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, ErrInvalidAddress
	}
	witver := data[0]
	witprog, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if len(witprog) < 2 || len(witprog) > 40 {
		return nil, ErrInvalidAddress
	}

	builder := txscript.NewScriptBuilder()
	if witver == 0 {
		builder.AddOp(txscript.OP_0)
	} else if witver >= 1 && witver <= 16 {
		builder.AddOp(txscript.OP_1 + witver - 1)
	} else {
		return nil, fmt.Errorf("address: unsupported witness version %d", witver)
	}
	return builder.AddData(witprog).Script()
}
