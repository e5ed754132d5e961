// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/odopool/odopool/chainutil"
	"github.com/odopool/odopool/rpcclient"
)

// maxScriptSigLen is the coinbase scriptSig's length ceiling: a
// pathologically large coinbase tag is a programmer/configuration error,
// not something to silently truncate.
const maxScriptSigLen = 100

// Coinbase is the first transaction of a block template: its scriptSig
// carries the height, the miner's extra-nonce, and any configured auxiliary
// tag data; its outputs are the already-computed reward split plus, when the
// template requires it, a SegWit witness commitment.
type Coinbase struct {
	Height            uint32
	TxOuts            []TxOut
	NeedsWitness      bool
	WitnessCommitment []byte // nil unless NeedsWitness
	Aux               rpcclient.CoinbaseAux
}

// NewCoinbase builds a Coinbase from a raw template and a reward split,
// including the witness-commitment output when the template carries SegWit
// transactions (any tx whose txid differs from its hash).
func NewCoinbase(raw *rpcclient.BlockTemplate, split RewardSplit) (*Coinbase, error) {
	txouts, err := split.Payouts(uint64(raw.CoinbaseValue))
	if err != nil {
		return nil, err
	}

	needsWitness := false
	for _, tx := range raw.Transactions {
		if tx.TxID != tx.Hash {
			needsWitness = true
			break
		}
	}

	cb := &Coinbase{
		Height:       uint32(raw.Height),
		TxOuts:       txouts,
		NeedsWitness: needsWitness,
		Aux:          raw.CoinbaseAux,
	}

	if needsWitness {
		commitment, err := decodeHex(raw.DefaultWitnessCommitment)
		if err != nil {
			return nil, fmt.Errorf("template: default_witness_commitment: %w", err)
		}
		cb.WitnessCommitment = commitment
		cb.TxOuts = append(cb.TxOuts, TxOut{Value: 0, Script: commitment})
	}

	// Validate the scriptSig length now rather than waiting for the first
	// TxID/Extended call. The extra-nonce push only grows with its value, so
	// checking against the largest possible extra-nonce here also covers
	// every smaller extra-nonce a miner session will ever dispatch.
	if _, err := cb.scriptSig(^uint32(0)); err != nil {
		return nil, err
	}

	return cb, nil
}

// scriptSig builds the coinbase scriptSig: push_int(height) (opcode
// shortcuts allowed) ‖ push_int(extra_nonce, no shortcuts) ‖ each non-empty
// aux value, in insertion order, as a raw data push.
func (c *Coinbase) scriptSig(extraNonce uint32) ([]byte, error) {
	s := chainutil.NewScript().
		PushInt(uint64(c.Height), true).
		PushInt(uint64(extraNonce), false)

	for _, entry := range c.Aux.Entries {
		if len(entry.Value) > 0 {
			s.PushBytes(entry.Value)
		}
	}

	sig := s.Bytes()
	if len(sig) > maxScriptSigLen {
		return nil, fmt.Errorf("template: coinbase scriptSig too long: %d > %d", len(sig), maxScriptSigLen)
	}
	return sig, nil
}

// data serializes the coinbase transaction. extended selects the SegWit
// wire form (marker, flag, and a single zero witness stack entry) used for
// block submission; the non-extended ("canonical") form is what txid hashing
// uses, and is forced regardless of extended when the coinbase has no
// witness data to carry.
func (c *Coinbase) data(extraNonce uint32, extended bool) ([]byte, error) {
	if !c.NeedsWitness {
		extended = false
	}

	sig, err := c.scriptSig(extraNonce)
	if err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, le32(1)...) // transaction version
	if extended {
		out = append(out, 0x00, 0x01) // witness marker, flag
	}
	out = append(out, chainutil.CompactSize(1)...) // txin count
	out = append(out, make([]byte, 32)...)         // prevout hash
	out = append(out, 0xff, 0xff, 0xff, 0xff)       // prevout n
	out = append(out, chainutil.CompactSize(uint64(len(sig)))...)
	out = append(out, sig...)
	out = append(out, 0xff, 0xff, 0xff, 0xff) // sequence

	out = append(out, chainutil.CompactSize(uint64(len(c.TxOuts)))...)
	for _, txout := range c.TxOuts {
		out = append(out, le64(txout.Value)...)
		out = append(out, chainutil.CompactSize(uint64(len(txout.Script)))...)
		out = append(out, txout.Script...)
	}

	if extended {
		out = append(out, 0x01)             // witness stack size
		out = append(out, 0x20)             // witness item length (32)
		out = append(out, make([]byte, 32)...) // zero witness
	}
	out = append(out, 0, 0, 0, 0) // locktime

	return out, nil
}

// TxID returns sha256d of the canonical (non-witness) serialization, used to
// fold the coinbase into the block's Merkle root.
func (c *Coinbase) TxID(extraNonce uint32) ([]byte, error) {
	canonical, err := c.data(extraNonce, false)
	if err != nil {
		return nil, err
	}
	return chainutil.Sha256d(canonical), nil
}

// Extended returns the serialized coinbase used for block submission: the
// extended (witness-carrying) form when NeedsWitness, canonical otherwise.
func (c *Coinbase) Extended(extraNonce uint32) ([]byte, error) {
	return c.data(extraNonce, true)
}

func le32(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func le64(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	return hex.DecodeString(s)
}
