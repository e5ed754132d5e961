// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/odopool/odopool/chainutil"
	"github.com/odopool/odopool/rpcclient"
)

// BlockTemplate is immutable once constructed: every exported method derives
// a per-extra-nonce header or block body without mutating the receiver, so a
// single BlockTemplate can be shared (read-only) across every miner session
// dispatching against the same node-reported template.
type BlockTemplate struct {
	Version           uint32
	PreviousBlockHash []byte // 32 bytes, internal byte order
	Time              uint32
	Bits              []byte // 4 bytes, internal byte order
	Target            string // 64 hex chars, big-endian
	OdoKey            uint32
	MerkleBranch      [][]byte
	TxData            string // concatenation of non-coinbase tx hex
	TxCount           uint32 // including the coinbase
	Coinbase          *Coinbase
	LongPollID        string
}

// New builds an immutable BlockTemplate from a raw getblocktemplate response
// and a reward split, computing the Merkle branch over the template's
// non-coinbase transactions and constructing the coinbase (including the
// witness commitment output, when needed).
func New(raw *rpcclient.BlockTemplate, split RewardSplit) (*BlockTemplate, error) {
	coinbase, err := NewCoinbase(raw, split)
	if err != nil {
		return nil, err
	}

	prevHash, err := reversedHex(raw.PreviousBlockHash)
	if err != nil {
		return nil, fmt.Errorf("template: previousblockhash: %w", err)
	}
	bits, err := reversedHex(raw.Bits)
	if err != nil {
		return nil, fmt.Errorf("template: bits: %w", err)
	}

	txids := make([][]byte, len(raw.Transactions))
	var txdata strings.Builder
	for i, tx := range raw.Transactions {
		txid, err := reversedHex(tx.TxID)
		if err != nil {
			return nil, fmt.Errorf("template: transaction %d txid: %w", i, err)
		}
		txids[i] = txid
		txdata.WriteString(tx.Data)
	}

	var odoKey uint32
	if raw.OdoKey != nil {
		odoKey = *raw.OdoKey
	}

	return &BlockTemplate{
		Version:           uint32(raw.Version),
		PreviousBlockHash: prevHash,
		Time:              uint32(raw.CurTime),
		Bits:              bits,
		Target:            raw.Target,
		OdoKey:            odoKey,
		MerkleBranch:      chainutil.MerkleBranch(txids),
		TxData:            txdata.String(),
		TxCount:           uint32(len(raw.Transactions)) + 1,
		Coinbase:          coinbase,
		LongPollID:        raw.LongPollID,
	}, nil
}

// GetWork returns the 160-hex-char (80-byte) block header for extraNonce,
// with a zero nonce field ready for the miner to fill in.
func (t *BlockTemplate) GetWork(extraNonce uint32) (string, error) {
	header, err := t.header(extraNonce)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(header), nil
}

// header builds the 80-byte block header for extraNonce, with a zero nonce.
func (t *BlockTemplate) header(extraNonce uint32) ([]byte, error) {
	txid, err := t.Coinbase.TxID(extraNonce)
	if err != nil {
		return nil, err
	}
	root := chainutil.MerkleRoot(txid, t.MerkleBranch)

	h := make([]byte, 0, 80)
	h = append(h, le32(t.Version)...)
	h = append(h, t.PreviousBlockHash...)
	h = append(h, root...)
	h = append(h, le32(t.Time)...)
	h = append(h, t.Bits...)
	h = append(h, 0, 0, 0, 0) // nonce
	return h, nil
}

// GetData returns the full block body hex for extraNonce: compact_size(tx
// count) ‖ extended coinbase ‖ concatenated non-coinbase transaction data,
// ready to be prefixed with a miner-solved 80-byte header on submission.
func (t *BlockTemplate) GetData(extraNonce uint32) (string, error) {
	cb, err := t.Coinbase.Extended(extraNonce)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(hex.EncodeToString(chainutil.CompactSize(uint64(t.TxCount))))
	out.WriteString(hex.EncodeToString(cb))
	out.WriteString(t.TxData)
	return out.String(), nil
}

func reversedHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return chainutil.ReverseBytes(b), nil
}
