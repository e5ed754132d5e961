// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stratumbridge

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/odopool/odopool/chainutil"
)

// mainnetShapechangeInterval and testnetShapechangeInterval are the Odo
// algorithm's key-rotation periods, in seconds, used to derive the odo key
// from a notify's ntime when the notify carries no explicit "odokey" field.
const (
	mainnetShapechangeInterval = 10 * 86400
	testnetShapechangeInterval = 1 * 86400
)

// odoKeyFromNtime derives the Odo shapechange key for ntime on the named
// network.
func odoKeyFromNtime(ntime uint32, testnet bool) uint32 {
	interval := uint32(mainnetShapechangeInterval)
	if testnet {
		interval = uint32(testnetShapechangeInterval)
	}
	return ntime - ntime%interval
}

// swapWords4 byte-swaps b in place within non-overlapping 4-byte words. It
// undoes (and, applied twice, re-creates) the historical host-byte-order
// artifact Stratum servers use to present a prev-hash.
func swapWords4(b []byte) {
	for i := 0; i+4 <= len(b); i += 4 {
		b[i], b[i+3] = b[i+3], b[i]
		b[i+1], b[i+2] = b[i+2], b[i+1]
	}
}

// stratumPrevHashToInternal converts a Stratum-order prev-hash hex string
// into header-ready internal-order bytes. Grounded on p2pool-go's
// stratumPrevHashToInternal: a single 4-byte word swap, with no additional
// full-length reversal, recovers the header byte order directly — the
// word-swap is the only transform Stratum applies relative to internal
// order.
func stratumPrevHashToInternal(stratumHex string) ([]byte, error) {
	b, err := hex.DecodeString(stratumHex)
	if err != nil {
		return nil, fmt.Errorf("stratumbridge: malformed prev_hash: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("stratumbridge: prev_hash must be 32 bytes, got %d", len(b))
	}
	swapWords4(b)
	return b, nil
}

// n2hex serializes n as a script-number VarInt, hex-encoded and
// left-padded with zeros to 2*n2len characters. This is the extra-nonce-2
// wire format miners and the upstream pool exchange.
func n2hex(n uint64, n2len int) string {
	s := hex.EncodeToString(chainutil.VarInt(n))
	want := 2 * n2len
	if len(s) < want {
		s = strings.Repeat("0", want-len(s)) + s
	}
	return s
}

// difficultyToHexTarget converts a Stratum difficulty into a 64-hex-char
// big-endian target, per the formula
//
//	target = min(floor((0xffff0000<<192 + 1) / difficulty - 1 + 0.5), 2^256-1)
//
// A difficulty of zero is treated as the maximum target (64 hex 'f's).
func difficultyToHexTarget(difficulty float64) string {
	maxTarget := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if difficulty <= 0 {
		return strings.Repeat("f", 64)
	}

	numerator := new(big.Int).Lsh(big.NewInt(0xffff0000), 192)
	numerator.Add(numerator, big.NewInt(1))

	num := new(big.Float).SetPrec(256).SetInt(numerator)
	den := new(big.Float).SetPrec(256).SetFloat64(difficulty)

	quotient := new(big.Float).SetPrec(256).Quo(num, den)
	quotient.Sub(quotient, big.NewFloat(1))
	quotient.Add(quotient, big.NewFloat(0.5))

	target, _ := quotient.Int(nil)
	if target.Sign() < 0 {
		target = big.NewInt(0)
	}
	if target.Cmp(maxTarget) > 0 {
		target = maxTarget
	}

	s := target.Text(16)
	if len(s) < 64 {
		s = strings.Repeat("0", 64-len(s)) + s
	}
	return s
}

// notifyHeader holds the pieces assembled from a mining.notify needed to
// build an 80-byte block header and its coinbase txid.
type notifyHeader struct {
	headerHex    string
	coinbaseTxID []byte
}

// buildNotifyHeader reconstructs the header for one mining.notify job given
// the current extra-nonce2 assignment. Branch hashes are folded as-is
// against the coinbase txid — unlike the legacy Python bridge, the provided
// branch is never recomputed from raw txids.
func buildNotifyHeader(job *notifyJob, enonce1, extraNonce2Hex string) (*notifyHeader, error) {
	prevInternal, err := stratumPrevHashToInternal(job.prevHash)
	if err != nil {
		return nil, err
	}

	coinbaseHex := job.coinbase1 + enonce1 + extraNonce2Hex + job.coinbase2
	coinbaseBytes, err := hex.DecodeString(coinbaseHex)
	if err != nil {
		return nil, fmt.Errorf("stratumbridge: malformed coinbase hex: %w", err)
	}
	coinbaseTxID := chainutil.Sha256d(coinbaseBytes)

	merkleRoot := chainutil.MerkleRoot(coinbaseTxID, job.branch)

	versionBytes, err := hex.DecodeString(job.versionHex)
	if err != nil || len(versionBytes) != 4 {
		return nil, fmt.Errorf("stratumbridge: malformed version %q", job.versionHex)
	}
	bitsBytes, err := hex.DecodeString(job.bitsHex)
	if err != nil || len(bitsBytes) != 4 {
		return nil, fmt.Errorf("stratumbridge: malformed bits %q", job.bitsHex)
	}
	ntimeBytes, err := hex.DecodeString(job.ntimeHex)
	if err != nil || len(ntimeBytes) != 4 {
		return nil, fmt.Errorf("stratumbridge: malformed ntime %q", job.ntimeHex)
	}

	header := make([]byte, 0, 80)
	header = append(header, reverseBytes(versionBytes)...)
	header = append(header, prevInternal...)
	header = append(header, merkleRoot...)
	header = append(header, reverseBytes(ntimeBytes)...)
	header = append(header, reverseBytes(bitsBytes)...)
	header = append(header, 0, 0, 0, 0) // nonce, filled in by the miner

	return &notifyHeader{
		headerHex:    hex.EncodeToString(header),
		coinbaseTxID: coinbaseTxID,
	}, nil
}

// reverseBytes returns a reversed copy of b. Stratum's version/bits/ntime
// hex fields are big-endian display order; the header wants them
// little-endian.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

