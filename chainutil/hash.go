// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Sha256d computes SHA256(SHA256(data)), the double hash used throughout the
// chain's transaction and block serialization formats. It defers to
// btcsuite's chainhash package rather than calling crypto/sha256 twice by
// hand, since chainhash.DoubleHashB already is that exact routine and is a
// teacher dependency.
func Sha256d(data []byte) []byte {
	return chainhash.DoubleHashB(data)
}

// ReverseBytes returns a copy of b with byte order reversed, used to convert
// between a hash's internal (little-endian) and display (big-endian) byte
// order.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
