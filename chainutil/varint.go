// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainutil implements the pure, deterministic wire-format helpers
// the template engine depends on: script-number VarInt, CompactSize, double
// SHA-256, Merkle branch/root folding, and a coinbase scriptSig builder.
package chainutil

import "encoding/binary"

// VarInt serializes n using the chain's "script number" encoding: little
// endian, minimal bytes, with a trailing 0x00 appended if the high bit of
// the last byte would otherwise be interpreted as a sign bit. Zero encodes
// to the empty string. This is distinct from CompactSize and is only used
// for integer pushes inside a coinbase scriptSig (height, extra-nonce).
func VarInt(n uint64) []byte {
	if n == 0 {
		return nil
	}

	var out []byte
	for n != 0 {
		out = append(out, byte(n&0xff))
		n >>= 8
	}
	if out[len(out)-1]&0x80 != 0 {
		out = append(out, 0x00)
	}
	return out
}

// ParseVarInt decodes a script-number VarInt back to its integer value. It
// exists mainly to round-trip VarInt in tests; the pool engine itself
// never needs to decode a VarInt it emitted.
func ParseVarInt(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	// Drop the sign-clearing pad byte, if present, before decoding.
	if len(b) > 1 && b[len(b)-1] == 0 && b[len(b)-2]&0x80 != 0 {
		b = b[:len(b)-1]
	}
	var n uint64
	for i, v := range b {
		n |= uint64(v) << (8 * uint(i))
	}
	return n
}

// CompactSize serializes n using Bitcoin's CompactSize length-prefix
// encoding, used ahead of every variable-length field (scripts, tx counts,
// output counts) in the transaction and block formats this package builds.
func CompactSize(n uint64) []byte {
	switch {
	case n < 0xfd:
		return []byte{byte(n)}
	case n <= 0xffff:
		b := make([]byte, 3)
		b[0] = 0xfd
		binary.LittleEndian.PutUint16(b[1:], uint16(n))
		return b
	case n <= 0xffffffff:
		b := make([]byte, 5)
		b[0] = 0xfe
		binary.LittleEndian.PutUint32(b[1:], uint32(n))
		return b
	default:
		b := make([]byte, 9)
		b[0] = 0xff
		binary.LittleEndian.PutUint64(b[1:], n)
		return b
	}
}

// ParseCompactSize decodes a CompactSize value from the front of b,
// returning the value and the number of bytes consumed. Used only by the
// round-trip property tests.
func ParseCompactSize(b []byte) (uint64, int) {
	if len(b) == 0 {
		return 0, 0
	}
	switch b[0] {
	case 0xfd:
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3
	case 0xfe:
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5
	case 0xff:
		return binary.LittleEndian.Uint64(b[1:9]), 9
	default:
		return uint64(b[0]), 1
	}
}
