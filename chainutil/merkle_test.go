// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func txid(b byte) []byte {
	out := make([]byte, 32)
	out[0] = b
	return out
}

func TestMerkleBranchEmpty(t *testing.T) {
	assert.Empty(t, MerkleBranch(nil))
}

func TestMerkleBranchSingle(t *testing.T) {
	cb := txid(1)
	branch := MerkleBranch([][]byte{cb})
	require.Len(t, branch, 1)
	assert.Equal(t, cb, branch[0])
	assert.Equal(t, cb, MerkleRoot(cb, nil))
}

func TestMerkleBranchOddDuplicatesLast(t *testing.T) {
	// Three leaves: the implicit coinbase + two others. Once the first txid is
	// popped as the coinbase's sibling, the lone remaining txid is an odd
	// list and is duplicated before folding.
	a, b := txid(2), txid(3)
	branch := MerkleBranch([][]byte{a, b})
	require.Len(t, branch, 2)
	assert.Equal(t, a, branch[0])
	assert.Equal(t, Sha256d(concat(b, b)), branch[1])
}

func TestMerkleRootMatchesManualFold(t *testing.T) {
	cb, a, b, c := txid(1), txid(2), txid(3), txid(4)
	branch := MerkleBranch([][]byte{a, b, c})
	root := MerkleRoot(cb, branch)

	// Manually compute the expected root for a 4-leaf tree.
	left := Sha256d(concat(cb, a))
	right := Sha256d(concat(b, c))
	want := Sha256d(concat(left, right))
	assert.Equal(t, want, root)
}

func TestMerkleBranchRoundTripsToFullTreeRoot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		leaves := make([][]byte, n)
		for i := range leaves {
			leaves[i] = txid(byte(i + 1))
		}
		cb := leaves[0]
		input := make([][]byte, len(leaves)-1)
		copy(input, leaves[1:])
		branch := MerkleBranch(input)
		root := MerkleRoot(cb, branch)
		assert.Equal(t, fullMerkleRoot(leaves), root)
	})
}

// fullMerkleRoot independently computes a block's Merkle root directly from
// its leaves (standard bitcoin-style odd-duplication tree), used as an oracle
// to check MerkleBranch+MerkleRoot agree with the textbook construction.
func fullMerkleRoot(leaves [][]byte) []byte {
	level := leaves
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, Sha256d(concat(level[i], level[i+1])))
		}
		level = next
	}
	return level[0]
}
