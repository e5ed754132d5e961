// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package template implements the block template / coinbase builder (C3):
// turning a node's raw getblocktemplate response and a reward split into an
// immutable BlockTemplate that can emit a unique 80-byte header and full
// block body for any extra-nonce.
package template

import "fmt"

// TxOut is one coinbase output: a value in the chain's base unit and an
// output script.
type TxOut struct {
	Value  uint64
	Script []byte
}

// Allotment is one entry of a RewardSplit: pay Script a Share of the total,
// or, if Remainder is true, whatever's left after every fractional
// allotment has been paid.
type Allotment struct {
	Script    []byte
	Remainder bool
	Share     float64 // in [0,1); ignored when Remainder is true
}

// RewardSplit is an ordered sequence of allotments. Exactly one allotment
// must have Remainder set.
type RewardSplit struct {
	Allotments []Allotment
}

// Payouts computes the coinbase outputs for a coinbase carrying total units
// of reward. Each fractional allotment receives floor(share*total), clamped
// to the balance remaining after earlier fractional allotments; the
// remainder allotment receives whatever's left and, when that is non-zero,
// is emitted first. Allotments that come to zero produce no output.
// Returns an error if RewardSplit doesn't have exactly one remainder
// allotment.
func (r RewardSplit) Payouts(total uint64) ([]TxOut, error) {
	var remainderScript []byte
	haveRemainder := false
	var fractional []TxOut

	remaining := total
	for _, a := range r.Allotments {
		if a.Remainder {
			if haveRemainder {
				return nil, fmt.Errorf("template: reward split has more than one remainder allotment")
			}
			haveRemainder = true
			remainderScript = a.Script
			continue
		}

		portion := uint64(a.Share * float64(total))
		if portion > remaining {
			portion = remaining
		}
		if portion > 0 {
			fractional = append(fractional, TxOut{Value: portion, Script: a.Script})
			remaining -= portion
		}
	}

	if !haveRemainder {
		return nil, fmt.Errorf("template: reward split has no remainder allotment")
	}

	if remaining == 0 {
		return fractional, nil
	}
	out := make([]TxOut, 0, len(fractional)+1)
	out = append(out, TxOut{Value: remaining, Script: remainderScript})
	out = append(out, fractional...)
	return out, nil
}
