// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the chain parameters for the two networks the
// Odo mining coordinator understands: main and testnet4.
package chaincfg

import "fmt"

// Params holds the network-specific constants a pool needs to address-decode,
// dial the node, and tag the coinbase correctly. Unlike a full node's chain
// parameters (checkpoints, consensus deployments, DNS seeds), this is scoped
// to exactly what the coordinator touches.
type Params struct {
	// Name is the params' unique identifier, e.g. "main" or "testnet4".
	Name string

	// Bech32HRPSegwit is the human-readable part used when decoding and
	// encoding bech32 SegWit addresses.
	Bech32HRPSegwit string

	// PubKeyHashAddrID is the Base58Check version byte for a P2PKH address.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the Base58Check version byte for a P2SH address.
	ScriptHashAddrID byte

	// DonationAddress is the pool developer donation payout address for
	// this network, used as the default -d/--donate allotment target.
	DonationAddress string

	// RPCServerPort is the node's default JSON-RPC port.
	RPCServerPort uint16
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:             "main",
	Bech32HRPSegwit:  "dgb",
	PubKeyHashAddrID: 30,
	ScriptHashAddrID: 63,
	DonationAddress:  "DCo11atzQBsymnLEouhTn3CVxyL3zGbFBC",
	RPCServerPort:    14022,
}

// TestNet4Params defines the network parameters for the test network.
//
// The testnet RPC port is 14023 per this table; an older config carried
// 18332 for the same network, a holdover from before the per-chain params
// table existed. 14023 is what the node actually listens on.
var TestNet4Params = Params{
	Name:             "testnet4",
	Bech32HRPSegwit:  "dgbt",
	PubKeyHashAddrID: 126,
	ScriptHashAddrID: 140,
	DonationAddress:  "dgbt1qtm6z2cw2tm2pj0jrj79v87hjfz2ylc2xsk274a",
	RPCServerPort:    14023,
}

// ByName returns the registered Params for name ("main" or "testnet4").
func ByName(name string) (Params, error) {
	switch name {
	case MainNetParams.Name:
		return MainNetParams, nil
	case TestNet4Params.Name:
		return TestNet4Params, nil
	default:
		return Params{}, fmt.Errorf("chaincfg: unknown network %q", name)
	}
}

// Other returns the Params for the opposite network, used to distinguish
// "invalid address" from "wrong network" during CLI validation.
func Other(p Params) Params {
	if p.Name == MainNetParams.Name {
		return TestNet4Params
	}
	return MainNetParams
}
