// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pool implements the solo pool manager (C4): a template refresher,
// a single-mutex manager loop dispatching work to connected miners, and the
// per-miner submission path that reconstructs and relays solved blocks.
package pool

import (
	"time"

	"github.com/odopool/odopool/chaincfg"
	"github.com/odopool/odopool/template"
)

// defaultRefreshInterval is how long a miner keeps its current work before
// the manager loop re-dispatches it, absent a new template.
const defaultRefreshInterval = 10 * time.Second

// Config is the immutable configuration a Manager and its refresher run
// against, built once from CLI flags at startup.
type Config struct {
	Params chaincfg.Params

	RPCURL      string
	RPCUser     string
	RPCPassword string

	ListenAddr string

	// CoinbaseTag is spliced into the template's coinbaseaux under the
	// "cbstring" key by the refresher on every successful fetch.
	CoinbaseTag string

	// RewardSplit pays out the coinbase value: the operator's address
	// receives the remainder, and the donation address (when the
	// -d/--donate percentage is positive) receives its configured share.
	RewardSplit template.RewardSplit

	RefreshInterval time.Duration
}
