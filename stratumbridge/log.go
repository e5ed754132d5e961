// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stratumbridge implements the Stratum-to-miner bridge (C5): a
// bidirectional TCP proxy that speaks Stratum V1 upstream and the same
// line-oriented protocol C4 speaks downstream to miners.
package stratumbridge

import "github.com/btcsuite/btclog"

var log btclog.Logger

// UseLogger sets the package-wide logger used by the bridge.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// DisableLog disables all library log output.
func DisableLog() {
	log = btclog.Disabled
}

func init() {
	DisableLog()
}
