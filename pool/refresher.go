// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"context"
	"errors"
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/odopool/odopool/rpcclient"
	"github.com/odopool/odopool/template"
)

// retryBackoff is how long the refresher sleeps after an RPC or socket
// failure before retrying.
const retryBackoff = 1 * time.Second

// seenLongPollIDsLimit bounds the recent-long-poll-id set used to log a
// successful fetch only the first time a given id is seen, so a node that
// keeps returning the same id across repeated long-poll timeouts doesn't
// spam the log once per poll.
const seenLongPollIDsLimit = 32

// Refresher long-polls the node for block templates and pushes each to a
// Manager. It runs forever until ctx is canceled, absorbing every RPC and
// socket failure itself — the manager and miner sessions never see a
// refresher error directly, only a nil template.
type Refresher struct {
	rpc         *rpcclient.Client
	manager     *Manager
	split       template.RewardSplit
	coinbaseTag string

	longPollID    string
	lastErrorCode int
	haveError     bool
	seenLongPolls *lru.Cache[string]
}

// NewRefresher returns a Refresher that pushes templates built with split
// and tagged with coinbaseTag to manager.
func NewRefresher(rpc *rpcclient.Client, manager *Manager, split template.RewardSplit, coinbaseTag string) *Refresher {
	return &Refresher{
		rpc:           rpc,
		manager:       manager,
		split:         split,
		coinbaseTag:   coinbaseTag,
		seenLongPolls: lru.NewCache[string](seenLongPollIDsLimit),
	}
}

// Run polls until ctx is canceled.
func (r *Refresher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		raw, err := r.rpc.GetBlockTemplate(ctx, r.longPollID)
		if err != nil {
			r.handleError(err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
			continue
		}

		raw.CoinbaseAux.Set("cbstring", []byte(r.coinbaseTag))

		tmpl, err := template.New(raw, r.split)
		if err != nil {
			// A malformed template from the node is treated the same as an
			// RPC failure: the refresher retries rather than crashing the
			// process, absorbing every transient error itself.
			r.handleError(err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
			continue
		}

		r.manager.PushTemplate(tmpl)
		r.longPollID = tmpl.LongPollID

		if !r.seenLongPolls.Contains(tmpl.LongPollID) {
			r.seenLongPolls.Add(tmpl.LongPollID)
			log.Debugf("new template, long poll id %s", tmpl.LongPollID)
		}

		if r.haveError {
			log.Infof("successfully acquired template")
			r.haveError = false
		}
	}
}

// handleError pushes a nil template on the first failure of a new streak (so
// miners receive a "no work" signal exactly once), and logs only on a
// transition to a new error code.
func (r *Refresher) handleError(err error) {
	code := errorCode(err)

	if !r.haveError {
		r.manager.PushTemplate(nil)
	}

	if !r.haveError || code != r.lastErrorCode {
		log.Errorf("template refresh failed: %v", err)
	}

	r.haveError = true
	r.lastErrorCode = code
}

func errorCode(err error) int {
	var rpcErr *rpcclient.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return -1
}
