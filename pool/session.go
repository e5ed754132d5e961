// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/odopool/odopool/minerproto"
	"github.com/odopool/odopool/rpcclient"
	"github.com/odopool/odopool/template"
)

// maxWorkItems is how many recent WorkItems a session retains, so a
// submission referencing a slightly outdated header can still be
// reconstructed after a template swap.
const maxWorkItems = 2

// matchPrefixLen is the number of hex characters (76 bytes: version, prev
// hash, merkle root, time, bits) a submitted header must share with a
// retained WorkItem's header to be considered a match. It deliberately
// excludes the trailing 8 hex chars (4-byte nonce), which is exactly the
// field a miner varies between submissions.
const matchPrefixLen = 152

// WorkItem is one piece of per-miner bookkeeping: the header dispatched, the
// template it was built from, and the extra-nonce used, retained so a late
// submission can still be reconstructed into a full block.
type WorkItem struct {
	HeaderHex  string
	Template   *template.BlockTemplate
	ExtraNonce uint32
}

// MinerSession is a single miner connection's state: the send path (guarded
// by its own mutex so a slow write never blocks the manager), the retained
// work items (guarded separately, since the manager's dispatch goroutine and
// this session's own reader goroutine touch them independently), and the
// refresh schedule the manager loop reads.
type MinerSession struct {
	conn   net.Conn
	writer *bufio.Writer
	rpc    *rpcclient.Client

	sendMu sync.Mutex

	workMu          sync.Mutex
	workItems       []WorkItem
	nextRefresh     time.Time
	refreshInterval time.Duration
}

// NewMinerSession wraps conn for one miner connection.
func NewMinerSession(conn net.Conn, rpc *rpcclient.Client) *MinerSession {
	return &MinerSession{
		conn:            conn,
		writer:          bufio.NewWriter(conn),
		rpc:             rpc,
		refreshInterval: defaultRefreshInterval,
	}
}

func (s *MinerSession) peekNextRefresh() time.Time {
	s.workMu.Lock()
	defer s.workMu.Unlock()
	return s.nextRefresh
}

func (s *MinerSession) clearNextRefresh() {
	s.workMu.Lock()
	defer s.workMu.Unlock()
	s.nextRefresh = time.Time{}
}

// markDispatched records that this session is about to receive work for
// tmpl, advancing its refresh deadline immediately (rather than waiting for
// the line to actually go out over the wire) so the manager's own wait
// scheduling stays correct even while the write happens outside its lock.
func (s *MinerSession) markDispatched(tmpl *template.BlockTemplate, now time.Time) {
	s.workMu.Lock()
	defer s.workMu.Unlock()
	s.nextRefresh = now.Add(s.refreshInterval)
	if tmpl == nil {
		s.workItems = nil
	}
}

// pushWork sends a "work" (or paused-work) line to the miner and, for a
// live template, records the dispatched WorkItem in MRU order.
func (s *MinerSession) pushWork(tmpl *template.BlockTemplate, extraNonce uint32) {
	if tmpl == nil {
		s.send(minerproto.PausedWork())
		return
	}

	headerHex, err := tmpl.GetWork(extraNonce)
	if err != nil {
		log.Errorf("building work for miner: %v", err)
		return
	}

	s.workMu.Lock()
	s.workItems = append([]WorkItem{{HeaderHex: headerHex, Template: tmpl, ExtraNonce: extraNonce}}, s.workItems...)
	if len(s.workItems) > maxWorkItems {
		s.workItems = s.workItems[:maxWorkItems]
	}
	s.workMu.Unlock()

	s.send(minerproto.Work(headerHex, tmpl.Target, tmpl.OdoKey))
}

func (s *MinerSession) send(line string) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	if _, err := s.writer.WriteString(line + "\n"); err != nil {
		log.Debugf("write to miner failed: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Debugf("flush to miner failed: %v", err)
	}
}

// Submit handles a solved-header submission: matches it against a retained
// WorkItem by its first matchPrefixLen hex characters, reconstructs the full
// block, and relays it to the node. Returns the line to send back to the
// miner.
func (s *MinerSession) Submit(ctx context.Context, headerHex string) string {
	if len(headerHex) != matchPrefixLen+8 {
		return minerproto.Result("error")
	}

	item, ok := s.matchWorkItem(headerHex)
	if !ok {
		return minerproto.Result("stale")
	}

	dataHex, err := item.Template.GetData(item.ExtraNonce)
	if err != nil {
		log.Errorf("reconstructing block data: %v", err)
		return minerproto.Result("error")
	}

	err = s.rpc.SubmitBlock(ctx, headerHex+dataHex)
	switch {
	case err == nil:
		return minerproto.Result("accepted")
	case isRejection(err):
		return minerproto.Result(err.Error())
	default:
		return minerproto.Result("error")
	}
}

func (s *MinerSession) matchWorkItem(headerHex string) (WorkItem, bool) {
	s.workMu.Lock()
	defer s.workMu.Unlock()

	prefix := headerHex[:matchPrefixLen]
	for _, item := range s.workItems {
		if item.HeaderHex[:matchPrefixLen] == prefix {
			return item, true
		}
	}
	return WorkItem{}, false
}

func isRejection(err error) bool {
	var rejected *rpcclient.RejectedError
	return errors.As(err, &rejected)
}
