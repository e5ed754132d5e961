// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"sync"
	"time"

	"github.com/odopool/odopool/template"
)

// managerState is the single piece of cross-thread mutable state in C4: the
// live template, the extra-nonce counter scoped to it, and the set of
// currently connected miners. All mutation happens under Manager.mu.
type managerState struct {
	currentTemplate *template.BlockTemplate
	extraNonceCtr   uint32
	miners          map[*MinerSession]struct{}
}

// Manager owns managerState behind a single mutex paired with a condition
// variable, per the concurrency model: one template-refresher goroutine
// feeds it new templates, one goroutine per miner connection registers and
// deregisters sessions, and the manager's own loop goroutine periodically
// dispatches work.
type Manager struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state managerState

	shutdown bool
}

// NewManager returns a Manager with no current template and no miners.
func NewManager() *Manager {
	m := &Manager{
		state: managerState{miners: make(map[*MinerSession]struct{})},
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// PushTemplate installs t (nil meaning "no work available") as the current
// template, resets the extra-nonce counter, clears every registered miner's
// next-refresh deadline so each gets fresh work on the manager's next pass,
// and wakes the manager loop.
func (m *Manager) PushTemplate(t *template.BlockTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.currentTemplate = t
	m.state.extraNonceCtr = 0
	for s := range m.state.miners {
		s.clearNextRefresh()
	}
	m.cond.Broadcast()
}

// AddMiner registers s and wakes the manager loop so it gets work
// immediately rather than waiting for the next scheduled pass.
func (m *Manager) AddMiner(s *MinerSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.miners[s] = struct{}{}
	m.cond.Broadcast()
}

// RemoveMiner deregisters s. The caller still owns closing the connection.
func (m *Manager) RemoveMiner(s *MinerSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.state.miners, s)
}

// Shutdown stops the manager loop after its current pass.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdown = true
	m.cond.Broadcast()
}

// dispatchAssignment is a (session, template, extra-nonce) triple computed
// under the manager lock but executed — meaning the actual line write —
// outside it, so a slow miner socket never blocks template pushes or
// registrations from other goroutines.
type dispatchAssignment struct {
	session    *MinerSession
	tmpl       *template.BlockTemplate
	extraNonce uint32
}

// Run is the manager loop: on each pass, every miner whose next-refresh
// deadline has elapsed is assigned the current template and the next
// extra-nonce value, then the loop waits until the earliest remaining
// deadline or a broadcast (new template, new miner, shutdown).
func (m *Manager) Run() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.shutdown {
		now := time.Now()
		var assignments []dispatchAssignment
		earliest := now.Add(time.Hour)

		for s := range m.state.miners {
			next := s.peekNextRefresh()
			if !next.After(now) {
				var extraNonce uint32
				if m.state.currentTemplate != nil {
					extraNonce = m.state.extraNonceCtr
					m.state.extraNonceCtr++
				}
				s.markDispatched(m.state.currentTemplate, now)
				assignments = append(assignments, dispatchAssignment{s, m.state.currentTemplate, extraNonce})
				next = s.peekNextRefresh()
			}
			if next.Before(earliest) {
				earliest = next
			}
		}

		wait := time.Until(earliest)
		if wait <= 0 {
			wait = time.Millisecond
		}

		if len(assignments) > 0 {
			m.mu.Unlock()
			for _, a := range assignments {
				a.session.pushWork(a.tmpl, a.extraNonce)
			}
			m.mu.Lock()
			continue
		}

		timer := time.AfterFunc(wait, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		m.cond.Wait()
		timer.Stop()
	}
}
