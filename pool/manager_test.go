// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagerTestSession(t *testing.T) (*MinerSession, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close(); serverConn.Close() })
	go drainConn(clientConn)
	return NewMinerSession(serverConn, nil), clientConn
}

func TestManagerDispatchesFreshWorkAfterPushTemplate(t *testing.T) {
	m := NewManager()
	session, _ := newManagerTestSession(t)
	m.AddMiner(session)

	go m.Run()
	t.Cleanup(m.Shutdown)

	m.PushTemplate(testTemplate(t))

	require.Eventually(t, func() bool {
		return !session.peekNextRefresh().IsZero()
	}, time.Second, time.Millisecond)
}

func TestManagerExtraNonceCounterIsMonotonic(t *testing.T) {
	m := NewManager()
	s1, _ := newManagerTestSession(t)
	s2, _ := newManagerTestSession(t)
	m.AddMiner(s1)
	m.AddMiner(s2)

	m.state.currentTemplate = testTemplate(t)

	go m.Run()
	t.Cleanup(m.Shutdown)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.state.extraNonceCtr >= 2
	}, time.Second, time.Millisecond)
}

func TestPushTemplateClearsNextRefreshForImmediateRedispatch(t *testing.T) {
	m := NewManager()
	session, _ := newManagerTestSession(t)
	session.workMu.Lock()
	session.nextRefresh = time.Now().Add(time.Hour)
	session.workMu.Unlock()
	m.AddMiner(session)

	m.PushTemplate(testTemplate(t))

	assert.True(t, session.peekNextRefresh().IsZero())
}
