// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"context"
	"net"
	"time"

	"github.com/odopool/odopool/minerproto"
	"github.com/odopool/odopool/rpcclient"
)

// Server accepts miner TCP connections and hands each to its own goroutine,
// registering and deregistering it with a shared Manager.
type Server struct {
	listenAddr      string
	manager         *Manager
	rpc             *rpcclient.Client
	refreshInterval time.Duration
}

// NewServer returns a Server that will listen on listenAddr once Serve is
// called. refreshInterval overrides how long a miner keeps its current work
// before the manager re-dispatches it (Config.RefreshInterval); zero keeps
// defaultRefreshInterval.
func NewServer(listenAddr string, manager *Manager, rpc *rpcclient.Client, refreshInterval time.Duration) *Server {
	return &Server{listenAddr: listenAddr, manager: manager, rpc: rpc, refreshInterval: refreshInterval}
}

// Serve listens on s.listenAddr, accepting connections until ctx is
// canceled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.listenAddr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	session := NewMinerSession(conn, s.rpc)
	if s.refreshInterval > 0 {
		session.refreshInterval = s.refreshInterval
	}
	s.manager.AddMiner(session)
	defer func() {
		s.manager.RemoveMiner(session)
		conn.Close()
	}()

	reader := minerproto.NewReader(conn)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return
		}

		msg, err := minerproto.ParseMinerLine(line)
		if err != nil {
			log.Debugf("dropping unparseable line from %s: %q", conn.RemoteAddr(), line)
			continue
		}

		submit, ok := msg.(*minerproto.Submit)
		if !ok {
			log.Debugf("unexpected miner message type from %s", conn.RemoteAddr())
			continue
		}

		session.send(session.Submit(ctx, submit.HeaderHex))
	}
}
