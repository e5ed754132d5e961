// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command odopool-solo is the solo-mining pool coordinator (C4): it polls a
// node for block templates, builds and dispatches Odo mining work to any
// number of connected miners, and relays solved headers back to the node.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/odopool/odopool/internal/cookiejar"
	"github.com/odopool/odopool/pool"
	"github.com/odopool/odopool/rpcclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logFile := filepath.Join(cookiejar.DataDir(), "logs", "odopool-solo.log")
	if err := initLogRotator(logFile); err != nil {
		return fmt.Errorf("initializing log rotator: %w", err)
	}
	useLogging(cfg.verbose)

	log.Infof("odopool-solo starting on %s, network %s", cfg.ListenAddr, cfg.Params.Name)

	var rpc *rpcclient.Client
	if cfg.proxyAddr != "" {
		rpc = rpcclient.NewWithProxy(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword, cfg.proxyAddr, cfg.proxyUser, cfg.proxyPassword)
	} else {
		rpc = rpcclient.New(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	}

	manager := pool.NewManager()
	go manager.Run()

	refresher := pool.NewRefresher(rpc, manager, cfg.RewardSplit, cfg.CoinbaseTag)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Info("received interrupt, shutting down")
		manager.Shutdown()
		cancel()
	}()

	go refresher.Run(ctx)

	server := pool.NewServer(cfg.ListenAddr, manager, rpc, cfg.RefreshInterval)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("miner server: %w", err)
	}
	return nil
}
