// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command odopool-bridge is the Stratum V1-to-miner bridge (C5): it speaks
// Stratum V1 to a single upstream pool account and relays translated work
// and submissions to any number of local miners speaking the same
// line-oriented protocol C4 speaks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/odopool/odopool/internal/cookiejar"
	"github.com/odopool/odopool/stratumbridge"
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

	logFile := filepath.Join(cookiejar.DataDir(), "logs", "odopool-bridge.log")
	if err := initLogRotator(logFile); err != nil {
		return fmt.Errorf("initializing log rotator: %w", err)
	}
	useLogging(cfg.verbose)

	log.Infof("odopool-bridge starting, upstream %s, miners on %s", cfg.bridge.UpstreamAddr, cfg.bridge.ListenAddr)

	bridge := stratumbridge.NewBridge(cfg.bridge)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Info("received interrupt, shutting down")
		cancel()
	}()

	go bridge.Run(ctx)

	if err := bridge.ServeMiners(ctx); err != nil {
		return fmt.Errorf("miner server: %w", err)
	}
	return nil
}
