// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/odopool/odopool/stratumbridge"
)

var logRotator *rotator.Rotator

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return logRotator.Write(p)
}

func initLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return err
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	logRotator = r
	return nil
}

var backendLog = btclog.NewBackend(logWriter{})

var log = backendLog.Logger("MAIN")

func useLogging(verbose bool) {
	level := btclog.LevelInfo
	if verbose {
		level = btclog.LevelDebug
	}

	mainLogger := backendLog.Logger("MAIN")
	mainLogger.SetLevel(level)
	log = mainLogger

	bridgeLogger := backendLog.Logger("BRDG")
	bridgeLogger.SetLevel(level)
	stratumbridge.UseLogger(bridgeLogger)
}
