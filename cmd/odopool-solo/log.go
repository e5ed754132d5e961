// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/odopool/odopool/pool"
)

var logRotator *rotator.Rotator

// logWriter implements io.Writer so logged output is written to both
// standard output and the rotating log file.
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

// useLogging wires backendLog to every package-level logger and raises the
// verbosity when verbose is set.
func useLogging(verbose bool) {
	level := btclog.LevelInfo
	if verbose {
		level = btclog.LevelDebug
	}

	subsystems := map[string]func(btclog.Logger){
		"MAIN": func(l btclog.Logger) { log = l },
		"POOL": pool.UseLogger,
	}
	for tag, use := range subsystems {
		l := backendLog.Logger(tag)
		l.SetLevel(level)
		use(l)
	}
}
