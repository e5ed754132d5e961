// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigBuildsUpstreamAndListenAddrs(t *testing.T) {
	cfg, err := parseConfig([]string{
		"--host", "pool.example.com",
		"--port", "3333",
		"--user", "myaccount.worker1",
		"--password", "x",
		"--listen", "17070",
	})
	require.NoError(t, err)
	assert.Equal(t, "pool.example.com:3333", cfg.bridge.UpstreamAddr)
	assert.Equal(t, ":17070", cfg.bridge.ListenAddr)
	assert.Equal(t, "myaccount.worker1", cfg.bridge.PoolUser)
	assert.False(t, cfg.bridge.WorkerSuffix)
}

func TestParseConfigWorkersFlag(t *testing.T) {
	cfg, err := parseConfig([]string{
		"--host", "pool.example.com",
		"--port", "3333",
		"--user", "myaccount",
		"-w",
	})
	require.NoError(t, err)
	assert.True(t, cfg.bridge.WorkerSuffix)
}

func TestParseConfigMissingRequiredFlagErrors(t *testing.T) {
	_, err := parseConfig([]string{"--host", "pool.example.com"})
	assert.Error(t, err)
}
