// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/odopool/odopool/stratumbridge"
)

// ConfigError reports a bad CLI invocation for the bridge. Always fatal.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configError(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// options is the bridge's flag surface: upstream host/port, pool
// credentials, the worker-suffix flag, testnet selection, the miner-facing
// listen port, and verbose logging.
type options struct {
	UpstreamHost string `short:"H" long:"host" description:"upstream Stratum V1 host" required:"true"`
	UpstreamPort int    `short:"p" long:"port" description:"upstream Stratum V1 port" required:"true"`

	User     string `long:"user" description:"upstream pool username" required:"true"`
	Password string `long:"password" description:"upstream pool password"`
	Workers  bool   `short:"w" long:"workers" description:"suffix the pool username with the client's worker name"`

	Testnet bool `short:"t" long:"testnet" description:"use testnet4 odo shapechange interval"`
	Listen  int  `short:"l" long:"listen" description:"port to listen for miners on" default:"3333"`
	Verbose bool `short:"v" long:"verbose" description:"verbose logging"`

	Proxy         string `long:"proxy" description:"connect to the upstream pool through this SOCKS4/5 proxy"`
	ProxyUser     string `long:"proxyuser" description:"username for --proxy"`
	ProxyPassword string `long:"proxypass" description:"password for --proxy"`
}

type config struct {
	bridge  stratumbridge.Config
	verbose bool
}

func parseConfig(argv []string) (*config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "odopool-bridge"
	if _, err := parser.ParseArgs(argv); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, configError("%v", err)
	}

	return &config{
		bridge: stratumbridge.Config{
			UpstreamAddr:        fmt.Sprintf("%s:%d", opts.UpstreamHost, opts.UpstreamPort),
			ListenAddr:          fmt.Sprintf(":%d", opts.Listen),
			Testnet:             opts.Testnet,
			PoolUser:            opts.User,
			PoolPassword:        opts.Password,
			WorkerSuffix:        opts.Workers,
			ReconnectMaxBackoff: 10 * time.Second,
			ProxyAddr:           opts.Proxy,
			ProxyUser:           opts.ProxyUser,
			ProxyPassword:       opts.ProxyPassword,
			Verbose:             opts.Verbose,
		},
		verbose: opts.Verbose,
	}, nil
}
