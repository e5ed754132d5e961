// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/odopool/odopool/address"
	"github.com/odopool/odopool/chaincfg"
	"github.com/odopool/odopool/internal/cookiejar"
	"github.com/odopool/odopool/pool"
	"github.com/odopool/odopool/template"
)

// ConfigError reports a bad CLI invocation, address, or network mismatch.
// Unlike every other error kind the pool produces, a ConfigError is always
// fatal: the process exits before serving anything.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configError(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// options is the raw flag surface: positional address plus the
// -t/-H/-p/--user/--password/-a/-l/-r/--coinbase/-d flags.
type options struct {
	Testnet  bool    `short:"t" long:"testnet" description:"use testnet4 parameters"`
	RPCHost  string  `short:"H" long:"host" description:"node RPC host" default:"localhost"`
	RPCPort  int     `short:"p" long:"port" description:"node RPC port (default: per-network)"`
	User     string  `long:"user" description:"RPC user (discouraged, --auth is preferred)"`
	Password string  `long:"password" description:"RPC password (discouraged, --auth is preferred)"`
	Auth     string  `short:"a" long:"auth" description:"RPC authorization file"`
	Listen   int     `short:"l" long:"listen" description:"port to listen for miners on" default:"17064"`
	Remote   bool    `short:"r" long:"remote" description:"allow remote miners to connect"`
	Coinbase string  `long:"coinbase" description:"coinbase scriptSig tag" default:"/odo-miner-solo/"`
	Donate   float64 `short:"d" long:"donate" description:"developer donation percentage" default:"2.0"`
	Verbose  bool    `short:"v" long:"verbose" description:"verbose logging"`

	Proxy         string `long:"proxy" description:"connect to the node through this SOCKS4/5 proxy"`
	ProxyUser     string `long:"proxyuser" description:"username for --proxy"`
	ProxyPassword string `long:"proxypass" description:"password for --proxy"`

	Positional struct {
		Address string `positional-arg-name:"address" description:"address to mine to"`
	} `positional-args:"yes" required:"yes"`
}

// config is the immutable, fully-resolved configuration built from options
// once at startup. Unlike the Python original's module-level mutable params
// dict, nothing downstream mutates this value. It embeds pool.Config so the
// resolved RPC/listen/reward settings pass straight to the pool package.
type config struct {
	pool.Config
	verbose bool

	proxyAddr     string
	proxyUser     string
	proxyPassword string
}

func parseConfig(argv []string) (*config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "odopool-solo"
	if _, err := parser.ParseArgs(argv); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, configError("%v", err)
	}

	params := chaincfg.MainNetParams
	if opts.Testnet {
		params = chaincfg.TestNet4Params
	}

	operatorScript, err := decodeMiningAddress(opts.Positional.Address, params)
	if err != nil {
		return nil, err
	}

	rewardSplit, err := buildRewardSplit(operatorScript, opts.Donate, params)
	if err != nil {
		return nil, err
	}

	rpcUser, rpcPassword, err := resolveAuth(opts, params)
	if err != nil {
		return nil, err
	}

	rpcPort := opts.RPCPort
	if rpcPort == 0 {
		rpcPort = int(params.RPCServerPort)
	}

	bindHost := "127.0.0.1"
	if opts.Remote {
		bindHost = ""
	}

	return &config{
		Config: pool.Config{
			Params:      params,
			RPCURL:      fmt.Sprintf("http://%s:%d", opts.RPCHost, rpcPort),
			RPCUser:     rpcUser,
			RPCPassword: rpcPassword,
			ListenAddr:  fmt.Sprintf("%s:%d", bindHost, opts.Listen),
			CoinbaseTag: opts.Coinbase,
			RewardSplit: rewardSplit,
		},
		verbose:       opts.Verbose,
		proxyAddr:     opts.Proxy,
		proxyUser:     opts.ProxyUser,
		proxyPassword: opts.ProxyPassword,
	}, nil
}

// decodeMiningAddress decodes addr under params, producing the distinct
// "mainnet address with --testnet" / "testnet address without --testnet" /
// "invalid address" errors a miner operator needs to fix their invocation.
func decodeMiningAddress(addr string, params chaincfg.Params) ([]byte, error) {
	script, err := address.Decode(addr, params)
	switch {
	case err == nil:
		return script, nil
	case errors.Is(err, address.ErrWrongNetwork):
		if params.Name == chaincfg.TestNet4Params.Name {
			return nil, configError("mainnet address specified with --testnet")
		}
		return nil, configError("testnet address specified without --testnet")
	default:
		return nil, configError("invalid address: %v", err)
	}
}

// buildRewardSplit decodes the network's donation address and builds the
// two-allotment split: the donation percentage (skipped entirely when
// donatePct <= 0) and the operator's address taking the remainder.
func buildRewardSplit(operatorScript []byte, donatePct float64, params chaincfg.Params) (template.RewardSplit, error) {
	allotments := []template.Allotment{
		{Script: operatorScript, Remainder: true},
	}

	if donatePct > 0 {
		donationScript, err := address.Decode(params.DonationAddress, params)
		if err != nil {
			return template.RewardSplit{}, configError("decoding built-in donation address: %v", err)
		}
		allotments = append(allotments, template.Allotment{Script: donationScript, Share: donatePct / 100})
	}

	return template.RewardSplit{Allotments: allotments}, nil
}

// resolveAuth resolves RPC credentials in order of precedence: explicit
// user+password, else an auth file, else the node's .cookie file in its
// platform data directory.
func resolveAuth(opts options, params chaincfg.Params) (user, password string, err error) {
	switch {
	case opts.User != "" && opts.Password != "":
		if opts.Auth != "" {
			return "", "", configError("--auth is not allowed with --user and --password")
		}
		if strings.Contains(opts.User, ":") {
			return "", "", configError("user may not contain `:`")
		}
		return opts.User, opts.Password, nil

	case opts.User != "" || opts.Password != "":
		return "", "", configError("--user and --password must both be present or neither present")

	case opts.Auth != "":
		raw, err := os.ReadFile(opts.Auth)
		if err != nil {
			return "", "", configError("reading auth file %q: %v", opts.Auth, err)
		}
		user, password, ok := strings.Cut(strings.TrimSpace(string(raw)), ":")
		if !ok {
			return "", "", configError("auth file %q is not in user:password form", opts.Auth)
		}
		return user, password, nil

	default:
		path := cookiejar.Path(cookiejar.DataDir(), params.Name == chaincfg.TestNet4Params.Name)
		user, password, err := cookiejar.Read(path)
		if err != nil {
			return "", "", configError("unable to read default auth file %q, please specify --auth or --user/--password: %v", path, err)
		}
		return user, password, nil
	}
}
