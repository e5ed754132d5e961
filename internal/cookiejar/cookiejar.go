// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cookiejar locates and reads the node's RPC auth cookie, mirroring
// the default credential-discovery behavior of a full node's RPC server:
// a node started without an explicit RPC user and password drops a
// randomly-generated ".cookie" file into its data directory, and RPC
// clients that weren't given explicit credentials read it from there.
package cookiejar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	appName        = "odod"
	testnetSubdir  = "testnet4"
	cookieFileName = ".cookie"
)

// ErrNoCookie is returned by Read when the cookie file does not exist or
// cannot be opened.
var ErrNoCookie = errors.New("cookiejar: RPC cookie file not found")

// DataDir returns the node's default application data directory, following
// the same per-OS convention the node itself uses: %LOCALAPPDATA%\Odod
// (falling back to %APPDATA%\Odod) on Windows, ~/Library/Application
// Support/Odod on macOS, and ~/.odod elsewhere.
func DataDir() string {
	return btcutil.AppDataDir(appName, false)
}

// Path returns the path to the RPC cookie file within dataDir for the given
// network. Testnet nodes keep their cookie in a network-specific
// subdirectory so a single data directory can serve both networks.
func Path(dataDir string, testnet bool) string {
	if testnet {
		dataDir = filepath.Join(dataDir, testnetSubdir)
	}
	return filepath.Join(dataDir, cookieFileName)
}

// Read loads and parses the "user:password" cookie file at path, returning
// the decoded user and password. A missing file is reported as ErrNoCookie
// so callers can produce a specific "specify --auth or --user/--password"
// style error message.
func Read(path string) (user, password string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNoCookie
		}
		return "", "", fmt.Errorf("cookiejar: reading %s: %w", path, err)
	}

	content := strings.TrimRight(string(raw), "\r\n")
	parts := strings.SplitN(content, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("cookiejar: malformed cookie file %s", path)
	}
	return parts[0], parts[1], nil
}
