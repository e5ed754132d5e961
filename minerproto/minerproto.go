// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package minerproto implements the line-oriented, UTF-8, newline-delimited
// protocol miners speak to both the solo pool manager (C4) and the Stratum
// bridge (C5): a handful of space-separated fields per line, no framing
// beyond '\n', no authentication, no TLS.
package minerproto

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedLine reports a miner line (or field within one) that doesn't
// parse as any recognized message — a ProtocolParseError in spec terms.
var ErrMalformedLine = fmt.Errorf("minerproto: malformed line")

// Reader reads newline-delimited miner protocol lines from a connection.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r for line-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// ReadLine returns the next line with its trailing newline stripped, or an
// error (including io.EOF) when the connection closes or the scan buffer
// errors out.
func (r *Reader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// Work formats a "work" line for a live template.
func Work(headerHex, targetHex string, odoKey uint32) string {
	return fmt.Sprintf("work %s %s %d", headerHex, targetHex, odoKey)
}

// WorkBridge formats a "work" line in bridge mode, which carries the
// additional job_id/ntime/extra_nonce2 fields a Stratum submit echoes back.
func WorkBridge(headerHex, targetHex string, odoKey uint32, jobID, ntimeHex, extraNonce2Hex string) string {
	return fmt.Sprintf("work %s %s %d %s %s %s", headerHex, targetHex, odoKey, jobID, ntimeHex, extraNonce2Hex)
}

// PausedWork is the "no work available" signal: a zeroed header, zeroed
// target, and a zero odo key.
func PausedWork() string {
	return Work(strings.Repeat("0", 160), strings.Repeat("0", 64), 0)
}

// SetTarget formats a "set_target" line.
func SetTarget(targetHex string, diff int) string {
	return fmt.Sprintf("set_target %s diff %d", targetHex, diff)
}

// SetSubscribeParams formats a "set_subscribe_params" line.
func SetSubscribeParams(enonce1Hex string, n2len int) string {
	return fmt.Sprintf("set_subscribe_params %s %d", enonce1Hex, n2len)
}

// Authorized is the literal "authorized" line.
func Authorized() string { return "authorized" }

// Result formats a "result <value>" line.
func Result(value string) string {
	return "result " + value
}

// Connected formats a "connected <host>:<port>" line.
func Connected(hostPort string) string {
	return "connected " + hostPort
}

// Submit is a miner's solved-header submission in solo mode.
type Submit struct {
	HeaderHex string
}

// SubmitNonce is a miner's solved-nonce submission in bridge mode.
type SubmitNonce struct {
	NtimeHex       string
	NonceHex       string
	HeaderHex      string // may be a placeholder when the miner doesn't echo the header
	ExtraNonce2Dec uint64
}

// Auth is a miner's bridge-mode credential line.
type Auth struct {
	User string
	Pass string
}

// ParseMinerLine parses one line sent by a miner. The returned value is one
// of *Submit, *SubmitNonce, or *Auth; an unrecognized leading token yields
// ErrMalformedLine.
func ParseMinerLine(line string) (any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrMalformedLine
	}

	switch fields[0] {
	case "submit":
		if len(fields) != 2 {
			return nil, ErrMalformedLine
		}
		return &Submit{HeaderHex: fields[1]}, nil

	case "submit_nonce":
		if len(fields) != 5 {
			return nil, ErrMalformedLine
		}
		n, err := strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			return nil, ErrMalformedLine
		}
		return &SubmitNonce{
			NtimeHex:       fields[1],
			NonceHex:       fields[2],
			HeaderHex:      fields[3],
			ExtraNonce2Dec: n,
		}, nil

	case "auth":
		if len(fields) != 3 {
			return nil, ErrMalformedLine
		}
		return &Auth{User: fields[1], Pass: fields[2]}, nil

	default:
		return nil, ErrMalformedLine
	}
}
