// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stratumbridge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// notifyJob is the parsed form of a mining.notify params array:
// [job_id, prev_hash, coinbase1, coinbase2, merkle_branch[], version,
// bits, ntime, clean_jobs].
type notifyJob struct {
	jobID      string
	prevHash   string
	coinbase1  string
	coinbase2  string
	branch     [][]byte
	versionHex string
	bitsHex    string
	ntimeHex   string
	cleanJobs  bool
	odoKey     *uint32
}

// parseNotify decodes a mining.notify params array, tolerating the
// non-standard trailing "odokey" extension field some upstreams append.
func parseNotify(params json.RawMessage) (*notifyJob, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil {
		return nil, fmt.Errorf("stratumbridge: malformed mining.notify params: %w", err)
	}
	if len(raw) < 9 {
		return nil, fmt.Errorf("stratumbridge: mining.notify expected >= 9 params, got %d", len(raw))
	}

	job := &notifyJob{}
	fields := []*string{&job.jobID, &job.prevHash, &job.coinbase1, &job.coinbase2}
	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f); err != nil {
			return nil, fmt.Errorf("stratumbridge: mining.notify param %d: %w", i, err)
		}
	}

	var branchHex []string
	if err := json.Unmarshal(raw[4], &branchHex); err != nil {
		return nil, fmt.Errorf("stratumbridge: mining.notify merkle branch: %w", err)
	}
	job.branch = make([][]byte, len(branchHex))
	for i, h := range branchHex {
		b, err := hexDecodeExact(h, 32)
		if err != nil {
			return nil, fmt.Errorf("stratumbridge: mining.notify branch[%d]: %w", i, err)
		}
		job.branch[i] = b
	}

	trailingFields := []*string{&job.versionHex, &job.bitsHex, &job.ntimeHex}
	for i, f := range trailingFields {
		if err := json.Unmarshal(raw[5+i], f); err != nil {
			return nil, fmt.Errorf("stratumbridge: mining.notify param %d: %w", 5+i, err)
		}
	}

	if err := json.Unmarshal(raw[8], &job.cleanJobs); err != nil {
		return nil, fmt.Errorf("stratumbridge: mining.notify clean_jobs: %w", err)
	}

	if len(raw) > 9 {
		var key uint32
		if err := json.Unmarshal(raw[9], &key); err == nil {
			job.odoKey = &key
		}
	}

	return job, nil
}

func hexDecodeExact(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("expected %d bytes, got %d", n, len(b))
	}
	return b, nil
}
