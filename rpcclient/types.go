// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BlockTemplate is the raw JSON response from getblocktemplate, before the
// template package turns it into an immutable BlockTemplate ready to emit
// headers. Field names mirror the node's wire format, not Go conventions.
type BlockTemplate struct {
	Version                  int32       `json:"version"`
	PreviousBlockHash        string      `json:"previousblockhash"`
	Transactions             []TemplateTx `json:"transactions"`
	CoinbaseValue            int64       `json:"coinbasevalue"`
	CoinbaseAux              CoinbaseAux `json:"coinbaseaux"`
	Height                   int64       `json:"height"`
	Bits                     string      `json:"bits"`
	CurTime                  int64       `json:"curtime"`
	Target                   string      `json:"target"`
	OdoKey                   *uint32     `json:"odokey"`
	LongPollID               string      `json:"longpollid"`
	DefaultWitnessCommitment string      `json:"default_witness_commitment"`
}

// TemplateTx is one non-coinbase transaction offered by the template.
type TemplateTx struct {
	Data string `json:"data"`
	TxID string `json:"txid"`
	Hash string `json:"hash"`
}

// AuxEntry is one key/value pair of coinbase auxiliary push-data, decoded
// from its hex-string wire form.
type AuxEntry struct {
	Key   string
	Value []byte
}

// CoinbaseAux is the coinbaseaux object from getblocktemplate: an ordered
// mapping of auxiliary push-data to splice into the coinbase scriptSig. Order
// matters (spec: pushed "in insertion order"), so it's kept as a slice rather
// than a map, preserving the JSON object's own key order via token-by-token
// decoding.
type CoinbaseAux struct {
	Entries []AuxEntry
}

// UnmarshalJSON decodes a coinbaseaux object (string -> hex string) while
// preserving key order, which a plain map[string]string decode would lose.
func (c *CoinbaseAux) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("coinbaseaux: expected JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("coinbaseaux: non-string key")
		}

		var hexVal string
		if err := dec.Decode(&hexVal); err != nil {
			return err
		}
		val, err := hex.DecodeString(hexVal)
		if err != nil {
			return fmt.Errorf("coinbaseaux: decode %q: %w", key, err)
		}
		c.Entries = append(c.Entries, AuxEntry{Key: key, Value: val})
	}

	_, err = dec.Token() // consume closing '}'
	return err
}

// Set inserts or overwrites key's value, preserving its original position if
// already present, or appending it otherwise. Used by the template refresher
// to inject the pool's configured "cbstring" tag.
func (c *CoinbaseAux) Set(key string, value []byte) {
	for i := range c.Entries {
		if c.Entries[i].Key == key {
			c.Entries[i].Value = value
			return
		}
	}
	c.Entries = append(c.Entries, AuxEntry{Key: key, Value: value})
}
