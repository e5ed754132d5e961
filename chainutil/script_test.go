// Copyright (c) 2025 The Odo Pool developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptPushBytesShort(t *testing.T) {
	s := NewScript().PushBytes([]byte{0xde, 0xad})
	assert.Equal(t, []byte{0x02, 0xde, 0xad}, s.Bytes())
}

func TestScriptPushBytesEmptyPushesOP0(t *testing.T) {
	s := NewScript().PushBytes(nil)
	assert.Equal(t, []byte{OP_0}, s.Bytes())
}

func TestScriptPushBytesPUSHDATA1Threshold(t *testing.T) {
	data := make([]byte, 80)
	s := NewScript().PushBytes(data)
	got := s.Bytes()
	assert.Equal(t, byte(OP_PUSHDATA1), got[0])
	assert.Equal(t, byte(80), got[1])
	assert.Len(t, got, 2+80)
}

func TestScriptPushIntNoOpcodesAlwaysDataPush(t *testing.T) {
	// Height 1 without opcode shortcuts must be a literal data push (0x01
	// length, 0x01 payload), never the OP_1 opcode — this is the coinbase
	// height/extra-nonce obligation that rules out txscript.ScriptBuilder.
	s := NewScript().PushInt(1, false)
	assert.Equal(t, []byte{0x01, 0x01}, s.Bytes())
}

func TestScriptPushIntWithOpcodesUsesShortcut(t *testing.T) {
	s := NewScript().PushInt(1, true)
	assert.Equal(t, []byte{OP_1}, s.Bytes())

	s = NewScript().PushInt(0, true)
	assert.Equal(t, []byte{OP_0}, s.Bytes())

	s = NewScript().PushInt(16, true)
	assert.Equal(t, []byte{OP_16}, s.Bytes())
}

func TestScriptP2PKHTemplate(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}
	s := NewScript().PushP2PKH(hash)
	got := s.Bytes()
	assert.Equal(t, byte(OP_DUP), got[0])
	assert.Equal(t, byte(OP_HASH160), got[1])
	assert.Equal(t, byte(20), got[2])
	assert.Equal(t, hash, got[3:23])
	assert.Equal(t, byte(OP_EQUALVERIFY), got[23])
	assert.Equal(t, byte(OP_CHECKSIG), got[24])
}
