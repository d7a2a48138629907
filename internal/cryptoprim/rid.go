// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cryptoprim

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"
)

// RIDBlockSize is the fixed width, in bytes, of an encrypted RID:
// one AES block.
const RIDBlockSize = aes.BlockSize // 16

// RIDCipher deterministically encrypts 64-bit RIDs into fixed-width
// 16-byte blocks, so the result can serve as a stable primary key on
// the encrypted row without ever revealing RID order or equality
// patterns beyond what the scheme already allows (the same RID always
// maps to the same ciphertext, as required to key the encrypted
// table). This is AES-ECB-of-a-single-block: safe here only because
// each RID is encrypted as exactly one block and RIDs are never
// chained or compared beyond simple equality by the server.
type RIDCipher struct {
	block []byte
	aes   cipherBlock
}

type cipherBlock interface {
	Encrypt(dst, src []byte)
	Decrypt(dst, src []byte)
}

// NewRIDCipher builds a RIDCipher from a 16 or 32 byte key.
func NewRIDCipher(key []byte) (*RIDCipher, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: %w: %v", ErrInvalidKeySize, err)
	}
	return &RIDCipher{aes: blk}, nil
}

// Encrypt returns PRP(k_rid, rid): the 16-byte ciphertext of the RID
// padded into a single AES block (RID big-endian in the low 8 bytes,
// zero-padded high 8 bytes).
func (c *RIDCipher) Encrypt(rid uint64) []byte {
	var buf [RIDBlockSize]byte
	binary.BigEndian.PutUint64(buf[8:], rid)
	out := make([]byte, RIDBlockSize)
	c.aes.Encrypt(out, buf[:])
	return out
}

// Decrypt reverses Encrypt. Used only by tests verifying the
// round-trip invariant; the server never holds k_rid.
func (c *RIDCipher) Decrypt(ciphertext []byte) (uint64, error) {
	if len(ciphertext) != RIDBlockSize {
		return 0, fmt.Errorf("cryptoprim: encrypted rid must be %d bytes", RIDBlockSize)
	}
	var buf [RIDBlockSize]byte
	c.aes.Decrypt(buf[:], ciphertext)
	return binary.BigEndian.Uint64(buf[8:]), nil
}
