// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cryptoprim

import "encoding/binary"

// ValueWidth is the fixed width, in bytes, of an EMM payload: an RID
// masked with a one-time pad derived from the value-key.
const ValueWidth = 8

// XORValue computes rid ⊕ PRF(key, tag)[:8], the PiBAS-style payload
// encryption used for t_filter, t_uncorr_join, and t_corr_join values.
// tag distinguishes "v", "l", "r" payload roles sharing one key.
func XORValue(key []byte, rid uint64, tag string) ([]byte, error) {
	mask, err := PRF(key, []byte(tag))
	if err != nil {
		return nil, err
	}
	var ridBuf [ValueWidth]byte
	binary.BigEndian.PutUint64(ridBuf[:], rid)
	out := make([]byte, ValueWidth)
	for i := range out {
		out[i] = ridBuf[i] ^ mask[i]
	}
	return out, nil
}

// OpenValue reverses XORValue, recovering the RID given the same key
// and tag used to mask it. The query processor (external to this
// builder) performs the same computation once it holds the trapdoor;
// this helper exists so the builder's own tests can assert round-trip
// correctness without reimplementing the mask.
func OpenValue(key []byte, value []byte, tag string) (uint64, error) {
	mask, err := PRF(key, []byte(tag))
	if err != nil {
		return 0, err
	}
	if len(value) != ValueWidth {
		return 0, ErrInvalidKeySize
	}
	var ridBuf [ValueWidth]byte
	for i := range ridBuf {
		ridBuf[i] = value[i] ^ mask[i]
	}
	return binary.BigEndian.Uint64(ridBuf[:]), nil
}
