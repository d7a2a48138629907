// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package cryptoprim implements the PRF, AEAD, and deterministic
// block-cipher primitives the EMM builders derive trapdoors and
// encrypt cells and RIDs with. All derivations are HMAC-SHA256 based,
// keyed from a single master secret.
package cryptoprim

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// KeySize is the required length, in bytes, of the master secret and
// of every derived trapdoor.
const KeySize = 32

// ErrInvalidKeySize is returned whenever a PRF or cipher operation is
// given a key of the wrong length.
var ErrInvalidKeySize = errors.New("cryptoprim: invalid key size")

// PRF computes HMAC-SHA256(key, msg_1 || msg_2 || ...). Callers
// concatenate predicate strings, counters, and tags as separate msg
// parts rather than pre-joining them, so the key length check runs
// once per call site.
func PRF(key []byte, parts ...[]byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrInvalidKeySize
	}
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil), nil
}

// MustPRF panics on error. Reserved for call sites where the key was
// already validated (e.g. a freshly derived 32-byte trapdoor), to
// avoid threading an error return through every counter loop.
func MustPRF(key []byte, parts ...[]byte) []byte {
	out, err := PRF(key, parts...)
	if err != nil {
		panic(err)
	}
	return out
}

// Trapdoor1 derives the label-key T_1 for a predicate: PRF_master(P, 1).
func Trapdoor1(masterKey []byte, predicate []byte) ([]byte, error) {
	return PRF(masterKey, predicate, []byte{1})
}

// Trapdoor2 derives the value-key T_2 for a predicate: PRF_master(P, 2).
func Trapdoor2(masterKey []byte, predicate []byte) ([]byte, error) {
	return PRF(masterKey, predicate, []byte{2})
}

// Trapdoor derives the single-key trapdoor T_P = PRF_master(P), used
// by the dependent-filter and PKFK token schemes.
func Trapdoor(masterKey []byte, predicate []byte) ([]byte, error) {
	return PRF(masterKey, predicate)
}

// Secondary derives S = PRF_T(rid [, j]), the per-record trapdoor
// used by the correlated-join and PKFK schemes to key a row's own
// bucket of labels.
func Secondary(t []byte, rid uint64, j *byte) ([]byte, error) {
	var ridBuf [8]byte
	binary.BigEndian.PutUint64(ridBuf[:], rid)
	if j == nil {
		return PRF(t, ridBuf[:])
	}
	return PRF(t, ridBuf[:], []byte{*j})
}

// Label computes PRF_{t1}(counter), the bucket label for the
// counter-th entry under key t1.
func Label(t1 []byte, counter uint64) ([]byte, error) {
	var cBuf [8]byte
	binary.BigEndian.PutUint64(cBuf[:], counter)
	return PRF(t1, cBuf[:])
}
