// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cryptoprim

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DerivedKeyLen is the length, in bytes, of each HKDF-derived
// sub-key: 16 bytes, matching AES-128 as required by spec.md §6.
const DerivedKeyLen = 16

// DeriveKey expands the master secret into a purpose-scoped sub-key
// via HKDF-SHA256, so the RID cipher key and the cell AEAD data key
// are independent even though both trace back to one master secret.
// info distinguishes purposes ("rid", "cell").
func DeriveKey(masterKey []byte, info string) ([]byte, error) {
	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("cryptoprim: master key must be %d bytes: %w", KeySize, ErrInvalidKeySize)
	}
	r := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	out := make([]byte, DerivedKeyLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("cryptoprim: key derivation: %w", err)
	}
	return out, nil
}
