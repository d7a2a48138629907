// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// CellCipher names the AEAD construction used for cell encryption:
// stdlib AES-GCM or golang.org/x/crypto/chacha20poly1305; config
// selects between them.
type CellCipher string

const (
	// CipherAESGCM uses AES-GCM (stdlib crypto/aes + crypto/cipher):
	// AES-128 with a 16-byte key, as builder.DeriveKeys supplies.
	CipherAESGCM CellCipher = "aes-gcm"
	// CipherChaCha20Poly1305 uses golang.org/x/crypto/chacha20poly1305.
	CipherChaCha20Poly1305 CellCipher = "chacha20poly1305"
)

// CellEncryptor encrypts individual cell plaintexts with a scheme-wide
// data key. Ciphertexts are nonce‖ciphertext‖tag. By default nonces
// are fresh random values; Deterministic forces an all-zero nonce,
// which is only safe when each distinct cell value under a given key
// is encrypted at most once.
type CellEncryptor struct {
	aead          cipher.AEAD
	Deterministic bool
}

// NewCellEncryptor constructs a CellEncryptor for the named cipher and
// key: AES-GCM takes a 16-byte (AES-128) or 32-byte (AES-256) key;
// chacha20poly1305 requires a 32-byte key.
func NewCellEncryptor(which CellCipher, key []byte) (*CellEncryptor, error) {
	var aead cipher.AEAD
	var err error
	switch which {
	case CipherAESGCM, "":
		block, berr := aes.NewCipher(key)
		if berr != nil {
			return nil, fmt.Errorf("cryptoprim: %w: %v", ErrInvalidKeySize, berr)
		}
		aead, err = cipher.NewGCM(block)
	case CipherChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("cryptoprim: unsupported cell cipher %q", which)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: %w: %v", ErrInvalidKeySize, err)
	}
	return &CellEncryptor{aead: aead}, nil
}

// Encrypt returns nonce‖ciphertext‖tag for plaintext.
func (c *CellEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if !c.Deterministic {
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, fmt.Errorf("cryptoprim: nonce generation: %w", err)
		}
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt reverses Encrypt. Exercised by tests and by any client-side
// verification tooling; the store itself never calls this.
func (c *CellEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, fmt.Errorf("cryptoprim: ciphertext shorter than nonce")
	}
	nonce, ct := ciphertext[:n], ciphertext[n:]
	return c.aead.Open(nil, nonce, ct, nil)
}
