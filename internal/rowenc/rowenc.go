// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package rowenc implements the per-table row encryptor (spec.md
// §4.4): projecting a plaintext row stream into a stream of
// {enc_rid, enc_col_1, ..., enc_col_k} ciphertext rows. Column names
// are themselves renamed to opaque PRF-derived identifiers so the
// store never learns a table's schema either.
package rowenc

import (
	"encoding/hex"
	"fmt"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
)

// EncRow is one encrypted output row: a fixed-width enc_rid plus a
// map from opaque column id (hex-encoded PRF output) to AEAD
// ciphertext.
type EncRow struct {
	EncRID []byte
	Cells  map[string][]byte
}

// Encryptor turns plaintext rows of one table into EncRows. It is
// stateless and safe for concurrent use across rows of the same
// table (spec.md §4.4: "embarrassingly parallel (per row). Order is
// irrelevant.").
type Encryptor struct {
	ridCipher *cryptoprim.RIDCipher
	cell      *cryptoprim.CellEncryptor
	masterKey []byte
}

// New builds an Encryptor from the derived RID key, the derived cell
// data key/cipher, and the master key (needed to name opaque
// columns via PRF_master(col_name)).
func New(masterKey []byte, ridCipher *cryptoprim.RIDCipher, cell *cryptoprim.CellEncryptor) *Encryptor {
	return &Encryptor{ridCipher: ridCipher, cell: cell, masterKey: masterKey}
}

// OpaqueColumnName returns PRF_master(col_name), hex-encoded so it is
// usable as a store column/JSON-key identifier.
func (e *Encryptor) OpaqueColumnName(colName string) (string, error) {
	out, err := cryptoprim.PRF(e.masterKey, []byte(colName))
	if err != nil {
		return "", fmt.Errorf("rowenc: naming column %q: %w", colName, err)
	}
	return hex.EncodeToString(out), nil
}

// Encrypt projects one plaintext row of table t into an EncRow. Every
// column, including non-key ones, is AEAD-encrypted; key columns are
// never emitted in the clear (spec.md §4.4).
func (e *Encryptor) Encrypt(t model.Table, row model.Row) (EncRow, error) {
	out := EncRow{
		EncRID: e.ridCipher.Encrypt(row.RID),
		Cells:  make(map[string][]byte, len(t.Columns)),
	}
	for _, col := range t.Columns {
		v, ok := row.Values[col.Name]
		if !ok {
			return EncRow{}, fmt.Errorf("rowenc: table %q row missing column %q: %w", t.Name, col.Name, model.ErrData)
		}
		plaintext, err := encodeValue(v)
		if err != nil {
			return EncRow{}, fmt.Errorf("rowenc: table %q column %q: %w", t.Name, col.Name, err)
		}
		ct, err := e.cell.Encrypt(plaintext)
		if err != nil {
			return EncRow{}, fmt.Errorf("rowenc: table %q column %q: %w: %v", t.Name, col.Name, model.ErrCrypto, err)
		}
		name, err := e.OpaqueColumnName(col.Name)
		if err != nil {
			return EncRow{}, fmt.Errorf("rowenc: %w: %v", model.ErrCrypto, err)
		}
		out.Cells[name] = ct
	}
	return out, nil
}

// encodeValue renders a plaintext cell value to bytes for AEAD
// encryption. Integers and strings cover every column type the
// builder's declared schemas use; anything else is a DataError.
func encodeValue(v model.Value) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	default:
		n, err := model.ToInt64(v)
		if err != nil {
			return nil, err
		}
		return fmt.Appendf(nil, "%d", n), nil
	}
}
