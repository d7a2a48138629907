// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package rowenc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
)

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	master := bytes.Repeat([]byte{0x21}, cryptoprim.KeySize)
	ridKey, err := cryptoprim.DeriveKey(master, "rid")
	if err != nil {
		t.Fatalf("DeriveKey(rid): %v", err)
	}
	cellKey, err := cryptoprim.DeriveKey(master, "cell")
	if err != nil {
		t.Fatalf("DeriveKey(cell): %v", err)
	}
	ridCipher, err := cryptoprim.NewRIDCipher(ridKey)
	if err != nil {
		t.Fatalf("NewRIDCipher: %v", err)
	}
	cell, err := cryptoprim.NewCellEncryptor(cryptoprim.CipherAESGCM, append(cellKey, cellKey...))
	if err != nil {
		t.Fatalf("NewCellEncryptor: %v", err)
	}
	return New(master, ridCipher, cell)
}

func testTable() model.Table {
	return model.Table{
		Name:       "data2",
		Columns:    []model.Column{{Name: "a", Key: true}, {Name: "b"}},
		PrimaryKey: []string{"a"},
	}
}

func TestEncryptRowCoversAllColumns(t *testing.T) {
	enc := newTestEncryptor(t)
	tbl := testTable()
	row := model.Row{RID: 7, Values: map[string]model.Value{"a": int64(1), "b": int64(2)}}

	out, err := enc.Encrypt(tbl, row)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(out.EncRID) != cryptoprim.RIDBlockSize {
		t.Fatalf("got enc_rid width %d, want %d", len(out.EncRID), cryptoprim.RIDBlockSize)
	}
	if len(out.Cells) != 2 {
		t.Fatalf("got %d cells, want 2 (key columns are still present, just ciphertext-only)", len(out.Cells))
	}
	for name := range out.Cells {
		if len(name) == 0 {
			t.Fatalf("empty opaque column name")
		}
	}
	for col, want := range map[string]string{"a": "1", "b": "2"} {
		name, err := enc.OpaqueColumnName(col)
		if err != nil {
			t.Fatalf("OpaqueColumnName(%q): %v", col, err)
		}
		ct, ok := out.Cells[name]
		if !ok {
			t.Fatalf("no cell for column %q", col)
		}
		if bytes.Equal(ct, []byte(want)) {
			t.Fatalf("column %q stored in the clear", col)
		}
		pt, err := enc.cell.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt column %q: %v", col, err)
		}
		if string(pt) != want {
			t.Fatalf("column %q decrypts to %q, want %q", col, pt, want)
		}
	}
}

func TestEncryptRowMissingColumnIsDataError(t *testing.T) {
	enc := newTestEncryptor(t)
	tbl := testTable()
	row := model.Row{RID: 1, Values: map[string]model.Value{"a": int64(1)}}
	if _, err := enc.Encrypt(tbl, row); err == nil || !errors.Is(err, model.ErrData) {
		t.Fatalf("got %v, want a DataError for missing column b", err)
	}
}

func TestOpaqueColumnNameDeterministic(t *testing.T) {
	enc := newTestEncryptor(t)
	a, err := enc.OpaqueColumnName("b")
	if err != nil {
		t.Fatalf("OpaqueColumnName: %v", err)
	}
	b, err := enc.OpaqueColumnName("b")
	if err != nil {
		t.Fatalf("OpaqueColumnName: %v", err)
	}
	if a != b {
		t.Fatalf("opaque column name not deterministic: %q != %q", a, b)
	}
}
