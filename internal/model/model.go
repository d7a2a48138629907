// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package model holds the plaintext schema declarations the builder
// validates before any store write: table names, primary keys
// (atomic or compound), foreign keys, and the in-memory row shape
// fed to the row encryptor and EMM builders.
package model

import "fmt"

// Value is a plaintext cell value. The builder treats values as
// opaque except where it needs an int64 view for PK/FK long-id
// derivation (ToInt64).
type Value = any

// Row is one plaintext record, keyed by column name, plus the RID
// assigned to it by the identifier model.
type Row struct {
	RID    uint64
	Values map[string]Value
}

// Column declares one attribute of a table.
type Column struct {
	Name string
	// Key marks the column as (part of) the table's primary key. The
	// builder reads Table.PrimaryKey, not this flag. Key columns are
	// AEAD-encrypted into the encrypted row like every other column;
	// they get no filter tokens.
	Key bool
}

// ForeignKey declares fk: this.Column → References.Table.Column.
type ForeignKey struct {
	Column     string
	References TableRef
}

// TableRef names a (table, column) pair.
type TableRef struct {
	Table  string
	Column string
}

// Table declares one plaintext table: its name, columns, and FKs. A
// Table must declare exactly one primary key of arity 1 or 2
// (spec.md §4.2); arity is derived from len(PrimaryKey).
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string // 1 or 2 column names, declared among Columns
	ForeignKeys []ForeignKey
}

// NonKeyColumns returns the columns that are not part of the primary
// key, i.e. those eligible for filter-EMM and PKFK val_*/dep_val_*
// tokens.
func (t Table) NonKeyColumns() []Column {
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		pk[k] = true
	}
	var out []Column
	for _, c := range t.Columns {
		if !pk[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// Validate enforces spec.md §4.2's "each table must declare exactly
// one PK" constraint (fatal ConfigError at build start) and checks FK
// column references are well-formed. It does not check that FK
// targets exist in other declared tables — the PK/FK graph is treated
// per-FK and independently, per spec.md §9 ("the builder treats each
// FK independently and does not traverse the graph").
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("model: table declared with empty name: %w", ErrConfig)
	}
	if len(t.PrimaryKey) != 1 && len(t.PrimaryKey) != 2 {
		return fmt.Errorf("model: table %q must declare exactly one primary key of arity 1 or 2, got arity %d: %w", t.Name, len(t.PrimaryKey), ErrConfig)
	}
	cols := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		cols[c.Name] = true
	}
	for _, pkCol := range t.PrimaryKey {
		if !cols[pkCol] {
			return fmt.Errorf("model: table %q declares primary key column %q that is not among its columns: %w", t.Name, pkCol, ErrConfig)
		}
	}
	for _, fk := range t.ForeignKeys {
		if !cols[fk.Column] {
			return fmt.Errorf("model: table %q declares foreign key on unknown column %q: %w", t.Name, fk.Column, ErrConfig)
		}
		if fk.References.Table == "" || fk.References.Column == "" {
			return fmt.Errorf("model: table %q foreign key %q has an incomplete reference: %w", t.Name, fk.Column, ErrConfig)
		}
	}
	return nil
}

// ToInt64 converts a plaintext cell value to int64 for PK/FK long-id
// derivation. Only integer-shaped values are supported; anything else
// is a DataError-class failure.
func ToInt64(v Value) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("model: cannot derive a long id from value of type %T: %w", v, ErrData)
	}
}
