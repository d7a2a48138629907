// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package builder

import (
	"context"
	"fmt"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/ident"
	"github.com/encsearch/encidx/internal/model"
	"github.com/encsearch/encidx/internal/predicate"
	"github.com/encsearch/encidx/internal/store"
)

// buildPKFK implements spec.md §4.7: a per-table scheme with no
// separate EMM tables — each encrypted table embeds its own join and
// filter tokens (pfk_*, fpk_*, val_*, dep_val_*, enc_*).
func (b *Builder) buildPKFK(ctx context.Context, tables []model.Table, data map[string][]model.Row) error {
	for _, t := range tables {
		rows, err := b.pkfkTable(t, data)
		if err != nil {
			return err
		}
		name, err := b.tableStoreName(t.Name)
		if err != nil {
			return err
		}
		if err := b.Target.WriteRows(ctx, name, rows, "enc_rid"); err != nil {
			return err
		}

		indexCols := pkfkIndexColumns(t)
		tcs := make([][2]string, 0, len(indexCols))
		for _, c := range indexCols {
			tcs = append(tcs, [2]string{name, c})
		}
		for _, tc := range tcs {
			if err := b.Target.RequestIndex(ctx, tc[0], tc[1], store.IndexTree); err != nil {
				return err
			}
		}
		if err := b.Target.Analyze(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// pkfkIndexColumns lists every pfk_*/fpk_*/val_*/dep_val_* column name
// a table's encrypted row carries, for index/ANALYZE requests.
func pkfkIndexColumns(t model.Table) []string {
	var cols []string
	for _, fk := range t.ForeignKeys {
		cols = append(cols, pfkColumnName(fk.References.Table, t.Name), fpkColumnName(t.Name, fk.References.Table))
	}
	for _, c := range t.NonKeyColumns() {
		cols = append(cols, "val_"+c.Name, "dep_val_"+c.Name)
	}
	return cols
}

func pfkColumnName(primaryTable, foreignTable string) string {
	return fmt.Sprintf("pfk_%s_%s", primaryTable, foreignTable)
}

func fpkColumnName(foreignTable, primaryTable string) string {
	return fmt.Sprintf("fpk_%s_%s", foreignTable, primaryTable)
}

// pkfkRID computes this scheme's own RID: the table's declared
// primary key, reduced to a long id via ident.PKLong (spec.md §4.7
// step 1: "In this scheme the 'rid' is the PK itself, hashed at the
// end").
func pkfkRID(t model.Table, row model.Row) (uint64, error) {
	values := make([]int64, len(t.PrimaryKey))
	for i, col := range t.PrimaryKey {
		n, err := model.ToInt64(row.Values[col])
		if err != nil {
			return 0, fmt.Errorf("builder: table %q pkfk rid: %w", t.Name, err)
		}
		values[i] = n
	}
	long, err := ident.PKLong(values)
	if err != nil {
		return 0, fmt.Errorf("builder: table %q pkfk rid: %w: %v", t.Name, model.ErrConfig, err)
	}
	if long < 0 {
		return 0, fmt.Errorf("builder: table %q pkfk rid %d is negative: %w", t.Name, long, model.ErrData)
	}
	return uint64(long), nil
}

// pkfkTable builds the full {enc_rid, pfk_*, fpk_*, val_*, dep_val_*,
// enc_*} row set for one table.
func (b *Builder) pkfkTable(t model.Table, data map[string][]model.Row) ([]map[string]any, error) {
	rows := data[t.Name]

	ridByRow := make(map[uint64]uint64, len(rows)) // row.RID -> pkfk rid
	for _, row := range rows {
		rid, err := pkfkRID(t, row)
		if err != nil {
			return nil, err
		}
		ridByRow[row.RID] = rid
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = map[string]any{"enc_rid": b.Keys.RIDCipher.Encrypt(ridByRow[row.RID])}
	}

	for _, fk := range t.ForeignKeys {
		if err := b.pkfkJoinColumns(t, fk, rows, ridByRow, out); err != nil {
			return nil, err
		}
	}

	for _, col := range t.NonKeyColumns() {
		if err := b.pkfkFilterColumns(t, col, rows, ridByRow, out); err != nil {
			return nil, err
		}
		if err := b.pkfkEncColumn(t, col, rows, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// pkfkJoinColumns fills in pfk_<primary>_<foreign> and
// fpk_<foreign>_<primary> for every row of the FK-declaring table
// (spec.md §4.7 step 2).
func (b *Builder) pkfkJoinColumns(t model.Table, fk model.ForeignKey, rows []model.Row, ridByRow map[uint64]uint64, out []map[string]any) error {
	primary := fk.References.Table
	pfkCol := pfkColumnName(primary, t.Name)
	fpkCol := fpkColumnName(t.Name, primary)

	fwdPred := predicate.PKFK(primary, t.Name)
	tFwd, err := cryptoprim.Trapdoor(b.Keys.Master, fwdPred)
	if err != nil {
		return fmt.Errorf("builder: pkfk %s: %w: %v", pfkCol, model.ErrCrypto, err)
	}
	revPred := predicate.PKFK(t.Name, primary)
	tRev, err := cryptoprim.Trapdoor(b.Keys.Master, revPred)
	if err != nil {
		return fmt.Errorf("builder: pkfk %s: %w: %v", fpkCol, model.ErrCrypto, err)
	}

	buckets := denseBuckets(rows, func(r model.Row) string { return valueLexeme(r.Values[fk.Column]) })
	counterWithin := make(map[uint64]uint64, len(rows))
	for _, bucket := range buckets {
		for k, r := range bucket {
			counterWithin[r.RID] = uint64(k)
		}
	}

	for i, row := range rows {
		a, err := model.ToInt64(row.Values[fk.Column])
		if err != nil {
			return fmt.Errorf("builder: table %q column %q: %w", t.Name, fk.Column, err)
		}
		s, err := cryptoprim.Secondary(tFwd, uint64(a), nil)
		if err != nil {
			return fmt.Errorf("builder: pkfk %s secondary: %w: %v", pfkCol, model.ErrCrypto, err)
		}
		label, err := cryptoprim.Label(s, counterWithin[row.RID])
		if err != nil {
			return fmt.Errorf("builder: pkfk %s label: %w: %v", pfkCol, model.ErrCrypto, err)
		}
		out[i][pfkCol] = label

		sRev, err := cryptoprim.Secondary(tRev, ridByRow[row.RID], nil)
		if err != nil {
			return fmt.Errorf("builder: pkfk %s secondary: %w: %v", fpkCol, model.ErrCrypto, err)
		}
		value, err := cryptoprim.XORValue(sRev, uint64(a), "v")
		if err != nil {
			return fmt.Errorf("builder: pkfk %s value: %w: %v", fpkCol, model.ErrCrypto, err)
		}
		out[i][fpkCol] = value
	}
	return nil
}

// pkfkFilterColumns fills in val_<col> (PiBAS-style counter label) and
// dep_val_<col> (single-key token over this scheme's own rid) for one
// non-key column (spec.md §4.7 step 3).
func (b *Builder) pkfkFilterColumns(t model.Table, col model.Column, rows []model.Row, ridByRow map[uint64]uint64, out []map[string]any) error {
	buckets := denseBuckets(rows, func(r model.Row) string { return valueLexeme(r.Values[col.Name]) })
	counterWithin := make(map[uint64]uint64, len(rows))
	for _, bucket := range buckets {
		for k, r := range bucket {
			counterWithin[r.RID] = uint64(k)
		}
	}

	valCol := "val_" + col.Name
	depValCol := "dep_val_" + col.Name

	for i, row := range rows {
		v := valueLexeme(row.Values[col.Name])
		pred := predicate.Filter(t.Name, col.Name, v)
		tf1, err := cryptoprim.Trapdoor1(b.Keys.Master, pred)
		if err != nil {
			return fmt.Errorf("builder: pkfk %s: %w: %v", valCol, model.ErrCrypto, err)
		}
		val, err := cryptoprim.Label(tf1, counterWithin[row.RID])
		if err != nil {
			return fmt.Errorf("builder: pkfk %s: %w: %v", valCol, model.ErrCrypto, err)
		}
		out[i][valCol] = val

		tf, err := cryptoprim.Trapdoor(b.Keys.Master, pred)
		if err != nil {
			return fmt.Errorf("builder: pkfk %s: %w: %v", depValCol, model.ErrCrypto, err)
		}
		depVal, err := cryptoprim.Secondary(tf, ridByRow[row.RID], nil)
		if err != nil {
			return fmt.Errorf("builder: pkfk %s: %w: %v", depValCol, model.ErrCrypto, err)
		}
		out[i][depValCol] = depVal
	}
	return nil
}

// pkfkEncColumn fills in enc_<col>, the AEAD ciphertext of the
// plaintext cell value.
func (b *Builder) pkfkEncColumn(t model.Table, col model.Column, rows []model.Row, out []map[string]any) error {
	encCol := "enc_" + col.Name
	for i, row := range rows {
		plaintext := []byte(valueLexeme(row.Values[col.Name]))
		ct, err := b.Keys.Cell.Encrypt(plaintext)
		if err != nil {
			return fmt.Errorf("builder: pkfk %s: %w: %v", encCol, model.ErrCrypto, err)
		}
		out[i][encCol] = ct
	}
	return nil
}
