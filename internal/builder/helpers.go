// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package builder

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
	"github.com/encsearch/encidx/internal/rowenc"
	"github.com/encsearch/encidx/internal/store"
)

// tableStoreName returns "t_" followed by the first 32 hex characters
// of PRF_master(T), the opaque name each table's encrypted table is
// stored under (spec.md §4, §6).
func (b *Builder) tableStoreName(tableName string) (string, error) {
	out, err := cryptoprim.PRF(b.Keys.Master, []byte(tableName))
	if err != nil {
		return "", fmt.Errorf("builder: naming table %q: %w: %v", tableName, model.ErrCrypto, err)
	}
	return "t_" + hex.EncodeToString(out)[:32], nil
}

// writeEncTable encrypts every row of table t and writes the result
// to its opaque encrypted table (spec.md §4.4, §4.5 step 1).
func (b *Builder) writeEncTable(ctx context.Context, t model.Table, rows []model.Row) error {
	name, err := b.tableStoreName(t.Name)
	if err != nil {
		return err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		enc, err := b.Enc.Encrypt(t, row)
		if err != nil {
			return fmt.Errorf("builder: encrypting table %q row: %w", t.Name, err)
		}
		out = append(out, encRowToWriteMap(enc))
	}
	if err := b.Target.WriteRows(ctx, name, out, "enc_rid"); err != nil {
		return err
	}
	return nil
}

func encRowToWriteMap(enc rowenc.EncRow) map[string]any {
	m := make(map[string]any, len(enc.Cells)+1)
	m["enc_rid"] = enc.EncRID
	for col, ct := range enc.Cells {
		m[col] = ct
	}
	return m
}

// indexTables returns tables keyed by name for O(1) FK-target lookup.
func indexTables(tables []model.Table) map[string]model.Table {
	out := make(map[string]model.Table, len(tables))
	for _, t := range tables {
		out[t.Name] = t
	}
	return out
}

// valueLexeme renders a cell value to its canonical string form for
// use inside a filter predicate (spec.md §3: "filter~<table>~<attr>~
// <value-lexeme>").
func valueLexeme(v model.Value) string {
	return fmt.Sprintf("%v", v)
}

// splitQualified splits "table.column" as produced by
// internal/predicate's qualify().
func splitQualified(qualified string) (table, column string) {
	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return qualified, ""
	}
	return qualified[:idx], qualified[idx+1:]
}

// denseBuckets groups rows by keyOf(row) and orders each bucket
// deterministically by ascending RID, so the index within a bucket
// slice is a stable, re-run-reproducible dense counter (spec.md §5:
// "Counter ordering within a bucket must be deterministic given the
// input data to preserve build idempotence; any total order on the
// bucket's rows suffices").
func denseBuckets(rows []model.Row, keyOf func(model.Row) string) map[string][]model.Row {
	buckets := make(map[string][]model.Row)
	for _, r := range rows {
		k := keyOf(r)
		buckets[k] = append(buckets[k], r)
	}
	for k := range buckets {
		sort.Slice(buckets[k], func(i, j int) bool { return buckets[k][i].RID < buckets[k][j].RID })
	}
	return buckets
}

// sortedBucketKeys returns a bucket map's keys in a fixed order, so
// callers that need to iterate buckets deterministically (e.g. for
// logging or test assertions) don't depend on Go's randomized map
// iteration.
func sortedBucketKeys(buckets map[string][]model.Row) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// requestHashIndices is the common "index + analyze" tail shared by
// SPX and CORR's flat EMM tables (spec.md §4.5 step 4, §4.6).
func requestHashIndices(ctx context.Context, s *store.Store, tableCol ...[2]string) error {
	for _, tc := range tableCol {
		if err := s.RequestIndex(ctx, tc[0], tc[1], store.IndexHash); err != nil {
			return err
		}
	}
	seen := make(map[string]bool)
	for _, tc := range tableCol {
		if seen[tc[0]] {
			continue
		}
		seen[tc[0]] = true
		if err := s.Analyze(ctx, tc[0]); err != nil {
			return err
		}
	}
	return nil
}
