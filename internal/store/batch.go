// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/encsearch/encidx/internal/model"
)

// BatchSize bounds each insert round-trip. Store writes are blocking
// and issued once per EMM table (spec.md §5), so batching only
// controls round-trip count within that single write, not whether the
// write is parallelized across EMMs (it never is).
const BatchSize = 500

// WriteRows performs an overwrite-on-conflict batched insert of rows
// (each a column-name→value map, using opaque column names) into
// table, keyed by conflictColumn — the column a rebuild reproduces
// identically for the same logical entry (a table's enc_rid, or an
// EMM's label/tok column). It honors ctx cancellation at each batch
// boundary, matching the cooperative-cancellation barrier described in
// spec.md §5: a cancellation here aborts outstanding writes and leaves
// the store in a possibly-partial state, which the caller accepts
// (overwrite semantics, no local retry, per spec.md §4.7/§7).
func (s *Store) WriteRows(ctx context.Context, table string, rows []map[string]any, conflictColumn string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.ensureTable(ctx, table, rows[0], conflictColumn); err != nil {
		return err
	}
	for start := 0; start < len(rows); start += BatchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("store: write to %q cancelled: %w", table, err)
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("store: rate limiter: %w", err)
		}
		end := min(start+BatchSize, len(rows))
		batch := rows[start:end]
		// Overwrite-on-conflict: the builder is re-runnable, so a
		// conflicting primary/label key from a prior run is simply
		// replaced rather than treated as an error.
		tx := s.DB.WithContext(ctx).Table(table).Clauses(onConflictDoUpdate(conflictColumn)...).Create(&batch)
		if tx.Error != nil {
			return fmt.Errorf("store: writing batch [%d:%d) to %q: %w: %v", start, end, table, model.ErrStore, tx.Error)
		}
	}
	return nil
}

// ensureTable creates table if it does not already exist, with one
// column per key of sample, all opaque binary blobs (every EMM and
// encrypted-row column the builder writes is either a PRF label, an
// XORed value, or an AEAD ciphertext — never plaintext) — plus a
// unique constraint on conflictColumn, the target ON CONFLICT needs to
// give WriteRows its overwrite semantics.
func (s *Store) ensureTable(ctx context.Context, table string, sample map[string]any, conflictColumn string) error {
	colType := "BLOB"
	if s.kind == KindPostgres {
		colType = "BYTEA"
	}
	cols := make([]string, 0, len(sample))
	for c := range sample {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", c, colType)
		if c == conflictColumn {
			defs[i] += " UNIQUE"
		}
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if err := s.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("store: creating table %q: %w: %v", table, model.ErrStore, err)
	}
	return nil
}
