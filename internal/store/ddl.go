// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package store

import (
	"context"
	"fmt"

	"github.com/encsearch/encidx/internal/model"
)

// IndexKind selects the secondary index type requested for a column,
// per spec.md §6: hash indices for EMM label columns, tree indices
// for PKFK's range-free equality columns.
type IndexKind string

const (
	IndexHash IndexKind = "hash"
	IndexTree IndexKind = "tree" // btree; gorm/postgres default
)

// RequestIndex asks the store to build a secondary index on
// table.column. The builder only requests indices — it never manages
// connection pools, VACUUM, or other store administration (spec.md
// §1, "Out of scope").
func (s *Store) RequestIndex(ctx context.Context, table, column string, kind IndexKind) error {
	indexName := fmt.Sprintf("idx_%s_%s", table, column)
	// SQLite has no hash-index access method; USING is a postgres-only
	// clause, so fall back to its single (b-tree) index kind there.
	var using string
	if kind == IndexHash && s.kind == KindPostgres {
		using = " USING hash"
	}
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s%s (%s)", indexName, table, using, column)
	if err := s.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("store: requesting %s index on %s.%s: %w: %v", kind, table, column, model.ErrStore, err)
	}
	return nil
}

// Analyze requests the store refresh its planner statistics for
// table, after all of that table's rows/EMM entries have been
// written (spec.md §4.5: "Request hash indices on EMM label columns;
// request ANALYZE on the store.").
func (s *Store) Analyze(ctx context.Context, table string) error {
	if err := s.DB.WithContext(ctx).Exec(fmt.Sprintf("ANALYZE %s", table)).Error; err != nil {
		return fmt.Errorf("store: requesting ANALYZE on %s: %w: %v", table, model.ErrStore, err)
	}
	return nil
}
