// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package gen implements the in-process reference data generator for
// the builder's "generate" data-mode: small synthetic tables useful
// for exercising a build standalone, without an external bulk
// data-generation harness (out of scope per spec.md §1).
package gen

import (
	"fmt"

	"github.com/encsearch/encidx/internal/ident"
	"github.com/encsearch/encidx/internal/model"
)

// Spec describes one synthetic table to generate: its schema plus a
// row count and, for FK columns, the cardinality of the referenced
// table's key space to draw from.
type Spec struct {
	Table    model.Table
	RowCount int
	// FKCardinality bounds the generated FK column's value range to
	// [0, FKCardinality) per declared foreign key, keyed by column
	// name. FK columns with no entry here are filled with their row
	// index; non-FK columns ignore this map.
	FKCardinality map[string]int
}

// Generate produces RowCount deterministic rows per Spec, with dense
// RIDs assigned via ident.Counter (spec.md §4.2's assign_rid), and
// every non-PK, non-FK column filled with a small repeating pattern so
// filter predicates have more than one matching row to exercise dense
// bucket counters.
func Generate(specs []Spec) (map[string][]model.Row, error) {
	out := make(map[string][]model.Row, len(specs))
	for _, sp := range specs {
		if sp.RowCount <= 0 {
			return nil, fmt.Errorf("gen: table %q requires a positive row count: %w", sp.Table.Name, model.ErrConfig)
		}
		fkCols := make(map[string]bool, len(sp.Table.ForeignKeys))
		for _, fk := range sp.Table.ForeignKeys {
			fkCols[fk.Column] = true
		}

		var counter ident.Counter
		rows := make([]model.Row, sp.RowCount)
		for i := range rows {
			rid := counter.Next()
			values := make(map[string]model.Value, len(sp.Table.Columns))
			for _, col := range sp.Table.Columns {
				switch {
				case isPrimaryKey(sp.Table.PrimaryKey, col.Name):
					values[col.Name] = int64(i)
				case fkCols[col.Name]:
					card := sp.FKCardinality[col.Name]
					if card <= 0 {
						card = sp.RowCount
					}
					values[col.Name] = int64(i % card)
				default:
					// Repeat every 3 rows so filter/join predicates on
					// non-key columns have multiple matches to bucket.
					values[col.Name] = int64(i % 3)
				}
			}
			rows[i] = model.Row{RID: rid, Values: values}
		}
		out[sp.Table.Name] = rows
	}
	return out, nil
}

func isPrimaryKey(pk []string, col string) bool {
	for _, k := range pk {
		if k == col {
			return true
		}
	}
	return false
}
