// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
	"github.com/encsearch/encidx/internal/predicate"
)

// buildCORR implements spec.md §4.6: the same enc-rid tables and
// t_filter as SPX, plus a dependent-filter EMM (t_dep_filter) and a
// correlated-join EMM (t_corr_join) emitted for both FK orientations.
func (b *Builder) buildCORR(ctx context.Context, tables []model.Table, data map[string][]model.Row) error {
	for _, t := range tables {
		if err := b.writeEncTable(ctx, t, data[t.Name]); err != nil {
			return err
		}
	}

	filterRows, err := b.spxFilterEMM(tables, data)
	if err != nil {
		return err
	}
	if err := b.Target.WriteRows(ctx, "t_filter", filterRows, "label"); err != nil {
		return err
	}

	depFilterRows, err := b.corrDepFilterEMM(tables, data)
	if err != nil {
		return err
	}
	if err := b.Target.WriteRows(ctx, "t_dep_filter", depFilterRows, "tok"); err != nil {
		return err
	}

	corrJoinRows, err := b.corrJoinEMM(tables, data)
	if err != nil {
		return err
	}
	if err := b.Target.WriteRows(ctx, "t_corr_join", corrJoinRows, "label"); err != nil {
		return err
	}

	return requestHashIndices(ctx, b.Target,
		[2]string{"t_filter", "label"},
		[2]string{"t_dep_filter", "tok"},
		[2]string{"t_corr_join", "label"},
	)
}

// corrDepFilterEMM builds t_dep_filter: one token PRF_{T_P}(ρ) per
// (table, column, row), single-key trapdoor (spec.md §4.6).
func (b *Builder) corrDepFilterEMM(tables []model.Table, data map[string][]model.Row) ([]map[string]any, error) {
	var out []map[string]any
	for _, t := range tables {
		for _, col := range t.NonKeyColumns() {
			for _, row := range data[t.Name] {
				v := valueLexeme(row.Values[col.Name])
				pred := predicate.Filter(t.Name, col.Name, v)
				tp, err := cryptoprim.Trapdoor(b.Keys.Master, pred)
				if err != nil {
					return nil, fmt.Errorf("builder: corr dep filter %s.%s: %w: %v", t.Name, col.Name, model.ErrCrypto, err)
				}
				tok, err := cryptoprim.Secondary(tp, row.RID, nil)
				if err != nil {
					return nil, fmt.Errorf("builder: corr dep filter token: %w: %v", model.ErrCrypto, err)
				}
				out = append(out, map[string]any{"tok": tok})
			}
		}
	}
	return out, nil
}

// corrJoinEMM builds t_corr_join: for every FK, entries for BOTH
// orientations (a, a_ref) and (a_ref, a). Within an orientation, for
// each left-side row ρ_L, matching right-side rows are assigned dense
// per-ρ_L counters 0..n-1 (spec.md §4.6).
func (b *Builder) corrJoinEMM(tables []model.Table, data map[string][]model.Row) ([]map[string]any, error) {
	var out []map[string]any
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			forward, err := b.corrJoinOrientation(t.Name, fk.Column, fk.References.Table, fk.References.Column, data)
			if err != nil {
				return nil, err
			}
			out = append(out, forward...)

			reverse, err := b.corrJoinOrientation(fk.References.Table, fk.References.Column, t.Name, fk.Column, data)
			if err != nil {
				return nil, err
			}
			out = append(out, reverse...)
		}
	}
	return out, nil
}

// corrJoinOrientation emits the t_corr_join entries for one explicit
// (L, R) direction of a correlated join.
func (b *Builder) corrJoinOrientation(leftTable, leftCol, rightTable, rightCol string, data map[string][]model.Row) ([]map[string]any, error) {
	pred := predicate.CorrJoin(leftTable, leftCol, rightTable, rightCol)
	tp, err := cryptoprim.Trapdoor(b.Keys.Master, pred)
	if err != nil {
		return nil, fmt.Errorf("builder: corr join %s.%s->%s.%s: %w: %v", leftTable, leftCol, rightTable, rightCol, model.ErrCrypto, err)
	}

	rightByValue := denseBuckets(data[rightTable], func(r model.Row) string { return valueLexeme(r.Values[rightCol]) })

	var out []map[string]any
	leftRows := append([]model.Row(nil), data[leftTable]...)
	sort.Slice(leftRows, func(i, j int) bool { return leftRows[i].RID < leftRows[j].RID })
	for _, left := range leftRows {
		one := byte(1)
		two := byte(2)
		s1, err := cryptoprim.Secondary(tp, left.RID, &one)
		if err != nil {
			return nil, fmt.Errorf("builder: corr join s1: %w: %v", model.ErrCrypto, err)
		}
		s2, err := cryptoprim.Secondary(tp, left.RID, &two)
		if err != nil {
			return nil, fmt.Errorf("builder: corr join s2: %w: %v", model.ErrCrypto, err)
		}
		matches := rightByValue[valueLexeme(left.Values[leftCol])]
		for k, right := range matches {
			label, err := cryptoprim.Label(s1, uint64(k))
			if err != nil {
				return nil, fmt.Errorf("builder: corr join label: %w: %v", model.ErrCrypto, err)
			}
			value, err := cryptoprim.XORValue(s2, right.RID, "v")
			if err != nil {
				return nil, fmt.Errorf("builder: corr join value: %w: %v", model.ErrCrypto, err)
			}
			out = append(out, map[string]any{"label": label, "value": value})
		}
	}
	return out, nil
}
