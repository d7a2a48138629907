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

// buildSPX implements spec.md §4.5: per-table encrypted tables, a
// flat filter EMM (t_filter), and a flat uncorrelated-join EMM
// (t_uncorr_join).
func (b *Builder) buildSPX(ctx context.Context, tables []model.Table, data map[string][]model.Row) error {
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

	joinRows, err := b.spxUncorrJoinEMM(tables, data)
	if err != nil {
		return err
	}
	if err := b.Target.WriteRows(ctx, "t_uncorr_join", joinRows, "label"); err != nil {
		return err
	}

	return requestHashIndices(ctx, b.Target, [2]string{"t_filter", "label"}, [2]string{"t_uncorr_join", "label"})
}

// spxFilterEMM builds t_filter for every (table, non-key column)
// pair: one entry per matching row, counters dense within each
// (table, column, value) bucket (spec.md §4.5 step 2).
func (b *Builder) spxFilterEMM(tables []model.Table, data map[string][]model.Row) ([]map[string]any, error) {
	var out []map[string]any
	for _, t := range tables {
		rows := data[t.Name]
		for _, col := range t.NonKeyColumns() {
			buckets := denseBuckets(rows, func(r model.Row) string { return valueLexeme(r.Values[col.Name]) })
			for _, v := range sortedBucketKeys(buckets) {
				bucket := buckets[v]
				pred := predicate.Filter(t.Name, col.Name, v)
				t1, err := cryptoprim.Trapdoor1(b.Keys.Master, pred)
				if err != nil {
					return nil, fmt.Errorf("builder: spx filter %s.%s: %w: %v", t.Name, col.Name, model.ErrCrypto, err)
				}
				t2, err := cryptoprim.Trapdoor2(b.Keys.Master, pred)
				if err != nil {
					return nil, fmt.Errorf("builder: spx filter %s.%s: %w: %v", t.Name, col.Name, model.ErrCrypto, err)
				}
				for k, row := range bucket {
					label, err := cryptoprim.Label(t1, uint64(k))
					if err != nil {
						return nil, fmt.Errorf("builder: spx filter label: %w: %v", model.ErrCrypto, err)
					}
					value, err := cryptoprim.XORValue(t2, row.RID, "v")
					if err != nil {
						return nil, fmt.Errorf("builder: spx filter value: %w: %v", model.ErrCrypto, err)
					}
					out = append(out, map[string]any{"label": label, "value": value})
				}
			}
		}
	}
	return out, nil
}

// spxUncorrJoinEMM builds t_uncorr_join for every declared FK: an
// equi-join of the two sides with a globally monotone counter over
// the join result (spec.md §4.5 step 3).
func (b *Builder) spxUncorrJoinEMM(tables []model.Table, data map[string][]model.Row) ([]map[string]any, error) {
	var out []map[string]any
	seenFK := make(map[string]bool)
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			pred, left, right := predicate.UncorrJoin(t.Name, fk.Column, fk.References.Table, fk.References.Column)
			fkKey := string(pred)
			if seenFK[fkKey] {
				continue
			}
			seenFK[fkKey] = true

			pairs := equiJoinPairs(left, right, data)

			t1, err := cryptoprim.Trapdoor1(b.Keys.Master, pred)
			if err != nil {
				return nil, fmt.Errorf("builder: spx uncorr join: %w: %v", model.ErrCrypto, err)
			}
			t2, err := cryptoprim.Trapdoor2(b.Keys.Master, pred)
			if err != nil {
				return nil, fmt.Errorf("builder: spx uncorr join: %w: %v", model.ErrCrypto, err)
			}
			for k, pr := range pairs {
				label, err := cryptoprim.Label(t1, uint64(k))
				if err != nil {
					return nil, fmt.Errorf("builder: spx uncorr join label: %w: %v", model.ErrCrypto, err)
				}
				vl, err := cryptoprim.XORValue(t2, pr.left.RID, "l")
				if err != nil {
					return nil, fmt.Errorf("builder: spx uncorr join value_left: %w: %v", model.ErrCrypto, err)
				}
				vr, err := cryptoprim.XORValue(t2, pr.right.RID, "r")
				if err != nil {
					return nil, fmt.Errorf("builder: spx uncorr join value_right: %w: %v", model.ErrCrypto, err)
				}
				out = append(out, map[string]any{"label": label, "value_left": vl, "value_right": vr})
			}
		}
	}
	return out, nil
}

type joinPair struct {
	left, right model.Row
}

// equiJoinPairs performs the equi-join of the FK's two sides in the
// canonical (left, right) orientation chosen by predicate.UncorrJoin,
// deterministically ordered by (left RID, right RID).
func equiJoinPairs(left, right string, data map[string][]model.Row) []joinPair {
	leftTable, leftCol := splitQualified(left)
	rightTable, rightCol := splitQualified(right)

	leftRows := append([]model.Row(nil), data[leftTable]...)
	rightRows := data[rightTable]

	rightByValue := denseBuckets(rightRows, func(r model.Row) string { return valueLexeme(r.Values[rightCol]) })
	sort.Slice(leftRows, func(i, j int) bool { return leftRows[i].RID < leftRows[j].RID })

	var pairs []joinPair
	for _, lr := range leftRows {
		key := valueLexeme(lr.Values[leftCol])
		for _, rr := range rightByValue[key] {
			pairs = append(pairs, joinPair{left: lr, right: rr})
		}
	}
	return pairs
}
