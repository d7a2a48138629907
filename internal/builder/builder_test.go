// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package builder

import (
	"context"
	"testing"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
	"github.com/encsearch/encidx/internal/predicate"
	"github.com/encsearch/encidx/internal/store"
)

func testMaster() []byte {
	key := make([]byte, cryptoprim.KeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

func openTestTarget(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.KindSQLite, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestBuilder(t *testing.T) (*Builder, []byte) {
	t.Helper()
	master := testMaster()
	keys, err := DeriveKeys(master, cryptoprim.CipherAESGCM, true)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	target := openTestTarget(t)
	return New(target, keys, nil), master
}

// row builds a model.Row with an explicit RID, mirroring the
// already-RID-attached input the builder expects.
func row(rid uint64, values map[string]model.Value) model.Row {
	return model.Row{RID: rid, Values: values}
}

// data2/data3 fixture shared by S1 and S2: data2(a,b) with FK b→c,
// data3(c,d), per spec.md's "Concrete scenarios" preamble. data2's
// primary key is b (unique), so a is a non-key column and gets the
// t_filter entries that S1 queries.
func fkBCFixture() (data2, data3 model.Table, data map[string][]model.Row) {
	data2 = model.Table{
		Name:       "data2",
		Columns:    []model.Column{{Name: "a"}, {Name: "b", Key: true}},
		PrimaryKey: []string{"b"},
		ForeignKeys: []model.ForeignKey{
			{Column: "b", References: model.TableRef{Table: "data3", Column: "c"}},
		},
	}
	data3 = model.Table{
		Name:       "data3",
		Columns:    []model.Column{{Name: "c", Key: true}, {Name: "d"}},
		PrimaryKey: []string{"c"},
	}
	data = map[string][]model.Row{
		"data2": {
			row(0, map[string]model.Value{"a": int64(1), "b": int64(1)}),
			row(1, map[string]model.Value{"a": int64(1), "b": int64(2)}),
			row(2, map[string]model.Value{"a": int64(2), "b": int64(3)}),
			row(3, map[string]model.Value{"a": int64(3), "b": int64(4)}),
		},
		"data3": {
			row(0, map[string]model.Value{"c": int64(1), "d": int64(1)}),
			row(1, map[string]model.Value{"c": int64(1), "d": int64(2)}),
			row(2, map[string]model.Value{"c": int64(2), "d": int64(3)}),
		},
	}
	return data2, data3, data
}

// TestSPXFilterScenarioS1 reproduces spec.md scenario S1: querying
// P=(data2,a,2) against an SPX build recovers exactly rid(2,3).
func TestSPXFilterScenarioS1(t *testing.T) {
	b, master := newTestBuilder(t)
	data2, data3, data := fkBCFixture()

	ctx := context.Background()
	if err := b.Build(ctx, VariantSPX, []model.Table{data2, data3}, data); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if b.State() != StateDone {
		t.Fatalf("state = %q, want %q", b.State(), StateDone)
	}

	pred := predicate.Filter("data2", "a", "2")
	t1, err := cryptoprim.Trapdoor1(master, pred)
	if err != nil {
		t.Fatalf("Trapdoor1: %v", err)
	}
	t2, err := cryptoprim.Trapdoor2(master, pred)
	if err != nil {
		t.Fatalf("Trapdoor2: %v", err)
	}
	wantLabel, err := cryptoprim.Label(t1, 0)
	if err != nil {
		t.Fatalf("Label: %v", err)
	}

	var got struct {
		Label []byte
		Value []byte
	}
	tx := b.Target.DB.Table("t_filter").Where("label = ?", wantLabel).Take(&got)
	if tx.Error != nil {
		t.Fatalf("looking up filter entry: %v", tx.Error)
	}

	rid, err := cryptoprim.OpenValue(t2, got.Value, "v")
	if err != nil {
		t.Fatalf("OpenValue: %v", err)
	}
	if rid != 2 {
		t.Fatalf("recovered rid = %d, want 2 (row (2,3))", rid)
	}

	var count int64
	if err := b.Target.DB.Table("t_filter").Where("label = ?", wantLabel).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d matching filter entries, want exactly 1", count)
	}
}

// TestCORRJoinScenarioS2 reproduces spec.md scenario S2: the FK b→c
// correlated join emits 3 forward-orientation entries plus 3
// reverse-orientation entries, 6 total.
func TestCORRJoinScenarioS2(t *testing.T) {
	b, _ := newTestBuilder(t)
	data2, data3, data := fkBCFixture()

	ctx := context.Background()
	if err := b.Build(ctx, VariantCORR, []model.Table{data2, data3}, data); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var count int64
	if err := b.Target.DB.Table("t_corr_join").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 6 {
		t.Fatalf("t_corr_join has %d entries, want 6", count)
	}
}

// caFixture builds the PK data2.a / FK data3.c→data2.a fixture used by
// scenario S3. data3's primary key is d (unique), since the PKFK
// scheme uses the primary key value itself as the row's rid.
func caFixture() (data2, data3 model.Table, data map[string][]model.Row) {
	data2 = model.Table{
		Name:       "data2",
		Columns:    []model.Column{{Name: "a", Key: true}, {Name: "b"}},
		PrimaryKey: []string{"a"},
	}
	data3 = model.Table{
		Name:       "data3",
		Columns:    []model.Column{{Name: "c"}, {Name: "d", Key: true}},
		PrimaryKey: []string{"d"},
		ForeignKeys: []model.ForeignKey{
			{Column: "c", References: model.TableRef{Table: "data2", Column: "a"}},
		},
	}
	data = map[string][]model.Row{
		"data2": {
			row(0, map[string]model.Value{"a": int64(1), "b": int64(1)}),
			row(1, map[string]model.Value{"a": int64(2), "b": int64(3)}),
		},
		"data3": {
			row(0, map[string]model.Value{"c": int64(1), "d": int64(1)}),
			row(1, map[string]model.Value{"c": int64(1), "d": int64(2)}),
			row(2, map[string]model.Value{"c": int64(2), "d": int64(3)}),
		},
	}
	return data2, data3, data
}

// TestPKFKScenarioS3 reproduces spec.md scenario S3: pfk_data2_data3
// and fpk_data3_data2 on data3's (c=1,d=1) row.
func TestPKFKScenarioS3(t *testing.T) {
	b, master := newTestBuilder(t)
	data2, data3, data := caFixture()

	ctx := context.Background()
	if err := b.Build(ctx, VariantPKFK, []model.Table{data2, data3}, data); err != nil {
		t.Fatalf("Build: %v", err)
	}

	fwdPred := predicate.PKFK("data2", "data3")
	tFwd, err := cryptoprim.Trapdoor(master, fwdPred)
	if err != nil {
		t.Fatalf("Trapdoor: %v", err)
	}
	s, err := cryptoprim.Secondary(tFwd, 1, nil) // a = c-value = 1
	if err != nil {
		t.Fatalf("Secondary: %v", err)
	}
	wantLabel, err := cryptoprim.Label(s, 0) // dense counter over the c=1 partition
	if err != nil {
		t.Fatalf("Label: %v", err)
	}

	revPred := predicate.PKFK("data3", "data2")
	tRev, err := cryptoprim.Trapdoor(master, revPred)
	if err != nil {
		t.Fatalf("Trapdoor: %v", err)
	}
	sRev, err := cryptoprim.Secondary(tRev, 1, nil) // rid_of_that_row = pkfk rid = d = 1
	if err != nil {
		t.Fatalf("Secondary: %v", err)
	}
	wantValue, err := cryptoprim.XORValue(sRev, 1, "v")
	if err != nil {
		t.Fatalf("XORValue: %v", err)
	}

	name, err := b.tableStoreName("data3")
	if err != nil {
		t.Fatalf("tableStoreName: %v", err)
	}
	var got struct {
		PfkData2Data3 []byte `gorm:"column:pfk_data2_data3"`
		FpkData3Data2 []byte `gorm:"column:fpk_data3_data2"`
	}
	tx := b.Target.DB.Table(name).Where("pfk_data2_data3 = ?", wantLabel).Take(&got)
	if tx.Error != nil {
		t.Fatalf("looking up pkfk row: %v", tx.Error)
	}
	if string(got.FpkData3Data2) != string(wantValue) {
		t.Fatalf("fpk_data3_data2 mismatch")
	}
}

// TestBuildIdempotentScenarioS5 reproduces spec.md scenario S5: with
// deterministic AEAD, re-running a build leaves row counts unchanged.
func TestBuildIdempotentScenarioS5(t *testing.T) {
	b, _ := newTestBuilder(t)
	data2, data3, data := fkBCFixture()
	tables := []model.Table{data2, data3}
	ctx := context.Background()

	if err := b.Build(ctx, VariantSPX, tables, data); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	var firstCount int64
	if err := b.Target.DB.Table("t_filter").Count(&firstCount).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if err := b.Build(ctx, VariantSPX, tables, data); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	var secondCount int64
	if err := b.Target.DB.Table("t_filter").Count(&secondCount).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if firstCount != secondCount {
		t.Fatalf("row count changed across rebuild: %d -> %d", firstCount, secondCount)
	}
}

// TestBuildRejectsUndeclaredFKTargetScenarioS6 reproduces spec.md
// scenario S6: an FK referencing a table whose PK was never declared
// fails fast with ConfigError before any store write.
func TestBuildRejectsUndeclaredFKTargetScenarioS6(t *testing.T) {
	b, _ := newTestBuilder(t)
	orphan := model.Table{
		Name:       "data2",
		Columns:    []model.Column{{Name: "a", Key: true}, {Name: "b"}},
		PrimaryKey: []string{"a"},
		ForeignKeys: []model.ForeignKey{
			{Column: "b", References: model.TableRef{Table: "ghost", Column: "x"}},
		},
	}
	data := map[string][]model.Row{
		"data2": {row(0, map[string]model.Value{"a": int64(1), "b": int64(1)})},
	}

	err := b.Build(context.Background(), VariantSPX, []model.Table{orphan}, data)
	if err == nil {
		t.Fatal("Build succeeded, want ConfigError for undeclared FK target")
	}
	if b.State() != StateInit {
		t.Fatalf("state = %q, want %q (failed before any transition past init)", b.State(), StateInit)
	}

	if b.Target.DB.Migrator().HasTable("t_filter") {
		t.Fatal("t_filter was created, want no store write before the ConfigError")
	}
}

// TestBuildStateMachineTransitions verifies every state callback fires
// in the order spec.md §4.7 defines.
func TestBuildStateMachineTransitions(t *testing.T) {
	var seen []State
	master := testMaster()
	keys, err := DeriveKeys(master, cryptoprim.CipherAESGCM, true)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	target := openTestTarget(t)
	b := New(target, keys, func(s State) { seen = append(seen, s) })

	data2, data3, data := fkBCFixture()
	if err := b.Build(context.Background(), VariantSPX, []model.Table{data2, data3}, data); err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []State{
		StateInit, StateDatagenScanned, StateRIDAttached, StateVariantBranch,
		StateIndicesRequested, StateAnalyzed, StateDone,
	}
	if len(seen) != len(want) {
		t.Fatalf("got %d state transitions %v, want %v", len(seen), seen, want)
	}
	for i, s := range want {
		if seen[i] != s {
			t.Fatalf("transition %d = %q, want %q", i, seen[i], s)
		}
	}
}

// TestRowCountConservation checks the row-count-conservation property
// from spec.md §8: every source row produces exactly one encrypted row
// in its table's ciphertext store, for every variant.
func TestRowCountConservation(t *testing.T) {
	for _, variant := range []Variant{VariantSPX, VariantCORR} {
		t.Run(string(variant), func(t *testing.T) {
			b, _ := newTestBuilder(t)
			data2, data3, data := fkBCFixture()
			if err := b.Build(context.Background(), variant, []model.Table{data2, data3}, data); err != nil {
				t.Fatalf("Build: %v", err)
			}
			for _, tbl := range []model.Table{data2, data3} {
				name, err := b.tableStoreName(tbl.Name)
				if err != nil {
					t.Fatalf("tableStoreName: %v", err)
				}
				var count int64
				if err := b.Target.DB.Table(name).Count(&count).Error; err != nil {
					t.Fatalf("count %s: %v", tbl.Name, err)
				}
				if int(count) != len(data[tbl.Name]) {
					t.Fatalf("table %s: got %d encrypted rows, want %d", tbl.Name, count, len(data[tbl.Name]))
				}
			}
		})
	}
}

// TestPKFKRowCountConservation checks the same row-count property for
// the PKFK variant, whose per-table rows embed their own tokens
// instead of using separate EMM tables.
func TestPKFKRowCountConservation(t *testing.T) {
	b, _ := newTestBuilder(t)
	data2, data3, data := caFixture()
	if err := b.Build(context.Background(), VariantPKFK, []model.Table{data2, data3}, data); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, tbl := range []model.Table{data2, data3} {
		name, err := b.tableStoreName(tbl.Name)
		if err != nil {
			t.Fatalf("tableStoreName: %v", err)
		}
		var count int64
		if err := b.Target.DB.Table(name).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", tbl.Name, err)
		}
		if int(count) != len(data[tbl.Name]) {
			t.Fatalf("table %s: got %d encrypted rows, want %d", tbl.Name, count, len(data[tbl.Name]))
		}
	}
}
