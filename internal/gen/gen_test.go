// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package gen

import (
	"testing"

	"github.com/encsearch/encidx/internal/model"
)

func TestGenerateAssignsDenseRIDs(t *testing.T) {
	data2 := model.Table{
		Name:       "data2",
		Columns:    []model.Column{{Name: "a", Key: true}, {Name: "b"}},
		PrimaryKey: []string{"a"},
	}
	rows, err := Generate([]Spec{{Table: data2, RowCount: 5}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := rows["data2"]
	if len(got) != 5 {
		t.Fatalf("got %d rows, want 5", len(got))
	}
	for i, r := range got {
		if r.RID != uint64(i) {
			t.Fatalf("row %d has RID %d, want %d (dense from zero)", i, r.RID, i)
		}
		if r.Values["a"] != int64(i) {
			t.Fatalf("row %d primary key = %v, want %d", i, r.Values["a"], i)
		}
	}
}

func TestGenerateFillsFKWithinCardinality(t *testing.T) {
	data3 := model.Table{
		Name:       "data3",
		Columns:    []model.Column{{Name: "c", Key: true}, {Name: "d"}},
		PrimaryKey: []string{"c"},
		ForeignKeys: []model.ForeignKey{
			{Column: "d", References: model.TableRef{Table: "data2", Column: "a"}},
		},
	}
	rows, err := Generate([]Spec{{
		Table:         data3,
		RowCount:      10,
		FKCardinality: map[string]int{"d": 2},
	}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, r := range rows["data3"] {
		d := r.Values["d"].(int64)
		if d < 0 || d >= 2 {
			t.Fatalf("fk column d = %d, want within [0,2)", d)
		}
	}
}

func TestGenerateRejectsNonPositiveRowCount(t *testing.T) {
	data2 := model.Table{Name: "data2", Columns: []model.Column{{Name: "a", Key: true}}, PrimaryKey: []string{"a"}}
	if _, err := Generate([]Spec{{Table: data2, RowCount: 0}}); err == nil {
		t.Fatal("Generate succeeded with a zero row count, want ConfigError")
	}
}
