// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package model

import (
	"errors"
	"testing"
)

func TestValidateRequiresExactlyOnePK(t *testing.T) {
	tbl := Table{
		Name:    "data2",
		Columns: []Column{{Name: "a"}, {Name: "b"}},
	}
	err := tbl.Validate()
	if err == nil || !errors.Is(err, ErrConfig) {
		t.Fatalf("got %v, want ErrConfig", err)
	}
}

func TestValidateAcceptsAtomicAndCompound(t *testing.T) {
	atomic := Table{Name: "data2", Columns: []Column{{Name: "a", Key: true}, {Name: "b"}}, PrimaryKey: []string{"a"}}
	if err := atomic.Validate(); err != nil {
		t.Fatalf("atomic PK: %v", err)
	}
	compound := Table{
		Name:       "xy",
		Columns:    []Column{{Name: "x", Key: true}, {Name: "y", Key: true}},
		PrimaryKey: []string{"x", "y"},
	}
	if err := compound.Validate(); err != nil {
		t.Fatalf("compound PK: %v", err)
	}
}

func TestValidateRejectsUnknownFKColumn(t *testing.T) {
	tbl := Table{
		Name:        "data3",
		Columns:     []Column{{Name: "c", Key: true}, {Name: "d"}},
		PrimaryKey:  []string{"c"},
		ForeignKeys: []ForeignKey{{Column: "missing", References: TableRef{Table: "data2", Column: "a"}}},
	}
	if err := tbl.Validate(); err == nil || !errors.Is(err, ErrConfig) {
		t.Fatalf("got %v, want ErrConfig", err)
	}
}

func TestNonKeyColumns(t *testing.T) {
	tbl := Table{
		Name:       "data2",
		Columns:    []Column{{Name: "a", Key: true}, {Name: "b"}},
		PrimaryKey: []string{"a"},
	}
	got := tbl.NonKeyColumns()
	if len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("got %+v, want [b]", got)
	}
}
