// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package ident

import "testing"

func TestCounterDenseFromZero(t *testing.T) {
	var c Counter
	for i := uint64(0); i < 5; i++ {
		if got := c.Next(); got != i {
			t.Fatalf("got %d, want %d", got, i)
		}
	}
}

func TestCantorScenarioS4(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{3, 5, 41},
		{5, 3, 39},
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 2},
	}
	seen := map[int64]bool{}
	for _, c := range cases {
		got, err := Cantor(c.a, c.b)
		if err != nil {
			t.Fatalf("Cantor(%d,%d): %v", c.a, c.b, err)
		}
		if got != c.want {
			t.Fatalf("Cantor(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
		if seen[got] {
			t.Fatalf("Cantor(%d,%d) = %d collided with an earlier pair", c.a, c.b, got)
		}
		seen[got] = true
	}
}

func TestCantorRejectsNegative(t *testing.T) {
	if _, err := Cantor(-1, 0); err == nil {
		t.Fatalf("expected error for negative component")
	}
}

func TestPKLongArity(t *testing.T) {
	got, err := PKLong([]int64{7})
	if err != nil || got != 7 {
		t.Fatalf("atomic PKLong got (%d, %v), want (7, nil)", got, err)
	}
	got, err = PKLong([]int64{3, 5})
	if err != nil || got != 41 {
		t.Fatalf("compound PKLong got (%d, %v), want (41, nil)", got, err)
	}
	if _, err := PKLong([]int64{1, 2, 3}); err == nil {
		t.Fatalf("expected error for arity 3")
	}
}
