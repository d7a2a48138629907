// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package predicate

import "testing"

func TestFilterScenarioS1(t *testing.T) {
	got := string(Filter("data2", "a", "2"))
	want := "filter~data2~a~2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUncorrJoinOrdersLexicographically(t *testing.T) {
	encAB, leftAB, rightAB := UncorrJoin("data2", "b", "data3", "c")
	encBA, leftBA, rightBA := UncorrJoin("data3", "c", "data2", "b")
	if string(encAB) != string(encBA) {
		t.Fatalf("predicate depends on declaration order: %q != %q", encAB, encBA)
	}
	if leftAB != leftBA || rightAB != rightBA {
		t.Fatalf("orientation depends on declaration order")
	}
	if leftAB != "data2.b" || rightAB != "data3.c" {
		t.Fatalf("got left=%q right=%q, want data2.b/data3.c", leftAB, rightAB)
	}
}

func TestPKFKPredicate(t *testing.T) {
	got := string(PKFK("data2", "data3"))
	want := "pkfk~data2~data3"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCorrJoinOrientationMatters(t *testing.T) {
	fwd := string(CorrJoin("data2", "b", "data3", "c"))
	rev := string(CorrJoin("data3", "c", "data2", "b"))
	if fwd == rev {
		t.Fatalf("CorrJoin must be orientation-sensitive for the CORR scheme's both-directions requirement")
	}
}
