// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package predicate builds the canonical predicate strings the
// builder hashes into trapdoors. These strings are pure client-side
// material: they are never sent to, or stored in, the backing store.
package predicate

import "strings"

// Separator is the reserved field separator for canonical predicate
// strings. Table, attribute, and value lexemes must not contain it;
// callers are responsible for that invariant (spec.md §4.3).
const Separator = "~"

// Filter returns the canonical string for a selection predicate
// "filter~<table>~<attr>~<value-lexeme>".
func Filter(table, attr, valueLexeme string) []byte {
	return []byte(join("filter", table, attr, valueLexeme))
}

// CorrJoin returns the canonical string for a correlated-join
// predicate over a specific (left, right) orientation:
// "corrjoin~<left_table>.<left_attr>~<right_table>.<right_attr>".
func CorrJoin(leftTable, leftAttr, rightTable, rightAttr string) []byte {
	return []byte(join("corrjoin", qualify(leftTable, leftAttr), qualify(rightTable, rightAttr)))
}

// UncorrJoin returns the canonical string for an uncorrelated-join
// predicate. Per spec.md §3 the pair is lexicographically ordered
// before encoding, so the same FK declaration always yields the same
// predicate string regardless of declaration direction. It returns
// the chosen (left, right) qualified names alongside the encoded
// predicate so callers know which side is "L" and which is "R".
func UncorrJoin(tableA, attrA, tableB, attrB string) (enc []byte, left, right string) {
	qa, qb := qualify(tableA, attrA), qualify(tableB, attrB)
	left, right = qa, qb
	if qb < qa {
		left, right = qb, qa
	}
	return []byte(join("uncorrjoin", left, right)), left, right
}

// PKFK returns the canonical string for a PK/FK join predicate:
// "pkfk~<primary_table>~<foreign_table>".
func PKFK(primaryTable, foreignTable string) []byte {
	return []byte(join("pkfk", primaryTable, foreignTable))
}

func qualify(table, attr string) string {
	return table + "." + attr
}

func join(parts ...string) string {
	return strings.Join(parts, Separator)
}
