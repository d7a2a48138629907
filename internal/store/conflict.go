// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package store

import "gorm.io/gorm/clause"

// onConflictDoUpdate builds the clause set that gives WriteRows its
// overwrite-on-conflict semantics (spec.md §4.7/§7: "All store writes
// use overwrite-on-conflict semantics; retries are not performed by
// the builder"). conflictColumn must name a column carrying a unique
// constraint (see ensureTable) — both postgres and sqlite require an
// explicit conflict target for DO UPDATE.
func onConflictDoUpdate(conflictColumn string) []clause.Expression {
	return []clause.Expression{clause.OnConflict{
		Columns:   []clause.Column{{Name: conflictColumn}},
		UpdateAll: true,
	}}
}
