// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(KindSQLite, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWriteRowsAndIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []map[string]any{
		{"label": "l0", "value": []byte{1, 2, 3}},
		{"label": "l1", "value": []byte{4, 5, 6}},
	}
	if err := s.WriteRows(ctx, "t_filter", rows, "label"); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}

	var count int64
	if err := s.DB.Table("t_filter").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("got %d rows, want 2", count)
	}

	if err := s.RequestIndex(ctx, "t_filter", "label", IndexTree); err != nil {
		t.Fatalf("RequestIndex: %v", err)
	}
	if err := s.Analyze(ctx, "t_filter"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
}

func TestWriteRowsEmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	if err := s.WriteRows(context.Background(), "t_filter", nil, "label"); err != nil {
		t.Fatalf("WriteRows(nil): %v", err)
	}
}
