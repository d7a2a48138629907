// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package store wraps the backing relational store(s) the builder
// reads plaintext from and writes encrypted tables/EMMs to: either of
// two gorm-backed relational stores, postgres or sqlite.
package store

import (
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/encsearch/encidx/internal/model"
)

// Kind names a supported database driver.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Store is a single backing relational store connection, read-only or
// read-write depending on role (spec.md §5: "Two database
// connections — plaintext source (read-only) and encrypted target
// (read-write)").
type Store struct {
	DB   *gorm.DB
	kind Kind
	// limiter throttles batched writes against the target store so a
	// build does not saturate its connection pool, per SPEC_FULL.md §7.
	limiter *rate.Limiter
}

// Open connects to a relational store of the given kind and DSN,
// hiding sqlite-vs-postgres behind one call.
func Open(kind Kind, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(string(kind)) {
	case string(KindPostgres):
		dialector = postgres.Open(dsn)
	case string(KindSQLite):
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported database kind %q: %w", kind, model.ErrConfig)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("store: connecting to %s store: %w: %v", kind, model.ErrStore, err)
	}
	return &Store{DB: db, kind: Kind(strings.ToLower(string(kind))), limiter: rate.NewLimiter(rate.Limit(writeRateLimit), writeBurst)}, nil
}

// writeRateLimit and writeBurst bound batched-insert throughput
// against the encrypted target store; chosen conservatively since the
// builder is a one-shot offline job, not a latency-sensitive service.
const (
	writeRateLimit = 50 // batches/sec
	writeBurst     = 10
)

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("store: %w: %v", model.ErrStore, err)
	}
	return sqlDB.Close()
}
