// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package model

import "errors"

// The four error kinds a build can fail with. Build code wraps these
// with fmt.Errorf("...: %w", ErrX) and callers branch with
// errors.Is/As.
var (
	// ErrConfig marks a ConfigError: missing/ambiguous PK, unsupported
	// compound-key arity, or any other declaration problem caught at
	// validation time, before any store write.
	ErrConfig = errors.New("config error")
	// ErrCrypto marks a CryptoError: a primitive failure or invalid key.
	ErrCrypto = errors.New("crypto error")
	// ErrStore marks a StoreError: connect/write/index-creation failure
	// against either backing store.
	ErrStore = errors.New("store error")
	// ErrData marks a DataError: a source column missing or a type
	// cast failure while reading plaintext rows.
	ErrData = errors.New("data error")
)
