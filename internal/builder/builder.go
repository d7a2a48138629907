// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

// Package builder implements the build-time state machine and the
// three EMM construction variants (SPX, CORR, PKFK) described in
// spec.md §4.5–§4.7. It is the top-level component tying together
// the identifier model, predicate encoding, row encryptor, and crypto
// primitives into the persisted encrypted-store layout.
package builder

import (
	"context"
	"fmt"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
	"github.com/encsearch/encidx/internal/rowenc"
	"github.com/encsearch/encidx/internal/store"
)

// Variant selects which EMM construction to run (spec.md §6).
type Variant string

const (
	VariantSPX  Variant = "spx"
	VariantCORR Variant = "corr"
	VariantPKFK Variant = "pkfk"
)

// State names one node of the build state machine from spec.md §4.7:
// init → datagen_scanned → rid_attached → (variant-branch) →
// indices_requested → analyzed → done.
type State string

const (
	StateInit             State = "init"
	StateDatagenScanned   State = "datagen_scanned"
	StateRIDAttached      State = "rid_attached"
	StateVariantBranch    State = "variant_branch"
	StateIndicesRequested State = "indices_requested"
	StateAnalyzed         State = "analyzed"
	StateDone             State = "done"
)

// Keys bundles the derived cryptographic material a build needs: the
// master secret (kept only to derive further trapdoors, never
// persisted) and the two sub-keys derived from it via HKDF.
type Keys struct {
	Master    []byte
	RIDCipher *cryptoprim.RIDCipher
	Cell      *cryptoprim.CellEncryptor
}

// DeriveKeys expands a 32-byte master secret into the RID cipher key
// and cell AEAD key the row encryptor needs, per SPEC_FULL.md §7.
func DeriveKeys(master []byte, cellCipher cryptoprim.CellCipher, deterministicCells bool) (*Keys, error) {
	if len(master) != cryptoprim.KeySize {
		return nil, fmt.Errorf("builder: master key must be %d bytes: %w", cryptoprim.KeySize, model.ErrCrypto)
	}
	ridKey, err := cryptoprim.DeriveKey(master, "rid")
	if err != nil {
		return nil, fmt.Errorf("builder: %w: %v", model.ErrCrypto, err)
	}
	cellKeyHalf, err := cryptoprim.DeriveKey(master, "cell")
	if err != nil {
		return nil, fmt.Errorf("builder: %w: %v", model.ErrCrypto, err)
	}
	// AES-GCM uses the 16-byte HKDF output as an AES-128 key.
	// chacha20poly1305 needs a 32-byte key: expand the 16-byte HKDF
	// output by deriving a second half under a distinct info string,
	// keeping both halves trapdoor-independent.
	cellKey := cellKeyHalf
	if cellCipher == cryptoprim.CipherChaCha20Poly1305 {
		cellKeyHalf2, err := cryptoprim.DeriveKey(master, "cell-2")
		if err != nil {
			return nil, fmt.Errorf("builder: %w: %v", model.ErrCrypto, err)
		}
		cellKey = append(append([]byte{}, cellKeyHalf...), cellKeyHalf2...)
	}

	ridCipher, err := cryptoprim.NewRIDCipher(ridKey)
	if err != nil {
		return nil, fmt.Errorf("builder: %w: %v", model.ErrCrypto, err)
	}
	cell, err := cryptoprim.NewCellEncryptor(cellCipher, cellKey)
	if err != nil {
		return nil, fmt.Errorf("builder: %w: %v", model.ErrCrypto, err)
	}
	cell.Deterministic = deterministicCells

	return &Keys{Master: master, RIDCipher: ridCipher, Cell: cell}, nil
}

// Builder runs one build pass against a single encrypted target
// store. Source rows are supplied already RID-attached (spec.md §4.2
// assign_rid), since RID assignment is a data-parallel, order-free
// operation the caller's row-stream layer performs once per table.
type Builder struct {
	Target *store.Store
	Keys   *Keys
	Enc    *rowenc.Encryptor

	state         State
	onStateChange func(State)
}

// New constructs a Builder. onStateChange, if non-nil, is invoked on
// every state transition — build.go's runBuild uses this to log
// progress per run.
func New(target *store.Store, keys *Keys, onStateChange func(State)) *Builder {
	return &Builder{
		Target:        target,
		Keys:          keys,
		Enc:           rowenc.New(keys.Master, keys.RIDCipher, keys.Cell),
		state:         StateInit,
		onStateChange: onStateChange,
	}
}

// State returns the build's current state-machine node.
func (b *Builder) State() State {
	return b.state
}

func (b *Builder) setState(s State) {
	b.state = s
	if b.onStateChange != nil {
		b.onStateChange(s)
	}
}

// Build validates the declared schema, then dispatches to the
// variant-specific EMM construction. Any failure after init is
// surfaced without cleanup — partial state is left for the caller to
// overwrite on a re-run (spec.md §4.7's "Failure semantics").
func (b *Builder) Build(ctx context.Context, variant Variant, tables []model.Table, data map[string][]model.Row) error {
	b.setState(StateInit)
	if err := validateSchema(tables); err != nil {
		return err
	}

	b.setState(StateDatagenScanned)
	b.setState(StateRIDAttached)
	b.setState(StateVariantBranch)

	var err error
	switch variant {
	case VariantSPX:
		err = b.buildSPX(ctx, tables, data)
	case VariantCORR:
		err = b.buildCORR(ctx, tables, data)
	case VariantPKFK:
		err = b.buildPKFK(ctx, tables, data)
	default:
		return fmt.Errorf("builder: unknown variant %q: %w", variant, model.ErrConfig)
	}
	if err != nil {
		return err
	}

	b.setState(StateIndicesRequested)
	b.setState(StateAnalyzed)
	b.setState(StateDone)
	return nil
}

// validateSchema enforces the two ConfigError checks spec.md requires
// before any side effect: each table has exactly one PK (model.Table.
// Validate), and every FK references a table that was itself declared
// with a PK (scenario S6: "Building with an FK referring to a table
// whose PK was not declared fails fast with ConfigError before any
// store write").
func validateSchema(tables []model.Table) error {
	declared := make(map[string]bool, len(tables))
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
		declared[t.Name] = true
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if !declared[fk.References.Table] {
				return fmt.Errorf("builder: table %q declares a foreign key to undeclared table %q: %w", t.Name, fk.References.Table, model.ErrConfig)
			}
		}
	}
	return nil
}
