// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/encsearch/encidx/internal/builder"
	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/gen"
	"github.com/encsearch/encidx/internal/ident"
	"github.com/encsearch/encidx/internal/model"
)

// defaultGenRowCount is the "generate" data-mode's synthetic row count
// for every declared table.
const defaultGenRowCount = 100

// buildCmd is the parent of the per-variant build subcommands
// (build_spx.go/build_corr.go/build_pkfk.go), one cobra.Command per
// EMM variant.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an encrypted index from plaintext relational tables",
}

func buildCmdInit() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.PersistentFlags().String("data-mode", "generate", "Row source: generate|load-plain|build-enc")
}

func init() {
	buildCmdInit()
}

// runBuild is the shared RunE body for every variant subcommand
// (build_spx.go, build_corr.go, build_pkfk.go): load configuration,
// derive keys, assemble the row stream, and dispatch to the builder.
func runBuild(cmd *cobra.Command, variant builder.Variant) error {
	cfg, err := loadBuilderConfig(cmd)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	slog.Info("build starting", "run_id", runID, "variant", variant, "data_mode", cfg.DataMode)

	master, err := cfg.Keys.loadMaster()
	if err != nil {
		return err
	}
	keys, err := builder.DeriveKeys(master, cryptoprim.CellCipher(cfg.Keys.CellCipher), cfg.Keys.DeterministicCells)
	if err != nil {
		return err
	}

	target, err := cfg.TargetDB.open()
	if err != nil {
		return err
	}
	defer func() { _ = target.Close() }()

	tables, err := cfg.tableModels()
	if err != nil {
		return err
	}

	data, err := loadData(cfg, tables)
	if err != nil {
		return err
	}

	b := builder.New(target, keys, func(s builder.State) {
		slog.Info("build state transition", "run_id", runID, "state", s)
	})

	if err := b.Build(cmd.Context(), variant, tables, data); err != nil {
		return err
	}
	slog.Info("build complete", "run_id", runID, "variant", variant)
	return nil
}

// loadData assembles the per-table row stream per cfg.DataMode.
// "generate" runs the in-process reference generator (supplementing
// spec.md §6's generate mode, whose bulk harness is out of scope per
// spec.md §1); "load-plain" scans the configured plaintext source
// store; "build-enc" (re-deriving EMMs from an already-encrypted
// store) is not wired — no component of this builder reads back its
// own ciphertext, so there is nothing to scan it into a row stream.
func loadData(cfg *BuilderConfig, tables []model.Table) (map[string][]model.Row, error) {
	switch cfg.DataMode {
	case "generate", "":
		specs := make([]gen.Spec, len(tables))
		for i, t := range tables {
			specs[i] = gen.Spec{Table: t, RowCount: defaultGenRowCount}
		}
		return gen.Generate(specs)
	case "load-plain":
		return loadPlainFromSource(cfg, tables)
	default:
		return nil, fmt.Errorf("data mode %q is not wired to a row source: %w", cfg.DataMode, model.ErrConfig)
	}
}

// loadPlainFromSource scans every declared table out of the
// configured plaintext source store and assigns RIDs densely in scan
// order (spec.md §4.2's assign_rid).
func loadPlainFromSource(cfg *BuilderConfig, tables []model.Table) (map[string][]model.Row, error) {
	source, err := cfg.SourceDB.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = source.Close() }()

	out := make(map[string][]model.Row, len(tables))
	for _, t := range tables {
		colNames := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			colNames[i] = c.Name
		}

		rs, err := source.DB.Table(t.Name).Order(strings.Join(t.PrimaryKey, ",")).Rows()
		if err != nil {
			return nil, fmt.Errorf("scanning table %q: %w: %v", t.Name, model.ErrStore, err)
		}

		var counter ident.Counter
		var rows []model.Row
		for rs.Next() {
			values := make([]any, len(colNames))
			ptrs := make([]any, len(colNames))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rs.Scan(ptrs...); err != nil {
				_ = rs.Close()
				return nil, fmt.Errorf("scanning table %q row: %w: %v", t.Name, model.ErrStore, err)
			}
			rowValues := make(map[string]model.Value, len(colNames))
			for i, name := range colNames {
				rowValues[name] = values[i]
			}
			rows = append(rows, model.Row{RID: counter.Next(), Values: rowValues})
		}
		_ = rs.Close()
		out[t.Name] = rows
	}
	return out, nil
}
