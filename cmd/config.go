// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/encsearch/encidx/internal/cryptoprim"
	"github.com/encsearch/encidx/internal/model"
	"github.com/encsearch/encidx/internal/store"
)

// LogConfig holds the builder's logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig names one backing relational store connection: the
// plaintext source (read-only) or the encrypted target (read-write),
// per spec.md §5.
type DatabaseConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

func (dc *DatabaseConfig) validate() error {
	if dc.DSN == "" {
		return fmt.Errorf("database configuration error: dsn is required: %w", model.ErrConfig)
	}
	dc.Type = strings.ToLower(dc.Type)
	if dc.Type != "sqlite" && dc.Type != "postgres" {
		return fmt.Errorf("unsupported database type %q (must be 'sqlite' or 'postgres'): %w", dc.Type, model.ErrConfig)
	}
	return nil
}

func (dc *DatabaseConfig) open() (*store.Store, error) {
	if err := dc.validate(); err != nil {
		return nil, err
	}
	return store.Open(store.Kind(dc.Type), dc.DSN)
}

// KeysConfig names the master secret and the cell AEAD's construction.
type KeysConfig struct {
	MasterKeyPath      string `mapstructure:"master_key_path"`
	CellCipher         string `mapstructure:"cell_cipher"`
	DeterministicCells bool   `mapstructure:"cell_cipher_deterministic"`
}

func (kc *KeysConfig) validate() error {
	if kc.MasterKeyPath == "" {
		return fmt.Errorf("keys configuration error: master_key_path is required: %w", model.ErrConfig)
	}
	switch cryptoprim.CellCipher(kc.CellCipher) {
	case cryptoprim.CipherAESGCM, cryptoprim.CipherChaCha20Poly1305, "":
	default:
		return fmt.Errorf("unsupported cell cipher %q: %w", kc.CellCipher, model.ErrConfig)
	}
	return nil
}

func (kc *KeysConfig) loadMaster() ([]byte, error) {
	key, err := os.ReadFile(kc.MasterKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading master key file %q: %w: %v", kc.MasterKeyPath, model.ErrConfig, err)
	}
	if len(key) != cryptoprim.KeySize {
		return nil, fmt.Errorf("master key file %q must contain exactly %d bytes, got %d: %w", kc.MasterKeyPath, cryptoprim.KeySize, len(key), model.ErrConfig)
	}
	return key, nil
}

// ScratchConfig names the base directory for intermediate build state.
type ScratchConfig struct {
	Dir string `mapstructure:"dir"`
}

// ForeignKeyConfig declares one FK entry of a TableConfig.
type ForeignKeyConfig struct {
	Column    string `mapstructure:"column"`
	RefTable  string `mapstructure:"ref_table"`
	RefColumn string `mapstructure:"ref_column"`
}

// TableConfig declares one plaintext table's schema.
type TableConfig struct {
	Name        string             `mapstructure:"name"`
	Columns     []string           `mapstructure:"columns"`
	PrimaryKey  []string           `mapstructure:"primary_key"`
	ForeignKeys []ForeignKeyConfig `mapstructure:"foreign_keys"`
}

// ToModel converts a declared TableConfig into the model.Table the
// builder operates on.
func (tc TableConfig) ToModel() model.Table {
	pk := make(map[string]bool, len(tc.PrimaryKey))
	for _, k := range tc.PrimaryKey {
		pk[k] = true
	}
	cols := make([]model.Column, len(tc.Columns))
	for i, name := range tc.Columns {
		cols[i] = model.Column{Name: name, Key: pk[name]}
	}
	fks := make([]model.ForeignKey, len(tc.ForeignKeys))
	for i, fk := range tc.ForeignKeys {
		fks[i] = model.ForeignKey{
			Column:     fk.Column,
			References: model.TableRef{Table: fk.RefTable, Column: fk.RefColumn},
		}
	}
	return model.Table{
		Name:        tc.Name,
		Columns:     cols,
		PrimaryKey:  tc.PrimaryKey,
		ForeignKeys: fks,
	}
}

// BuilderConfig is the top-level decoded configuration.
type BuilderConfig struct {
	Log      LogConfig       `mapstructure:"log"`
	SourceDB DatabaseConfig  `mapstructure:"source_db"`
	TargetDB DatabaseConfig  `mapstructure:"target_db"`
	Keys     KeysConfig      `mapstructure:"keys"`
	Scratch  ScratchConfig   `mapstructure:"scratch"`
	Tables   []TableConfig   `mapstructure:"tables"`
	DataMode string          `mapstructure:"data_mode"`
}

func (bc *BuilderConfig) tableModels() ([]model.Table, error) {
	tables := make([]model.Table, len(bc.Tables))
	for i, tc := range bc.Tables {
		tables[i] = tc.ToModel()
	}
	return tables, nil
}

func (bc *BuilderConfig) validate() error {
	if err := bc.Keys.validate(); err != nil {
		return err
	}
	if err := bc.SourceDB.validate(); err != nil {
		return err
	}
	if err := bc.TargetDB.validate(); err != nil {
		return err
	}
	switch bc.DataMode {
	case "generate", "load-plain", "build-enc", "":
	default:
		return fmt.Errorf("unsupported data mode %q: %w", bc.DataMode, model.ErrConfig)
	}
	if len(bc.Tables) == 0 && bc.DataMode != "generate" {
		return fmt.Errorf("at least one table must be declared: %w", model.ErrConfig)
	}
	return nil
}

// loadBuilderConfig binds cmd's flags into viper, loads the config
// file named by --config (if any), and decodes the result into a
// BuilderConfig: bind flags, then read the file, then unmarshal.
func loadBuilderConfig(cmd *cobra.Command) (*BuilderConfig, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w: %v", model.ErrConfig, err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return nil, fmt.Errorf("binding persistent flags: %w: %v", model.ErrConfig, err)
	}
	// The --data-mode flag is spelled with a dash; bind it to the
	// data_mode key BuilderConfig.DataMode decodes from.
	if f := cmd.Flags().Lookup("data-mode"); f != nil {
		if err := viper.BindPFlag("data_mode", f); err != nil {
			return nil, fmt.Errorf("binding data-mode flag: %w: %v", model.ErrConfig, err)
		}
	}

	configFilePath := viper.GetString("config")
	if configFilePath != "" {
		viper.SetConfigFile(configFilePath)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("configuration file read failed: %w: %v", model.ErrConfig, err)
		}
	}

	var cfg BuilderConfig
	decodeHook := mapstructure.ComposeDecodeHookFunc(mapstructure.StringToSliceHookFunc(","))
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w: %v", model.ErrConfig, err)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Level == "debug" {
		logLevel.Set(slog.LevelDebug)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
