// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"hermannm.dev/devlog"
)

var logLevel slog.LevelVar

var rootCmd = &cobra.Command{
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Use:   "encidx",
	Short: "Encrypted index builder for searchable symmetric encryption over relational data",
	Long: `encidx builds encrypted tables and encrypted multi-maps (EMMs) from
plaintext relational tables, so that an external query processor can
evaluate selection, equi-join, and semi/anti/outer-join queries against
an untrusted store without it ever seeing row contents, attribute
values, predicates, or row identifiers.
`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmdInit() {
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{
		Level: &logLevel,
	})))

	rootCmd.PersistentFlags().String("config", "", "Pathname of the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Set the log level to debug")
	rootCmd.PersistentFlags().String("scratch-dir", "", "Base directory for scratch/intermediate build state")
}

func init() {
	rootCmdInit()
}
