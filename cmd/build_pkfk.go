// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/encsearch/encidx/internal/builder"
)

var buildPKFKCmd = &cobra.Command{
	Use:   "pkfk",
	Short: "Build the PKFK variant: per-table encrypted rows with embedded join and filter tokens, no separate EMM tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, builder.VariantPKFK)
	},
}

func buildPKFKCmdInit() {
	buildCmd.AddCommand(buildPKFKCmd)
}

func init() {
	buildPKFKCmdInit()
}
