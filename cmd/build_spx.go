// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/encsearch/encidx/internal/builder"
)

var buildSPXCmd = &cobra.Command{
	Use:   "spx",
	Short: "Build the SPX variant: per-table encrypted tables plus a flat filter and uncorrelated-join EMM",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, builder.VariantSPX)
	},
}

func buildSPXCmdInit() {
	buildCmd.AddCommand(buildSPXCmd)
}

func init() {
	buildSPXCmdInit()
}
