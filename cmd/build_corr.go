// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/encsearch/encidx/internal/builder"
)

var buildCORRCmd = &cobra.Command{
	Use:   "corr",
	Short: "Build the CORR variant: adds a dependent-filter EMM and a correlated-join EMM over both FK orientations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, builder.VariantCORR)
	},
}

func buildCORRCmdInit() {
	buildCmd.AddCommand(buildCORRCmd)
}

func init() {
	buildCORRCmdInit()
}
