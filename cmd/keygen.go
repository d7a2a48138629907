// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/encsearch/encidx/internal/cryptoprim"
)

// keygenCmd prints a master key's fingerprint so operators can confirm
// two build runs share keys without ever displaying the key itself —
// grounded on cmd/print_owner_pubkey.go's "print the public half,
// never the private" pattern, generalized to a symmetric-key setting
// where there is no public half: the fingerprint is a one-way PRF
// output instead.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print the fingerprint of a master key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadBuilderConfig(cmd)
		if err != nil {
			return err
		}
		master, err := cfg.Keys.loadMaster()
		if err != nil {
			return err
		}
		fp, err := cryptoprim.PRF(master, []byte("fingerprint"))
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(fp[:8]))
		return nil
	},
}

func keygenCmdInit() {
	rootCmd.AddCommand(keygenCmd)
}

func init() {
	keygenCmdInit()
}
