// SPDX-FileCopyrightText: (C) 2026 encidx Authors
// SPDX-License-Identifier: Apache 2.0

package main

import "github.com/encsearch/encidx/cmd"

func main() {
	cmd.Execute()
}
