// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/uyuni-project/masked-dump/cmd"

func main() {
	cmd.Execute()
}
