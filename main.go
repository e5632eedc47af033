// SPDX-License-Identifier: MPL-2.0

package main

import cmd "dashstrap/cmd/dashstrap"

func main() {
	cmd.Execute()
}
