// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/reqdoc/reqdoc/cmd/reqdoc"

func main() {
	cmd.Execute()
}
