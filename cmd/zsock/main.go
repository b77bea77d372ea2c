// Command zsock builds sockets from a config file and drives them from the
// terminal.
package main

import (
	"fmt"
	"os"

	_ "github.com/workspace-9/zsock/engine/inproc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
