package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workspace-9/zsock"
)

// zsockVersion is set at build time with
// -ldflags "-X main.zsockVersion=x.y.z".
var zsockVersion = "0.1.0"

var capabilities = []string{"inproc", "ipc", "tcp", "udp", "pgm", "norm", "curve", "gssapi", "draft"}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the zsock version and the registered engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "zsock version %s\n", zsockVersion)

			for _, name := range zsock.Engines() {
				engine, _ := zsock.FindEngine(name)
				major, minor, patch := engine.Version()

				var has []string
				for _, capability := range capabilities {
					if engine.Has(capability) {
						has = append(has, capability)
					}
				}
				fmt.Fprintf(out, "engine %s %d.%d.%d [%s]\n", name, major, minor, patch, strings.Join(has, " "))
			}
			return nil
		},
	}
}
