package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "zsock",
		Short: "Build and drive CLIENT, SERVER, RADIO and DISH sockets",
		Long: `zsock builds the sockets described in a config file and wires them to the
terminal: servers echo, dishes print what they receive, clients and radios
send the lines read from stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log socket events at debug level")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeygenCmd())
	root.AddCommand(newRunCmd(opts))
	return root
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	conf := zap.NewProductionConfig()
	if o.verbose {
		conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	conf.OutputPaths = []string{"stderr"}
	return conf.Build()
}
