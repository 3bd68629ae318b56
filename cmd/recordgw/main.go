package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recordgw",
		Short:         "HTTP record store behind admission, timeout and graceful drain",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	serve := newServeCmd()
	root.AddCommand(serve, newDumpCmd())
	// sem subcomando: serve
	root.RunE = serve.RunE
	return root
}
