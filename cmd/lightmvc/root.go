package main

import (
	"github.com/spf13/cobra"

	"github.com/lightmvc/lightmvc"
)

type rootOptions struct {
	dir string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lightmvc",
		Short:         "Run and inspect a lightmvc application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "Application base directory (holds config/)")

	cmd.AddCommand(
		newServeCmd(opts),
		newRoutesCmd(opts),
		newMigrateCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) boot() (*lightmvc.Config, error) {
	return lightmvc.Boot(o.dir)
}
