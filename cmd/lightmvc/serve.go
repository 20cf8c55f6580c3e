package main

import (
	"github.com/spf13/cobra"

	"github.com/lightmvc/lightmvc"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP server",
		Example: "  lightmvc serve --dir ./site --addr :3000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.boot()
			if err != nil {
				return err
			}

			app := newDemoApp(cfg)
			if err := app.Initialize(cmd.Context(), cfg); err != nil {
				return err
			}

			var opts []lightmvc.RunOption
			if addr != "" {
				opts = append(opts, lightmvc.Address(addr))
			}
			if ctx := cmd.Context(); ctx != nil {
				opts = append(opts, lightmvc.WithContext(ctx))
			}
			return app.Serve(opts...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides the address setting)")
	return cmd
}
