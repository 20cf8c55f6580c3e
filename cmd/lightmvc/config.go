package main

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after merging config.local, config.<env> and environment overrides over the base file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.boot()
			if err != nil {
				return err
			}

			var out []byte
			settings := cfg.Settings()
			switch format {
			case "yaml", "yml":
				out, err = yaml.Marshal(settings)
			case "toml":
				out, err = toml.Marshal(settings)
			case "json":
				out, err = json.MarshalIndent(settings, "", "  ")
				out = append(out, '\n')
			default:
				return fmt.Errorf("unsupported format %q (want yaml, toml or json)", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, toml or json")
	return cmd
}
