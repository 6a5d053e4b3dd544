package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *appContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings after file and environment overlays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			encoded, err := toml.Marshal(app.Settings)
			if err != nil {
				return fmt.Errorf("encode settings: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}
}
