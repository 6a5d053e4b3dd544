package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *appContext) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage cached whisper model weights",
	}

	modelsCmd.AddCommand(newModelsListCommand(ctx))
	modelsCmd.AddCommand(newModelsPullCommand(ctx))

	return modelsCmd
}

func newModelsListCommand(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known models and their cache state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tCACHED\tDESCRIPTION")
			for _, model := range app.ModelCatalog() {
				cached := "-"
				if model.Cached {
					cached = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", model.Name, model.SizeLabel, cached, model.Description)
			}
			return w.Flush()
		},
	}
}

func newModelsPullCommand(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <name>",
		Short: "Download model weights into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			path, err := app.PullModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s cached at %s\n", args[0], path)
			return nil
		},
	}
}
