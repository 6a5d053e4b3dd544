package main

import (
	"github.com/spf13/cobra"

	"whisper-offline/internal/bootstrap"
)

// appContext defers application wiring until a command actually needs it,
// so help and version output work without a settings file.
type appContext struct {
	newApp func() (*bootstrap.App, error)
	app    *bootstrap.App
}

func newAppContext() *appContext {
	return &appContext{newApp: bootstrap.New}
}

// ensureApp builds the application once and reuses it across subcommands.
func (c *appContext) ensureApp() (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := c.newApp()
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func newRootCommand() *cobra.Command {
	ctx := newAppContext()

	rootCmd := &cobra.Command{
		Use:           "whisper-offline",
		Short:         "Offline media transcription with local whisper models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
