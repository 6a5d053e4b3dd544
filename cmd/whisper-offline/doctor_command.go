package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"whisper-offline/internal/domain"
)

func newDoctorCommand(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directories the pipeline depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			report, err := app.RefreshDiagnostics()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, item := range report.Items {
				marker := "ok"
				if item.Status == domain.DiagnosticStatusFail {
					marker = "FAIL"
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", marker, item.Name, item.Message)
				if item.Status == domain.DiagnosticStatusFail && strings.TrimSpace(item.Hint) != "" {
					fmt.Fprintf(out, "       %s\n", item.Hint)
				}
			}

			if report.HasFailures {
				return fmt.Errorf("diagnostics reported failures")
			}
			fmt.Fprintln(out, "All checks passed.")
			return nil
		},
	}
}
