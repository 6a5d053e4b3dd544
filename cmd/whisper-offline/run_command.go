package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"whisper-offline/internal/bootstrap"
	"whisper-offline/internal/domain"
)

func newRunCommand(ctx *appContext) *cobra.Command {
	var modelFlag string
	var languageFlag string
	var taskFlag string

	cmd := &cobra.Command{
		Use:   "run <path-or-url>",
		Short: "Transcribe a local media file or a remote video URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := parseTask(taskFlag)
			if err != nil {
				return err
			}

			source := strings.TrimSpace(args[0])
			if bootstrap.ClassifySource(source) == domain.SourceLocalFile {
				absPath, err := filepath.Abs(source)
				if err != nil {
					return fmt.Errorf("resolve path: %w", err)
				}
				info, err := os.Stat(absPath)
				if err != nil {
					if os.IsNotExist(err) {
						return fmt.Errorf("file does not exist: %s", absPath)
					}
					return fmt.Errorf("inspect file: %w", err)
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory", absPath)
				}
				source = absPath
			}

			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			if app.Diagnostics.HasFailures {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: startup diagnostics reported failures, run `whisper-offline doctor` for details")
			}

			result, err := app.Run(cmd.Context(), app.BuildRequest(source, modelFlag, languageFlag, task))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s (model weights: %s)\n", result.OutputPath, result.Provenance)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Whisper model name (defaults to configured model)")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Spoken language (defaults to configured language)")
	cmd.Flags().StringVarP(&taskFlag, "task", "t", "", "Task: transcribe, translate, or \"transcribe & translate\"")

	return cmd
}

// parseTask validates a raw task flag against the supported tasks.
func parseTask(raw string) (domain.Task, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return domain.TaskTranscribe, nil
	case string(domain.TaskTranscribe):
		return domain.TaskTranscribe, nil
	case string(domain.TaskTranslate):
		return domain.TaskTranslate, nil
	case string(domain.TaskTranscribeTranslate):
		return domain.TaskTranscribeTranslate, nil
	default:
		return "", fmt.Errorf("unsupported task %q (expected transcribe, translate, or \"transcribe & translate\")", raw)
	}
}
