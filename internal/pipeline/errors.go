package pipeline

import (
	"fmt"

	"whisper-offline/internal/command"
)

// Stage identifies which pipeline step failed. Errors from any stage are
// terminal for the request; nothing is retried and no partial artifacts
// are removed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageExtract Stage = "extract"
	StageInfer   Stage = "infer"
	StagePersist Stage = "persist"
)

// StageError is a stage-aware error with optional command context. Callers
// must not inspect partial pipeline state when they receive one.
type StageError struct {
	Stage      Stage       `json:"stage"`
	Message    string      `json:"message"`
	CommandLog command.Log `json:"commandLog"`
	Err        error       `json:"-"`
}

// Error formats pipeline failures for logs and CLI output.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
