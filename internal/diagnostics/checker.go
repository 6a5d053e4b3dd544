package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"whisper-offline/internal/domain"
)

// Checker validates external tools and required filesystem paths before a
// pipeline run has to discover them the hard way.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg", settings.FFmpegPath, "Install ffmpeg and ensure the binary is on PATH."),
		c.checkTool("yt-dlp", settings.YtDlpPath, "Install yt-dlp to enable the URL flow."),
		c.checkTool("whisper", settings.WhisperPath, "Install openai-whisper (pip install -U openai-whisper)."),
		c.checkWritableDir("model_cache_dir", "Model cache directory", settings.ModelCacheDir,
			"Choose a writable directory; weights are cached here on first use."),
		c.checkWritableDir("output_dir", "Output directory", settings.OutputDir,
			"Choose a writable directory for transcripts and downloaded media."),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is resolvable.
func (c *Checker) checkTool(id, command, hint string) domain.DiagnosticItem {
	name := strings.TrimSpace(command)
	if name == "" {
		name = id
	}

	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + id,
			Name:    id,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found: %s", name),
			Hint:    hint,
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + id,
		Name:    id,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkWritableDir validates directory existence and write access, creating
// it when missing. Both shared directories are append-only during runs, so
// writability is the only requirement.
func (c *Checker) checkWritableDir(id, label, dir, hint string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   id,
		Name: label,
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = label + " is empty."
		item.Hint = hint
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = hint
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = hint
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
