// Package transcribe wraps the locally hosted Whisper model. The model is
// opaque to the pipeline: given audio, a language hint, and a task, it
// returns text. Weights live in a local cache directory that the model
// loader populates as a side effect of a cache miss.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"whisper-offline/internal/command"
	"whisper-offline/internal/domain"
	"whisper-offline/internal/media"
)

// MapTask maps the user-facing compound label to the model's primitive
// task. Exactly two cases: "transcribe & translate" becomes "translate",
// every other value passes through unchanged.
func MapTask(task domain.Task) domain.Task {
	if task == domain.TaskTranscribeTranslate {
		return domain.TaskTranslate
	}
	return task
}

// Engine invokes the whisper CLI against the local weight cache.
//
// Provenance is decided by a stat of the cache file immediately before the
// invocation: a cold cache always reports "downloaded", even though the
// download happens inside the model loader during this same call. The
// check is deliberately pre-call so the value describes what this run
// found, not what it left behind.
type Engine struct {
	whisperPath   string
	modelCacheDir string
	runner        command.Runner
	stat          func(string) (os.FileInfo, error)
	mkdirTemp     func(dir, pattern string) (string, error)
	removeAll     func(path string) error
	readFile      func(name string) ([]byte, error)
}

// New builds the production engine.
func New(whisperPath, modelCacheDir string, runner command.Runner) *Engine {
	return &Engine{
		whisperPath:   whisperPath,
		modelCacheDir: modelCacheDir,
		runner:        runner,
		stat:          os.Stat,
		mkdirTemp:     os.MkdirTemp,
		removeAll:     os.RemoveAll,
		readFile:      os.ReadFile,
	}
}

// Transcribe runs the model on one audio file and returns its text plus
// weight provenance. The caller supplies an already-mapped task and a
// non-empty language hint.
func (e *Engine) Transcribe(ctx context.Context, audioPath, model, language string, task domain.Task) (string, domain.Provenance, command.Log, error) {
	if strings.TrimSpace(model) == "" {
		return "", "", command.Log{}, fmt.Errorf("model name is required")
	}

	provenance := domain.ProvenanceDownloaded
	if _, err := e.stat(CacheFilePath(e.modelCacheDir, model)); err == nil {
		provenance = domain.ProvenanceCached
	}

	workDir, err := e.mkdirTemp("", "whisper-offline-*")
	if err != nil {
		return "", "", command.Log{}, fmt.Errorf("create inference workspace: %w", err)
	}
	defer func() { _ = e.removeAll(workDir) }()

	args := buildWhisperArgs(audioPath, model, e.modelCacheDir, language, task, workDir)
	res, runErr := e.runner.Run(ctx, e.whisperPath, args...)
	log := command.NewLog(e.whisperPath, args, res)
	if runErr != nil {
		return "", "", log, fmt.Errorf("whisper inference failed: %s: %w", firstLine(res.Stderr), runErr)
	}

	textPath := filepath.Join(workDir, media.BaseName(audioPath)+".txt")
	content, err := e.readFile(textPath)
	if err != nil {
		return "", "", log, fmt.Errorf("whisper completed but transcript file is missing: %w", err)
	}

	return strings.TrimSpace(string(content)), provenance, log, nil
}

// CacheFilePath returns the weight file location for one model name.
func CacheFilePath(cacheDir, model string) string {
	return filepath.Join(cacheDir, model+".pt")
}

// buildWhisperArgs builds the CLI invocation writing a txt transcript into
// workDir.
func buildWhisperArgs(audioPath, model, cacheDir, language string, task domain.Task, workDir string) []string {
	args := []string{
		audioPath,
		"--model", model,
		"--model_dir", cacheDir,
		"--task", string(task),
		"--output_format", "txt",
		"--output_dir", workDir,
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}

// firstLine trims subprocess stderr to its leading line for error messages.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		s = "no stderr output"
	}
	return s
}

// NewForTests constructs an engine with injectable dependencies.
func NewForTests(
	whisperPath string,
	modelCacheDir string,
	runner command.Runner,
	stat func(string) (os.FileInfo, error),
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	readFile func(name string) ([]byte, error),
) *Engine {
	return &Engine{
		whisperPath:   whisperPath,
		modelCacheDir: modelCacheDir,
		runner:        runner,
		stat:          stat,
		mkdirTemp:     mkdirTemp,
		removeAll:     removeAll,
		readFile:      readFile,
	}
}
