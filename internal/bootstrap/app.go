// Package bootstrap wires configuration, logging, diagnostics, and the
// transcription pipeline into the application object the CLI drives.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"whisper-offline/internal/command"
	"whisper-offline/internal/config"
	"whisper-offline/internal/diagnostics"
	"whisper-offline/internal/domain"
	"whisper-offline/internal/extract"
	"whisper-offline/internal/fetch"
	"whisper-offline/internal/jobs"
	"whisper-offline/internal/logging"
	"whisper-offline/internal/models"
	"whisper-offline/internal/pipeline"
	"whisper-offline/internal/transcribe"
)

// App wires configuration, jobs, and the pipeline behind a small surface
// that commands call into.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport
	Log         *logrus.Entry

	pipeline   pipelineRunner
	checker    *diagnostics.Checker
	downloader *models.Downloader
	events     *jobs.EventBus

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
}

// pipelineRunner isolates the transcription pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req domain.MediaRequest, hooks pipeline.Hooks) (domain.TranscriptionResult, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	if err := config.LoadDotenv(".env"); err != nil {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewTOMLStore(filepath.Join(homeDir, ".whisper-offline", "settings.toml"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = config.ApplyEnvOverrides(settings)

	log := logging.New().WithComponent("app")

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	runner := command.NewExecRunner()
	return newApp(settings, store, buildPipeline(settings, runner, log), checker, report, log), nil
}

// buildPipeline assembles the production pipeline from settings.
func buildPipeline(settings domain.Settings, runner command.Runner, log *logrus.Entry) *pipeline.Orchestrator {
	fetcher := fetch.New(settings.YtDlpPath, settings.OutputDir, runner)
	extractor := extract.New(settings.FFmpegPath, settings.OutputDir, runner)
	engine := transcribe.New(settings.WhisperPath, settings.ModelCacheDir, runner)
	return pipeline.New(settings, fetcher, extractor, engine, log)
}

func newApp(settings domain.Settings, store config.Store, runner pipelineRunner, checker *diagnostics.Checker, report domain.DiagnosticReport, log *logrus.Entry) *App {
	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Diagnostics: report,
		Log:         log,
		pipeline:    runner,
		checker:     checker,
		downloader:  models.NewDownloader(),
		events:      jobs.NewEventBus(1000),
	}
}

// BuildRequest normalizes a raw source plus optional overrides into a
// pipeline request, filling defaults from settings. An empty language
// falls back to the configured default rather than autodetection.
func (a *App) BuildRequest(source, model, language string, task domain.Task) domain.MediaRequest {
	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()

	if strings.TrimSpace(model) == "" {
		model = settings.Model
	}
	if strings.TrimSpace(language) == "" {
		language = settings.Language
	}
	if task == "" {
		task = domain.TaskTranscribe
	}

	return domain.MediaRequest{
		Source:   strings.TrimSpace(source),
		Kind:     ClassifySource(source),
		Model:    model,
		Language: language,
		Task:     task,
	}
}

// ClassifySource distinguishes remote URLs from local paths by scheme.
func ClassifySource(source string) domain.SourceKind {
	trimmed := strings.TrimSpace(source)
	parsed, err := url.Parse(trimmed)
	if err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		return domain.SourceRemoteURL
	}
	return domain.SourceLocalFile
}

// Run executes one request synchronously, tracking it as the active job
// and publishing progress events along the way.
func (a *App) Run(ctx context.Context, req domain.MediaRequest) (domain.TranscriptionResult, error) {
	jobID := fmt.Sprintf("job-%d", time.Now().UnixNano())
	if err := a.Jobs.Start(jobID); err != nil {
		return domain.TranscriptionResult{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.mu.Lock()
	a.activeJobID = jobID
	a.cancel = cancel
	a.mu.Unlock()
	defer a.clearActiveJob(jobID)

	a.publishStatus(jobID, domain.JobStatusResolving, "Job started")

	hooks := pipeline.Hooks{
		OnStage: func(status domain.JobStatus) {
			if err := a.Jobs.Transition(status); err == nil {
				a.publishStatus(jobID, status, "Entered "+string(status)+" stage")
			}
		},
		OnLog: func(log command.Log) {
			a.publishEvent(jobs.Event{
				JobID:    jobID,
				Type:     jobs.EventTypeLog,
				Message:  "Command completed",
				Command:  log.Command,
				Args:     log.Args,
				ExitCode: log.ExitCode,
				Stdout:   log.Stdout,
				Stderr:   log.Stderr,
			})
		},
	}

	result, err := a.pipeline.Run(runCtx, req, hooks)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = a.Jobs.Transition(domain.JobStatusCancelled)
			a.publishStatus(jobID, domain.JobStatusCancelled, "Job cancelled")
			return domain.TranscriptionResult{}, err
		}

		_ = a.Jobs.Transition(domain.JobStatusFailed)
		a.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: err.Error(),
		})

		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) && stageErr.CommandLog.Command != "" {
			a.publishEvent(jobs.Event{
				JobID:    jobID,
				Type:     jobs.EventTypeLog,
				Message:  "Failed command",
				Command:  stageErr.CommandLog.Command,
				Args:     stageErr.CommandLog.Args,
				ExitCode: stageErr.CommandLog.ExitCode,
				Stdout:   stageErr.CommandLog.Stdout,
				Stderr:   stageErr.CommandLog.Stderr,
			})
		}
		return domain.TranscriptionResult{}, err
	}

	if err := a.Jobs.Transition(domain.JobStatusDone); err == nil {
		a.publishStatus(jobID, domain.JobStatusDone, "Job completed")
	}
	a.publishEvent(jobs.Event{
		JobID:      jobID,
		Type:       jobs.EventTypeResult,
		Status:     domain.JobStatusDone,
		Message:    "Transcript exported",
		OutputPath: result.OutputPath,
		Provenance: result.Provenance,
	})

	return result, nil
}

// CancelRun cancels the currently running job, if any.
func (a *App) CancelRun() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	cancel()
	if err := a.Jobs.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		return err
	}

	if activeJobID != "" {
		a.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancellation requested")
	}
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.ApplyEnvOverrides(settings)

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = a.checker.Run(settings)
	report := a.Diagnostics
	a.mu.Unlock()
	return report, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// ModelCatalog lists known whisper weights with cache state for the
// configured cache directory.
func (a *App) ModelCatalog() []domain.WhisperModelOption {
	a.mu.Lock()
	cacheDir := a.Settings.ModelCacheDir
	a.mu.Unlock()
	return models.Catalog(cacheDir)
}

// PullModel downloads a catalog model into the cache directory ahead of
// any pipeline runs that need it.
func (a *App) PullModel(ctx context.Context, name string) (string, error) {
	option, ok := models.ByName(name)
	if !ok {
		return "", fmt.Errorf("unknown model: %s", name)
	}

	a.mu.Lock()
	cacheDir := a.Settings.ModelCacheDir
	a.mu.Unlock()

	return a.downloader.Download(ctx, option, cacheDir)
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and mirrors it to the structured log.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)
	a.Log.WithFields(logrus.Fields{
		"job_id": published.JobID,
		"type":   published.Type,
		"status": published.Status,
	}).Debug(published.Message)
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		a.activeJobID = ""
		a.cancel = nil
	}
}

// normalizeSettings trims whitespace and backfills empty fields from the
// defaults so a partially filled settings file stays usable.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.ModelCacheDir = strings.TrimSpace(settings.ModelCacheDir)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.Model = strings.TrimSpace(settings.Model)
	settings.Language = strings.TrimSpace(settings.Language)
	settings.FFmpegPath = strings.TrimSpace(settings.FFmpegPath)
	settings.YtDlpPath = strings.TrimSpace(settings.YtDlpPath)
	settings.WhisperPath = strings.TrimSpace(settings.WhisperPath)

	if settings.ModelCacheDir == "" {
		settings.ModelCacheDir = defaults.ModelCacheDir
	}
	if settings.OutputDir == "" {
		settings.OutputDir = defaults.OutputDir
	}
	if settings.Model == "" {
		settings.Model = defaults.Model
	}
	if settings.Language == "" {
		settings.Language = defaults.Language
	}
	if len(settings.AudioExtensions) == 0 {
		settings.AudioExtensions = append([]string(nil), defaults.AudioExtensions...)
	}
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = defaults.FFmpegPath
	}
	if settings.YtDlpPath == "" {
		settings.YtDlpPath = defaults.YtDlpPath
	}
	if settings.WhisperPath == "" {
		settings.WhisperPath = defaults.WhisperPath
	}

	return settings
}

// NewForTests wires an app around an injected pipeline and checker.
func NewForTests(settings domain.Settings, store config.Store, runner pipelineRunner, checker *diagnostics.Checker, log *logrus.Entry) *App {
	return newApp(settings, store, runner, checker, domain.DiagnosticReport{}, log)
}
