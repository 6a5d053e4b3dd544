// Package pipeline composes fetching, extraction, inference, and artifact
// naming into the two entry flows: local file and remote URL.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"whisper-offline/internal/command"
	"whisper-offline/internal/domain"
	"whisper-offline/internal/media"
	"whisper-offline/internal/transcribe"
)

// Fetcher resolves a remote URL to a local media file.
type Fetcher interface {
	Fetch(ctx context.Context, url, runID string) (domain.ResolvedMedia, command.Log, error)
}

// Extractor converts containers to directly consumable audio.
type Extractor interface {
	ExtractWAV(ctx context.Context, videoPath, runID string) (string, command.Log, error)
	RemuxMP3(ctx context.Context, mediaPath string) (string, command.Log, error)
}

// Engine produces text from audio using the local speech model.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, model, language string, task domain.Task) (string, domain.Provenance, command.Log, error)
}

// Hooks carry optional per-run observers for stage transitions and
// completed external commands.
type Hooks struct {
	OnStage func(status domain.JobStatus)
	OnLog   func(log command.Log)
}

func (h Hooks) stage(status domain.JobStatus) {
	if h.OnStage != nil {
		h.OnStage(status)
	}
}

func (h Hooks) log(log command.Log) {
	if h.OnLog != nil {
		h.OnLog(log)
	}
}

// Orchestrator drives one request through resolve, optional extraction,
// inference, and persist. Each request gets a fresh run id that prefixes
// every artifact it produces, so concurrent runs sharing the output
// directory cannot interfere. Artifacts from completed stages are kept on
// disk even when a later stage fails.
type Orchestrator struct {
	settings   domain.Settings
	classifier *media.Classifier
	fetcher    Fetcher
	extractor  Extractor
	engine     Engine
	log        *logrus.Entry

	now       func() time.Time
	writeFile func(name string, data []byte, perm os.FileMode) error
	newRunID  func() string
}

// New wires the orchestrator from explicit settings and collaborators.
func New(settings domain.Settings, fetcher Fetcher, extractor Extractor, engine Engine, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		settings:   settings,
		classifier: media.NewClassifier(settings.AudioExtensions),
		fetcher:    fetcher,
		extractor:  extractor,
		engine:     engine,
		log:        log,
		now:        time.Now,
		writeFile:  os.WriteFile,
		newRunID:   ShortRunID,
	}
}

// ShortRunID returns the leading segment of a fresh UUID, enough to keep
// concurrent artifact names apart without dominating them.
func ShortRunID() string {
	id := uuid.New().String()
	return id[:8]
}

// Run processes one request end to end and returns the single successful
// result or a stage-tagged error. Processing is strictly sequential; each
// stage depends on the previous stage's output file.
func (o *Orchestrator) Run(ctx context.Context, req domain.MediaRequest, hooks Hooks) (domain.TranscriptionResult, error) {
	if strings.TrimSpace(req.Source) == "" {
		return domain.TranscriptionResult{}, &StageError{
			Stage:   StageResolve,
			Message: "input source is required",
		}
	}

	runID := o.newRunID()
	log := o.log.WithFields(logrus.Fields{
		"run_id": runID,
		"kind":   req.Kind,
		"task":   req.Task,
		"model":  req.Model,
	})
	log.Info("pipeline run started")

	resolved, err := o.resolve(ctx, req, runID, hooks, log)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	audioPath, err := o.extract(ctx, req, resolved, runID, hooks, log)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	hooks.stage(domain.JobStatusInferring)
	task := transcribe.MapTask(req.Task)
	text, provenance, inferLog, err := o.engine.Transcribe(ctx, audioPath, req.Model, req.Language, task)
	hooks.log(inferLog)
	if err != nil {
		log.WithField("stage", StageInfer).WithError(err).Error("inference failed")
		return domain.TranscriptionResult{}, &StageError{
			Stage:      StageInfer,
			Message:    err.Error(),
			CommandLog: inferLog,
			Err:        err,
		}
	}

	hooks.stage(domain.JobStatusExporting)
	outputPath, err := o.persist(text, audioPath, task, resolved.OriginID)
	if err != nil {
		log.WithField("stage", StagePersist).WithError(err).Error("persist failed")
		return domain.TranscriptionResult{}, &StageError{
			Stage:   StagePersist,
			Message: "write transcript: " + err.Error(),
			Err:     err,
		}
	}

	log.WithFields(logrus.Fields{
		"output":     outputPath,
		"provenance": provenance,
	}).Info("pipeline run completed")

	return domain.TranscriptionResult{
		Text:       text,
		Provenance: provenance,
		OutputPath: outputPath,
	}, nil
}

// resolve turns the request source into a local media path: identity for
// local files, a downloader invocation for URLs.
func (o *Orchestrator) resolve(ctx context.Context, req domain.MediaRequest, runID string, hooks Hooks, log *logrus.Entry) (domain.ResolvedMedia, error) {
	hooks.stage(domain.JobStatusResolving)

	if req.Kind != domain.SourceRemoteURL {
		return domain.ResolvedMedia{
			Path:       req.Source,
			AcquiredAt: o.now(),
		}, nil
	}

	resolved, fetchLog, err := o.fetcher.Fetch(ctx, req.Source, runID)
	hooks.log(fetchLog)
	if err != nil {
		log.WithField("stage", StageResolve).WithError(err).Error("resolve failed")
		return domain.ResolvedMedia{}, &StageError{
			Stage:      StageResolve,
			Message:    err.Error(),
			CommandLog: fetchLog,
			Err:        err,
		}
	}
	return resolved, nil
}

// extract routes video containers through the transcoder and passes audio
// inputs straight through. The URL flow remuxes to MP3, the local flow
// demuxes to PCM WAV.
func (o *Orchestrator) extract(ctx context.Context, req domain.MediaRequest, resolved domain.ResolvedMedia, runID string, hooks Hooks, log *logrus.Entry) (string, error) {
	if o.classifier.Classify(resolved.Path) == media.KindAudio {
		return resolved.Path, nil
	}

	hooks.stage(domain.JobStatusExtracting)

	var (
		audioPath  string
		extractLog command.Log
		err        error
	)
	if req.Kind == domain.SourceRemoteURL {
		audioPath, extractLog, err = o.extractor.RemuxMP3(ctx, resolved.Path)
	} else {
		audioPath, extractLog, err = o.extractor.ExtractWAV(ctx, resolved.Path, runID)
	}
	hooks.log(extractLog)
	if err != nil {
		log.WithField("stage", StageExtract).WithError(err).Error("extraction failed")
		return "", &StageError{
			Stage:      StageExtract,
			Message:    err.Error(),
			CommandLog: extractLog,
			Err:        err,
		}
	}
	return audioPath, nil
}

// persist writes the text verbatim to a freshly named artifact. The name
// derives from the inferred audio's base name, so the video flow names its
// transcript after the extracted audio, not the original container.
func (o *Orchestrator) persist(text, audioPath string, task domain.Task, originID string) (string, error) {
	name := media.OutputName(media.BaseName(audioPath), media.KindForTask(task), o.now(), originID)
	outputPath := filepath.Join(o.settings.OutputDir, name+".txt")

	if err := o.writeFile(outputPath, []byte(text), 0o644); err != nil {
		return "", err
	}
	return outputPath, nil
}

// NewForTests wires an orchestrator with injectable clock, writer, and
// run-id source.
func NewForTests(
	settings domain.Settings,
	fetcher Fetcher,
	extractor Extractor,
	engine Engine,
	log *logrus.Entry,
	now func() time.Time,
	writeFile func(name string, data []byte, perm os.FileMode) error,
	newRunID func() string,
) *Orchestrator {
	return &Orchestrator{
		settings:   settings,
		classifier: media.NewClassifier(settings.AudioExtensions),
		fetcher:    fetcher,
		extractor:  extractor,
		engine:     engine,
		log:        log,
		now:        now,
		writeFile:  writeFile,
		newRunID:   newRunID,
	}
}
