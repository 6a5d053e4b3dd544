package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whisper-offline/internal/command"
	"whisper-offline/internal/config"
	"whisper-offline/internal/domain"
	"whisper-offline/internal/logging"
)

// fakeFetcher records fetch calls and returns a scripted result.
type fakeFetcher struct {
	calls    int
	resolved domain.ResolvedMedia
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, runID string) (domain.ResolvedMedia, command.Log, error) {
	f.calls++
	return f.resolved, command.Log{Command: "yt-dlp"}, f.err
}

// fakeExtractor records extraction calls and returns scripted paths.
type fakeExtractor struct {
	wavCalls  int
	mp3Calls  int
	wavPath   string
	mp3Path   string
	err       error
	lastsrc   string
	lastRunID string
	lastRemux string
}

func (f *fakeExtractor) ExtractWAV(ctx context.Context, videoPath, runID string) (string, command.Log, error) {
	f.wavCalls++
	f.lastsrc = videoPath
	f.lastRunID = runID
	return f.wavPath, command.Log{Command: "ffmpeg"}, f.err
}

func (f *fakeExtractor) RemuxMP3(ctx context.Context, mediaPath string) (string, command.Log, error) {
	f.mp3Calls++
	f.lastRemux = mediaPath
	return f.mp3Path, command.Log{Command: "ffmpeg"}, f.err
}

// fakeEngine records inference calls and returns scripted text.
type fakeEngine struct {
	calls      int
	text       string
	provenance domain.Provenance
	err        error
	lastAudio  string
	lastLang   string
	lastTask   domain.Task
}

func (f *fakeEngine) Transcribe(ctx context.Context, audioPath, model, language string, task domain.Task) (string, domain.Provenance, command.Log, error) {
	f.calls++
	f.lastAudio = audioPath
	f.lastLang = language
	f.lastTask = task
	return f.text, f.provenance, command.Log{Command: "whisper"}, f.err
}

// fixedClock returns a deterministic timestamp for name assertions.
func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
}

// testSettings returns defaults rooted in a temp output dir.
func testSettings(t *testing.T) domain.Settings {
	t.Helper()
	cfg := config.DefaultSettings()
	cfg.OutputDir = t.TempDir()
	return cfg
}

// newTestOrchestrator wires fakes with a fixed clock and run id.
func newTestOrchestrator(cfg domain.Settings, f *fakeFetcher, e *fakeExtractor, g *fakeEngine) *Orchestrator {
	return NewForTests(
		cfg,
		f,
		e,
		g,
		logging.Discard().Entry,
		fixedClock,
		os.WriteFile,
		func() string { return "ab12cd34" },
	)
}

// TestRunLocalAudioSkipsExtraction checks the local audio happy path:
// classifier routes sample.mp3 straight to inference and the persisted
// bytes equal the returned text.
func TestRunLocalAudioSkipsExtraction(t *testing.T) {
	cfg := testSettings(t)
	fetcher := &fakeFetcher{}
	extractor := &fakeExtractor{}
	engine := &fakeEngine{text: "hello wörld", provenance: domain.ProvenanceCached}

	o := newTestOrchestrator(cfg, fetcher, extractor, engine)
	result, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "/in/sample.mp3",
		Kind:     domain.SourceLocalFile,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if fetcher.calls != 0 {
		t.Fatal("local file must not invoke the fetcher")
	}
	if extractor.wavCalls != 0 || extractor.mp3Calls != 0 {
		t.Fatal("audio input must skip extraction")
	}
	if engine.lastAudio != "/in/sample.mp3" {
		t.Fatalf("engine audio = %q", engine.lastAudio)
	}
	if engine.lastTask != domain.TaskTranscribe {
		t.Fatalf("engine task = %s, want transcribe", engine.lastTask)
	}

	wantName := "sample_transcribed_20250601_123045.txt"
	if filepath.Base(result.OutputPath) != wantName {
		t.Fatalf("output name = %q, want %q", filepath.Base(result.OutputPath), wantName)
	}
	content, readErr := os.ReadFile(result.OutputPath)
	if readErr != nil {
		t.Fatalf("read output: %v", readErr)
	}
	if string(content) != result.Text {
		t.Fatalf("persisted bytes %q != returned text %q", content, result.Text)
	}
	if result.Provenance != domain.ProvenanceCached {
		t.Fatalf("provenance = %s, want cached", result.Provenance)
	}
}

// TestRunLocalVideoExtractsAndTranslates checks the clip.mov flow: the
// classifier routes to extraction, the compound task maps to translate,
// and the output name derives from the extracted audio's base name.
func TestRunLocalVideoExtractsAndTranslates(t *testing.T) {
	cfg := testSettings(t)
	extractor := &fakeExtractor{wavPath: filepath.Join(cfg.OutputDir, "ab12cd34_clip.wav")}
	engine := &fakeEngine{text: "translated text", provenance: domain.ProvenanceDownloaded}

	o := newTestOrchestrator(cfg, &fakeFetcher{}, extractor, engine)
	result, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "/in/clip.mov",
		Kind:     domain.SourceLocalFile,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribeTranslate,
	}, Hooks{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if extractor.wavCalls != 1 {
		t.Fatalf("wav extractions = %d, want 1", extractor.wavCalls)
	}
	if extractor.lastsrc != "/in/clip.mov" {
		t.Fatalf("extractor source = %q", extractor.lastsrc)
	}
	if extractor.lastRunID != "ab12cd34" {
		t.Fatalf("extractor run id = %q", extractor.lastRunID)
	}
	if engine.lastTask != domain.TaskTranslate {
		t.Fatalf("engine task = %s, want translate", engine.lastTask)
	}
	if engine.lastAudio != extractor.wavPath {
		t.Fatalf("engine audio = %q, want extracted wav", engine.lastAudio)
	}

	name := filepath.Base(result.OutputPath)
	if !strings.HasSuffix(name, "clip_translated_20250601_123045.txt") {
		t.Fatalf("output name = %q, want *clip_translated_<ts>.txt", name)
	}
	if !strings.HasPrefix(name, "ab12cd34_") {
		t.Fatalf("output name = %q, want run id prefix", name)
	}
}

// TestRunURLFlowRemuxesAndTagsOrigin checks download, MP3 remux, and the
// origin id suffix on the artifact name.
func TestRunURLFlowRemuxesAndTagsOrigin(t *testing.T) {
	cfg := testSettings(t)
	fetcher := &fakeFetcher{resolved: domain.ResolvedMedia{
		Path:       filepath.Join(cfg.OutputDir, "ab12cd34_Talk_vid123.mp4"),
		OriginID:   "vid123",
		Title:      "Talk",
		AcquiredAt: fixedClock(),
	}}
	extractor := &fakeExtractor{mp3Path: filepath.Join(cfg.OutputDir, "ab12cd34_Talk_vid123.mp3")}
	engine := &fakeEngine{text: "remote text", provenance: domain.ProvenanceCached}

	o := newTestOrchestrator(cfg, fetcher, extractor, engine)
	result, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "https://example.com/v/vid123",
		Kind:     domain.SourceRemoteURL,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls)
	}
	if extractor.mp3Calls != 1 || extractor.wavCalls != 0 {
		t.Fatalf("remux calls = %d wav calls = %d, want 1/0", extractor.mp3Calls, extractor.wavCalls)
	}
	if extractor.lastRemux != fetcher.resolved.Path {
		t.Fatalf("remux input = %q", extractor.lastRemux)
	}

	name := filepath.Base(result.OutputPath)
	if !strings.HasSuffix(name, "_vid123.txt") {
		t.Fatalf("output name = %q, want origin id suffix", name)
	}
	if !strings.Contains(name, "_transcribed_") {
		t.Fatalf("output name = %q, want transcribed kind", name)
	}
}

// TestRunDownloaderFailureShortCircuits checks that a failed download
// yields a resolve-stage error and never reaches transcoder or model.
func TestRunDownloaderFailureShortCircuits(t *testing.T) {
	cfg := testSettings(t)
	fetcher := &fakeFetcher{err: errors.New("yt-dlp download failed: exit status 1")}
	extractor := &fakeExtractor{}
	engine := &fakeEngine{}

	o := newTestOrchestrator(cfg, fetcher, extractor, engine)
	_, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "https://example.com/v/1",
		Kind:     domain.SourceRemoteURL,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != StageResolve {
		t.Fatalf("stage = %s, want resolve", stageErr.Stage)
	}
	if extractor.wavCalls != 0 || extractor.mp3Calls != 0 {
		t.Fatal("transcoder must not run after a failed download")
	}
	if engine.calls != 0 {
		t.Fatal("model must not run after a failed download")
	}
}

// TestRunExtractionFailureShortCircuits checks that a failed extraction
// yields an extract-stage error and never reaches the model.
func TestRunExtractionFailureShortCircuits(t *testing.T) {
	cfg := testSettings(t)
	extractor := &fakeExtractor{err: errors.New("ffmpeg audio extraction failed")}
	engine := &fakeEngine{}

	o := newTestOrchestrator(cfg, &fakeFetcher{}, extractor, engine)
	_, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "/in/clip.mov",
		Kind:     domain.SourceLocalFile,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != StageExtract {
		t.Fatalf("stage = %s, want extract", stageErr.Stage)
	}
	if engine.calls != 0 {
		t.Fatal("model must not run after a failed extraction")
	}
}

// TestRunInferenceFailure checks the infer-stage error tagging.
func TestRunInferenceFailure(t *testing.T) {
	cfg := testSettings(t)
	engine := &fakeEngine{err: errors.New("whisper inference failed")}

	o := newTestOrchestrator(cfg, &fakeFetcher{}, &fakeExtractor{}, engine)
	_, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "/in/sample.mp3",
		Kind:     domain.SourceLocalFile,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != StageInfer {
		t.Fatalf("stage = %s, want infer", stageErr.Stage)
	}
}

// TestRunPersistFailure checks the only non-domain failure stage.
func TestRunPersistFailure(t *testing.T) {
	cfg := testSettings(t)
	engine := &fakeEngine{text: "text"}

	o := NewForTests(
		cfg,
		&fakeFetcher{},
		&fakeExtractor{},
		engine,
		logging.Discard().Entry,
		fixedClock,
		func(name string, data []byte, perm os.FileMode) error {
			return errors.New("disk full")
		},
		func() string { return "run1" },
	)
	_, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "/in/sample.mp3",
		Kind:     domain.SourceLocalFile,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != StagePersist {
		t.Fatalf("stage = %s, want persist", stageErr.Stage)
	}
}

// TestRunRejectsEmptySource checks start-state validation.
func TestRunRejectsEmptySource(t *testing.T) {
	o := newTestOrchestrator(testSettings(t), &fakeFetcher{}, &fakeExtractor{}, &fakeEngine{})
	_, err := o.Run(context.Background(), domain.MediaRequest{
		Source: "   ",
		Kind:   domain.SourceLocalFile,
	}, Hooks{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != StageResolve {
		t.Fatalf("stage = %s, want resolve", stageErr.Stage)
	}
}

// TestRunEmitsStageHooksInOrder checks observer sequencing for the video flow.
func TestRunEmitsStageHooksInOrder(t *testing.T) {
	cfg := testSettings(t)
	extractor := &fakeExtractor{wavPath: filepath.Join(cfg.OutputDir, "run1_clip.wav")}
	engine := &fakeEngine{text: "t"}

	var stages []domain.JobStatus
	o := newTestOrchestrator(cfg, &fakeFetcher{}, extractor, engine)
	_, err := o.Run(context.Background(), domain.MediaRequest{
		Source:   "/in/clip.mkv",
		Kind:     domain.SourceLocalFile,
		Model:    "base",
		Language: "English",
		Task:     domain.TaskTranscribe,
	}, Hooks{
		OnStage: func(status domain.JobStatus) { stages = append(stages, status) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []domain.JobStatus{
		domain.JobStatusResolving,
		domain.JobStatusExtracting,
		domain.JobStatusInferring,
		domain.JobStatusExporting,
	}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage[%d] = %s, want %s", i, stages[i], want[i])
		}
	}
}
