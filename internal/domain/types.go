package domain

import "time"

// Task is the user-requested operation for one run.
type Task string

const (
	// TaskTranscribe produces same-language text.
	TaskTranscribe Task = "transcribe"
	// TaskTranscribeTranslate is the compound user-facing label that maps
	// to the model's primitive "translate" task before invocation.
	TaskTranscribeTranslate Task = "transcribe & translate"
	// TaskTranslate is the model-level task TaskTranscribeTranslate maps to.
	TaskTranslate Task = "translate"
)

// SourceKind distinguishes the two pipeline entry flows.
type SourceKind string

const (
	SourceLocalFile SourceKind = "file"
	SourceRemoteURL SourceKind = "url"
)

// MediaRequest describes one transcription invocation. It is built once by
// the caller and consumed entirely by the pipeline; it is never persisted.
type MediaRequest struct {
	Source   string     `json:"source"`
	Kind     SourceKind `json:"kind"`
	Model    string     `json:"model"`
	Language string     `json:"language"`
	Task     Task       `json:"task"`
}

// ResolvedMedia is the locally available media produced by the remote
// fetcher, or trivially by identity for local input. The underlying files
// are kept under the output directory after the run for provenance, so the
// output directory grows without bound unless pruned manually.
type ResolvedMedia struct {
	Path       string    `json:"path"`
	OriginID   string    `json:"originId,omitempty"`
	Title      string    `json:"title,omitempty"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// Provenance reports whether model weights were already cached before the
// current invocation.
type Provenance string

const (
	ProvenanceCached     Provenance = "cached"
	ProvenanceDownloaded Provenance = "downloaded"
)

// TranscriptionResult is the single successful outcome of a pipeline run.
// The persisted file at OutputPath contains exactly Text, byte for byte.
type TranscriptionResult struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
	OutputPath string     `json:"outputPath"`
}

// JobStatus tracks each pipeline stage for a single transcription job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusResolving  JobStatus = "resolving"
	JobStatusExtracting JobStatus = "extracting"
	JobStatusInferring  JobStatus = "inferring"
	JobStatusExporting  JobStatus = "exporting"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}
