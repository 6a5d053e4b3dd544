package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"whisper-offline/internal/domain"
)

// OutputKind labels what kind of text an artifact holds.
type OutputKind string

const (
	OutputTranscribed OutputKind = "transcribed"
	OutputTranslated  OutputKind = "translated"
)

// TimestampFormat is second-granularity and sorts lexically by calendar
// order, so output directories list runs chronologically.
const TimestampFormat = "20060102_150405"

// KindForTask maps the model-level task to the artifact label.
func KindForTask(task domain.Task) OutputKind {
	if task == domain.TaskTranslate {
		return OutputTranslated
	}
	return OutputTranscribed
}

// OutputName derives the artifact name for one produced text file. It is a
// pure function of its inputs; the caller captures the timestamp once per
// logical output. No collision detection is performed — uniqueness rests on
// the timestamp plus the optional origin id.
func OutputName(baseName string, kind OutputKind, ts time.Time, originID string) string {
	name := fmt.Sprintf("%s_%s_%s", baseName, kind, ts.Format(TimestampFormat))
	if originID != "" {
		name += "_" + originID
	}
	return name
}

// BaseName strips directory and extension from a media path, falling back
// to "transcript" for degenerate inputs.
func BaseName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "transcript"
	}
	return name
}
