// Package media holds the input classifier and the output artifact namer.
package media

import (
	"path/filepath"
	"strings"
)

// Kind is the classifier verdict for one input path.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Classifier routes inputs by extension against a closed allow-list. It
// never sniffs content, so a misnamed file is classified by its name alone.
type Classifier struct {
	audioExts map[string]struct{}
}

// NewClassifier builds a classifier from the configured audio extensions.
// Entries are normalized to lower case with a leading dot.
func NewClassifier(audioExts []string) *Classifier {
	exts := make(map[string]struct{}, len(audioExts))
	for _, ext := range audioExts {
		e := strings.ToLower(strings.TrimSpace(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	return &Classifier{audioExts: exts}
}

// Classify returns KindAudio iff the path extension is allow-listed;
// every other extension, including none, is treated as video.
func (c *Classifier) Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := c.audioExts[ext]; ok {
		return KindAudio
	}
	return KindVideo
}
