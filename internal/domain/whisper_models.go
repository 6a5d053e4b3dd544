package domain

// WhisperModelOption describes one downloadable Whisper weight preset.
type WhisperModelOption struct {
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	URL         string `json:"url"`
	SizeLabel   string `json:"sizeLabel,omitempty"`
	Description string `json:"description,omitempty"`
	Cached      bool   `json:"cached"`
	LocalPath   string `json:"localPath,omitempty"`
}
