package config

import "whisper-offline/internal/domain"

// DefaultAudioExtensions is the closed allow-list of extensions treated as
// directly consumable audio. Anything else is routed through extraction.
var DefaultAudioExtensions = []string{".wav", ".mp3", ".flac", ".ogg", ".m4a", ".aac"}

// DefaultSettings returns baseline configuration for first run. Directories
// are relative to the working directory so a checkout stays self-contained.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		ModelCacheDir:   "models",
		OutputDir:       "transcribe",
		Model:           "base",
		Language:        "English",
		AudioExtensions: append([]string(nil), DefaultAudioExtensions...),
		FFmpegPath:      "ffmpeg",
		YtDlpPath:       "yt-dlp",
		WhisperPath:     "whisper",
	}
}
