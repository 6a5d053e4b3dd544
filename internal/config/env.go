package config

import (
	"os"

	"github.com/joho/godotenv"

	"whisper-offline/internal/domain"
)

// LoadDotenv loads a local .env file when present. Missing files are not an
// error; a malformed file is.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// ApplyEnvOverrides overlays environment variables onto loaded settings.
// Unset variables leave the corresponding field untouched.
func ApplyEnvOverrides(cfg domain.Settings) domain.Settings {
	overlay := func(key string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	overlay("WHISPER_MODEL_CACHE_DIR", &cfg.ModelCacheDir)
	overlay("WHISPER_OUTPUT_DIR", &cfg.OutputDir)
	overlay("WHISPER_MODEL", &cfg.Model)
	overlay("WHISPER_LANGUAGE", &cfg.Language)
	overlay("WHISPER_FFMPEG_PATH", &cfg.FFmpegPath)
	overlay("WHISPER_YTDLP_PATH", &cfg.YtDlpPath)
	overlay("WHISPER_BIN_PATH", &cfg.WhisperPath)
	return cfg
}
