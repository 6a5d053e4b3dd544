package domain

// Settings is the explicit configuration handed to the pipeline at
// construction time. Nothing in the pipeline reads global defaults.
type Settings struct {
	ModelCacheDir   string   `toml:"model_cache_dir" json:"modelCacheDir"`
	OutputDir       string   `toml:"output_dir" json:"outputDir"`
	Model           string   `toml:"model" json:"model"`
	Language        string   `toml:"language" json:"language"`
	AudioExtensions []string `toml:"audio_extensions" json:"audioExtensions"`
	FFmpegPath      string   `toml:"ffmpeg_path" json:"ffmpegPath"`
	YtDlpPath       string   `toml:"ytdlp_path" json:"ytdlpPath"`
	WhisperPath     string   `toml:"whisper_path" json:"whisperPath"`
}
