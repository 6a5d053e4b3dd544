// Package models knows the published Whisper weight files, inspects the
// local cache, and downloads weights explicitly so a first transcription
// does not have to pay for a multi-gigabyte fetch mid-run.
package models

import (
	"os"
	"path/filepath"

	"whisper-offline/internal/domain"
)

var whisperCatalog = []domain.WhisperModelOption{
	{
		Name:        "tiny.en",
		FileName:    "tiny.en.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/d3dd57d32accea0b295c96e26691aa14d8822fac7d9d27d5dc00b4ca2826dd03/tiny.en.pt",
		SizeLabel:   "~75 MB",
		Description: "Fastest, English-only model.",
	},
	{
		Name:        "tiny",
		FileName:    "tiny.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/65147644a518d12f04e32d6f3b26facc3f8dd46e5390956a9424a650c0ce22b9/tiny.pt",
		SizeLabel:   "~75 MB",
		Description: "Fastest multilingual model.",
	},
	{
		Name:        "base.en",
		FileName:    "base.en.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/25a8566e1d0c1e2231d1c762132cd20e0f96a85d16145c3a00adf5d1ac670ead/base.en.pt",
		SizeLabel:   "~142 MB",
		Description: "Balanced speed/quality, English-only.",
	},
	{
		Name:        "base",
		FileName:    "base.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/ed3a0b6b1c0edf879ad9b11b1af5a0e6ab5db9205f891f668f8b0e6c6326e34e/base.pt",
		SizeLabel:   "~142 MB",
		Description: "Balanced speed/quality, multilingual. Default.",
	},
	{
		Name:        "small.en",
		FileName:    "small.en.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/f953ad0fd29cacd07d5a9eda5624af0f6bcf2258be67c92b79389873d91e0872/small.en.pt",
		SizeLabel:   "~466 MB",
		Description: "Higher quality, English-only.",
	},
	{
		Name:        "small",
		FileName:    "small.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/9ecf779972d90ba49c06d968637d720dd632c55bbf19d441fb42bf17a411e794/small.pt",
		SizeLabel:   "~466 MB",
		Description: "Higher quality multilingual model.",
	},
	{
		Name:        "medium.en",
		FileName:    "medium.en.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/d7440d1dc186f76616474e0ff0b3b6b879abc9d1a4926b7adfa41db2d497ab4f/medium.en.pt",
		SizeLabel:   "~1.5 GB",
		Description: "High quality, English-only.",
	},
	{
		Name:        "medium",
		FileName:    "medium.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/345ae4da62f9b3d59415adc60127b97c714f32e89e936602e85993674d08dcb1/medium.pt",
		SizeLabel:   "~1.5 GB",
		Description: "High quality multilingual model.",
	},
	{
		Name:        "large-v2",
		FileName:    "large-v2.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/81f7c96c852ee8fc832187b0132e569d6c3065a3252ed18e56effd0b6a73e524/large-v2.pt",
		SizeLabel:   "~2.9 GB",
		Description: "Very high quality multilingual model.",
	},
	{
		Name:        "large-v3",
		FileName:    "large-v3.pt",
		URL:         "https://openaipublic.azureedge.net/main/whisper/models/e5b1a55b89c1367dacf97e3e19bfd829a01529dbfdeefa8caeb59b3f1b81dadb/large-v3.pt",
		SizeLabel:   "~2.9 GB",
		Description: "Latest large multilingual model.",
	},
}

// Catalog returns the built-in weight presets with cache state resolved
// against cacheDir.
func Catalog(cacheDir string) []domain.WhisperModelOption {
	models := make([]domain.WhisperModelOption, len(whisperCatalog))
	copy(models, whisperCatalog)
	markCached(models, cacheDir)
	return models
}

// ByName returns the catalog entry for one model name.
func ByName(name string) (domain.WhisperModelOption, bool) {
	for _, model := range whisperCatalog {
		if model.Name == name {
			return model, true
		}
	}
	return domain.WhisperModelOption{}, false
}

// markCached flags catalog entries whose weight file exists in cacheDir.
func markCached(models []domain.WhisperModelOption, cacheDir string) {
	for i := range models {
		candidate := filepath.Join(cacheDir, models[i].FileName)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		models[i].Cached = true
		models[i].LocalPath = candidate
	}
}
