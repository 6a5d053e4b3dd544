// Package extract wraps ffmpeg for the two transcoding jobs the pipeline
// needs: demuxing a video container to PCM audio, and remuxing downloaded
// media to MP3 for the URL flow.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"whisper-offline/internal/command"
	"whisper-offline/internal/media"
)

// Extractor invokes the external transcoder with a fixed argument contract.
// On failure it leaves any partially written file on disk; callers must not
// assume absence.
type Extractor struct {
	ffmpegPath string
	outputDir  string
	runner     command.Runner
}

// New builds an extractor writing into outputDir.
func New(ffmpegPath, outputDir string, runner command.Runner) *Extractor {
	return &Extractor{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		runner:     runner,
	}
}

// ExtractWAV demuxes a single mono 16-bit 44.1 kHz PCM stream from a video
// container into a new file under the output directory. The run id prefix
// keeps concurrent runs from clobbering each other.
func (e *Extractor) ExtractWAV(ctx context.Context, videoPath, runID string) (string, command.Log, error) {
	outPath := filepath.Join(e.outputDir, fmt.Sprintf("%s_%s.wav", runID, media.BaseName(videoPath)))
	args := buildWAVArgs(videoPath, outPath)

	res, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	log := command.NewLog(e.ffmpegPath, args, res)
	if err != nil {
		return "", log, fmt.Errorf("ffmpeg audio extraction failed: %s: %w", firstLine(res.Stderr), err)
	}
	return outPath, log, nil
}

// RemuxMP3 remuxes already-downloaded media to MP3 at best VBR quality,
// writing a sibling of the input file. The input name already carries the
// request's run id, so the sibling stays unique per run.
func (e *Extractor) RemuxMP3(ctx context.Context, mediaPath string) (string, command.Log, error) {
	outPath := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".mp3"
	args := buildMP3Args(mediaPath, outPath)

	res, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	log := command.NewLog(e.ffmpegPath, args, res)
	if err != nil {
		return "", log, fmt.Errorf("ffmpeg audio remux failed: %s: %w", firstLine(res.Stderr), err)
	}
	return outPath, log, nil
}

// buildWAVArgs builds the demux invocation: no video, mono, 16-bit 44.1 kHz PCM.
func buildWAVArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "1",
		outPath,
	}
}

// buildMP3Args builds the remux invocation for the URL flow.
func buildMP3Args(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", inputPath,
		"-q:a", "0",
		"-map", "a",
		outPath,
	}
}

// firstLine trims subprocess stderr to its leading line for error messages;
// the full capture stays on the command log.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		s = "no stderr output"
	}
	return s
}
