// Package fetch resolves remote video URLs to local media files via the
// external downloader.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whisper-offline/internal/command"
	"whisper-offline/internal/domain"
)

// ErrNoArtifact means the downloader exited cleanly but reported no usable
// output file.
var ErrNoArtifact = errors.New("no media file found after download")

// Fetcher wraps the external downloader. Instead of scanning the output
// directory afterwards, it asks the tool to print the final file path plus
// id and title on stdout, so resolution needs no listing heuristic and the
// origin id is never re-derived from a generated filename.
type Fetcher struct {
	ytdlpPath string
	outputDir string
	runner    command.Runner
	stat      func(string) (os.FileInfo, error)
	now       func() time.Time
}

// New builds a fetcher storing downloads under outputDir.
func New(ytdlpPath, outputDir string, runner command.Runner) *Fetcher {
	return &Fetcher{
		ytdlpPath: ytdlpPath,
		outputDir: outputDir,
		runner:    runner,
		stat:      os.Stat,
		now:       time.Now,
	}
}

// Fetch downloads one URL. The output template embeds the request's run id
// so concurrent runs sharing the directory cannot claim each other's files.
// A non-zero exit fails the run with the downloader's stderr; a clean exit
// without a resolvable file yields ErrNoArtifact. A missing origin id is
// not an error.
func (f *Fetcher) Fetch(ctx context.Context, url, runID string) (domain.ResolvedMedia, command.Log, error) {
	args := buildDownloadArgs(f.outputDir, runID, url)

	res, err := f.runner.Run(ctx, f.ytdlpPath, args...)
	log := command.NewLog(f.ytdlpPath, args, res)
	if err != nil {
		return domain.ResolvedMedia{}, log, fmt.Errorf("yt-dlp download failed: %s: %w", firstLine(res.Stderr), err)
	}

	path, originID, title := parsePrintedMetadata(res.Stdout)
	if path == "" {
		return domain.ResolvedMedia{}, log, ErrNoArtifact
	}
	if _, statErr := f.stat(path); statErr != nil {
		return domain.ResolvedMedia{}, log, fmt.Errorf("%w: reported path missing: %s", ErrNoArtifact, path)
	}

	return domain.ResolvedMedia{
		Path:       path,
		OriginID:   originID,
		Title:      title,
		AcquiredAt: f.now(),
	}, log, nil
}

// buildDownloadArgs asks yt-dlp for one container file named with the run
// id and three after-download print lines: filepath, id, title, in that
// order.
func buildDownloadArgs(outputDir, runID, url string) []string {
	template := filepath.Join(outputDir, runID+"_%(title)s_%(id)s.%(ext)s")
	return []string{
		"-o", template,
		"--no-playlist",
		"--no-simulate",
		"--print", "after_move:filepath",
		"--print", "after_move:id",
		"--print", "after_move:title",
		url,
	}
}

// parsePrintedMetadata reads the three print lines emitted after the move.
// yt-dlp prints "NA" for fields it could not fill.
func parsePrintedMetadata(stdout string) (path, originID, title string) {
	lines := make([]string, 0, 3)
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", "", ""
	}

	path = lines[0]
	if len(lines) > 1 && lines[1] != "NA" {
		originID = lines[1]
	}
	if len(lines) > 2 && lines[2] != "NA" {
		title = lines[2]
	}
	return path, originID, title
}

// firstLine trims subprocess stderr to its leading line for error messages.
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

// NewForTests builds a fetcher with injectable stat and clock.
func NewForTests(
	ytdlpPath string,
	outputDir string,
	runner command.Runner,
	stat func(string) (os.FileInfo, error),
	now func() time.Time,
) *Fetcher {
	return &Fetcher{
		ytdlpPath: ytdlpPath,
		outputDir: outputDir,
		runner:    runner,
		stat:      stat,
		now:       now,
	}
}
