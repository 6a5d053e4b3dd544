package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"whisper-offline/internal/domain"
)

const downloadTimeout = 45 * time.Minute

// Downloader fetches weight files into the cache directory. Transient HTTP
// failures are retried with exponential backoff; pipeline stages never use
// this path, so the no-stage-retry rule is untouched.
type Downloader struct {
	client *http.Client
}

// NewDownloader builds a downloader with a generous timeout sized for
// multi-gigabyte weight files.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// NewDownloaderWithClient builds a downloader around an existing client,
// for tests.
func NewDownloaderWithClient(client *http.Client) *Downloader {
	return &Downloader{client: client}
}

// Download fetches one model's weights into cacheDir, writing through a
// temporary file so a partial download never looks like a valid cache hit.
// Returns the final weight file path.
func (d *Downloader) Download(ctx context.Context, model domain.WhisperModelOption, cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create model cache dir: %w", err)
	}

	target := filepath.Join(cacheDir, model.FileName)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	operation := func() error {
		return d.fetchOnce(ctx, model.URL, target)
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("download model %s: %w", model.Name, err)
	}
	return target, nil
}

// fetchOnce performs a single GET and atomic rename into place. A server
// error is retryable; a client error is permanent.
func (d *Downloader) fetchOnce(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(fmt.Errorf("unexpected status: %s", resp.Status))
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return backoff.Permanent(err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return backoff.Permanent(err)
	}
	return nil
}
