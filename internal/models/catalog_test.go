package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// TestByName verifies known model lookup.
func TestByName(t *testing.T) {
	model, found := ByName("base")
	if !found {
		t.Fatal("expected base model to exist")
	}
	if model.FileName != "base.pt" {
		t.Fatalf("filename = %s, want base.pt", model.FileName)
	}
}

// TestByNameUnknown verifies lookup failure for unknown names.
func TestByNameUnknown(t *testing.T) {
	if _, found := ByName("gigantic"); found {
		t.Fatal("expected lookup miss")
	}
}

// TestCatalogMarksCachedModels flags entries whose weight file is present.
func TestCatalogMarksCachedModels(t *testing.T) {
	cacheDir := t.TempDir()
	weightPath := filepath.Join(cacheDir, "base.pt")
	if err := os.WriteFile(weightPath, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write weight file: %v", err)
	}

	baseIdx, smallIdx := -1, -1
	catalog := Catalog(cacheDir)
	for i := range catalog {
		switch catalog[i].Name {
		case "base":
			baseIdx = i
		case "small":
			smallIdx = i
		}
	}
	if baseIdx < 0 || smallIdx < 0 {
		t.Fatal("catalog missing expected entries")
	}

	if !catalog[baseIdx].Cached {
		t.Fatal("expected base to be marked cached")
	}
	if catalog[baseIdx].LocalPath != weightPath {
		t.Fatalf("local path = %s, want %s", catalog[baseIdx].LocalPath, weightPath)
	}
	if catalog[smallIdx].Cached {
		t.Fatal("expected small to remain uncached")
	}
}

// TestDownloadWritesWeightFile checks the happy path through a test server.
func TestDownloadWritesWeightFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("weights"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	model, _ := ByName("tiny")
	model.URL = server.URL

	d := NewDownloaderWithClient(server.Client())
	path, err := d.Download(context.Background(), model, cacheDir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read weight file: %v", err)
	}
	if string(content) != "weights" {
		t.Fatalf("content = %q, want weights", content)
	}
	if filepath.Base(path) != "tiny.pt" {
		t.Fatalf("path = %s, want tiny.pt basename", path)
	}
}

// TestDownloadRetriesServerErrors checks transient 5xx recovery.
func TestDownloadRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	model, _ := ByName("tiny")
	model.URL = server.URL

	d := NewDownloaderWithClient(server.Client())
	if _, err := d.Download(context.Background(), model, t.TempDir()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

// TestDownloadClientErrorIsPermanent checks 4xx short-circuits retries.
func TestDownloadClientErrorIsPermanent(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	model, _ := ByName("tiny")
	model.URL = server.URL

	d := NewDownloaderWithClient(server.Client())
	if _, err := d.Download(context.Background(), model, t.TempDir()); err == nil {
		t.Fatal("expected error for 404")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry on client error)", attempts)
	}
}
