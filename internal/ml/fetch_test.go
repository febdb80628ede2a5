package ml

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDownloadModel(t *testing.T) {
	artifact := writeTestArtifact(t, make([]float64, 24))
	payload, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "models", "model_knn.json")
	if err := DownloadModel(srv.URL, dest, 5*time.Second); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	// Downloaded artifact must load and validate.
	m, err := LoadModel(dest)
	if err != nil {
		t.Fatalf("downloaded artifact does not load: %v", err)
	}
	if m.Version != "test-1" {
		t.Errorf("unexpected version %q", m.Version)
	}
}

func TestDownloadModel_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model_knn.json")
	if err := DownloadModel(srv.URL, dest, 5*time.Second); err == nil {
		t.Error("expected error for non-200 response")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("expected no file written on failed download")
	}
}

func TestDownloadModel_Unreachable(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "model_knn.json")
	if err := DownloadModel("http://127.0.0.1:1/model.json", dest, 1*time.Second); err == nil {
		t.Error("expected error for unreachable host")
	}
}
