// Package writer persists designed configs as per-host artifacts. One file
// per host, named <hostname>.cfg, plain text, no manifest.
package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/fabbuild/internal/build"
	"github.com/vk/fabbuild/internal/model"
)

// Writer writes rendered configs into a single output directory.
type Writer struct {
	dir string
}

// New creates the output directory if it does not exist and returns a Writer
// for it.
func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write persists one designed config and returns the artifact path. Write
// errors are not retried; they come back as persistence failures.
func (w *Writer) Write(cfg *model.DesignedConfig) (string, error) {
	path := filepath.Join(w.dir, cfg.Hostname+".cfg")
	if err := os.WriteFile(path, []byte(cfg.Text), 0o644); err != nil {
		return "", &build.Failure{Host: cfg.Hostname, Stage: build.StageDesigned, Kind: build.KindPersistence, Cause: err}
	}
	return path, nil
}
