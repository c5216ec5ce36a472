// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package writer persists conversion output under a per-backend
// directory tree, keyed by source filename so completion order never
// matters. Every file goes through a temp-then-rename so a crash can
// not leave a partial result behind.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfbench/internal/scan"
	"github.com/pdiddy/pdfbench/pkg/types"
)

// manifestFile is the per-run summary written into the backend dir.
const manifestFile = "run.yaml"

// Writer persists Documents for one backend under baseDir/backend/.
type Writer struct {
	baseDir string
	backend types.Backend
}

// New returns a Writer rooted at baseDir for the given backend.
func New(baseDir string, backend types.Backend) *Writer {
	return &Writer{baseDir: baseDir, backend: backend}
}

// Dir returns the backend's output directory.
func (w *Writer) Dir() string {
	return filepath.Join(w.baseDir, string(w.backend))
}

// docDir returns the per-document output directory for a source file.
func (w *Writer) docDir(sourcePath string) string {
	return filepath.Join(w.Dir(), scan.Stem(sourcePath))
}

// CheckWritable creates the backend output directory and probes it with
// a throwaway file. Failure is fatal to the run, before any job starts.
func (w *Writer) CheckWritable() error {
	dir := w.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrWrite, dir, err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrWrite, dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// HasResult reports whether a Markdown output already exists for the
// source file. The driver uses this for the default skip-on-rerun
// policy.
func (w *Writer) HasResult(sourcePath string) bool {
	stem := scan.Stem(sourcePath)
	_, err := os.Stat(filepath.Join(w.docDir(sourcePath), stem+".md"))
	return err == nil
}

// Write persists doc for sourcePath: <stem>.md, optional <stem>.txt,
// optional <stem>_meta.json, and image artifacts at their link-relative
// names. Intermediate directories are created as needed.
func (w *Writer) Write(sourcePath string, doc *types.Document) error {
	stem := scan.Stem(sourcePath)
	dir := w.docDir(sourcePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	if err := writeAtomic(filepath.Join(dir, stem+".md"), []byte(doc.Markdown)); err != nil {
		return err
	}
	if doc.Text != "" {
		if err := writeAtomic(filepath.Join(dir, stem+".txt"), []byte(doc.Text)); err != nil {
			return err
		}
	}
	if len(doc.Metadata) > 0 {
		if err := writeAtomic(filepath.Join(dir, stem+"_meta.json"), doc.Metadata); err != nil {
			return err
		}
	}
	for _, img := range doc.Images {
		path := filepath.Join(dir, img.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := writeAtomic(path, img.Data); err != nil {
			return err
		}
	}
	return nil
}

// Manifest is the YAML run summary persisted next to the results.
type Manifest struct {
	Backend   types.Backend  `yaml:"backend"`
	StartedAt time.Time      `yaml:"started_at"`
	Elapsed   time.Duration  `yaml:"elapsed"`
	Workers   int            `yaml:"workers"`
	Converted int            `yaml:"converted"`
	Skipped   int            `yaml:"skipped"`
	Failed    int            `yaml:"failed"`
	Results   []types.Result `yaml:"results"`
}

// WriteManifest records the run summary as run.yaml in the backend dir,
// replacing the previous run's manifest.
func (w *Writer) WriteManifest(m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling run manifest: %w", err)
	}
	if err := os.MkdirAll(w.Dir(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", w.Dir(), err)
	}
	return writeAtomic(filepath.Join(w.Dir(), manifestFile), data)
}

// writeAtomic writes data to path via a temp file in the same directory
// and a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pdfbench-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file for %s: %w", path, closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	return nil
}
