// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend wraps the three PDF conversion backends behind one
// Converter interface. The marker and docling adapters shell out to
// their CLIs per file; the llamaparse adapter talks to the LlamaParse
// cloud API. Backend-specific quirks (image link encoding, device
// selection) stay inside the owning adapter; the driver only ever sees
// the uniform Document shape.
package backend

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/pdfbench/pkg/types"
)

// Converter transforms a PDF file into a Document. Adapters return
// ordinary errors for per-file failures; the driver converts them into
// failed results and keeps going.
type Converter interface {
	// Name returns the backend identifier.
	Name() types.Backend

	// Check verifies the backend is usable (tool on PATH, credential
	// accepted). Called once before any job is dispatched; an error
	// here aborts the run.
	Check(ctx context.Context) error

	// Convert parses the PDF at pdfPath and returns its Document.
	Convert(ctx context.Context, pdfPath string) (*types.Document, error)
}

// imageExts are the artifact extensions collected from tool output.
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// collectDocument gathers a tool's output from its scratch directory:
// the Markdown file, an optional *_meta.json sidecar, and any image
// artifacts. Image names are kept relative to the Markdown file's
// directory so the links inside the Markdown stay valid after the
// writer lays the files out.
func collectDocument(scratch string) (*types.Document, error) {
	var mdPath string
	err := filepath.WalkDir(scratch, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || mdPath != "" {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			mdPath = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning tool output: %w", err)
	}
	if mdPath == "" {
		return nil, fmt.Errorf("tool produced no Markdown output")
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, fmt.Errorf("reading tool output: %w", err)
	}

	doc := &types.Document{Markdown: string(md)}
	mdDir := filepath.Dir(mdPath)

	err = filepath.WalkDir(mdDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path == mdPath {
			return err
		}
		rel, relErr := filepath.Rel(mdDir, path)
		if relErr != nil {
			return relErr
		}
		switch {
		case strings.HasSuffix(path, "_meta.json"):
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return readErr
			}
			doc.Metadata = data
		case imageExts[strings.ToLower(filepath.Ext(path))]:
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return readErr
			}
			doc.Images = append(doc.Images, types.Image{Name: rel, Data: data})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting tool artifacts: %w", err)
	}

	// WalkDir order is already lexical, but artifact names across
	// nested dirs must be stable for idempotent reruns.
	sort.Slice(doc.Images, func(i, j int) bool { return doc.Images[i].Name < doc.Images[j].Name })

	return doc, nil
}
