// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/pdfbench/internal/tools"
	"github.com/pdiddy/pdfbench/pkg/types"
)

const binDocling = "docling"

// DoclingConverter converts PDFs by running the docling CLI with
// referenced image export. Generated image links are URL-encoded after
// the fact so filenames with spaces or other special characters stay
// valid relative links.
type DoclingConverter struct {
	tool   *tools.Tool
	device types.Device
}

// NewDoclingConverter builds a docling adapter using exec for process
// execution (nil means the real one).
func NewDoclingConverter(exec tools.Executor) *DoclingConverter {
	return &DoclingConverter{
		tool:   tools.New(binDocling, exec),
		device: tools.DetectDevice(exec),
	}
}

// Name returns the backend identifier.
func (d *DoclingConverter) Name() types.Backend { return types.BackendDocling }

// Device returns the accelerator the adapter selected.
func (d *DoclingConverter) Device() types.Device { return d.device }

// Check verifies the docling CLI is installed.
func (d *DoclingConverter) Check(ctx context.Context) error {
	return d.tool.Check()
}

// Convert runs docling on pdfPath in a scratch directory, collects the
// Markdown and the *_artifacts images, and rewrites image links.
func (d *DoclingConverter) Convert(ctx context.Context, pdfPath string) (*types.Document, error) {
	scratch, err := os.MkdirTemp("", "pdfbench-docling-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{pdfPath, "--to", "md", "--image-export-mode", "referenced", "--output", scratch}
	if err := d.tool.Run(ctx, args, scratch, nil); err != nil {
		return nil, fmt.Errorf("converting %s with docling: %w", pdfPath, err)
	}

	doc, err := collectDocument(scratch)
	if err != nil {
		return nil, fmt.Errorf("docling output for %s: %w", pdfPath, err)
	}

	doc.Markdown = EncodeImageLinks(doc.Markdown)
	return doc, nil
}
