// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/pdfbench/internal/tools"
	"github.com/pdiddy/pdfbench/pkg/types"
)

const binMarker = "marker_single"

// MarkerConverter converts PDFs by running the marker_single CLI, one
// OS process per file. The accelerator is picked at construction time
// and passed to the tool via TORCH_DEVICE; when no accelerator is
// present the tool runs on CPU with the same output shape, only slower.
type MarkerConverter struct {
	tool   *tools.Tool
	device types.Device
}

// NewMarkerConverter builds a marker adapter using exec for process
// execution (nil means the real one).
func NewMarkerConverter(exec tools.Executor) *MarkerConverter {
	return &MarkerConverter{
		tool:   tools.New(binMarker, exec),
		device: tools.DetectDevice(exec),
	}
}

// Name returns the backend identifier.
func (m *MarkerConverter) Name() types.Backend { return types.BackendMarker }

// Device returns the accelerator the adapter selected.
func (m *MarkerConverter) Device() types.Device { return m.device }

// Check verifies the marker CLI is installed.
func (m *MarkerConverter) Check(ctx context.Context) error {
	return m.tool.Check()
}

// Convert runs marker_single on pdfPath in a scratch directory and
// collects the Markdown, the *_meta.json sidecar, and extracted images.
func (m *MarkerConverter) Convert(ctx context.Context, pdfPath string) (*types.Document, error) {
	scratch, err := os.MkdirTemp("", "pdfbench-marker-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{pdfPath, "--output_dir", scratch}
	env := []string{"TORCH_DEVICE=" + string(m.device)}
	if err := m.tool.Run(ctx, args, scratch, env); err != nil {
		return nil, fmt.Errorf("converting %s with marker: %w", pdfPath, err)
	}

	doc, err := collectDocument(scratch)
	if err != nil {
		return nil, fmt.Errorf("marker output for %s: %w", pdfPath, err)
	}
	return doc, nil
}
