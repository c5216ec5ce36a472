// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pdiddy/pdfbench/internal/writer"
	"github.com/pdiddy/pdfbench/pkg/types"
)

func init() {
	// Fixtures are not real PDFs; stand in for pdfcpu validation.
	preflight = func(path string) (int, error) {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		if info.Size() == 0 {
			return 0, fmt.Errorf("%s is empty (0 bytes)", filepath.Base(path))
		}
		return 1, nil
	}
}

// fakeConverter returns canned Markdown, an error, or a panic per path.
type fakeConverter struct {
	mu      sync.Mutex
	outputs map[string]string
	errors  map[string]error
	panics  map[string]bool
	calls   []string
}

func (f *fakeConverter) Name() types.Backend         { return types.BackendMarker }
func (f *fakeConverter) Check(context.Context) error { return nil }

func (f *fakeConverter) Convert(_ context.Context, pdfPath string) (*types.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pdfPath)
	f.mu.Unlock()

	if f.panics[pdfPath] {
		panic("converter blew up on " + pdfPath)
	}
	if err, ok := f.errors[pdfPath]; ok {
		return nil, err
	}
	if out, ok := f.outputs[pdfPath]; ok {
		return &types.Document{Markdown: out}, nil
	}
	return nil, errors.New("unexpected path: " + pdfPath)
}

// setupInputs creates fake PDFs and returns their paths plus the dirs.
func setupInputs(t *testing.T, names ...string) (paths []string, inDir, outDir string) {
	t.Helper()
	inDir = t.TempDir()
	outDir = t.TempDir()
	for _, name := range names {
		p := filepath.Join(inDir, name)
		if err := os.WriteFile(p, []byte("fake pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths, inDir, outDir
}

func TestRun(t *testing.T) {
	paths, _, outDir := setupInputs(t, "a.pdf", "b.pdf", "c.pdf")
	conv := &fakeConverter{
		outputs: map[string]string{
			paths[0]: "# Paper A\n\n## Intro",
			paths[1]: "# Paper B",
		},
		errors: map[string]error{
			paths[2]: errors.New("bad pdf"),
		},
	}
	out := writer.New(outDir, types.BackendMarker)
	cfg := &types.BatchConfig{OutputDir: outDir, Workers: 2}

	var log bytes.Buffer
	result, err := Run(context.Background(), conv, paths, out, cfg, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Converted != 2 || result.Skipped != 0 || result.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/0/1", result.Converted, result.Skipped, result.Failed)
	}
	if result.Total() != len(paths) {
		t.Errorf("total = %d, want %d", result.Total(), len(paths))
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}

	// One result per discovered file, keyed and sorted by source path.
	if len(result.Results) != len(paths) {
		t.Fatalf("results = %d, want %d", len(result.Results), len(paths))
	}
	for i, res := range result.Results {
		if res.SourcePath != paths[i] {
			t.Errorf("results[%d] = %s, want %s", i, res.SourcePath, paths[i])
		}
	}
	if result.Results[0].Headings != 2 {
		t.Errorf("headings = %d, want 2", result.Results[0].Headings)
	}

	if _, err := os.Stat(filepath.Join(outDir, "marker", "a", "a.md")); err != nil {
		t.Errorf("missing output for a: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "marker", "c", "c.md")); !os.IsNotExist(err) {
		t.Error("failed file should produce no output")
	}
	if _, err := os.Stat(filepath.Join(outDir, "marker", "run.yaml")); err != nil {
		t.Errorf("missing run manifest: %v", err)
	}

	output := log.String()
	if !strings.Contains(output, "Batch summary: 2 converted, 0 skipped, 1 failed (total: 3)") {
		t.Errorf("summary missing from output:\n%s", output)
	}
	if !strings.Contains(output, "failed:  c (") {
		t.Errorf("failure line missing from output:\n%s", output)
	}
}

func TestRun_EmptyInputFails(t *testing.T) {
	paths, _, outDir := setupInputs(t, "a.pdf", "b.pdf")
	// Truncate b.pdf to zero bytes; preflight rejects it before the
	// converter sees it.
	if err := os.WriteFile(paths[1], nil, 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &fakeConverter{outputs: map[string]string{paths[0]: "# A"}}
	out := writer.New(outDir, types.BackendMarker)

	var log bytes.Buffer
	result, err := Run(context.Background(), conv, paths, out, &types.BatchConfig{Workers: 1}, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Converted != 1 || result.Failed != 1 {
		t.Errorf("counts = %d converted %d failed, want 1/1", result.Converted, result.Failed)
	}
	for _, res := range result.Results {
		if res.SourcePath == paths[1] {
			if res.Status != types.StatusFailed {
				t.Errorf("b.pdf status = %s, want failed", res.Status)
			}
			if !strings.Contains(res.ErrDetail, "empty") {
				t.Errorf("b.pdf detail = %q, want mention of empty file", res.ErrDetail)
			}
		}
	}
	for _, call := range conv.calls {
		if call == paths[1] {
			t.Error("converter should not be invoked for a file that fails preflight")
		}
	}
}

func TestRun_PanicIsPerFileFailure(t *testing.T) {
	paths, _, outDir := setupInputs(t, "a.pdf", "b.pdf", "c.pdf")
	conv := &fakeConverter{
		outputs: map[string]string{paths[0]: "# A", paths[2]: "# C"},
		panics:  map[string]bool{paths[1]: true},
	}
	out := writer.New(outDir, types.BackendMarker)

	var log bytes.Buffer
	result, err := Run(context.Background(), conv, paths, out, &types.BatchConfig{Workers: 3}, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Converted != 2 || result.Failed != 1 {
		t.Errorf("counts = %d/%d, want 2 converted 1 failed", result.Converted, result.Failed)
	}
	for _, res := range result.Results {
		if res.SourcePath == paths[1] && !strings.Contains(res.ErrDetail, "panic") {
			t.Errorf("detail = %q, want panic record", res.ErrDetail)
		}
	}
}

func TestRun_SkipExisting(t *testing.T) {
	paths, _, outDir := setupInputs(t, "a.pdf", "b.pdf")
	conv := &fakeConverter{outputs: map[string]string{paths[0]: "# A", paths[1]: "# B"}}
	out := writer.New(outDir, types.BackendMarker)
	cfg := &types.BatchConfig{Workers: 1}

	var log bytes.Buffer
	if _, err := Run(context.Background(), conv, paths, out, cfg, &log); err != nil {
		t.Fatal(err)
	}

	// Second run skips both; converter is not called again.
	calls := len(conv.calls)
	result, err := Run(context.Background(), conv, paths, out, cfg, &log)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 2 || result.Converted != 0 {
		t.Errorf("rerun counts = %d converted %d skipped, want 0/2", result.Converted, result.Skipped)
	}
	if len(conv.calls) != calls {
		t.Errorf("converter called %d more times on skip rerun", len(conv.calls)-calls)
	}

	// With overwrite the files are reconverted.
	cfg.Overwrite = true
	result, err = Run(context.Background(), conv, paths, out, cfg, &log)
	if err != nil {
		t.Fatal(err)
	}
	if result.Converted != 2 {
		t.Errorf("overwrite rerun converted = %d, want 2", result.Converted)
	}
}

func TestRun_WorkerCountChangesNothing(t *testing.T) {
	names := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}

	outputs := func(paths []string) map[string]string {
		m := make(map[string]string)
		for _, p := range paths {
			m[p] = "# " + filepath.Base(p)
		}
		return m
	}

	var fileSets [][]string
	for _, workers := range []int{1, 4} {
		paths, _, outDir := setupInputs(t, names...)
		conv := &fakeConverter{outputs: outputs(paths)}
		out := writer.New(outDir, types.BackendMarker)

		var log bytes.Buffer
		result, err := Run(context.Background(), conv, paths, out, &types.BatchConfig{Workers: workers}, &log)
		if err != nil {
			t.Fatal(err)
		}
		if result.Converted != len(names) {
			t.Fatalf("workers=%d converted %d, want %d", workers, result.Converted, len(names))
		}

		var rels []string
		filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				rel, _ := filepath.Rel(outDir, path)
				rels = append(rels, rel)
			}
			return nil
		})
		fileSets = append(fileSets, rels)
	}

	if strings.Join(fileSets[0], ",") != strings.Join(fileSets[1], ",") {
		t.Errorf("output sets differ between worker counts:\n%v\n%v", fileSets[0], fileSets[1])
	}
}

func TestRun_NoInputs(t *testing.T) {
	outDir := t.TempDir()
	conv := &fakeConverter{}
	out := writer.New(outDir, types.BackendMarker)

	var log bytes.Buffer
	result, err := Run(context.Background(), conv, nil, out, &types.BatchConfig{}, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Total() != 0 {
		t.Errorf("total = %d, want 0", result.Total())
	}
	if !strings.Contains(log.String(), "0 converted, 0 skipped, 0 failed") {
		t.Errorf("summary missing:\n%s", log.String())
	}
}
