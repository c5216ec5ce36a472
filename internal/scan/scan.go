// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan enumerates and preflights source PDFs for a batch run.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdfbench/pkg/types"
)

// List returns the PDF files in dir, sorted lexicographically by name
// so repeated runs process files in the same order. The extension match
// is case-insensitive. A missing directory is types.ErrNotFound; an
// empty directory yields an empty slice and no error.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Preflight validates that path is a readable PDF before it is handed
// to a backend, and reports its page count. Zero-byte and structurally
// broken files fail here so the driver can record the failure without
// spending a backend invocation on them.
func Preflight(path string) (pages int, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%s is empty (0 bytes)", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("%s is not a readable PDF: %w", filepath.Base(path), err)
	}

	return ctx.PageCount, nil
}

// Stem returns the source file's base name without its extension,
// the key every output file is named by.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
