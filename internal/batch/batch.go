// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch orchestrates a conversion run: it dispatches every
// discovered PDF to one backend through a bounded worker pool, records
// exactly one result per file, and summarizes the run. A failed file
// never stops its siblings; only preflight errors (missing input,
// rejected credential, unwritable output) abort a run, and those fire
// before the first job.
package batch

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/pdfbench/internal/backend"
	"github.com/pdiddy/pdfbench/internal/scan"
	"github.com/pdiddy/pdfbench/internal/writer"
	"github.com/pdiddy/pdfbench/pkg/types"
)

// defaultWorkers applies when the config gives no count and the caller
// supplied no device-derived default.
const defaultWorkers = 4

// preflight validates a source PDF before dispatch. Declared as a var
// so tests can substitute fixtures for real PDFs.
var preflight = scan.Preflight

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Results   []types.Result
	StartedAt time.Time
	Elapsed   time.Duration
	Workers   int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AvgSeconds returns the mean per-file conversion time in seconds,
// counting only files that were actually converted or failed.
func (r BatchResult) AvgSeconds() float64 {
	var total time.Duration
	n := 0
	for _, res := range r.Results {
		if res.Status == types.StatusSkipped {
			continue
		}
		total += res.Elapsed
		n++
	}
	if n == 0 {
		return 0
	}
	return total.Seconds() / float64(n)
}

// Run converts every path through conv with cfg.Workers concurrent
// jobs, persists results through out, prints per-file status lines and
// a summary to w, and writes the run manifest. The worker count is a
// throughput knob only: the set of outputs is identical for any value.
func Run(ctx context.Context, conv backend.Converter, paths []string, out *writer.Writer, cfg *types.BatchConfig, w io.Writer) (BatchResult, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(paths) && len(paths) > 0 {
		workers = len(paths)
	}

	result := BatchResult{StartedAt: time.Now().UTC(), Workers: workers}

	jobs := make(chan string)
	results := make(chan types.Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- runJob(ctx, conv, out, cfg, path)
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		switch res.Status {
		case types.StatusConverted:
			result.Converted++
			extra := ""
			if res.Images > 0 {
				extra = fmt.Sprintf(", %d images", res.Images)
			}
			fmt.Fprintf(w, "(%d/%d) converted: %s (%.1fs%s)\n",
				done, len(paths), scan.Stem(res.SourcePath), res.Elapsed.Seconds(), extra)
		case types.StatusSkipped:
			result.Skipped++
			fmt.Fprintf(w, "(%d/%d) skipped: %s (already exists)\n",
				done, len(paths), scan.Stem(res.SourcePath))
		case types.StatusFailed:
			result.Failed++
			fmt.Fprintf(w, "(%d/%d) failed:  %s (%s)\n",
				done, len(paths), scan.Stem(res.SourcePath), res.ErrDetail)
		}
		result.Results = append(result.Results, res)
	}

	// Completion order is concurrency-dependent; key the record by
	// source path so reruns compare cleanly.
	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].SourcePath < result.Results[j].SourcePath
	})

	result.Elapsed = time.Since(result.StartedAt)

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	fmt.Fprintf(w, "Completed in %.1fs, average %.1fs per file\n",
		result.Elapsed.Seconds(), result.AvgSeconds())

	if err := out.WriteManifest(writer.Manifest{
		Backend:   conv.Name(),
		StartedAt: result.StartedAt,
		Elapsed:   result.Elapsed,
		Workers:   workers,
		Converted: result.Converted,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Results:   result.Results,
	}); err != nil {
		return result, fmt.Errorf("writing run manifest: %w", err)
	}

	return result, nil
}

// runJob converts a single file and never lets a fault escape: tool
// crashes, remote errors, and even adapter panics all land in a failed
// Result for this file alone.
func runJob(ctx context.Context, conv backend.Converter, out *writer.Writer, cfg *types.BatchConfig, path string) (res types.Result) {
	res = types.Result{SourcePath: path, Backend: conv.Name()}

	if !cfg.Overwrite && out.HasResult(path) {
		res.Status = types.StatusSkipped
		return res
	}

	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			res.Status = types.StatusFailed
			res.ErrDetail = fmt.Sprintf("panic: %v", r)
		}
	}()

	pages, err := preflight(path)
	if err != nil {
		res.Status = types.StatusFailed
		res.ErrDetail = err.Error()
		return res
	}
	res.Pages = pages

	doc, err := conv.Convert(ctx, path)
	if err != nil {
		res.Status = types.StatusFailed
		res.ErrDetail = err.Error()
		return res
	}
	if doc.Pages > 0 {
		res.Pages = doc.Pages
	}

	if err := out.Write(path, doc); err != nil {
		res.Status = types.StatusFailed
		res.ErrDetail = err.Error()
		return res
	}

	stats := backend.MarkdownStats(doc.Markdown)
	res.Status = types.StatusConverted
	res.Images = len(doc.Images)
	res.Headings = stats.Headings
	return res
}
