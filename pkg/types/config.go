// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Backend identifies a PDF conversion backend.
type Backend string

const (
	BackendMarker     Backend = "marker"
	BackendDocling    Backend = "docling"
	BackendLlamaParse Backend = "llamaparse"
)

// Device identifies the accelerator available to the local backends.
type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceMPS  Device = "mps"
	DeviceCPU  Device = "cpu"
)

// HTTPConfig holds shared HTTP settings for the remote backend.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pdfbench/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BatchConfig holds the settings for one batch conversion run. It is
// constructed once at process start and passed by reference into the
// driver and adapters; adapter logic never reads ambient global state.
type BatchConfig struct {
	// InputDir is the directory scanned for source PDFs (default "pdf_source").
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is the base directory for results (default
	// "conversion_results"); each backend writes under its own subdirectory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Workers bounds concurrent conversions. Zero means the backend
	// default: 2 on cuda/mps, 4 on cpu, 4 for the cloud backend.
	// Lowering it trades throughput for accelerator memory headroom.
	Workers int `json:"workers" yaml:"workers"`

	// Overwrite replaces existing results instead of skipping them.
	// The default policy is skip: a source file whose Markdown output
	// already exists is not reconverted.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
}

// LlamaParseConfig holds settings for the LlamaParse cloud backend.
type LlamaParseConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the LlamaParse API. Loaded from the
	// .secrets/ directory or the LLAMA_CLOUD_API_KEY environment
	// variable at startup; the run aborts before any upload if absent.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Language is the parsing language hint (default "en").
	Language string `json:"language" yaml:"language"`

	// Text also fetches the plain-text rendition of each document
	// alongside the Markdown (default true).
	Text bool `json:"text" yaml:"text"`

	// JobTimeout bounds a single upload-poll-fetch cycle (default 5m).
	// A timed-out job fails on its own; in-flight siblings continue.
	JobTimeout time.Duration `json:"job_timeout" yaml:"job_timeout"`

	// PollInterval is the delay between job status checks (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// DefaultWorkers returns the worker count for a device class, matching
// the conservative accelerator-memory defaults of the original harness.
func DefaultWorkers(d Device) int {
	switch d {
	case DeviceCUDA, DeviceMPS:
		return 2
	default:
		return 4
	}
}
