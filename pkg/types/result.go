// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"time"
)

// Fatal preflight errors. Any of these aborts a run before the first
// job is dispatched; per-file conversion errors are never fatal.
var (
	// ErrNotFound reports a missing input directory.
	ErrNotFound = errors.New("input directory not found")

	// ErrAuthentication reports a missing or rejected API credential.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRemote reports a transport or HTTP failure against the cloud
	// backend. Wrapped into per-job failures, never fatal to the batch.
	ErrRemote = errors.New("remote service error")

	// ErrWrite reports an unwritable output directory.
	ErrWrite = errors.New("output directory not writable")
)

// Status indicates the outcome of converting a single source file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Image is one extracted image artifact: a name relative to the
// document's output directory plus the raw bytes.
type Image struct {
	Name string
	Data []byte
}

// Document is what a backend adapter returns for one successfully
// parsed PDF. Text, Images and Metadata are optional; not every
// backend produces them.
type Document struct {
	// Markdown is the primary conversion output.
	Markdown string

	// Text is the plain-text rendition, when the backend provides one.
	Text string

	// Images are extracted image artifacts in backend order.
	Images []Image

	// Metadata is the backend's metadata blob, verbatim JSON.
	Metadata json.RawMessage

	// Pages is the source page count when known, else zero.
	Pages int
}

// Result records the outcome of one source file in a batch run.
// Exactly one Result exists per discovered input file.
type Result struct {
	// SourcePath is the input PDF path the result is keyed by.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Backend is the backend that produced the result.
	Backend Backend `json:"backend" yaml:"backend"`

	// Status is converted, skipped, or failed.
	Status Status `json:"status" yaml:"status"`

	// ErrDetail explains a failure; empty otherwise.
	ErrDetail string `json:"err_detail,omitempty" yaml:"err_detail,omitempty"`

	// Elapsed is the wall-clock conversion time for this file.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Images counts extracted image artifacts.
	Images int `json:"images,omitempty" yaml:"images,omitempty"`

	// Headings counts Markdown headings in the output, a cheap proxy
	// for structure extraction quality when comparing backends.
	Headings int `json:"headings,omitempty" yaml:"headings,omitempty"`

	// Pages is the source page count when known.
	Pages int `json:"pages,omitempty" yaml:"pages,omitempty"`
}
