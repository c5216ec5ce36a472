// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/pdfbench/internal/httputil"
	"github.com/pdiddy/pdfbench/pkg/types"
)

// llamaAPIBase is the LlamaParse API root. Declared as a var so tests
// can substitute an httptest server.
var llamaAPIBase = "https://api.cloud.llamaindex.ai"

const (
	llamaUploadPath = "/api/v1/parsing/upload"
	llamaJobPath    = "/api/v1/parsing/job/"
	llamaUsagePath  = "/api/v1/parsing/usage"

	// llamaParseMode is the balanced page-level mode, good for tables
	// and images without premium-tier cost.
	llamaParseMode = "parse_page_with_llm"
)

// LlamaParseConverter converts PDFs through the LlamaParse cloud API:
// multipart upload, job status polling, then markdown (and optionally
// text) result fetch. One Convert call is one in-flight job; the driver
// bounds how many run at once. A timed-out job fails alone without
// cancelling its siblings.
type LlamaParseConverter struct {
	client *http.Client
	cfg    types.LlamaParseConfig
	base   string
}

// NewLlamaParseConverter builds the cloud adapter. A missing API key is
// an authentication error here, before any network traffic.
func NewLlamaParseConverter(client *http.Client, cfg types.LlamaParseConfig) (*LlamaParseConverter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: LLAMA_CLOUD_API_KEY is not configured", types.ErrAuthentication)
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &LlamaParseConverter{client: client, cfg: cfg, base: llamaAPIBase}, nil
}

// Name returns the backend identifier.
func (l *LlamaParseConverter) Name() types.Backend { return types.BackendLlamaParse }

// Check verifies the API key with one cheap authenticated request so a
// rejected credential aborts the run before any file is uploaded.
func (l *LlamaParseConverter) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+llamaUsagePath, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	l.setHeaders(req)

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrRemote, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: LlamaParse rejected the API key (HTTP %d)", types.ErrAuthentication, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: LlamaParse API returned HTTP %d", types.ErrRemote, resp.StatusCode)
	}
	return nil
}

// Convert uploads pdfPath, polls the job to completion, and fetches the
// results. The whole cycle is bounded by the configured job timeout.
func (l *LlamaParseConverter) Convert(ctx context.Context, pdfPath string) (*types.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.JobTimeout)
	defer cancel()

	jobID, err := l.upload(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	if err := l.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}

	doc := &types.Document{}

	var md struct {
		Markdown    string `json:"markdown"`
		JobMetadata struct {
			JobPages int `json:"job_pages"`
		} `json:"job_metadata"`
	}
	if err := l.getJSON(ctx, llamaJobPath+jobID+"/result/markdown", &md); err != nil {
		return nil, err
	}
	doc.Markdown = md.Markdown
	doc.Pages = md.JobMetadata.JobPages

	if l.cfg.Text {
		var txt struct {
			Text string `json:"text"`
		}
		// The text rendition is a secondary output; losing it does not
		// fail a job that already has its Markdown.
		if err := l.getJSON(ctx, llamaJobPath+jobID+"/result/text", &txt); err == nil {
			if s := strings.TrimSpace(txt.Text); s != "" && s != "---" {
				doc.Text = txt.Text
			}
		}
	}

	if strings.TrimSpace(doc.Markdown) == "" {
		return nil, fmt.Errorf("LlamaParse produced empty output for %s", pdfPath)
	}
	return doc, nil
}

// upload sends the PDF as a multipart form and returns the job ID.
func (l *LlamaParseConverter) upload(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	for field, value := range map[string]string{
		"language":   l.cfg.Language,
		"parse_mode": llamaParseMode,
	} {
		if err := mw.WriteField(field, value); err != nil {
			return "", fmt.Errorf("building upload form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.base+llamaUploadPath, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	l.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: uploading %s: %v", types.ErrRemote, filepath.Base(pdfPath), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: upload of %s returned HTTP %d", types.ErrRemote, filepath.Base(pdfPath), resp.StatusCode)
	}

	var job struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("%w: parsing upload response: %v", types.ErrRemote, err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("%w: upload response carried no job id", types.ErrRemote)
	}
	return job.ID, nil
}

// waitForJob polls the job status until success, error, or timeout.
func (l *LlamaParseConverter) waitForJob(ctx context.Context, jobID string) error {
	for {
		var status struct {
			Status string `json:"status"`
		}
		if err := l.getJSON(ctx, llamaJobPath+jobID, &status); err != nil {
			return err
		}

		switch strings.ToUpper(status.Status) {
		case "SUCCESS", "COMPLETED":
			return nil
		case "ERROR", "CANCELLED":
			return fmt.Errorf("%w: job %s finished with status %s", types.ErrRemote, jobID, status.Status)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: job %s: %v", types.ErrRemote, jobID, ctx.Err())
		case <-time.After(l.cfg.PollInterval):
		}
	}
}

// getJSON fetches base+path and decodes the JSON response into out.
// HTTP 429 is retried with backoff before surfacing.
func (l *LlamaParseConverter) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	l.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, l.client, req, 0)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", types.ErrRemote, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned HTTP %d", types.ErrRemote, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: parsing response from %s: %v", types.ErrRemote, path, err)
	}
	return nil
}

func (l *LlamaParseConverter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}
}
