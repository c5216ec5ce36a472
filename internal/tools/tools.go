// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools detects and executes the external conversion CLIs the
// local backends delegate to. Each conversion runs as its own OS
// process, so worker parallelism in the driver is true process
// parallelism with no shared mutable state between conversions.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pdiddy/pdfbench/pkg/types"
)

// Executor abstracts command execution so backends can be tested with
// fakes instead of real CLIs.
type Executor interface {
	// LookPath reports where the named binary lives, or an error when
	// it is not on PATH.
	LookPath(file string) (string, error)

	// Run executes name with args in workDir, appending extraEnv to the
	// inherited environment. Stderr is captured and woven into the
	// returned error so a crashed tool explains itself.
	Run(ctx context.Context, name string, args []string, workDir string, extraEnv []string) error
}

// osExecutor is the production Executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, workDir string, extraEnv []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), extraEnv...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 400 {
			detail = detail[len(detail)-400:]
		}
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// DefaultExecutor is the process-backed Executor used outside tests.
var DefaultExecutor Executor = osExecutor{}

// Tool is one external conversion CLI.
type Tool struct {
	bin  string
	exec Executor
}

// New returns a Tool for the named binary using exec, or DefaultExecutor
// when exec is nil.
func New(bin string, exec Executor) *Tool {
	if exec == nil {
		exec = DefaultExecutor
	}
	return &Tool{bin: bin, exec: exec}
}

// Name returns the tool's binary name.
func (t *Tool) Name() string { return t.bin }

// Check verifies the binary is on PATH. Called once at startup so a
// missing tool aborts before any job runs.
func (t *Tool) Check() error {
	if _, err := t.exec.LookPath(t.bin); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", t.bin, err)
	}
	return nil
}

// Run executes the tool once. workDir is a per-job scratch directory;
// the tool writes its outputs there and the caller collects them.
func (t *Tool) Run(ctx context.Context, args []string, workDir string, extraEnv []string) error {
	return t.exec.Run(ctx, t.bin, args, workDir, extraEnv)
}

// DetectDevice probes the host for an accelerator: cuda when nvidia-smi
// is on PATH, mps on Apple Silicon, cpu otherwise. The caller passes
// the result through to the tool; a cpu fallback only changes timing,
// never result shape.
func DetectDevice(exec Executor) types.Device {
	if exec == nil {
		exec = DefaultExecutor
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return types.DeviceCUDA
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return types.DeviceMPS
	}
	return types.DeviceCPU
}
