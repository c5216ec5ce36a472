// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/pdiddy/pdfbench/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runErr        error
	ranName       string
	ranArgs       []string
	ranDir        string
	ranEnv        []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, workDir string, extraEnv []string) error {
	m.ranName = name
	m.ranArgs = args
	m.ranDir = workDir
	m.ranEnv = extraEnv
	return m.runErr
}

func TestToolCheck(t *testing.T) {
	exec := &mockExecutor{availableBins: map[string]bool{"docling": true}}

	if err := New("docling", exec).Check(); err != nil {
		t.Errorf("Check for available tool: %v", err)
	}
	if err := New("marker_single", exec).Check(); err == nil {
		t.Error("Check for missing tool should fail")
	}
}

func TestToolRun(t *testing.T) {
	exec := &mockExecutor{availableBins: map[string]bool{"marker_single": true}}
	tool := New("marker_single", exec)

	err := tool.Run(context.Background(), []string{"in.pdf", "--output_dir", "out"}, "/scratch", []string{"TORCH_DEVICE=cpu"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exec.ranName != "marker_single" {
		t.Errorf("ran %q, want marker_single", exec.ranName)
	}
	if exec.ranDir != "/scratch" {
		t.Errorf("workDir = %q, want /scratch", exec.ranDir)
	}
	if len(exec.ranEnv) != 1 || exec.ranEnv[0] != "TORCH_DEVICE=cpu" {
		t.Errorf("extraEnv = %v", exec.ranEnv)
	}
}

func TestToolRun_Failure(t *testing.T) {
	exec := &mockExecutor{runErr: errors.New("exit status 1")}
	tool := New("docling", exec)

	if err := tool.Run(context.Background(), nil, "", nil); err == nil {
		t.Error("expected error from failing tool")
	}
}

func TestDetectDevice(t *testing.T) {
	withCUDA := &mockExecutor{availableBins: map[string]bool{"nvidia-smi": true}}
	if got := DetectDevice(withCUDA); got != types.DeviceCUDA {
		t.Errorf("device = %q, want cuda", got)
	}

	noCUDA := &mockExecutor{availableBins: map[string]bool{}}
	got := DetectDevice(noCUDA)
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		if got != types.DeviceMPS {
			t.Errorf("device = %q, want mps", got)
		}
	} else if got != types.DeviceCPU {
		t.Errorf("device = %q, want cpu", got)
	}
}
