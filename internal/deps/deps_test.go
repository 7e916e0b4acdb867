package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command detail: %q", results[2].Detail)
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := CheckBinaries(SyncRequirements("ffmpeg", "ffprobe", "uvx"))
	if !results[0].Available || results[0].Command != stub {
		t.Fatalf("expected ffmpeg resolved to %s, got %#v", stub, results[0])
	}
	if results[1].Available || results[2].Available {
		t.Fatalf("expected ffprobe and uvx to be missing: %#v", results[1:])
	}
}

func TestMissingError(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: true},
		{Name: "Extra", Optional: true, Detail: "not found"},
		{Name: "uvx", Detail: `binary "uvx" not found`},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "uvx" {
		t.Fatalf("unexpected missing list: %#v", missing)
	}
	err := MissingError(statuses)
	if err == nil || !strings.Contains(err.Error(), "uvx") {
		t.Fatalf("unexpected error: %v", err)
	}
	if MissingError(statuses[:2]) != nil {
		t.Fatal("expected nil error when only optional deps are missing")
	}
}
