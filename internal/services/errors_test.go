package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"subsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"extract", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Outcome
	}{
		{name: "nil", err: nil, want: services.OutcomeSucceeded},
		{name: "canceled", err: fmt.Errorf("sync: %w", context.Canceled), want: services.OutcomeCanceled},
		{name: "validation", err: services.Wrap(services.ErrValidation, "sync", "input", "missing subtitle", nil), want: services.OutcomeInvalidInput},
		{name: "tool", err: services.Wrap(services.ErrExternalTool, "segment", "whisperx", "", errors.New("exit 1")), want: services.OutcomeToolFailure},
		{name: "other", err: errors.New("disk full"), want: services.OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
