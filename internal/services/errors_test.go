package services_test

import (
	"errors"
	"strings"
	"testing"

	"qtranscode/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrTranscode, "video", "encode", "process failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"video", "encode", "process failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := services.Wrap(nil, "audio", "", "", nil)
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected transcode default marker, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	if services.Fatal(nil) {
		t.Fatal("nil must not be fatal")
	}
	skip := services.Wrap(services.ErrUnsupportedFeature, "chapters", "", "webm cannot carry chapters", nil)
	if services.Fatal(skip) {
		t.Fatalf("unsupported feature must be non-fatal: %v", skip)
	}
	abort := services.Wrap(services.ErrProbe, "probe", "identify", "missing VIDEO line", nil)
	if !services.Fatal(abort) {
		t.Fatalf("probe error must be fatal: %v", abort)
	}
}
