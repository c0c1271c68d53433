// Package services defines the error taxonomy shared by every stage of the
// transcoding pipeline. Stages tag failures with a sentinel marker so the CLI
// can classify them without string matching.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProbe marks prober output that could not be parsed into the
	// required fields, or a prober that could not be invoked at all.
	ErrProbe = errors.New("probe error")
	// ErrChapterNotFound marks a requested start chapter missing from the
	// source's chapter text.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrInvalidParameter marks mutually exclusive options both set, or a
	// structurally required option missing.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrTranscode marks a decode or encode process exiting non-zero.
	ErrTranscode = errors.New("transcode error")
	// ErrMux marks a multiplexer process exiting non-zero.
	ErrMux = errors.New("mux error")
	// ErrUnsupportedFeature marks chapters, attachments, or subtitles
	// requested on a container that cannot carry them. Non-fatal: the
	// orchestrator downgrades it to a skip with a warning.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTranscode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err should abort the run. Everything in the taxonomy
// is fatal except the unsupported-feature marker.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnsupportedFeature)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
