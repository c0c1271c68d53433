// Package mux decides which container-level features each output format can
// carry and invokes the external multiplexer that assembles the final file.
package mux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/text/language"

	"qtranscode/internal/services"
)

// Container identifies the output container format.
type Container string

const (
	Matroska Container = "mkv"
	WebM     Container = "webm"
	MP4      Container = "mp4"
)

// ParseContainer resolves a container name or output-file extension.
func ParseContainer(s string) (Container, error) {
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "."))) {
	case "mkv":
		return Matroska, nil
	case "webm":
		return WebM, nil
	case "mp4":
		return MP4, nil
	default:
		return "", services.Wrap(services.ErrInvalidParameter, "mux", "", fmt.Sprintf("unknown container %q", s), nil)
	}
}

// capability is the static feature table; nothing here is probed at runtime.
type capability struct {
	chapters    bool
	attachments bool
	subtitles   bool
}

var capabilities = map[Container]capability{
	Matroska: {chapters: true, attachments: true, subtitles: true},
	WebM:     {},
	MP4:      {chapters: true},
}

// SupportsChapters reports whether the container can carry a chapter list.
func SupportsChapters(c Container) bool { return capabilities[c].chapters }

// SupportsAttachments reports whether the container can carry attachments.
func SupportsAttachments(c Container) bool { return capabilities[c].attachments }

// SupportsSubtitles reports whether the container can carry a separate
// subtitle stream.
func SupportsSubtitles(c Container) bool { return capabilities[c].subtitles }

// ValidateLanguage checks a track language against BCP 47. An empty tag is
// fine: the track simply goes untagged.
func ValidateLanguage(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	if _, err := language.Parse(tag); err != nil {
		return services.Wrap(services.ErrInvalidParameter, "mux", "", fmt.Sprintf("language tag %q", tag), err)
	}
	return nil
}

// Executor abstracts multiplexer execution.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}

// Client invokes the container-appropriate multiplexer.
type Client struct {
	exec Executor
}

// New constructs a Client using real command execution.
func New() *Client {
	return NewWithExecutor(nil)
}

// NewWithExecutor allows injecting a custom executor for testing.
func NewWithExecutor(exec Executor) *Client {
	if exec == nil {
		exec = commandExecutor{}
	}
	return &Client{exec: exec}
}
