// Package extract invokes the external tools that pull chapters,
// attachments, subtitles, and raw audio out of a source into the run's
// scratch directory.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"qtranscode/internal/probe"
	"qtranscode/internal/services"
)

// Executor abstracts command execution. dir is the working directory for the
// process; an empty dir inherits the caller's. Run returns stdout.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir
	return cmd.Output()
}

// Client wraps the extraction tool invocations.
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

// Chapters returns the source's raw chapter text: mkvextract for Matroska,
// dvdxchap for DVDs.
func (c *Client) Chapters(ctx context.Context, desc *probe.Descriptor) (string, error) {
	src := desc.Source
	switch {
	case desc.IsMatroska:
		out, err := c.exec.Run(ctx, "", "mkvextract", []string{"chapters", src.Path, "--simple"})
		if err != nil {
			return "", services.Wrap(services.ErrProbe, "chapters", "mkvextract", "chapter extraction failed", err)
		}
		return string(out), nil
	case src.Disc == probe.DiscDVD:
		out, err := c.exec.Run(ctx, "", "dvdxchap", []string{"--title", strconv.Itoa(src.DiscTitle), src.Path})
		if err != nil {
			return "", services.Wrap(services.ErrProbe, "chapters", "dvdxchap", "chapter extraction failed", err)
		}
		return string(out), nil
	default:
		return "", services.Wrap(services.ErrInvalidParameter, "chapters", "", "source has no chapters to extract", nil)
	}
}

// Attachments extracts every attachment into dir. mkvextract writes into its
// working directory, so the directory travels on the command instead of a
// process-global chdir.
func (c *Client) Attachments(ctx context.Context, desc *probe.Descriptor, dir string) error {
	if !desc.IsMatroska || desc.AttachmentCount == 0 {
		return services.Wrap(services.ErrInvalidParameter, "attachments", "", "source has no attachments to extract", nil)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create attachments directory: %w", err)
	}
	args := []string{"attachments", desc.Source.Path}
	for id := 1; id <= desc.AttachmentCount; id++ {
		args = append(args, strconv.Itoa(id))
	}
	if _, err := c.exec.Run(ctx, dir, "mkvextract", args); err != nil {
		return services.Wrap(services.ErrProbe, "attachments", "mkvextract", "attachment extraction failed", err)
	}
	return nil
}

// Subtitles extracts the selected subtitle track to path. DVD subtitles come
// out as a VobSub pair; the caller appends ".idx" when muxing those.
func (c *Client) Subtitles(ctx context.Context, desc *probe.Descriptor, path string) error {
	src := desc.Source
	switch {
	case desc.HasSubtitles && desc.IsMatroska:
		track := strconv.Itoa(desc.MatroskaSubtitleTrack)
		if _, err := c.exec.Run(ctx, "", "mkvextract", []string{"tracks", src.Path, track + ":" + path}); err != nil {
			return services.Wrap(services.ErrProbe, "subtitles", "mkvextract", "subtitle extraction failed", err)
		}
		return nil
	case desc.HasSubtitles && src.Disc == probe.DiscDVD:
		args := []string{"-ovc", "copy", "-o", os.DevNull, "-vobsubout", path}
		args = append(args, src.InputArgs()...)
		args = append(args, "-nosound")
		if _, err := c.exec.Run(ctx, "", "mencoder", args); err != nil {
			return services.Wrap(services.ErrProbe, "subtitles", "mencoder", "vobsub extraction failed", err)
		}
		return nil
	default:
		return services.Wrap(services.ErrInvalidParameter, "subtitles", "", "source has no subtitles to extract", nil)
	}
}

// Audio copies the source audio track to path without re-encoding. Chapter
// slicing cannot be honored here, so callers must reject ranges first.
func (c *Client) Audio(ctx context.Context, desc *probe.Descriptor, path string) error {
	src := desc.Source
	if desc.IsMatroska {
		if desc.MatroskaAudioTrack < 0 {
			return services.Wrap(services.ErrProbe, "audio", "mkvextract", "no audio track id in identify output", nil)
		}
		track := strconv.Itoa(desc.MatroskaAudioTrack)
		if _, err := c.exec.Run(ctx, "", "mkvextract", []string{"tracks", src.Path, track + ":" + path}); err != nil {
			return services.Wrap(services.ErrProbe, "audio", "mkvextract", "audio extraction failed", err)
		}
		return nil
	}
	args := []string{"-dumpaudio", "-dumpfile", path}
	args = append(args, src.InputArgs()...)
	if _, err := c.exec.Run(ctx, "", "mplayer", args); err != nil {
		return services.Wrap(services.ErrProbe, "audio", "mplayer", "audio dump failed", err)
	}
	return nil
}
