package mux

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"qtranscode/internal/media"
	"qtranscode/internal/services"
)

// MatroskaJob describes an mkvmerge invocation. It serves both the mkv and
// webm containers. The three display hints (DisplayAspect, PixelAspect,
// DisplaySize) are passed through as distinct mkvmerge flags without
// cross-validation; callers that supply contradictory combinations get
// mkvmerge's own last-writer behaviour.
type MatroskaJob struct {
	OutputPath     string
	Title          string
	ChaptersPath   string
	AttachmentsDir string

	VideoPath     string
	VideoLang     string
	DisplayAspect media.Rational
	PixelAspect   media.Rational
	DisplaySize   media.Dimensions

	AudioPath string
	AudioLang string

	SubtitlePath string
	SubtitleLang string
}

// Matroska assembles the output with mkvmerge. Attachments are globbed from
// the attachments directory in sorted order and attached individually.
func (c *Client) Matroska(ctx context.Context, job MatroskaJob) error {
	var args []string
	if job.Title != "" {
		args = append(args, "--title", job.Title)
	}
	if job.ChaptersPath != "" {
		args = append(args, "--chapters", job.ChaptersPath)
	}
	if job.AttachmentsDir != "" {
		files, err := filepath.Glob(filepath.Join(job.AttachmentsDir, "*"))
		if err != nil {
			return services.Wrap(services.ErrMux, "mux", "mkvmerge", "list attachments", err)
		}
		sort.Strings(files)
		for _, file := range files {
			args = append(args, "--attach-file", file)
		}
	}
	args = append(args, "--output", job.OutputPath)

	if job.VideoLang != "" {
		args = append(args, "--language", "0:"+job.VideoLang)
	}
	if !job.DisplayAspect.IsZero() {
		args = append(args, "--aspect-ratio", fmt.Sprintf("0:%d/%d", job.DisplayAspect.Num, job.DisplayAspect.Den))
	}
	if !job.PixelAspect.IsZero() {
		args = append(args, "--aspect-ratio-factor", fmt.Sprintf("0:%d/%d", job.PixelAspect.Num, job.PixelAspect.Den))
	}
	if !job.DisplaySize.IsZero() {
		args = append(args, "--display-dimensions", fmt.Sprintf("0:%dx%d", job.DisplaySize.Width, job.DisplaySize.Height))
	}
	args = append(args, job.VideoPath)

	if job.AudioLang != "" {
		args = append(args, "--language", "0:"+job.AudioLang)
	}
	args = append(args, job.AudioPath)

	if job.SubtitlePath != "" {
		if job.SubtitleLang != "" {
			args = append(args, "--language", "0:"+job.SubtitleLang)
		}
		args = append(args, job.SubtitlePath)
	}

	if _, err := c.exec.Run(ctx, "mkvmerge", args); err != nil {
		return services.Wrap(services.ErrMux, "mux", "mkvmerge", "multiplexer failed", err)
	}
	return nil
}
