package mux

import (
	"context"
	"fmt"

	"qtranscode/internal/media"
	"qtranscode/internal/services"
)

// MP4Job describes an MP4Box invocation. The ISO container carries only
// chapters and per-track language/pixel-aspect metadata; attachments and
// subtitles are unconditionally unsupported.
type MP4Job struct {
	OutputPath   string
	ChaptersPath string

	VideoPath   string
	VideoLang   string
	PixelAspect media.Rational

	AudioPath string
	AudioLang string
}

// MP4 assembles the output with MP4Box.
func (c *Client) MP4(ctx context.Context, job MP4Job) error {
	var args []string
	if job.ChaptersPath != "" {
		args = append(args, "-chap", job.ChaptersPath)
	}

	video := job.VideoPath
	if job.VideoLang != "" {
		video += ":lang=" + job.VideoLang
	}
	if !job.PixelAspect.IsZero() {
		video += fmt.Sprintf(":par=%d:%d", job.PixelAspect.Num, job.PixelAspect.Den)
	}
	args = append(args, "-add", video)

	audio := job.AudioPath
	if job.AudioLang != "" {
		audio += ":lang=" + job.AudioLang
	}
	args = append(args, "-add", audio)

	args = append(args, "-new", job.OutputPath)

	if _, err := c.exec.Run(ctx, "MP4Box", args); err != nil {
		return services.Wrap(services.ErrMux, "mux", "MP4Box", "multiplexer failed", err)
	}
	return nil
}
