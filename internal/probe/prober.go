// Package probe runs the external identification tools against a source and
// produces a normalized structural description of its streams.
package probe

import (
	"context"
	"os/exec"

	"qtranscode/internal/media"
	"qtranscode/internal/services"
)

// Descriptor is the normalized description of a probed source. It is built
// once per run and immutable afterward.
type Descriptor struct {
	Source Source

	VideoCodec string
	Dimensions media.Dimensions
	FrameRate  media.Rational

	AudioCodec      string
	AudioSampleRate int
	AudioChannels   int

	HasChapters     bool
	HasSubtitles    bool
	AttachmentCount int
	IsMatroska      bool

	// Matroska track ids discovered by the mkvmerge identify pass;
	// -1 when absent.
	MatroskaAudioTrack    int
	MatroskaSubtitleTrack int
}

// Executor abstracts command execution for the prober. Run returns the
// combined output of the process.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Prober identifies sources by scraping mplayer and mkvmerge output.
type Prober struct {
	exec Executor
}

// New constructs a Prober using real command execution.
func New() *Prober {
	return NewWithExecutor(nil)
}

// NewWithExecutor allows injecting a custom executor for testing.
func NewWithExecutor(exec Executor) *Prober {
	if exec == nil {
		exec = commandExecutor{}
	}
	return &Prober{exec: exec}
}

// mplayerProbeArgs decode one frame with null outputs so mplayer prints its
// identification banner and exits.
var mplayerProbeArgs = []string{"-nocorrect-pts", "-vc", ",", "-vo", "null", "-ac", "ffmp3,", "-ao", "null", "-endpos", "1"}

// Probe identifies the source. For Blu-ray sources video geometry and frame
// rate are never probed; the caller must supply them out of band. Matroska
// sources get a secondary mkvmerge identify pass for container-level facts.
func (p *Prober) Probe(ctx context.Context, src Source) (*Descriptor, error) {
	args := append(append([]string{}, mplayerProbeArgs...), src.baseArgs()...)
	output, err := p.exec.Run(ctx, "mplayer", args)
	if err != nil {
		return nil, services.Wrap(services.ErrProbe, "probe", "mplayer", "identification run failed", err)
	}

	desc, err := parseIdentify(string(output), src)
	if err != nil {
		return nil, err
	}

	switch {
	case src.Disc == DiscDVD:
		desc.HasChapters = true
		desc.HasSubtitles = dvdSubtitleRe.Match(output)
	case desc.IsMatroska:
		identify, err := p.exec.Run(ctx, "mkvmerge", []string{"--identify", src.Path})
		if err != nil {
			return nil, services.Wrap(services.ErrProbe, "probe", "mkvmerge", "identify run failed", err)
		}
		parseMatroskaIdentify(string(identify), desc)
	}

	return desc, nil
}
