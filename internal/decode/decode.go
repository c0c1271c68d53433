// Package decode derives the external decode command for a source: the
// ordered mencoder video filter chain and the raw audio decode invocation.
package decode

import (
	"strconv"
	"strings"

	"qtranscode/internal/media"
	"qtranscode/internal/probe"
	"qtranscode/internal/transcode"
)

// Options are the picture-processing switches for the video decode.
type Options struct {
	Denoise     bool
	PostProcess bool
	Deinterlace bool
	IVTC        bool
	Hardsub     bool
	Crop        media.CropRect
	Scale       media.Dimensions
	ForceRate   media.Rational
}

// telecineRate is the progressive film rate the inverse-telecine filter
// reconstructs; it overrides any explicitly forced rate.
var telecineRate = media.NewRational(24000, 1001)

// VideoCommand builds the mencoder invocation that decodes the source to a
// raw i420 byte stream on stdout. Filter order is fixed: format →
// telecine/deinterlace → crop → scale → post-process → denoise → harddup;
// reordering changes mencoder's semantics.
func VideoCommand(src probe.Source, opts Options) transcode.Command {
	stages := []string{"format=i420"}

	var forcedRate media.Rational
	if opts.IVTC {
		if opts.Crop.IsZero() {
			stages = append(stages, "filmdint=fast=0")
		} else {
			// Cropping folds into the telecine filter's own crop parameter;
			// a standalone crop stage would run on still-interlaced fields.
			stages = append(stages, "filmdint=fast=0/crop="+opts.Crop.FilterValue())
		}
		forcedRate = telecineRate
	} else if !opts.ForceRate.IsZero() {
		forcedRate = opts.ForceRate
	}
	if opts.Deinterlace {
		stages = append(stages, "yadif=1")
	}
	if !opts.Crop.IsZero() && !opts.IVTC {
		stages = append(stages, "crop="+opts.Crop.FilterValue())
	}
	if !opts.Scale.IsZero() {
		stages = append(stages, "scale="+strconv.Itoa(opts.Scale.Width)+":"+strconv.Itoa(opts.Scale.Height))
	}
	if opts.PostProcess {
		stages = append(stages, "pp=ha/va/dr")
	}
	if opts.Denoise {
		stages = append(stages, "hqdn3d")
	}
	// Frame duplication to a constant cadence is always last so the encoder
	// sees a fixed-rate stream regardless of upstream variable-rate filters.
	stages = append(stages, "harddup")

	args := []string{"-quiet", "-really-quiet", "-sws", "9", "-vf", strings.Join(stages, ",")}
	if !forcedRate.IsZero() {
		args = append(args, "-ofps", forcedRate.String())
	}
	args = append(args, "-ovc", "raw", "-of", "rawvideo", "-o", "-")
	args = append(args, src.InputArgs()...)
	args = append(args, "-nosound")
	if opts.Hardsub {
		args = append(args, "-ass")
	} else {
		args = append(args, "-nosub")
	}

	return transcode.Command{Binary: "mencoder", Args: args}
}

// AudioCommand builds the invocation that decodes the selected audio track to
// stdout. Matroska FLAC sources bypass mplayer entirely when no chapter range
// is set: mkvextract hands over the FLAC stream byte-exact.
func AudioCommand(desc *probe.Descriptor) transcode.Command {
	src := desc.Source
	if desc.IsMatroska && src.Chapters.IsZero() && desc.AudioCodec == "ffflac" && desc.MatroskaAudioTrack >= 0 {
		return transcode.Command{
			Binary: "mkvextract",
			Args: []string{
				"--redirect-output", "/dev/stderr",
				"tracks", src.Path,
				strconv.Itoa(desc.MatroskaAudioTrack) + ":/dev/stdout",
			},
		}
	}

	args := []string{
		"-quiet", "-really-quiet", "-nocorrect-pts",
		"-vc", "null", "-vo", "null",
		"-channels", strconv.Itoa(desc.AudioChannels),
		"-ao", "pcm:fast:waveheader:file=/dev/stdout",
	}
	args = append(args, src.InputArgs()...)
	return transcode.Command{Binary: "mplayer", Args: args}
}
