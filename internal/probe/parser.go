package probe

import (
	"regexp"
	"strconv"
	"strings"

	"qtranscode/internal/media"
	"qtranscode/internal/services"
)

var (
	videoLineRe      = regexp.MustCompile(`(?m)^VIDEO:  \[?(\w+)\]?  (\d+)x(\d+) .+ (\d+\.\d+) fps`)
	audioLineRe      = regexp.MustCompile(`(?m)^AUDIO: (\d+) Hz, (\d+) ch`)
	audioCodecLineRe = regexp.MustCompile(`(?m)^Selected audio codec: \[(\w+)\]`)
	dvdSubtitleRe    = regexp.MustCompile(`(?m)^number of subtitles on disk: [1-9]`)

	mkvChaptersMarker = "Chapters: "
	mkvAttachmentID   = "Attachment ID "
	mkvSubtitleRe     = regexp.MustCompile(`(?m)^Track ID (\d+): subtitles`)
	mkvAudioRe        = regexp.MustCompile(`(?m)^Track ID (\d+): audio \(`)
)

// parseIdentify turns mplayer's identification banner into a Descriptor.
// Every expected field has an explicit failure mode; a missing signature line
// is a ProbeError, never a blind index panic.
func parseIdentify(output string, src Source) (*Descriptor, error) {
	desc := &Descriptor{
		Source:                src,
		IsMatroska:            src.IsMatroska(),
		MatroskaAudioTrack:    -1,
		MatroskaSubtitleTrack: -1,
	}

	if src.Disc != DiscBluRay {
		m := videoLineRe.FindStringSubmatch(output)
		if m == nil {
			return nil, services.Wrap(services.ErrProbe, "probe", "identify", "missing VIDEO line in mplayer output", nil)
		}
		desc.VideoCodec = m[1]
		desc.Dimensions = media.Dimensions{Width: atoi(m[2]), Height: atoi(m[3])}
		rate, err := media.ParseFrameRate(m[4])
		if err != nil {
			return nil, services.Wrap(services.ErrProbe, "probe", "identify", "unusable frame rate in VIDEO line", err)
		}
		desc.FrameRate = rate
	}

	m := audioLineRe.FindStringSubmatch(output)
	if m == nil {
		return nil, services.Wrap(services.ErrProbe, "probe", "identify", "missing AUDIO line in mplayer output", nil)
	}
	desc.AudioSampleRate = atoi(m[1])
	desc.AudioChannels = atoi(m[2])

	m = audioCodecLineRe.FindStringSubmatch(output)
	if m == nil {
		return nil, services.Wrap(services.ErrProbe, "probe", "identify", "missing selected audio codec line in mplayer output", nil)
	}
	desc.AudioCodec = m[1]

	return desc, nil
}

// parseMatroskaIdentify scans mkvmerge --identify output for container-level
// facts: chapter presence, attachment count, and subtitle/audio track ids.
func parseMatroskaIdentify(output string, desc *Descriptor) {
	desc.HasChapters = strings.Contains(output, mkvChaptersMarker)
	desc.AttachmentCount = strings.Count(output, mkvAttachmentID)
	if m := mkvSubtitleRe.FindStringSubmatch(output); m != nil {
		desc.HasSubtitles = true
		desc.MatroskaSubtitleTrack = atoi(m[1])
	}
	if m := mkvAudioRe.FindStringSubmatch(output); m != nil {
		desc.MatroskaAudioTrack = atoi(m[1])
	}
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
