package probe

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"qtranscode/internal/chapters"
)

// DiscType identifies how the source locator should be opened.
type DiscType string

const (
	DiscNone   DiscType = ""
	DiscDVD    DiscType = "dvd"
	DiscBluRay DiscType = "bluray"
)

// Source locates the input: a plain file, or a DVD/Blu-ray structure plus a
// title number. Track selections use pointers because 0 is a valid id.
type Source struct {
	Path          string
	Disc          DiscType
	DiscTitle     int
	AudioTrack    *int
	SubtitleTrack *int
	Chapters      chapters.Range
}

// IsMatroska reports whether the source file is a Matroska container.
func (s Source) IsMatroska() bool {
	return strings.EqualFold(filepath.Ext(s.Path), ".mkv")
}

// baseArgs are the mplayer/mencoder input arguments shared by every
// invocation against this source, without the chapter selection. Probing must
// not restrict to the chapter range; everything downstream must.
func (s Source) baseArgs() []string {
	var args []string
	if s.AudioTrack != nil {
		args = append(args, "-aid", strconv.Itoa(*s.AudioTrack))
	}
	if s.SubtitleTrack != nil {
		args = append(args, "-sid", strconv.Itoa(*s.SubtitleTrack))
	}
	switch s.Disc {
	case DiscDVD:
		args = append(args, "-dvd-device", s.Path, "dvd://"+strconv.Itoa(s.DiscTitle))
	case DiscBluRay:
		args = append(args, "-bluray-device", s.Path, "bluray://"+strconv.Itoa(s.DiscTitle))
	default:
		args = append(args, s.Path)
	}
	return args
}

// InputArgs returns the full mplayer/mencoder input arguments, including the
// chapter range when one is set.
func (s Source) InputArgs() []string {
	args := s.baseArgs()
	switch {
	case s.Chapters.Start != 0 && s.Chapters.End != 0:
		args = append(args, "-chapter", fmt.Sprintf("%d-%d", s.Chapters.Start, s.Chapters.End))
	case s.Chapters.Start != 0:
		args = append(args, "-chapter", strconv.Itoa(s.Chapters.Start))
	case s.Chapters.End != 0:
		args = append(args, "-chapter", "-"+strconv.Itoa(s.Chapters.End))
	}
	return args
}
