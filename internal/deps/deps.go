// Package deps verifies the external tools the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists every tool a full-featured installation uses. Tools
// marked optional are only needed for specific codecs, containers, or
// source types.
func Requirements() []Requirement {
	return []Requirement{
		{Name: "MPlayer", Command: "mplayer", Description: "source probing and audio decoding"},
		{Name: "MEncoder", Command: "mencoder", Description: "video decoding and filtering"},
		{Name: "mkvmerge", Command: "mkvmerge", Description: "Matroska and WebM multiplexing"},
		{Name: "mkvextract", Command: "mkvextract", Description: "Matroska track and chapter extraction", Optional: true},
		{Name: "dvdxchap", Command: "dvdxchap", Description: "DVD chapter listing", Optional: true},
		{Name: "MP4Box", Command: "MP4Box", Description: "MP4 multiplexing", Optional: true},
		{Name: "FLAC", Command: "flac", Description: "FLAC audio encoding", Optional: true},
		{Name: "LAME", Command: "lame", Description: "MP3 audio encoding", Optional: true},
		{Name: "opusenc", Command: "opusenc", Description: "Opus audio encoding", Optional: true},
		{Name: "oggenc", Command: "oggenc", Description: "Vorbis audio encoding", Optional: true},
		{Name: "SVT-AV1", Command: "SvtAv1EncApp", Description: "AV1 video encoding", Optional: true},
		{Name: "x264", Command: "x264", Description: "H.264 video encoding", Optional: true},
		{Name: "vpxenc", Command: "vpxenc", Description: "VP8 and VP9 video encoding", Optional: true},
	}
}

// AACEncoders lists the AAC encoder candidates in preference order. Any
// one of them satisfies the aac codec.
func AACEncoders() []Requirement {
	return []Requirement{
		{Name: "fdkaac", Command: "fdkaac", Description: "AAC audio encoding (preferred)"},
		{Name: "Nero AAC", Command: "neroAacEnc", Description: "AAC audio encoding"},
		{Name: "FAAC", Command: "faac", Description: "AAC audio encoding"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckAAC reports the AAC encoder group as a single status. The group is
// available when at least one candidate resolves; Detail names the winner
// or summarizes what was tried.
func CheckAAC() Status {
	candidates := AACEncoders()
	names := make([]string, 0, len(candidates))
	for _, req := range candidates {
		names = append(names, req.Command)
		if _, err := exec.LookPath(req.Command); err == nil {
			return Status{
				Name:        "AAC encoder",
				Command:     req.Command,
				Description: req.Description,
				Optional:    true,
				Available:   true,
				Detail:      fmt.Sprintf("using %s", req.Command),
			}
		}
	}
	return Status{
		Name:        "AAC encoder",
		Command:     strings.Join(names, "|"),
		Description: "AAC audio encoding",
		Optional:    true,
		Detail:      fmt.Sprintf("none of %s found", strings.Join(names, ", ")),
	}
}
