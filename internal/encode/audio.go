package encode

import (
	"os/exec"
	"strconv"

	"qtranscode/internal/services"
	"qtranscode/internal/transcode"
)

// lookPath is swapped out in tests to control AAC encoder discovery.
var lookPath = exec.LookPath

// AAC builds the AAC encode command, preferring whichever encoder is on PATH:
// fdkaac, then neroAacEnc, then faac. Each maps the 0–10 quality scale onto
// its own native range.
func AAC(outPath string, p Params) (transcode.Command, error) {
	if err := exclusiveRate("aac", p); err != nil {
		return transcode.Command{}, err
	}

	if _, err := lookPath("fdkaac"); err == nil {
		var qual []string
		switch {
		case p.Quality != nil:
			qual = []string{"-m", strconv.Itoa(roundInt(4.0/10.0**p.Quality + 1.0))}
		case p.Bitrate != nil:
			qual = []string{"-m", "0", "-b", strconv.Itoa(*p.Bitrate)}
		default:
			qual = []string{"-m", "4"}
		}
		args := append([]string{"--ignorelength"}, qual...)
		args = append(args, "-o", outPath, "-")
		return transcode.Command{Binary: "fdkaac", Args: args}, nil
	}

	if _, err := lookPath("neroAacEnc"); err == nil {
		var qual []string
		switch {
		case p.Quality != nil:
			qual = []string{"-q", strconv.Itoa(roundInt(*p.Quality / 10.0))}
		case p.Bitrate != nil:
			qual = []string{"-br", strconv.Itoa(*p.Bitrate)}
		}
		args := append([]string{"-ignorelength"}, qual...)
		args = append(args, "-if", "-", "-of", outPath)
		return transcode.Command{Binary: "neroAacEnc", Args: args}, nil
	}

	if _, err := lookPath("faac"); err == nil {
		var qual []string
		switch {
		case p.Quality != nil:
			qual = []string{"-q", strconv.Itoa(roundInt(499.0**p.Quality + 10.0))}
		case p.Bitrate != nil:
			qual = []string{"-b", strconv.Itoa(*p.Bitrate)}
		}
		args := append([]string{"--ignorelength"}, qual...)
		args = append(args, "-o", outPath, "-")
		return transcode.Command{Binary: "faac", Args: args}, nil
	}

	return transcode.Command{}, services.Wrap(services.ErrConfiguration, "encode", "aac", "no AAC encoder found on PATH", nil)
}

// FLAC builds the lossless FLAC encode command. It takes no rate parameters.
func FLAC(outPath string) transcode.Command {
	return transcode.Command{Binary: "flac", Args: []string{"--ignore-chunk-sizes", "-o", outPath, "-"}}
}

// MP3 builds the lame encode command. Lame's VBR scale is inverted: V0 is
// best, so quality 10 maps to V0.
func MP3(outPath string, p Params) (transcode.Command, error) {
	if err := exclusiveRate("mp3", p); err != nil {
		return transcode.Command{}, err
	}
	var qual []string
	switch {
	case p.Quality != nil:
		qual = []string{"-V", strconv.Itoa(roundInt(10.0 - *p.Quality))}
	case p.Bitrate != nil:
		qual = []string{"-b", strconv.Itoa(*p.Bitrate)}
	}
	args := append(qual, "-", outPath)
	return transcode.Command{Binary: "lame", Args: args}, nil
}

// Opus builds the opusenc command. Quality and bitrate together select
// constrained VBR; bitrate alone selects plain managed VBR; neither selects
// unconstrained VBR. There is no invalid combination.
func Opus(outPath string, p Params) transcode.Command {
	var qual []string
	switch {
	case p.Bitrate != nil && p.Quality != nil:
		qual = []string{"--vcbr", "--bitrate", strconv.Itoa(*p.Bitrate)}
	case p.Bitrate != nil:
		qual = []string{"--bitrate", strconv.Itoa(*p.Bitrate)}
	default:
		qual = []string{"--vbr"}
	}
	args := append([]string{"--ignorelength", "--discard-comments"}, qual...)
	args = append(args, "-", outPath)
	return transcode.Command{Binary: "opusenc", Args: args}
}

// Vorbis builds the oggenc command. Oggenc's -q scale is already 0–10.
func Vorbis(outPath string, p Params) (transcode.Command, error) {
	if err := exclusiveRate("vorbis", p); err != nil {
		return transcode.Command{}, err
	}
	var qual []string
	switch {
	case p.Quality != nil:
		qual = []string{"-q", strconv.FormatFloat(*p.Quality, 'g', -1, 64)}
	case p.Bitrate != nil:
		qual = []string{"-b", strconv.Itoa(*p.Bitrate)}
	}
	args := append([]string{"--ignorelength", "--discard-comments"}, qual...)
	args = append(args, "-o", outPath, "-")
	return transcode.Command{Binary: "oggenc", Args: args}, nil
}
