package encode

import (
	"os"
	"runtime"
	"strconv"

	"qtranscode/internal/media"
	"qtranscode/internal/transcode"
)

// AV1 builds the SvtAv1EncApp command reading raw i420 frames from stdin.
// Quality 0–10 maps inverted onto the 0–63 quantizer; pass 1 discards its
// bitstream and both passes share the stats file.
func AV1(outPath string, dims media.Dimensions, rate media.Rational, p Params) (transcode.Command, error) {
	if err := validatePass("av1", p); err != nil {
		return transcode.Command{}, err
	}
	if err := exclusiveRate("av1", p); err != nil {
		return transcode.Command{}, err
	}

	var qual []string
	switch {
	case p.Quality != nil:
		qual = []string{"--rc", "0", "--qp", strconv.Itoa(roundInt(63.0 - *p.Quality*6.3))}
	case p.Bitrate != nil:
		qual = []string{"--rc", "1", "--tbr", strconv.Itoa(*p.Bitrate)}
	}

	var passArgs []string
	switch p.Pass {
	case PassFirst:
		passArgs = []string{"-b", os.DevNull, "--irefresh-type", "2", "--pass", "1", "--stat-file", p.StatsPath}
	case PassSecond:
		passArgs = []string{"-b", outPath, "--irefresh-type", "2", "--pass", "2", "--stat-file", p.StatsPath}
	default:
		passArgs = []string{"-b", outPath}
	}

	args := []string{
		"-i", "stdin",
		"-w", strconv.Itoa(dims.Width),
		"-h", strconv.Itoa(dims.Height),
		"--fps-num", strconv.FormatInt(rate.Num, 10),
		"--fps-denom", strconv.FormatInt(rate.Den, 10),
		"--preset", strconv.Itoa(p.Speed),
	}
	args = append(args, qual...)
	args = append(args, passArgs...)
	return transcode.Command{Binary: "SvtAv1EncApp", Args: args}, nil
}

// H264 builds the x264 command reading raw i420 from stdin. The sample
// aspect ratio travels on the encoder flag line because the raw stream
// carries no such metadata.
func H264(outPath string, dims media.Dimensions, rate media.Rational, sar media.Rational, p Params) (transcode.Command, error) {
	if err := validatePass("h264", p); err != nil {
		return transcode.Command{}, err
	}
	if err := exclusiveRate("h264", p); err != nil {
		return transcode.Command{}, err
	}

	var qual []string
	switch {
	case p.Quality != nil:
		qual = []string{"--crf", strconv.Itoa(roundInt(51.0 - *p.Quality*5.1))}
	case p.Bitrate != nil:
		qual = []string{"--bitrate", strconv.Itoa(*p.Bitrate)}
	}

	var passArgs []string
	switch p.Pass {
	case PassFirst:
		passArgs = []string{"--pass", "1", "--stats", p.StatsPath, "--output", os.DevNull}
	case PassSecond:
		passArgs = []string{"--pass", "2", "--stats", p.StatsPath, "--output", outPath}
	default:
		passArgs = []string{"--output", outPath}
	}

	args := []string{
		"--profile", "high", "--level", "4.2", "--bluray-compat",
		"--muxer", "raw", "--demuxer", "raw", "--input-csp", "i420",
		"--input-res", dims.String(),
		"--sar", strconv.FormatInt(sar.Num, 10) + ":" + strconv.FormatInt(sar.Den, 10),
		"--fps", rate.String(),
		"-",
	}
	args = append(args, qual...)
	args = append(args, passArgs...)
	return transcode.Command{Binary: "x264", Args: args}, nil
}

// VP9 builds the vpxenc command for VP9. Quality and bitrate together select
// the constrained-quality end-usage; both values then appear as distinct
// flags.
func VP9(outPath string, dims media.Dimensions, rate media.Rational, p Params) (transcode.Command, error) {
	return vpx("vp9", outPath, dims, rate, p)
}

// VP8 is the VP8 variant of the vpxenc command.
func VP8(outPath string, dims media.Dimensions, rate media.Rational, p Params) (transcode.Command, error) {
	return vpx("vp8", outPath, dims, rate, p)
}

func vpx(codec, outPath string, dims media.Dimensions, rate media.Rational, p Params) (transcode.Command, error) {
	if err := validatePass(codec, p); err != nil {
		return transcode.Command{}, err
	}

	var qual []string
	switch {
	case p.Quality != nil && p.Bitrate != nil:
		qual = []string{"--end-usage=cq"}
	case p.Quality != nil:
		qual = []string{"--end-usage=q"}
	case p.Bitrate != nil:
		qual = []string{"--end-usage=vbr"}
	}
	if p.Quality != nil {
		qual = append(qual, "--cq-level="+strconv.Itoa(roundInt(63.0-*p.Quality*6.3)))
	}
	if p.Bitrate != nil {
		qual = append(qual, "--target-bitrate="+strconv.Itoa(*p.Bitrate))
	}

	var speed []string
	switch p.Speed {
	case 0:
		speed = []string{"--best"}
	case 1:
		speed = []string{"--good"}
	case 2:
		speed = []string{"--rt"}
	}

	var passArgs []string
	switch p.Pass {
	case PassFirst:
		passArgs = []string{"--output=" + os.DevNull, "--passes=2", "--pass=1", "--fpf=" + p.StatsPath, "--auto-alt-ref=1"}
	case PassSecond:
		passArgs = []string{"--output=" + outPath, "--passes=2", "--pass=2", "--fpf=" + p.StatsPath, "--auto-alt-ref=1"}
	default:
		passArgs = []string{"--output=" + outPath, "--passes=1"}
	}

	args := []string{"--codec=" + codec, "--threads=" + strconv.Itoa(runtime.NumCPU())}
	args = append(args, passArgs...)
	args = append(args,
		"--ivf",
		"--width="+strconv.Itoa(dims.Width),
		"--height="+strconv.Itoa(dims.Height),
		"--fps="+rate.String(),
	)
	args = append(args, qual...)
	args = append(args, speed...)
	args = append(args, "-")
	return transcode.Command{Binary: "vpxenc", Args: args}, nil
}
