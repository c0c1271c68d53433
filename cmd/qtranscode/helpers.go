package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qtranscode/internal/chapters"
	"qtranscode/internal/config"
	"qtranscode/internal/encode"
	"qtranscode/internal/media"
	"qtranscode/internal/mux"
	"qtranscode/internal/pipeline"
	"qtranscode/internal/probe"
)

// transcodeFlags collects the root command's flag values. Quality, bitrate,
// and track selections distinguish "unset" from zero via Changed checks, so
// the raw values live here until buildOptions resolves them.
type transcodeFlags struct {
	output    string
	container string

	dvdDevice    string
	blurayDevice string
	discTitle    int

	size string
	rate string

	audioCodec   string
	audioQuality float64
	audioBitrate int
	videoCodec   string
	videoQuality float64
	videoBitrate int
	encoderSpeed int
	twoPass      bool

	title        string
	videoLang    string
	audioLang    string
	subtitleLang string

	chapterStart int
	chapterEnd   int

	denoise     bool
	postprocess bool
	deinterlace bool
	ivtc        bool
	crop        string
	scale       string
	hardsub     bool

	displayAspect string
	pixelAspect   string
	displaySize   string

	audioTrack    int
	subtitleTrack int

	noChapters    bool
	noSubtitles   bool
	noAttachments bool
	noNice        bool
}

func (f *transcodeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()

	fl.StringVarP(&f.output, "output", "o", "", "Output file path (required)")
	fl.StringVarP(&f.container, "container", "U", "", "Output container: mkv, webm, or mp4 (default: from output suffix)")

	fl.StringVar(&f.dvdDevice, "dvd", "", "Read from a DVD device or directory")
	fl.StringVar(&f.blurayDevice, "bluray", "", "Read from a Blu-ray device or directory")
	fl.IntVarP(&f.discTitle, "disc-title", "T", 1, "Disc title number")

	fl.StringVarP(&f.size, "size", "Z", "", "Source picture size WxH (required for Blu-ray)")
	fl.StringVarP(&f.rate, "rate", "R", "", "Source frame rate N/D (required for Blu-ray)")

	fl.StringVarP(&f.audioCodec, "audio-codec", "a", "", "Audio codec: aac, flac, mp3, opus, vorbis, or copy")
	fl.Float64VarP(&f.audioQuality, "audio-quality", "q", 0, "Audio quality 0-10")
	fl.IntVarP(&f.audioBitrate, "audio-bitrate", "b", 0, "Audio bitrate in kbit/s")
	fl.StringVarP(&f.videoCodec, "video-codec", "v", "", "Video codec: av1, h264, vp9, or vp8")
	fl.Float64VarP(&f.videoQuality, "video-quality", "Q", 0, "Video quality 0-10")
	fl.IntVarP(&f.videoBitrate, "video-bitrate", "B", 0, "Video bitrate in kbit/s")
	fl.IntVarP(&f.encoderSpeed, "encoder-speed", "r", -1, "Encoder speed preset")
	fl.BoolVarP(&f.twoPass, "two-pass", "2", false, "Encode video in two passes")

	fl.StringVarP(&f.title, "title", "t", "", "Output title metadata")
	fl.StringVarP(&f.videoLang, "video-language", "V", "", "Video track language tag")
	fl.StringVarP(&f.audioLang, "audio-language", "A", "", "Audio track language tag")
	fl.StringVarP(&f.subtitleLang, "subtitles-language", "S", "", "Subtitle track language tag")

	fl.IntVarP(&f.chapterStart, "chapter-start", "C", 0, "First chapter to convert")
	fl.IntVarP(&f.chapterEnd, "chapter-end", "E", 0, "Last chapter to convert")

	fl.BoolVarP(&f.denoise, "denoise", "n", false, "Denoise the picture")
	fl.BoolVarP(&f.postprocess, "postprocess", "p", false, "Deblock and dering the picture")
	fl.BoolVarP(&f.deinterlace, "deinterlace", "d", false, "Deinterlace the picture")
	fl.BoolVarP(&f.ivtc, "ivtc", "i", false, "Inverse-telecine the picture")
	fl.StringVarP(&f.crop, "crop", "k", "", "Crop window W:H:X:Y")
	fl.StringVarP(&f.scale, "scale", "s", "", "Scale the picture to WxH")
	fl.BoolVarP(&f.hardsub, "hardsub", "H", false, "Burn the selected subtitle track into the picture")

	fl.StringVarP(&f.displayAspect, "display-aspect", "y", "", "Display aspect ratio N:D")
	fl.StringVarP(&f.pixelAspect, "pixel-aspect", "x", "", "Pixel aspect ratio N:D")
	fl.StringVarP(&f.displaySize, "display-size", "z", "", "Display dimensions WxH")

	fl.IntVarP(&f.audioTrack, "audio-track", "M", 0, "Source audio track id")
	fl.IntVarP(&f.subtitleTrack, "subtitle-track", "N", 0, "Source subtitle track id")

	fl.BoolVar(&f.noChapters, "no-chapters", false, "Do not carry chapters into the output")
	fl.BoolVar(&f.noSubtitles, "no-subtitles", false, "Do not carry subtitles into the output")
	fl.BoolVar(&f.noAttachments, "no-attachments", false, "Do not carry attachments into the output")
	fl.BoolVar(&f.noNice, "no-nice", false, "Do not lower the process priority")

	cmd.MarkFlagsMutuallyExclusive("dvd", "bluray")
	cmd.MarkFlagsMutuallyExclusive("display-aspect", "pixel-aspect", "display-size")
}

func (f *transcodeFlags) discSelected() bool {
	return f.dvdDevice != "" || f.blurayDevice != ""
}

// buildOptions resolves flag values into a pipeline run description. Codec
// and speed defaults come from configuration when the flags are omitted.
func (f *transcodeFlags) buildOptions(cmd *cobra.Command, input string, cfg *config.Config) (pipeline.Options, error) {
	var opts pipeline.Options

	src, err := f.buildSource(cmd, input)
	if err != nil {
		return opts, err
	}
	opts.Source = src

	if strings.TrimSpace(f.output) == "" {
		return opts, fmt.Errorf("an output path is required (-o)")
	}
	opts.Output = f.output

	containerName := f.container
	if containerName == "" {
		containerName = filepath.Ext(f.output)
	}
	opts.Container, err = mux.ParseContainer(containerName)
	if err != nil {
		return opts, err
	}

	opts.AudioCodec = pickDefault(f.audioCodec, cfg.Defaults.AudioCodec)
	opts.VideoCodec = pickDefault(f.videoCodec, cfg.Defaults.VideoCodec)
	opts.Speed = cfg.Defaults.EncoderSpeed
	if f.encoderSpeed >= 0 {
		opts.Speed = f.encoderSpeed
	}
	opts.TwoPass = f.twoPass

	if cmd.Flags().Changed("audio-quality") {
		opts.AudioRate.Quality = encode.QualityValue(f.audioQuality)
	}
	if cmd.Flags().Changed("audio-bitrate") {
		opts.AudioRate.Bitrate = encode.BitrateValue(f.audioBitrate)
	}
	if cmd.Flags().Changed("video-quality") {
		opts.VideoRate.Quality = encode.QualityValue(f.videoQuality)
	}
	if cmd.Flags().Changed("video-bitrate") {
		opts.VideoRate.Bitrate = encode.BitrateValue(f.videoBitrate)
	}

	opts.Title = f.title
	opts.VideoLang = f.videoLang
	opts.AudioLang = f.audioLang
	opts.SubtitleLang = f.subtitleLang

	opts.Decode.Denoise = f.denoise
	opts.Decode.PostProcess = f.postprocess
	opts.Decode.Deinterlace = f.deinterlace
	opts.Decode.IVTC = f.ivtc
	opts.Decode.Hardsub = f.hardsub

	if f.crop != "" {
		if opts.Decode.Crop, err = media.ParseCrop(f.crop); err != nil {
			return opts, err
		}
	}
	if f.scale != "" {
		if opts.Decode.Scale, err = media.ParseDimensions(f.scale); err != nil {
			return opts, err
		}
	}
	if f.size != "" {
		if opts.ForceSize, err = media.ParseDimensions(f.size); err != nil {
			return opts, err
		}
	}
	if f.rate != "" {
		if opts.ForceRate, err = media.ParseRatio(f.rate); err != nil {
			return opts, err
		}
		opts.Decode.ForceRate = opts.ForceRate
	}

	if f.displayAspect != "" {
		if opts.DisplayAspect, err = media.ParseRatio(f.displayAspect); err != nil {
			return opts, err
		}
	}
	if f.pixelAspect != "" {
		if opts.PixelAspect, err = media.ParseRatio(f.pixelAspect); err != nil {
			return opts, err
		}
	}
	if f.displaySize != "" {
		if opts.DisplaySize, err = media.ParseDimensions(f.displaySize); err != nil {
			return opts, err
		}
	}

	opts.NoChapters = f.noChapters
	opts.NoSubtitles = f.noSubtitles
	opts.NoAttachments = f.noAttachments
	opts.NoNice = f.noNice

	return opts, nil
}

// buildSource resolves the input positional and disc flags into a source
// locator. Hardsub without an explicit subtitle track burns track 0.
func (f *transcodeFlags) buildSource(cmd *cobra.Command, input string) (probe.Source, error) {
	var src probe.Source

	switch {
	case f.dvdDevice != "":
		if input != "" {
			return src, fmt.Errorf("cannot combine an input file with --dvd")
		}
		src.Path = f.dvdDevice
		src.Disc = probe.DiscDVD
		src.DiscTitle = f.discTitle
	case f.blurayDevice != "":
		if input != "" {
			return src, fmt.Errorf("cannot combine an input file with --bluray")
		}
		src.Path = f.blurayDevice
		src.Disc = probe.DiscBluRay
		src.DiscTitle = f.discTitle
	default:
		if input == "" {
			return src, fmt.Errorf("an input file, --dvd, or --bluray is required")
		}
		src.Path = input
	}

	if cmd.Flags().Changed("audio-track") {
		track := f.audioTrack
		src.AudioTrack = &track
	}
	if cmd.Flags().Changed("subtitle-track") {
		track := f.subtitleTrack
		src.SubtitleTrack = &track
	} else if f.hardsub {
		track := 0
		src.SubtitleTrack = &track
	}

	src.Chapters = chapters.Range{Start: f.chapterStart, End: f.chapterEnd}
	return src, nil
}

func pickDefault(value, fallback string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value != "" {
		return value
	}
	return strings.TrimSpace(strings.ToLower(fallback))
}
