// Package pipeline orchestrates a complete conversion run: probe the source,
// carve out chapters and sidecar tracks, stream the decode into the encoder
// for audio and video, and assemble the requested container.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"qtranscode/internal/chapters"
	"qtranscode/internal/config"
	"qtranscode/internal/decode"
	"qtranscode/internal/encode"
	"qtranscode/internal/extract"
	"qtranscode/internal/history"
	"qtranscode/internal/logging"
	"qtranscode/internal/media"
	"qtranscode/internal/mux"
	"qtranscode/internal/probe"
	"qtranscode/internal/services"
	"qtranscode/internal/transcode"
	"qtranscode/internal/workdir"
)

// Audio and video codec names accepted by the pipeline.
const (
	AudioAAC    = "aac"
	AudioFLAC   = "flac"
	AudioMP3    = "mp3"
	AudioOpus   = "opus"
	AudioVorbis = "vorbis"
	AudioCopy   = "copy"

	VideoAV1  = "av1"
	VideoH264 = "h264"
	VideoVP9  = "vp9"
	VideoVP8  = "vp8"
)

// audioArtifacts maps each audio codec to its scratch-dir artifact name. The
// copy codec keeps the source bytes, so its artifact has no extension.
var audioArtifacts = map[string]string{
	AudioAAC:    "audio.mp4",
	AudioFLAC:   "audio.flac",
	AudioMP3:    "audio.mp3",
	AudioOpus:   "audio.opus",
	AudioVorbis: "audio.ogg",
	AudioCopy:   "audio",
}

// Rate is a codec-neutral quality/bitrate selection.
type Rate struct {
	Quality *float64
	Bitrate *int
}

// Options describes one conversion run end to end.
type Options struct {
	Source    probe.Source
	Output    string
	Container mux.Container

	Title        string
	VideoLang    string
	AudioLang    string
	SubtitleLang string

	AudioCodec string
	AudioRate  Rate
	VideoCodec string
	VideoRate  Rate
	Speed      int
	TwoPass    bool

	Decode decode.Options

	// ForceSize and ForceRate supply geometry the prober cannot see; both are
	// mandatory for Blu-ray sources.
	ForceSize media.Dimensions
	ForceRate media.Rational

	// Display hints forwarded to the multiplexer.
	DisplayAspect media.Rational
	PixelAspect   media.Rational
	DisplaySize   media.Dimensions

	NoChapters    bool
	NoAttachments bool
	NoSubtitles   bool
	NoNice        bool
}

// setPriority is swapped out in tests; lowering priority must not make the
// suite depend on scheduler permissions.
var setPriority = func(niceness int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, niceness)
}

// Pipeline wires the per-stage clients together behind one Run call.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	prober    *probe.Prober
	extractor *extract.Client
	muxer     *mux.Client
	runner    transcode.Runner
	store     *history.Store
}

// Deps carries optional substitutes for the pipeline's collaborators; nil
// fields fall back to the real implementations.
type Deps struct {
	Prober    *probe.Prober
	Extractor *extract.Client
	Muxer     *mux.Client
	Runner    transcode.Runner
	Store     *history.Store
}

// New constructs a Pipeline with real process execution.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store) *Pipeline {
	return NewWithDeps(cfg, logger, Deps{Store: store})
}

// NewWithDeps constructs a Pipeline with injected collaborators for testing.
func NewWithDeps(cfg *config.Config, logger *slog.Logger, deps Deps) *Pipeline {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	p := &Pipeline{
		cfg:       cfg,
		logger:    logging.WithComponent(logger, "pipeline"),
		prober:    deps.Prober,
		extractor: deps.Extractor,
		muxer:     deps.Muxer,
		runner:    deps.Runner,
		store:     deps.Store,
	}
	if p.prober == nil {
		p.prober = probe.New()
	}
	if p.extractor == nil {
		p.extractor = extract.New()
	}
	if p.muxer == nil {
		p.muxer = mux.New()
	}
	if p.runner == nil {
		p.runner = transcode.PipeRunner{}
	}
	return p
}

// Run executes the conversion. The scratch directory is removed on every exit
// path and the history record, when enabled, is closed out with the outcome.
func (p *Pipeline) Run(ctx context.Context, opts Options) (err error) {
	if err := validate(opts); err != nil {
		return err
	}

	started := time.Now()
	logger := p.logger.With(logging.String(logging.FieldSource, opts.Source.Path))

	if !opts.NoNice {
		if niceErr := setPriority(p.cfg.Process.Niceness); niceErr != nil {
			logger.Warn("could not lower process priority", logging.Error(niceErr))
		}
	}

	if opts.Source.Disc != probe.DiscNone {
		unlock, lockErr := p.lockDisc(ctx, logger, opts.Source.Path)
		if lockErr != nil {
			return lockErr
		}
		defer unlock()
	}

	work, err := workdir.Create()
	if err != nil {
		return err
	}
	defer work.Remove()
	logger = logger.With(logging.String(logging.FieldRunID, work.RunID))

	if p.store != nil {
		recordID, beginErr := p.store.Begin(ctx, history.Record{
			RunID:      work.RunID,
			Source:     opts.Source.Path,
			DiscType:   string(opts.Source.Disc),
			Output:     opts.Output,
			Container:  string(opts.Container),
			AudioCodec: opts.AudioCodec,
			VideoCodec: opts.VideoCodec,
		})
		if beginErr != nil {
			logger.Warn("history disabled for this run", logging.Error(beginErr))
		} else {
			defer func() {
				if finishErr := p.store.Finish(context.WithoutCancel(ctx), recordID, err); finishErr != nil {
					logger.Warn("could not record run outcome", logging.Error(finishErr))
				}
			}()
		}
	}

	logger.Info("probing source")
	desc, err := p.prober.Probe(ctx, opts.Source)
	if err != nil {
		return err
	}

	chaptersPath, err := p.prepareChapters(ctx, logger, desc, opts, work)
	if err != nil {
		return err
	}
	attachmentsDir, err := p.prepareAttachments(ctx, logger, desc, opts, work)
	if err != nil {
		return err
	}
	subtitlePath, err := p.prepareSubtitles(ctx, logger, desc, opts, work)
	if err != nil {
		return err
	}

	audioPath, err := p.produceAudio(ctx, logger, desc, opts, work)
	if err != nil {
		return err
	}

	dims := finalDimensions(desc, opts)
	rate := finalRate(desc, opts)
	sar := sampleAspect(dims, opts)

	videoPath, err := p.produceVideo(ctx, logger, desc, opts, work, dims, rate, sar)
	if err != nil {
		return err
	}

	logger.Info("muxing output",
		logging.String(logging.FieldStage, "mux"),
		logging.String("container", string(opts.Container)),
		logging.String("output", opts.Output))
	if err := p.muxOutput(ctx, opts, muxInputs{
		chaptersPath:   chaptersPath,
		attachmentsDir: attachmentsDir,
		subtitlePath:   subtitlePath,
		audioPath:      audioPath,
		videoPath:      videoPath,
		sar:            sar,
	}); err != nil {
		return err
	}

	logger.Info("conversion finished",
		logging.String("output", opts.Output),
		logging.Duration("elapsed", time.Since(started).Round(time.Second)))
	return nil
}

// validate rejects contradictory option combinations before any external
// process is launched.
func validate(opts Options) error {
	if opts.Output == "" {
		return services.Wrap(services.ErrInvalidParameter, "validate", "", "output path is required", nil)
	}
	if _, ok := audioArtifacts[opts.AudioCodec]; !ok {
		return services.Wrap(services.ErrInvalidParameter, "validate", "",
			fmt.Sprintf("unknown audio codec %q", opts.AudioCodec), nil)
	}
	switch opts.VideoCodec {
	case VideoAV1, VideoH264, VideoVP9, VideoVP8:
	default:
		return services.Wrap(services.ErrInvalidParameter, "validate", "",
			fmt.Sprintf("unknown video codec %q", opts.VideoCodec), nil)
	}
	if opts.AudioCodec == AudioCopy && !opts.Source.Chapters.IsZero() {
		return services.Wrap(services.ErrInvalidParameter, "validate", "",
			"audio copy cannot honor a chapter range", nil)
	}
	if opts.Source.Disc == probe.DiscBluRay && (opts.ForceSize.IsZero() || opts.ForceRate.IsZero()) {
		return services.Wrap(services.ErrInvalidParameter, "validate", "",
			"blu-ray sources require an explicit size and frame rate", nil)
	}
	for _, tag := range []string{opts.VideoLang, opts.AudioLang, opts.SubtitleLang} {
		if err := mux.ValidateLanguage(tag); err != nil {
			return err
		}
	}
	return nil
}

// lockDisc serializes access to a physical drive across concurrent runs.
func (p *Pipeline) lockDisc(ctx context.Context, logger *slog.Logger, device string) (func(), error) {
	name := "qtranscode-" + strings.ReplaceAll(strings.Trim(device, string(os.PathSeparator)), string(os.PathSeparator), "-") + ".lock"
	lock := flock.New(filepath.Join(os.TempDir(), name))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire disc lock: %w", err)
	}
	if !locked {
		logger.Info("waiting for disc lock", logging.String("device", device))
		if _, err := lock.TryLockContext(ctx, time.Second); err != nil {
			return nil, fmt.Errorf("acquire disc lock: %w", err)
		}
	}
	return func() { _ = lock.Unlock() }, nil
}

func (p *Pipeline) prepareChapters(ctx context.Context, logger *slog.Logger, desc *probe.Descriptor, opts Options, work *workdir.Dir) (string, error) {
	if !desc.HasChapters || opts.NoChapters {
		return "", nil
	}
	if !mux.SupportsChapters(opts.Container) {
		logger.Warn("container cannot carry chapters, skipping",
			logging.String("container", string(opts.Container)))
		return "", nil
	}

	raw, err := p.extractor.Chapters(ctx, desc)
	if err != nil {
		return "", err
	}
	entries, err := chapters.Slice(raw, opts.Source.Chapters)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		logger.Warn("no chapters inside the selected range, skipping")
		return "", nil
	}

	path := work.Join("chapters")
	if err := os.WriteFile(path, []byte(chapters.Render(entries)), 0o644); err != nil {
		return "", fmt.Errorf("write chapter file: %w", err)
	}
	logger.Info("chapters prepared", logging.Int("count", len(entries)))
	return path, nil
}

func (p *Pipeline) prepareAttachments(ctx context.Context, logger *slog.Logger, desc *probe.Descriptor, opts Options, work *workdir.Dir) (string, error) {
	if desc.AttachmentCount == 0 || opts.NoAttachments {
		return "", nil
	}
	if !mux.SupportsAttachments(opts.Container) {
		logger.Warn("container cannot carry attachments, skipping",
			logging.String("container", string(opts.Container)))
		return "", nil
	}
	dir := work.Join("attachments")
	if err := p.extractor.Attachments(ctx, desc, dir); err != nil {
		return "", err
	}
	logger.Info("attachments extracted", logging.Int("count", desc.AttachmentCount))
	return dir, nil
}

func (p *Pipeline) prepareSubtitles(ctx context.Context, logger *slog.Logger, desc *probe.Descriptor, opts Options, work *workdir.Dir) (string, error) {
	if !desc.HasSubtitles || opts.NoSubtitles || opts.Decode.Hardsub {
		return "", nil
	}
	if !mux.SupportsSubtitles(opts.Container) {
		logger.Warn("container cannot carry subtitles, skipping",
			logging.String("container", string(opts.Container)))
		return "", nil
	}
	path := work.Join("subtitles")
	if err := p.extractor.Subtitles(ctx, desc, path); err != nil {
		return "", err
	}
	if desc.Source.Disc == probe.DiscDVD {
		// VobSub extraction writes a .idx/.sub pair; the index file is what
		// the multiplexer takes.
		path += ".idx"
	}
	logger.Info("subtitles extracted")
	return path, nil
}

func (p *Pipeline) produceAudio(ctx context.Context, logger *slog.Logger, desc *probe.Descriptor, opts Options, work *workdir.Dir) (string, error) {
	path := work.Join(audioArtifacts[opts.AudioCodec])

	if opts.AudioCodec == AudioCopy {
		logger.Info("copying source audio", logging.String(logging.FieldStage, "audio"))
		if err := p.extractor.Audio(ctx, desc, path); err != nil {
			return "", err
		}
		return path, nil
	}

	enc, err := audioEncodeCommand(opts, path)
	if err != nil {
		return "", err
	}
	dec := decode.AudioCommand(desc)
	logger.Info("transcoding audio",
		logging.String(logging.FieldStage, "audio"),
		logging.String("codec", opts.AudioCodec),
		logging.String(logging.FieldCommand, enc.String()))
	if err := p.runner.Run(ctx, dec, enc); err != nil {
		return "", err
	}
	return path, nil
}

func audioEncodeCommand(opts Options, path string) (transcode.Command, error) {
	params := encode.Params{Quality: opts.AudioRate.Quality, Bitrate: opts.AudioRate.Bitrate}
	switch opts.AudioCodec {
	case AudioAAC:
		return encode.AAC(path, params)
	case AudioFLAC:
		return encode.FLAC(path), nil
	case AudioMP3:
		return encode.MP3(path, params)
	case AudioOpus:
		return encode.Opus(path, params), nil
	case AudioVorbis:
		return encode.Vorbis(path, params)
	}
	return transcode.Command{}, services.Wrap(services.ErrInvalidParameter, "encode", "",
		fmt.Sprintf("unknown audio codec %q", opts.AudioCodec), nil)
}

func (p *Pipeline) produceVideo(ctx context.Context, logger *slog.Logger, desc *probe.Descriptor, opts Options, work *workdir.Dir, dims media.Dimensions, rate media.Rational, sar media.Rational) (string, error) {
	name := "video.ivf"
	if opts.VideoCodec == VideoH264 {
		name = "video.264"
	}
	path := work.Join(name)
	dec := decode.VideoCommand(opts.Source, opts.Decode)

	base := encode.Params{
		Quality: opts.VideoRate.Quality,
		Bitrate: opts.VideoRate.Bitrate,
		Speed:   opts.Speed,
	}

	runPass := func(params encode.Params, stage string) error {
		enc, err := videoEncodeCommand(opts.VideoCodec, path, dims, rate, sar, params)
		if err != nil {
			return err
		}
		logger.Info("transcoding video",
			logging.String(logging.FieldStage, stage),
			logging.String("codec", opts.VideoCodec),
			logging.String("size", dims.String()),
			logging.String("rate", rate.String()),
			logging.String(logging.FieldCommand, enc.String()))
		return p.runner.Run(ctx, dec, enc)
	}

	if !opts.TwoPass {
		if err := runPass(base, "video"); err != nil {
			return "", err
		}
		return path, nil
	}

	stats := work.Join(opts.VideoCodec + "_stats")
	first, second := base, base
	first.Pass, first.StatsPath = encode.PassFirst, stats
	second.Pass, second.StatsPath = encode.PassSecond, stats
	if err := runPass(first, "video-pass1"); err != nil {
		return "", err
	}
	if err := runPass(second, "video-pass2"); err != nil {
		return "", err
	}
	return path, nil
}

func videoEncodeCommand(codec, path string, dims media.Dimensions, rate, sar media.Rational, params encode.Params) (transcode.Command, error) {
	switch codec {
	case VideoAV1:
		return encode.AV1(path, dims, rate, params)
	case VideoH264:
		return encode.H264(path, dims, rate, sar, params)
	case VideoVP9:
		return encode.VP9(path, dims, rate, params)
	case VideoVP8:
		return encode.VP8(path, dims, rate, params)
	}
	return transcode.Command{}, services.Wrap(services.ErrInvalidParameter, "encode", "",
		fmt.Sprintf("unknown video codec %q", codec), nil)
}

// finalDimensions resolves the encoded picture size: an explicit scale wins,
// then the crop window, then the forced size, then the probed geometry.
func finalDimensions(desc *probe.Descriptor, opts Options) media.Dimensions {
	switch {
	case !opts.Decode.Scale.IsZero():
		return opts.Decode.Scale
	case !opts.Decode.Crop.IsZero():
		return media.Dimensions{Width: opts.Decode.Crop.Width, Height: opts.Decode.Crop.Height}
	case !opts.ForceSize.IsZero():
		return opts.ForceSize
	default:
		return desc.Dimensions
	}
}

// finalRate resolves the encoded frame rate. Inverse telecine pins the film
// rate regardless of any forced rate; deinterlacing doubles whatever won.
func finalRate(desc *probe.Descriptor, opts Options) media.Rational {
	rate := desc.FrameRate
	if !opts.ForceRate.IsZero() {
		rate = opts.ForceRate
	}
	if opts.Decode.IVTC {
		rate = media.NewRational(24000, 1001)
	}
	if opts.Decode.Deinterlace {
		rate = rate.MulInt(2)
	}
	return rate
}

// sampleAspect derives the sample aspect ratio the encoder and muxer see: a
// display aspect hint divided by the final storage ratio, else the pixel
// aspect hint, else square pixels.
func sampleAspect(dims media.Dimensions, opts Options) media.Rational {
	switch {
	case !opts.DisplayAspect.IsZero() && !dims.IsZero():
		return opts.DisplayAspect.Div(dims.Ratio())
	case !opts.PixelAspect.IsZero():
		return opts.PixelAspect
	default:
		return media.NewRational(1, 1)
	}
}

type muxInputs struct {
	chaptersPath   string
	attachmentsDir string
	subtitlePath   string
	audioPath      string
	videoPath      string
	sar            media.Rational
}

func (p *Pipeline) muxOutput(ctx context.Context, opts Options, in muxInputs) error {
	if opts.Container == mux.MP4 {
		par := in.sar
		if par.Num == par.Den {
			par = media.Rational{}
		}
		return p.muxer.MP4(ctx, mux.MP4Job{
			OutputPath:   opts.Output,
			ChaptersPath: in.chaptersPath,
			VideoPath:    in.videoPath,
			VideoLang:    opts.VideoLang,
			PixelAspect:  par,
			AudioPath:    in.audioPath,
			AudioLang:    opts.AudioLang,
		})
	}
	return p.muxer.Matroska(ctx, mux.MatroskaJob{
		OutputPath:     opts.Output,
		Title:          opts.Title,
		ChaptersPath:   in.chaptersPath,
		AttachmentsDir: in.attachmentsDir,
		VideoPath:      in.videoPath,
		VideoLang:      opts.VideoLang,
		DisplayAspect:  opts.DisplayAspect,
		PixelAspect:    opts.PixelAspect,
		DisplaySize:    opts.DisplaySize,
		AudioPath:      in.audioPath,
		AudioLang:      opts.AudioLang,
		SubtitlePath:   in.subtitlePath,
		SubtitleLang:   opts.SubtitleLang,
	})
}
