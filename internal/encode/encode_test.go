package encode

import (
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"qtranscode/internal/media"
	"qtranscode/internal/services"
	"qtranscode/internal/transcode"
)

func withEncoders(t *testing.T, available ...string) {
	t.Helper()
	prev := lookPath
	lookPath = func(name string) (string, error) {
		if slices.Contains(available, name) {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	t.Cleanup(func() { lookPath = prev })
}

func argString(c transcode.Command) string {
	return strings.Join(c.Args, " ")
}

func TestAACFdkaacQualityMapping(t *testing.T) {
	withEncoders(t, "fdkaac")
	cmd, err := AAC("audio.mp4", Params{Quality: QualityValue(10)})
	if err != nil {
		t.Fatalf("AAC: %v", err)
	}
	if cmd.Binary != "fdkaac" || !strings.Contains(argString(cmd), "-m 5") {
		t.Fatalf("fdkaac quality 10 = %q %q", cmd.Binary, argString(cmd))
	}

	cmd, err = AAC("audio.mp4", Params{Bitrate: BitrateValue(192)})
	if err != nil {
		t.Fatalf("AAC: %v", err)
	}
	if !strings.Contains(argString(cmd), "-m 0 -b 192") {
		t.Fatalf("fdkaac bitrate args = %q", argString(cmd))
	}

	cmd, err = AAC("audio.mp4", Params{})
	if err != nil {
		t.Fatalf("AAC: %v", err)
	}
	if !strings.Contains(argString(cmd), "-m 4") {
		t.Fatalf("fdkaac default args = %q", argString(cmd))
	}
}

func TestAACFallbackChain(t *testing.T) {
	withEncoders(t, "faac")
	cmd, err := AAC("audio.mp4", Params{Quality: QualityValue(5)})
	if err != nil {
		t.Fatalf("AAC: %v", err)
	}
	if cmd.Binary != "faac" || !strings.Contains(argString(cmd), "-q 2505") {
		t.Fatalf("faac quality 5 = %q %q", cmd.Binary, argString(cmd))
	}

	withEncoders(t)
	if _, err := AAC("audio.mp4", Params{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error with no encoder, got %v", err)
	}
}

func TestAACRejectsQualityAndBitrate(t *testing.T) {
	withEncoders(t, "fdkaac")
	_, err := AAC("audio.mp4", Params{Quality: QualityValue(5), Bitrate: BitrateValue(128)})
	if !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestMP3InvertedScale(t *testing.T) {
	cmd, err := MP3("audio.mp3", Params{Quality: QualityValue(10)})
	if err != nil {
		t.Fatalf("MP3: %v", err)
	}
	if !strings.Contains(argString(cmd), "-V 0") {
		t.Fatalf("lame quality 10 = %q", argString(cmd))
	}
	if _, err := MP3("audio.mp3", Params{Quality: QualityValue(5), Bitrate: BitrateValue(192)}); !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestOpusConstrainedVBRAcceptsBoth(t *testing.T) {
	cmd := Opus("audio.opus", Params{Quality: QualityValue(8), Bitrate: BitrateValue(128)})
	joined := argString(cmd)
	if !strings.Contains(joined, "--vcbr") || !strings.Contains(joined, "--bitrate 128") {
		t.Fatalf("opus constrained mode args = %q", joined)
	}
	if got := argString(Opus("audio.opus", Params{})); !strings.Contains(got, "--vbr") {
		t.Fatalf("opus default args = %q", got)
	}
}

func TestVorbisQuality(t *testing.T) {
	cmd, err := Vorbis("audio.ogg", Params{Quality: QualityValue(5)})
	if err != nil {
		t.Fatalf("Vorbis: %v", err)
	}
	if !strings.Contains(argString(cmd), "-q 5") {
		t.Fatalf("oggenc args = %q", argString(cmd))
	}
}

var (
	testDims = media.Dimensions{Width: 1280, Height: 720}
	testRate = media.NewRational(24000, 1001)
)

func TestAV1QualityMapping(t *testing.T) {
	cmd, err := AV1("video.ivf", testDims, testRate, Params{Quality: QualityValue(10), Speed: 3})
	if err != nil {
		t.Fatalf("AV1: %v", err)
	}
	joined := argString(cmd)
	for _, fragment := range []string{"--rc 0 --qp 0", "--fps-num 24000", "--fps-denom 1001", "--preset 3", "-b video.ivf"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}

	if _, err := AV1("video.ivf", testDims, testRate, Params{Quality: QualityValue(5), Bitrate: BitrateValue(2000)}); !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestH264CRFAndSAR(t *testing.T) {
	sar := media.NewRational(32, 27)
	cmd, err := H264("video.264", media.Dimensions{Width: 720, Height: 480}, media.NewRational(30000, 1001), sar, Params{Quality: QualityValue(10)})
	if err != nil {
		t.Fatalf("H264: %v", err)
	}
	joined := argString(cmd)
	for _, fragment := range []string{"--crf 0", "--input-res 720x480", "--sar 32:27", "--fps 30000/1001", "--output video.264"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
}

func TestVPXConstrainedQualityAcceptsBoth(t *testing.T) {
	cmd, err := VP9("video.ivf", testDims, testRate, Params{Quality: QualityValue(5), Bitrate: BitrateValue(1500), Speed: 1})
	if err != nil {
		t.Fatalf("VP9: %v", err)
	}
	joined := argString(cmd)
	for _, fragment := range []string{"--end-usage=cq", "--cq-level=32", "--target-bitrate=1500", "--good", "--codec=vp9"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
}

func TestTwoPassInvariants(t *testing.T) {
	stats := "work/vp9_stats"
	first, err := VP9("video.ivf", testDims, testRate, Params{Pass: PassFirst, StatsPath: stats})
	if err != nil {
		t.Fatalf("pass 1: %v", err)
	}
	second, err := VP9("video.ivf", testDims, testRate, Params{Pass: PassSecond, StatsPath: stats})
	if err != nil {
		t.Fatalf("pass 2: %v", err)
	}
	firstArgs := argString(first)
	if strings.Contains(firstArgs, "--output=video.ivf") {
		t.Fatalf("pass 1 must not write the final output: %q", firstArgs)
	}
	if !strings.Contains(firstArgs, "--output="+os.DevNull) || !strings.Contains(firstArgs, "--auto-alt-ref=1") {
		t.Fatalf("pass 1 args = %q", firstArgs)
	}
	if !strings.Contains(argString(second), "--fpf="+stats) || !strings.Contains(firstArgs, "--fpf="+stats) {
		t.Fatal("passes must share the stats path")
	}

	av1First, err := AV1("video.ivf", testDims, testRate, Params{Pass: PassFirst, StatsPath: "work/av1_stats"})
	if err != nil {
		t.Fatalf("av1 pass 1: %v", err)
	}
	if !strings.Contains(argString(av1First), "-b "+os.DevNull) {
		t.Fatalf("av1 pass 1 must discard bitstream: %q", argString(av1First))
	}
}

func TestPassContractViolations(t *testing.T) {
	if _, err := AV1("video.ivf", testDims, testRate, Params{Pass: PassFirst}); !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("pass without stats must fail, got %v", err)
	}
	if _, err := AV1("video.ivf", testDims, testRate, Params{StatsPath: "x"}); !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("stats without pass must fail, got %v", err)
	}
	if _, err := H264("video.264", testDims, testRate, media.NewRational(1, 1), Params{Pass: 3, StatsPath: "x"}); !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("pass 3 must fail, got %v", err)
	}
}
