package decode_test

import (
	"strings"
	"testing"

	"qtranscode/internal/chapters"
	"qtranscode/internal/decode"
	"qtranscode/internal/media"
	"qtranscode/internal/probe"
)

func filterChain(t *testing.T, cmd []string) string {
	t.Helper()
	for i, arg := range cmd {
		if arg == "-vf" && i+1 < len(cmd) {
			return cmd[i+1]
		}
	}
	t.Fatalf("no -vf in %v", cmd)
	return ""
}

func ofps(cmd []string) string {
	for i, arg := range cmd {
		if arg == "-ofps" && i+1 < len(cmd) {
			return cmd[i+1]
		}
	}
	return ""
}

func TestVideoCommandStageOrder(t *testing.T) {
	cmd := decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{
		Denoise:     true,
		PostProcess: true,
		Deinterlace: true,
		Crop:        media.CropRect{Width: 704, Height: 464, X: 8, Y: 6},
		Scale:       media.Dimensions{Width: 640, Height: 360},
	})
	if cmd.Binary != "mencoder" {
		t.Fatalf("binary = %q", cmd.Binary)
	}
	want := "format=i420,yadif=1,crop=704:464:8:6,scale=640:360,pp=ha/va/dr,hqdn3d,harddup"
	if got := filterChain(t, cmd.Args); got != want {
		t.Fatalf("filters = %q, want %q", got, want)
	}
}

func TestVideoCommandIVTCFoldsCrop(t *testing.T) {
	cmd := decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{
		IVTC: true,
		Crop: media.CropRect{Width: 704, Height: 464, X: 8, Y: 6},
	})
	chain := filterChain(t, cmd.Args)
	if !strings.Contains(chain, "filmdint=fast=0/crop=704:464:8:6") {
		t.Fatalf("crop not folded into telecine filter: %q", chain)
	}
	if strings.Contains(chain, ",crop=") {
		t.Fatalf("standalone crop must not coexist with ivtc: %q", chain)
	}
	if got := ofps(cmd.Args); got != "24000/1001" {
		t.Fatalf("ivtc output rate = %q", got)
	}
}

func TestVideoCommandIVTCOverridesForcedRate(t *testing.T) {
	cmd := decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{
		IVTC:      true,
		ForceRate: media.NewRational(30000, 1001),
	})
	if got := ofps(cmd.Args); got != "24000/1001" {
		t.Fatalf("ivtc must override forced rate, got %q", got)
	}
}

func TestVideoCommandForcedRateCarriedThrough(t *testing.T) {
	cmd := decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{
		ForceRate: media.NewRational(25, 1),
	})
	if got := ofps(cmd.Args); got != "25/1" {
		t.Fatalf("forced rate = %q", got)
	}

	cmd = decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{})
	if got := ofps(cmd.Args); got != "" {
		t.Fatalf("unexpected -ofps without forcing: %q", got)
	}
}

func TestVideoCommandHardsubSwitch(t *testing.T) {
	args := decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{Hardsub: true}).Args
	joined := strings.Join(args, " ")
	if !strings.HasSuffix(joined, "-nosound -ass") {
		t.Fatalf("hardsub args = %q", joined)
	}
	args = decode.VideoCommand(probe.Source{Path: "in.mkv"}, decode.Options{}).Args
	if joined := strings.Join(args, " "); !strings.HasSuffix(joined, "-nosound -nosub") {
		t.Fatalf("pass-through args = %q", joined)
	}
}

func TestAudioCommandFLACFastPath(t *testing.T) {
	desc := &probe.Descriptor{
		Source:             probe.Source{Path: "in.mkv"},
		IsMatroska:         true,
		AudioCodec:         "ffflac",
		AudioChannels:      2,
		MatroskaAudioTrack: 1,
	}
	cmd := decode.AudioCommand(desc)
	if cmd.Binary != "mkvextract" {
		t.Fatalf("expected mkvextract fast path, got %q", cmd.Binary)
	}
	if joined := strings.Join(cmd.Args, " "); !strings.Contains(joined, "tracks in.mkv 1:/dev/stdout") {
		t.Fatalf("fast path args = %q", joined)
	}
}

func TestAudioCommandFallsBackWithChapterRange(t *testing.T) {
	desc := &probe.Descriptor{
		Source:             probe.Source{Path: "in.mkv", Chapters: chapters.Range{Start: 2}},
		IsMatroska:         true,
		AudioCodec:         "ffflac",
		AudioChannels:      2,
		MatroskaAudioTrack: 1,
	}
	cmd := decode.AudioCommand(desc)
	if cmd.Binary != "mplayer" {
		t.Fatalf("chapter range must disable the mkvextract fast path, got %q", cmd.Binary)
	}
	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "-ao pcm:fast:waveheader:file=/dev/stdout") {
		t.Fatalf("mplayer decode args = %q", joined)
	}
	if !strings.Contains(joined, "-chapter 2") {
		t.Fatalf("chapter selection missing: %q", joined)
	}
}
