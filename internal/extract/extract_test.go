package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qtranscode/internal/extract"
	"qtranscode/internal/probe"
	"qtranscode/internal/services"
)

type call struct {
	dir    string
	binary string
	args   []string
}

type fakeExecutor struct {
	calls  []call
	output string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, dir, binary string, args []string) ([]byte, error) {
	f.calls = append(f.calls, call{dir: dir, binary: binary, args: args})
	return []byte(f.output), f.err
}

func matroskaDesc() *probe.Descriptor {
	return &probe.Descriptor{
		Source:                probe.Source{Path: "in.mkv"},
		IsMatroska:            true,
		HasChapters:           true,
		HasSubtitles:          true,
		AttachmentCount:       3,
		MatroskaAudioTrack:    1,
		MatroskaSubtitleTrack: 2,
	}
}

func TestChaptersMatroska(t *testing.T) {
	exec := &fakeExecutor{output: "CHAPTER01=00:00:00.000\n"}
	client := extract.NewWithExecutor(exec)
	raw, err := client.Chapters(context.Background(), matroskaDesc())
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if raw != "CHAPTER01=00:00:00.000\n" {
		t.Fatalf("raw = %q", raw)
	}
	got := exec.calls[0]
	if got.binary != "mkvextract" || strings.Join(got.args, " ") != "chapters in.mkv --simple" {
		t.Fatalf("call = %+v", got)
	}
}

func TestChaptersDVD(t *testing.T) {
	exec := &fakeExecutor{}
	client := extract.NewWithExecutor(exec)
	desc := &probe.Descriptor{Source: probe.Source{Path: "/dev/sr0", Disc: probe.DiscDVD, DiscTitle: 2}, HasChapters: true}
	if _, err := client.Chapters(context.Background(), desc); err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	got := exec.calls[0]
	if got.binary != "dvdxchap" || strings.Join(got.args, " ") != "--title 2 /dev/sr0" {
		t.Fatalf("call = %+v", got)
	}
}

func TestChaptersUnavailable(t *testing.T) {
	client := extract.NewWithExecutor(&fakeExecutor{})
	desc := &probe.Descriptor{Source: probe.Source{Path: "in.avi"}}
	if _, err := client.Chapters(context.Background(), desc); !errors.Is(err, services.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestAttachmentsUseExplicitWorkingDirectory(t *testing.T) {
	exec := &fakeExecutor{}
	client := extract.NewWithExecutor(exec)
	dir := filepath.Join(t.TempDir(), "attachments")
	if err := client.Attachments(context.Background(), matroskaDesc(), dir); err != nil {
		t.Fatalf("Attachments: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("attachments dir not created: %v", err)
	}
	got := exec.calls[0]
	if got.dir != dir {
		t.Fatalf("working directory not passed on the command: %+v", got)
	}
	if strings.Join(got.args, " ") != "attachments in.mkv 1 2 3" {
		t.Fatalf("args = %v", got.args)
	}
}

func TestSubtitlesMatroskaAndDVD(t *testing.T) {
	exec := &fakeExecutor{}
	client := extract.NewWithExecutor(exec)
	if err := client.Subtitles(context.Background(), matroskaDesc(), "work/subtitles"); err != nil {
		t.Fatalf("Subtitles: %v", err)
	}
	if got := strings.Join(exec.calls[0].args, " "); got != "tracks in.mkv 2:work/subtitles" {
		t.Fatalf("matroska args = %q", got)
	}

	sid := 0
	desc := &probe.Descriptor{
		Source:       probe.Source{Path: "/dev/sr0", Disc: probe.DiscDVD, DiscTitle: 1, SubtitleTrack: &sid},
		HasSubtitles: true,
	}
	if err := client.Subtitles(context.Background(), desc, "work/subtitles"); err != nil {
		t.Fatalf("Subtitles dvd: %v", err)
	}
	joined := strings.Join(exec.calls[1].args, " ")
	if exec.calls[1].binary != "mencoder" || !strings.Contains(joined, "-vobsubout work/subtitles") {
		t.Fatalf("dvd call = %+v", exec.calls[1])
	}
	if !strings.Contains(joined, "-sid 0") || !strings.HasSuffix(joined, "-nosound") {
		t.Fatalf("dvd args = %q", joined)
	}
}

func TestAudioCopy(t *testing.T) {
	exec := &fakeExecutor{}
	client := extract.NewWithExecutor(exec)
	if err := client.Audio(context.Background(), matroskaDesc(), "work/audio"); err != nil {
		t.Fatalf("Audio: %v", err)
	}
	if got := strings.Join(exec.calls[0].args, " "); got != "tracks in.mkv 1:work/audio" {
		t.Fatalf("matroska audio args = %q", got)
	}

	desc := &probe.Descriptor{Source: probe.Source{Path: "in.vob"}}
	if err := client.Audio(context.Background(), desc, "work/audio"); err != nil {
		t.Fatalf("Audio dump: %v", err)
	}
	if got := strings.Join(exec.calls[1].args, " "); got != "-dumpaudio -dumpfile work/audio in.vob" {
		t.Fatalf("dump args = %q", got)
	}
}
