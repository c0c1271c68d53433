package chapters_test

import (
	"errors"
	"testing"
	"time"

	"qtranscode/internal/chapters"
	"qtranscode/internal/services"
)

const sixChapters = "CHAPTER01=00:00:00.000\n" +
	"CHAPTER01NAME=Chapter 01\n" +
	"CHAPTER02=00:04:30.500\n" +
	"CHAPTER02NAME=Chapter 02\n" +
	"CHAPTER03=00:09:00.000\n" +
	"CHAPTER03NAME=Opening\n" +
	"CHAPTER04=00:13:45.250\n" +
	"CHAPTER04NAME=Chapter 04\n" +
	"CHAPTER05=00:18:00.125\n" +
	"CHAPTER05NAME=Chapter 05\n" +
	"CHAPTER06=00:22:10.999\n" +
	"CHAPTER06NAME=Finale\n"

func TestSliceIdentityRoundTrip(t *testing.T) {
	entries, err := chapters.Slice(sixChapters, chapters.Range{})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(entries))
	}
	if got := chapters.Render(entries); got != sixChapters {
		t.Fatalf("identity slice did not round-trip:\n%q\nwant\n%q", got, sixChapters)
	}
}

func TestSliceRangeRenumbersAndRebases(t *testing.T) {
	entries, err := chapters.Slice(sixChapters, chapters.Range{Start: 3, End: 5})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.Index != i+1 {
			t.Fatalf("entry %d has index %d", i, e.Index)
		}
	}
	if entries[0].Start != 0 {
		t.Fatalf("first retained entry not rebased to zero: %v", entries[0].Start)
	}
	base := 9 * time.Minute
	if want := 13*time.Minute + 45*time.Second + 250*time.Millisecond - base; entries[1].Start != want {
		t.Fatalf("entry 2 start = %v, want %v", entries[1].Start, want)
	}
	if want := 18*time.Minute + 125*time.Millisecond - base; entries[2].Start != want {
		t.Fatalf("entry 3 start = %v, want %v", entries[2].Start, want)
	}
	// Literal titles survive; auto labels renumber with the index.
	if entries[0].Title != "Opening" {
		t.Fatalf("literal title rewritten: %q", entries[0].Title)
	}
	if entries[1].Title != "Chapter 02" || entries[2].Title != "Chapter 03" {
		t.Fatalf("auto titles not renumbered: %q %q", entries[1].Title, entries[2].Title)
	}
}

func TestSliceOpenBounds(t *testing.T) {
	entries, err := chapters.Slice(sixChapters, chapters.Range{End: 2})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(entries) != 2 || entries[0].Index != 1 || entries[0].Start != 0 {
		t.Fatalf("end-only range wrong: %+v", entries)
	}

	entries, err = chapters.Slice(sixChapters, chapters.Range{Start: 6})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(entries) != 1 || entries[0].Index != 1 || entries[0].Start != 0 {
		t.Fatalf("start-only range wrong: %+v", entries)
	}
}

func TestSliceMissingStartChapter(t *testing.T) {
	_, err := chapters.Slice(sixChapters, chapters.Range{Start: 9})
	if !errors.Is(err, services.ErrChapterNotFound) {
		t.Fatalf("expected chapter-not-found, got %v", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond
	if got := chapters.FormatTimestamp(d); got != "01:02:03.045" {
		t.Fatalf("FormatTimestamp = %q", got)
	}
	if got := chapters.FormatTimestamp(0); got != "00:00:00.000" {
		t.Fatalf("FormatTimestamp zero = %q", got)
	}
}
