package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"qtranscode/internal/history"
)

func TestBeginFinishRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first, err := store.Begin(ctx, history.Record{
		RunID:      "run-1",
		Source:     "/media/movie.mkv",
		Output:     "/out/movie.mkv",
		Container:  "mkv",
		AudioCodec: "opus",
		VideoCodec: "av1",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	second, err := store.Begin(ctx, history.Record{
		RunID:      "run-2",
		Source:     "dvd://",
		DiscType:   "dvd",
		Output:     "/out/disc.mp4",
		Container:  "mp4",
		AudioCodec: "aac",
		VideoCodec: "h264",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := store.Finish(ctx, first, nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := store.Finish(ctx, second, errors.New("encoder exited with status 1")); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RunID != "run-2" || records[0].Status != history.StatusFailed {
		t.Fatalf("newest record wrong: %+v", records[0])
	}
	if records[0].Error != "encoder exited with status 1" {
		t.Fatalf("error message not persisted: %q", records[0].Error)
	}
	if records[1].Status != history.StatusCompleted || !records[1].FinishedAt.After(records[1].StartedAt) {
		t.Fatalf("completed record wrong: %+v", records[1])
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := store.Begin(ctx, history.Record{RunID: "r", Source: "s", Output: "o", Container: "mkv", AudioCodec: "opus", VideoCodec: "av1"}); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}
	records, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("limit ignored: got %d records", len(records))
	}
}
