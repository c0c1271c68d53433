// Package chapters parses, slices, and renders the line-oriented chapter text
// format used by mkvextract and dvdxchap:
//
//	CHAPTER01=00:00:00.000
//	CHAPTER01NAME=Chapter 01
//
// Indices are 2-digit zero-padded, timestamps carry 3-digit milliseconds, and
// the format must round-trip bit-exactly.
package chapters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qtranscode/internal/services"
)

var (
	timeLineRe      = regexp.MustCompile(`^CHAPTER(\d+)=(\d\d):(\d\d):(\d\d)\.(\d\d\d)$`)
	autoTitleLineRe = regexp.MustCompile(`^CHAPTER(\d+)NAME=Chapter (\d+)$`)
	titleLineRe     = regexp.MustCompile(`^CHAPTER(\d+)NAME=(.*)$`)
)

// Range selects a 1-based inclusive chapter span. A zero bound is unbounded
// on that side.
type Range struct {
	Start int
	End   int
}

// IsZero reports whether no slicing was requested.
func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

func (r Range) contains(index int) bool {
	if r.Start != 0 && index < r.Start {
		return false
	}
	if r.End != 0 && index > r.End {
		return false
	}
	return true
}

// Entry is one chapter after slicing: renumbered from 1 within the selected
// range, with its timestamp rebased so the first retained chapter starts at
// zero.
type Entry struct {
	Index int
	Start time.Duration
	Title string
}

// Slice parses raw chapter text and applies the range: entries outside it are
// dropped, survivors are renumbered from 1 and time-rebased to the start
// entry's timestamp. Auto-generated "Chapter NN" titles are renumbered in
// step; literal titles pass through untouched.
func Slice(raw string, r Range) ([]Entry, error) {
	offsetIndex := 0
	var offsetTime time.Duration
	if r.Start != 0 {
		start, ok := findTimestamp(raw, r.Start)
		if !ok {
			return nil, services.Wrap(services.ErrChapterNotFound, "chapters", "slice",
				fmt.Sprintf("start chapter %d not present in source", r.Start), nil)
		}
		offsetIndex = r.Start - 1
		offsetTime = start
	}

	byIndex := map[int]*Entry{}
	var order []int
	entry := func(index int) *Entry {
		if e, ok := byIndex[index]; ok {
			return e
		}
		e := &Entry{Index: index - offsetIndex}
		byIndex[index] = e
		order = append(order, index)
		return e
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := timeLineRe.FindStringSubmatch(line); m != nil {
			index := atoi(m[1])
			if !r.contains(index) {
				continue
			}
			entry(index).Start = timestamp(m[2], m[3], m[4], m[5]) - offsetTime
			continue
		}
		if m := autoTitleLineRe.FindStringSubmatch(line); m != nil {
			index := atoi(m[1])
			if !r.contains(index) {
				continue
			}
			entry(index).Title = fmt.Sprintf("Chapter %02d", atoi(m[2])-offsetIndex)
			continue
		}
		if m := titleLineRe.FindStringSubmatch(line); m != nil {
			index := atoi(m[1])
			if !r.contains(index) {
				continue
			}
			entry(index).Title = m[2]
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, index := range order {
		entries = append(entries, *byIndex[index])
	}
	return entries, nil
}

// Render writes entries back to the chapter text format.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "CHAPTER%02d=%s\n", e.Index, FormatTimestamp(e.Start))
		if e.Title != "" {
			fmt.Fprintf(&b, "CHAPTER%02dNAME=%s\n", e.Index, e.Title)
		}
	}
	return b.String()
}

// FormatTimestamp renders a duration as HH:MM:SS.mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func findTimestamp(raw string, index int) (time.Duration, bool) {
	re := regexp.MustCompile(fmt.Sprintf(`(?m)^CHAPTER%02d=(\d\d):(\d\d):(\d\d)\.(\d\d\d)$`, index))
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	return timestamp(m[1], m[2], m[3], m[4]), true
}

func timestamp(h, m, s, ms string) time.Duration {
	return time.Duration(atoi(h))*time.Hour +
		time.Duration(atoi(m))*time.Minute +
		time.Duration(atoi(s))*time.Second +
		time.Duration(atoi(ms))*time.Millisecond
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
