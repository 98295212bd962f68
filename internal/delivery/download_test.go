package delivery

import (
	"testing"

	"github.com/jtdct/sonora/internal/catalog"
)

func intPtr(v int) *int { return &v }

func TestReleaseEntryNameDiscAndTrackPrefix(t *testing.T) {
	track := catalog.Track{
		Path:        "/music/a/b.flac",
		Name:        "Song",
		DiscNumber:  intPtr(2),
		TrackNumber: intPtr(5),
	}
	got := releaseEntryName(track)
	want := "2-05 Song.flac"
	if got != want {
		t.Fatalf("releaseEntryName = %q, want %q", got, want)
	}
}

func TestReleaseEntryNameNoDiscNumber(t *testing.T) {
	track := catalog.Track{
		Path:        "/music/a/b.mp3",
		Name:        "Song",
		TrackNumber: intPtr(7),
	}
	got := releaseEntryName(track)
	want := "07 Song.mp3"
	if got != want {
		t.Fatalf("releaseEntryName = %q, want %q", got, want)
	}
}

func TestReleaseEntryNameNoTrackNumberFallsBackToName(t *testing.T) {
	track := catalog.Track{Path: "/music/a/b.ogg", Name: "Song"}
	got := releaseEntryName(track)
	if got != "Song.ogg" {
		t.Fatalf("releaseEntryName = %q, want %q", got, "Song.ogg")
	}
}

func TestSanitizeComponentReplacesSeparators(t *testing.T) {
	if got := sanitizeComponent("AC/DC"); got != "AC_DC" {
		t.Fatalf("sanitizeComponent = %q, want %q", got, "AC_DC")
	}
	if got := sanitizeComponent(""); got != "untitled" {
		t.Fatalf("sanitizeComponent(\"\") = %q, want %q", got, "untitled")
	}
}
