package subsonicid

import "testing"

func TestParseRenderRoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		val  int64
	}{
		{"artist-1", KindArtist, 1},
		{"album-42", KindRelease, 42},
		{"track-1000000", KindTrack, 1000000},
		{"playlist-7", KindPlaylist, 7},
		{"root-3", KindRoot, 3},
	}
	for _, c := range cases {
		id, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if id.Kind != c.kind || id.Value != c.val {
			t.Fatalf("Parse(%q) = %+v, want kind=%v val=%d", c.in, id, c.kind, c.val)
		}
		if got := Render(id); got != c.in {
			t.Fatalf("Render(Parse(%q)) = %q, want %q", c.in, got, c.in)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{"", "artist", "artist-", "movie-1", "artist-abc", "artist-1-2", "1-artist"}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) = nil error, want error", s)
		}
	}
}
