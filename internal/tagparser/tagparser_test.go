package tagparser

import "testing"

func TestSplitNumTotal(t *testing.T) {
	cases := []struct {
		in        string
		num, total *int
	}{
		{"2/10", intPtr(2), intPtr(10)},
		{"7", intPtr(7), nil},
		{"", nil, nil},
		{"not-a-number", nil, nil},
	}
	for _, c := range cases {
		num, total := splitNumTotal(c.in)
		if !intPtrEq(num, c.num) || !intPtrEq(total, c.total) {
			t.Errorf("splitNumTotal(%q) = (%v, %v), want (%v, %v)", c.in, deref(num), deref(total), deref(c.num), deref(c.total))
		}
	}
}

func TestDateFallback(t *testing.T) {
	// DATE present, no fallback needed.
	d := dateFallback(map[string]string{"DATE": "2003"})
	if d == nil || *d != "2003" {
		t.Fatalf("expected 2003, got %v", d)
	}

	// DATE absent, OriginalDate present: falls back per spec §4.2.
	d = dateFallback(map[string]string{"TDOR": "1999"})
	if d == nil || *d != "1999" {
		t.Fatalf("expected fallback to 1999, got %v", d)
	}

	// Neither present.
	if d := dateFallback(map[string]string{}); d != nil {
		t.Fatalf("expected nil, got %v", *d)
	}
}

func TestValidUUIDPtr(t *testing.T) {
	if p := validUUIDPtr("not-a-uuid"); p != nil {
		t.Fatalf("expected nil for invalid uuid, got %v", *p)
	}
	const valid = "f27ec8db-af05-4f36-916e-3d57f91ecf5e"
	p := validUUIDPtr(valid)
	if p == nil || *p != valid {
		t.Fatalf("expected %s, got %v", valid, p)
	}
}

func TestResolveArtistsCountMismatchDisablesPairing(t *testing.T) {
	// Boundary behaviour from spec §8: 3 names, 2 MBIDs -> no pairing at all.
	raw := map[string]string{
		"ARTISTS":              "Alice/Bob/Carol",
		"MUSICBRAINZ_ARTISTID": "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222",
	}
	artists := resolveArtists(raw, "")
	if len(artists) != 3 {
		t.Fatalf("expected 3 artists, got %d", len(artists))
	}
	for _, a := range artists {
		if a.MBID != nil {
			t.Fatalf("expected no MBID pairing on count mismatch, got %v for %s", *a.MBID, a.Name)
		}
	}
}

func TestResolveArtistsCountMatchPairsPositionally(t *testing.T) {
	raw := map[string]string{
		"ARTISTS":              "Alice/Bob",
		"MUSICBRAINZ_ARTISTID": "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222",
	}
	artists := resolveArtists(raw, "")
	if len(artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(artists))
	}
	if artists[0].MBID == nil || *artists[0].MBID != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("expected Alice paired with first MBID, got %v", artists[0].MBID)
	}
	if artists[1].MBID == nil || *artists[1].MBID != "22222222-2222-2222-2222-222222222222" {
		t.Fatalf("expected Bob paired with second MBID, got %v", artists[1].MBID)
	}
}

func TestSplitClusterValues(t *testing.T) {
	got := splitClusterValues("Metal/Rock,Metal;Punk")
	want := map[string]bool{"Metal": true, "Rock": true, "Punk": true}
	if len(got) != len(want) {
		t.Fatalf("splitClusterValues = %v, want 3 distinct values", got)
	}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("unexpected value %q", v)
		}
	}
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
