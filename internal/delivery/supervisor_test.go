package delivery

import "testing"

func TestClampPage(t *testing.T) {
	s := &Supervisor{cfg: Config{DefaultPageSize: 50, MaxPageSize: 500}}

	cases := []struct {
		in, want int
	}{
		{0, 50},
		{10, 10},
		{500, 500},
		{501, 500},
		{-5, 50},
	}
	for _, c := range cases {
		if got := s.ClampPage(c.in); got != c.want {
			t.Fatalf("ClampPage(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTranscodeSlotAccounting(t *testing.T) {
	s := &Supervisor{cfg: Config{MaxInFlightTranscodes: 2}}

	if !s.acquireTranscodeSlot() || !s.acquireTranscodeSlot() {
		t.Fatal("expected first two acquisitions to succeed")
	}
	if s.acquireTranscodeSlot() {
		t.Fatal("expected third acquisition to fail at the cap")
	}
	s.releaseTranscodeSlot()
	if !s.acquireTranscodeSlot() {
		t.Fatal("expected acquisition to succeed after a release freed a slot")
	}
}
