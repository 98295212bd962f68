package transcode

import "testing"

func TestEncodingTableCoversSpecRows(t *testing.T) {
	want := []Encoding{MP3, OggVorbis, OggOpus, MatroskaOpus, WebmVorbis, PCMSigned16LE}
	for _, enc := range want {
		if _, ok := encodingTable[enc]; !ok {
			t.Fatalf("missing encoding table row for %s", enc)
		}
	}
}

func TestPCMBitrateNotRequired(t *testing.T) {
	if encodingTable[PCMSigned16LE].bitrateApplies {
		t.Fatal("PCM_SIGNED_16_LE must not require a bitrate")
	}
}

func TestOtherEncodingsRequireBitrate(t *testing.T) {
	for enc, spec := range encodingTable {
		if enc == PCMSigned16LE {
			continue
		}
		if !spec.bitrateApplies {
			t.Fatalf("%s should require a bitrate", enc)
		}
	}
}
