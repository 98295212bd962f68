// Package transcode builds ffmpeg argument vectors for the supported
// output encodings (spec §4.5) and drives them through internal/procsup,
// the way CineVault's stream/transcoder.go builds argv for HLS renditions
// and stream/remux.go builds it for on-the-fly MPEGTS remux.
package transcode

import (
	"context"
	"fmt"

	"github.com/jtdct/sonora/internal/procsup"
)

// Encoding enumerates the output containers/codecs spec §4.5 names.
type Encoding string

const (
	MP3           Encoding = "MP3"
	OggVorbis     Encoding = "OGG_VORBIS"
	OggOpus       Encoding = "OGG_OPUS"
	MatroskaOpus  Encoding = "MATROSKA_OPUS"
	WebmVorbis    Encoding = "WEBM_VORBIS"
	PCMSigned16LE Encoding = "PCM_SIGNED_16_LE"
)

// encodingSpec is one row of spec §4.5's encoding table.
type encodingSpec struct {
	container      string
	audioCodec     string // "" means ffmpeg's container default
	bitrateApplies bool
}

var encodingTable = map[Encoding]encodingSpec{
	MP3:           {container: "mp3", audioCodec: "", bitrateApplies: true},
	OggVorbis:     {container: "ogg", audioCodec: "libvorbis", bitrateApplies: true},
	OggOpus:       {container: "ogg", audioCodec: "libopus", bitrateApplies: true},
	MatroskaOpus:  {container: "matroska", audioCodec: "libopus", bitrateApplies: true},
	WebmVorbis:    {container: "webm", audioCodec: "libvorbis", bitrateApplies: true},
	PCMSigned16LE: {container: "s16le", audioCodec: "pcm_s16le", bitrateApplies: false},
}

// Parameters mirrors spec §4.5's TranscodeParameters.
type Parameters struct {
	Encoding      Encoding
	BitrateKbps   int  // required unless Encoding == PCMSigned16LE
	OffsetSeconds float64
	StripMetadata bool
}

// Stream is a running transcode: its ReadSome yields container bytes as
// they're produced. Stream is movable but not clonable (spec §4.5) —
// callers pass the *Stream pointer around, never copy the struct it
// points to, and must call Close exactly once.
type Stream struct {
	proc *procsup.Process
}

// Start spawns ffmpeg against path per params and spec §4.5: logs
// suppressed, stdin disabled, video (including attached-picture streams)
// dropped, output written to stdout.
func Start(ctx context.Context, ffmpegPath, path string, params Parameters) (*Stream, error) {
	spec, ok := encodingTable[params.Encoding]
	if !ok {
		return nil, fmt.Errorf("transcode: unknown encoding %q", params.Encoding)
	}
	if spec.bitrateApplies && params.BitrateKbps <= 0 {
		return nil, fmt.Errorf("transcode: encoding %s requires a bitrate", params.Encoding)
	}

	args := []string{"-hide_banner", "-v", "error", "-nostdin"}

	if params.OffsetSeconds > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", params.OffsetSeconds))
	}

	args = append(args, "-i", path)

	// Drop every video stream, including embedded-picture "video" streams
	// audio containers carry as cover art.
	args = append(args, "-vn")

	if spec.audioCodec != "" {
		args = append(args, "-c:a", spec.audioCodec)
	}
	if spec.bitrateApplies {
		args = append(args, "-b:a", fmt.Sprintf("%dk", params.BitrateKbps))
	}

	if params.StripMetadata {
		args = append(args, "-map_metadata", "-1")
	}

	args = append(args, "-f", spec.container, "pipe:1")

	proc, err := procsup.Start(ctx, ffmpegPath, args)
	if err != nil {
		return nil, fmt.Errorf("transcode: start ffmpeg: %w", err)
	}
	return &Stream{proc: proc}, nil
}

// ReadSome yields container bytes as ffmpeg produces them.
func (s *Stream) ReadSome(buf []byte) (int, error) {
	return s.proc.ReadSome(buf)
}

// Finished reports whether the underlying ffmpeg process has exited.
func (s *Stream) Finished() bool {
	return s.proc.Finished()
}

// Close tears down the underlying child process (SIGKILL+reap, per
// spec §4.4).
func (s *Stream) Close() error {
	return s.proc.Close()
}
