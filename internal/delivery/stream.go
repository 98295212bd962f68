package delivery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jtdct/sonora/internal/catalogerr"
	"github.com/jtdct/sonora/internal/transcode"
)

// encodingContentType maps a transcode.Encoding to the MIME type the
// HTTP response advertises.
var encodingContentType = map[transcode.Encoding]string{
	transcode.MP3:           "audio/mpeg",
	transcode.OggVorbis:     "audio/ogg",
	transcode.OggOpus:       "audio/ogg",
	transcode.MatroskaOpus:  "audio/x-matroska",
	transcode.WebmVorbis:    "audio/webm",
	transcode.PCMSigned16LE: "audio/L16",
}

// StreamRequest mirrors the `GET /stream` parameters of spec §6.
type StreamRequest struct {
	TrackID       int64
	Encoding      transcode.Encoding
	BitrateKbps   int
	OffsetSeconds float64
}

// StartStream resolves the track, spawns a transcoder bound by the
// in-flight cap, and returns the first segment (spec §4.9 Streaming
// operations). Range requests over the encoded output are not
// supported; ContentLength is always -1 (not set) for audio (spec §4.9:
// "the output is not seekable byte-wise").
func (s *Supervisor) StartStream(ctx context.Context, req StreamRequest) (Segment, error) {
	contentType, ok := encodingContentType[req.Encoding]
	if !ok {
		return Segment{}, catalogerr.BadRequest("delivery.StartStream", fmt.Errorf("unsupported encoding %q", req.Encoding))
	}

	var path string
	err := s.store.WithRead(ctx, func(tx *sql.Tx) error {
		track, err := s.store.GetTrack(ctx, tx, req.TrackID)
		if err != nil {
			return err
		}
		path = track.Path
		return nil
	})
	if err == sql.ErrNoRows {
		return Segment{}, catalogerr.NotFound("delivery.StartStream", fmt.Errorf("track %d", req.TrackID))
	}
	if err != nil {
		return Segment{}, fmt.Errorf("delivery: resolve track %d: %w", req.TrackID, err)
	}

	// Spec §5 Resource caps: rejects a new transcode request beyond the
	// configured in-flight limit, returning the last known state
	// without freeing existing transcodes.
	if !s.acquireTranscodeSlot() {
		return Segment{}, catalogerr.ResourceExhausted("delivery.StartStream", fmt.Errorf("in-flight transcode limit reached"))
	}

	stream, err := transcode.Start(ctx, s.cfg.FFmpegPath, path, transcode.Parameters{
		Encoding:      req.Encoding,
		BitrateKbps:   req.BitrateKbps,
		OffsetSeconds: req.OffsetSeconds,
		StripMetadata: true,
	})
	if err != nil {
		s.releaseTranscodeSlot()
		return Segment{}, catalogerr.BadRequest("delivery.StartStream", err)
	}

	pipeline := &transcodePipeline{stream: stream}
	return s.continuations.firstSegment(pipeline, contentType, -1, s.releaseTranscodeSlot)
}
