package delivery

import (
	"context"
	"fmt"

	"github.com/jtdct/sonora/internal/catalogerr"
)

// CoverKind distinguishes the two `GET /cover?kind=` targets of spec §6.
type CoverKind string

const (
	CoverKindTrack   CoverKind = "track"
	CoverKindRelease CoverKind = "release"
)

// GetCover resolves and streams cover art through the same
// continuation-token pattern as audio and ZIP downloads (spec §4.9).
// The bytes are already fully resolved by the time this returns (the
// cover resolver's own LRU does the expensive work), so most requests
// complete in their first segment.
func (s *Supervisor) GetCover(ctx context.Context, kind CoverKind, id int64, size int) (Segment, error) {
	var (
		data []byte
		err  error
	)
	switch kind {
	case CoverKindTrack:
		data, err = s.cover.GetForTrack(ctx, id, size)
	case CoverKindRelease:
		data, err = s.cover.GetForRelease(ctx, id, size)
	default:
		return Segment{}, catalogerr.BadRequest("delivery.GetCover", fmt.Errorf("unknown cover kind %q", kind))
	}
	if err != nil {
		return Segment{}, fmt.Errorf("delivery: resolve cover: %w", err)
	}

	pipeline := &bytesPipeline{data: data}
	return s.continuations.firstSegment(pipeline, "image/jpeg", int64(len(data)), nil)
}
