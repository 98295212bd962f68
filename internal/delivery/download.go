package delivery

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/jtdct/sonora/internal/catalog"
	"github.com/jtdct/sonora/internal/catalogerr"
	"github.com/jtdct/sonora/internal/zipstream"
)

// DownloadKind distinguishes the three `GET /download/{kind}/{id}`
// targets of spec §6.
type DownloadKind string

const (
	DownloadKindArtist  DownloadKind = "artist"
	DownloadKindRelease DownloadKind = "release"
	DownloadKindTrack   DownloadKind = "track"
)

// StartDownload builds a ZIP64 archive over the filesystem paths backing
// kind/id and streams it through the continuation pattern (spec §4.9),
// with Content-Length set up front since zipstream precomputes the
// exact output size.
func (s *Supervisor) StartDownload(ctx context.Context, kind DownloadKind, id int64) (Segment, error) {
	entries, err := s.downloadEntries(ctx, kind, id)
	if err != nil {
		return Segment{}, err
	}
	if len(entries) == 0 {
		return Segment{}, catalogerr.NotFound("delivery.StartDownload", fmt.Errorf("%s %d has no tracks", kind, id))
	}

	// A zero time.Time means "use each file's own mtime" (spec §4.6's
	// streamer is indifferent to a shared archive timestamp).
	zipper, err := zipstream.New(entries, time.Time{})
	if err != nil {
		return Segment{}, catalogerr.Fatal("delivery.StartDownload", err)
	}

	pipeline := &zipPipeline{zipper: zipper}
	return s.continuations.firstSegment(pipeline, "application/zip", int64(zipper.TotalSize()), nil)
}

func (s *Supervisor) downloadEntries(ctx context.Context, kind DownloadKind, id int64) (map[string]string, error) {
	entries := map[string]string{}

	err := s.store.WithRead(ctx, func(tx *sql.Tx) error {
		switch kind {
		case DownloadKindTrack:
			t, err := s.store.GetTrack(ctx, tx, id)
			if err != nil {
				return err
			}
			entries[filepath.Base(t.Path)] = t.Path
			return nil

		case DownloadKindRelease:
			tracks, err := s.store.ListTracksByRelease(ctx, tx, id)
			if err != nil {
				return err
			}
			for _, t := range tracks {
				entries[releaseEntryName(t)] = t.Path
			}
			return nil

		case DownloadKindArtist:
			tracks, err := s.store.ListTracksByArtist(ctx, tx, id)
			if err != nil {
				return err
			}
			for _, t := range tracks {
				name := releaseEntryName(t)
				if t.ReleaseID != nil {
					if rel, relErr := s.store.GetRelease(ctx, tx, *t.ReleaseID); relErr == nil {
						name = path.Join(sanitizeComponent(rel.Name), name)
					}
				}
				entries[name] = t.Path
			}
			return nil

		default:
			return catalogerr.BadRequest("delivery.downloadEntries", fmt.Errorf("unknown download kind %q", kind))
		}
	})
	if err == sql.ErrNoRows {
		return nil, catalogerr.NotFound("delivery.downloadEntries", fmt.Errorf("%s %d", kind, id))
	}
	if err != nil {
		return nil, fmt.Errorf("delivery: load download entries: %w", err)
	}
	return entries, nil
}

// releaseEntryName formats a track's archive-local file name,
// prefixed with its track number when it has one, and with its disc
// number as well when both are set.
func releaseEntryName(t catalog.Track) string {
	ext := filepath.Ext(t.Path)
	base := sanitizeComponent(t.Name)
	if t.TrackNumber != nil {
		if t.DiscNumber != nil {
			return fmt.Sprintf("%d-%02d %s%s", *t.DiscNumber, *t.TrackNumber, base, ext)
		}
		return fmt.Sprintf("%02d %s%s", *t.TrackNumber, base, ext)
	}
	return base + ext
}

func sanitizeComponent(s string) string {
	if s == "" {
		return "untitled"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '/' || r == '\\' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
