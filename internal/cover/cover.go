// Package cover resolves and serves cover art for tracks and releases
// (spec §4.3): embedded picture, then sibling image file, then a
// configured default, rescaled to a size×size JPEG and cached.
package cover

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/jtdct/sonora/internal/catalog"
	"github.com/jtdct/sonora/internal/tagparser"
)

// Config holds the tunables spec §6 names for the cover pipeline.
type Config struct {
	MaxCacheEntries  int
	MaxFileSizeBytes int64
	JPEGQuality      int
	ImageExtensions  []string // lowercased, including leading dot
	PreferredNames   []string // e.g. "cover", "front", in preference order
	DefaultCoverPath string
}

// Resolver implements spec §4.3's get_for_track/get_for_release/
// flush_cache operations over a bounded LRU.
type Resolver struct {
	store *catalog.Store
	cfg   Config
	cache *lru
}

func NewResolver(store *catalog.Store, cfg Config) *Resolver {
	return &Resolver{store: store, cfg: cfg, cache: newLRU(cfg.MaxCacheEntries)}
}

// FlushCache clears the resolver's cache wholesale (spec §4.3).
func (r *Resolver) FlushCache() {
	r.cache.flush()
}

// GetForTrack returns a size×size JPEG for a track, resolving per the
// order in spec §4.3.
func (r *Resolver) GetForTrack(ctx context.Context, trackID int64, size int) ([]byte, error) {
	key := cacheKey{kind: "track", id: trackID, size: size}
	if v, ok := r.cache.get(key); ok {
		return v, nil
	}

	var track catalog.Track
	var discTotal *int
	err := r.store.WithRead(ctx, func(tx *sql.Tx) error {
		t, err := r.store.GetTrack(ctx, tx, trackID)
		if err != nil {
			return fmt.Errorf("load track %d: %w", trackID, err)
		}
		track = t
		if t.ReleaseID != nil {
			rel, relErr := r.store.GetRelease(ctx, tx, *t.ReleaseID)
			if relErr == nil {
				discTotal = rel.DiscTotal
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	src, err := r.resolveTrackSource(track, discTotal)
	if err != nil {
		return nil, err
	}

	out, err := rescaleToJPEG(src, size, r.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}
	r.cache.put(key, out)
	return out, nil
}

// GetForRelease returns a size×size JPEG for a release: the first
// track's cover art stands in for the release (spec §4.3 is scoped to
// tracks; a release has no file of its own).
func (r *Resolver) GetForRelease(ctx context.Context, releaseID int64, size int) ([]byte, error) {
	key := cacheKey{kind: "release", id: releaseID, size: size}
	if v, ok := r.cache.get(key); ok {
		return v, nil
	}

	var tracks []catalog.Track
	var discTotal *int
	err := r.store.WithRead(ctx, func(tx *sql.Tx) error {
		ts, err := r.store.ListTracksByRelease(ctx, tx, releaseID)
		if err != nil {
			return fmt.Errorf("list tracks for release %d: %w", releaseID, err)
		}
		tracks = ts
		rel, relErr := r.store.GetRelease(ctx, tx, releaseID)
		if relErr == nil {
			discTotal = rel.DiscTotal
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		out, err := rescaleToJPEG(coverSource{path: r.cfg.DefaultCoverPath}, size, r.cfg.JPEGQuality)
		if err != nil {
			return nil, err
		}
		r.cache.put(key, out)
		return out, nil
	}

	src, err := r.resolveTrackSource(tracks[0], discTotal)
	if err != nil {
		return nil, err
	}
	out, err := rescaleToJPEG(src, size, r.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}
	r.cache.put(key, out)
	return out, nil
}

// coverSource is either raw embedded bytes or a file path to decode.
type coverSource struct {
	data []byte
	path string
}

func (r *Resolver) resolveTrackSource(track catalog.Track, discTotal *int) (coverSource, error) {
	if track.CoverSource == catalog.CoverSourceEmbedded {
		pic, err := tagparser.ExtractPicture(track.Path)
		if err == nil {
			return coverSource{data: pic.Data}, nil
		}
		// Transient (spec §7): embedded extraction failed, fall through
		// to sibling-file / default rather than aborting the request.
	}

	dir := filepath.Dir(track.Path)
	base := strings.TrimSuffix(filepath.Base(track.Path), filepath.Ext(track.Path))
	if p := r.findSiblingImage(dir, base); p != "" {
		return coverSource{path: p}, nil
	}

	if discTotal != nil && *discTotal > 1 {
		grandparent := filepath.Dir(dir)
		if p := r.findSiblingImage(grandparent, base); p != "" {
			return coverSource{path: p}, nil
		}
	}

	return coverSource{path: r.cfg.DefaultCoverPath}, nil
}

// findSiblingImage implements spec §4.3 step 2's preference order:
// base-name match, then the configured preferred-name list, then any
// remaining image file under the size cap.
func (r *Resolver) findSiblingImage(dir, baseName string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var nameMatch, preferredMatch, anyMatch string
	preferredRank := len(r.cfg.PreferredNames) + 1
	baseLower := strings.ToLower(baseName)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !containsExt(r.cfg.ImageExtensions, ext) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() > r.cfg.MaxFileSizeBytes {
			continue
		}
		full := filepath.Join(dir, name)
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))

		if stem == baseLower && nameMatch == "" {
			nameMatch = full
			continue
		}
		for rank, pref := range r.cfg.PreferredNames {
			if stem == strings.ToLower(pref) && rank < preferredRank {
				preferredRank = rank
				preferredMatch = full
			}
		}
		if anyMatch == "" {
			anyMatch = full
		}
	}

	switch {
	case nameMatch != "":
		return nameMatch
	case preferredMatch != "":
		return preferredMatch
	default:
		return anyMatch
	}
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// rescaleToJPEG decodes src (a file path or, via coverSource, raw
// bytes), area-preserving-scales it into a size×size box with
// x/image/draw, and re-encodes it as JPEG at the configured quality.
func rescaleToJPEG(src coverSource, size, quality int) ([]byte, error) {
	var img image.Image
	var err error

	switch {
	case src.data != nil:
		img, _, err = image.Decode(bytes.NewReader(src.data))
	case src.path != "":
		var f *os.File
		f, err = os.Open(src.path)
		if err == nil {
			defer f.Close()
			img, _, err = image.Decode(f)
		}
	default:
		return nil, fmt.Errorf("cover: no source to decode")
	}
	if err != nil {
		return nil, fmt.Errorf("decode cover image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode cover jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

