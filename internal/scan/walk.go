package scan

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jtdct/sonora/internal/catalog"
	"github.com/jtdct/sonora/internal/tagparser"
)

// scanAll walks every MediaRoot, sweeps orphans, and runs the
// feature-fetch addon (spec §4.7 Scan body / Orphan sweep / Feature
// fetch). It returns whether anything changed and whether it stopped
// early due to cancellation.
func (e *Engine) scanAll(ctx context.Context) (changed, cancelled bool) {
	var roots []catalog.MediaRoot
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		r, err := e.store.ListMediaRoots(ctx, tx)
		roots = r
		return err
	}); err != nil {
		log.Printf("scan: list media roots: %v", err)
		return false, false
	}

	for _, root := range roots {
		if ctx.Err() != nil {
			return changed, true
		}
		stats, rootChanged, rootCancelled := e.scanRoot(ctx, root)
		if stats.Added > 0 || stats.Updated > 0 || stats.Removed > 0 {
			changed = true
		}
		_ = rootChanged
		if e.hooks.OnProgress != nil {
			e.hooks.OnProgress(Progress{RootPath: root.Path, Stats: stats})
		}
		if rootCancelled {
			return changed, true
		}
	}

	if ctx.Err() != nil {
		return changed, true
	}

	sweepChanged, sweepCancelled := e.orphanSweep(ctx)
	changed = changed || sweepChanged
	if sweepCancelled {
		return changed, true
	}

	if e.features != nil && e.features.Enabled() {
		if e.fetchFeatures(ctx) {
			return changed, true
		}
	}

	return changed, false
}

// scanRoot reconciles one MediaRoot: first it deletes cataloged tracks
// whose file no longer qualifies, then it walks the filesystem parsing
// new or changed files (spec §4.7 Scan body, steps 1-2).
func (e *Engine) scanRoot(ctx context.Context, root catalog.MediaRoot) (stats RootStats, changed, cancelled bool) {
	// The original catalog is C++ / video-capable; this port only
	// implements the audio entity model (see SPEC_FULL.md's Open
	// Question on RootType video). Video roots are left untouched.
	if root.Type != catalog.RootTypeAudio {
		return stats, false, false
	}

	if _, err := os.Lstat(root.Path); err != nil {
		log.Printf("scan: root %s unreachable: %v", root.Path, err)
		stats.ScanErrors++
		return stats, false, false
	}

	if removed, err := e.reconcileExisting(ctx, root); err != nil {
		log.Printf("scan: reconcile %s: %v", root.Path, err)
	} else {
		stats.Removed += removed
	}
	if ctx.Err() != nil {
		return stats, stats.Removed > 0, true
	}

	visited := map[string]bool{}
	added, updated, scanErrors, walkCancelled := e.walkAndImport(ctx, root, visited)
	stats.Added += added
	stats.Updated += updated
	stats.ScanErrors += scanErrors

	return stats, stats.Added > 0 || stats.Updated > 0 || stats.Removed > 0, walkCancelled
}

// reconcileExisting deletes cataloged tracks under root whose file is
// gone, whose extension is no longer enabled, or whose path has fallen
// outside every configured root (spec §3 invariant 2, §4.7 step 1).
func (e *Engine) reconcileExisting(ctx context.Context, root catalog.MediaRoot) (removed int, err error) {
	var candidates []catalog.TrackPath
	err = e.store.WithRead(ctx, func(tx *sql.Tx) error {
		return e.store.IterateTrackPaths(ctx, tx, func(tp catalog.TrackPath) error {
			if strings.HasPrefix(tp.Path, root.Path) {
				candidates = append(candidates, tp)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	var roots []catalog.MediaRoot
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		r, err := e.store.ListMediaRoots(ctx, tx)
		roots = r
		return err
	}); err != nil {
		return 0, err
	}

	var settings catalog.ScanSettings
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		s, err := e.store.GetScanSettings(ctx, tx)
		settings = s
		return err
	}); err != nil {
		return 0, err
	}

	for _, tp := range candidates {
		if ctx.Err() != nil {
			return removed, nil
		}
		stale := false
		if fi, statErr := os.Stat(tp.Path); statErr != nil || fi.IsDir() {
			stale = true
		} else if !isPathUnderAnyRoot(tp.Path, roots) {
			stale = true
		} else if !hasEnabledExtension(tp.Path, settings.AudioExtensions) {
			stale = true
		}
		if !stale {
			continue
		}
		if delErr := e.store.WithWrite(ctx, func(tx *sql.Tx) error {
			return e.store.DeleteTrack(ctx, tx, tp.ID)
		}); delErr != nil {
			log.Printf("scan: delete stale track %s: %v", tp.Path, delErr)
			continue
		}
		removed++
	}
	return removed, nil
}

// walkAndImport recursively descends root.Path, following directory
// symlinks while guarding against cycles via visited real paths, skips
// subtrees containing the exclusion marker (including the root itself,
// per SPEC_FULL.md's supplemented root-skip behaviour), and imports
// every qualifying regular file.
func (e *Engine) walkAndImport(ctx context.Context, root catalog.MediaRoot, visited map[string]bool) (added, updated, scanErrors int, cancelled bool) {
	var settings catalog.ScanSettings
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		s, err := e.store.GetScanSettings(ctx, tx)
		settings = s
		return err
	}); err != nil {
		log.Printf("scan: load scan settings: %v", err)
		return 0, 0, 0, false
	}

	clusterTypeNames, err := e.enabledClusterTypeNames(ctx)
	if err != nil {
		log.Printf("scan: load cluster types: %v", err)
		return 0, 0, 0, false
	}

	var walk func(dir string) bool // returns true to keep going
	walk = func(dir string) bool {
		if ctx.Err() != nil {
			return false
		}
		if e.exclusionMarker != "" {
			if _, err := os.Stat(filepath.Join(dir, e.exclusionMarker)); err == nil {
				return true
			}
		}

		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			real = dir
		}
		if visited[real] {
			return true
		}
		visited[real] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Printf("scan: read dir %s: %v", dir, err)
			scanErrors++
			return true
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				return false
			}
			full := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				scanErrors++
				continue
			}
			if info.IsDir() || (info.Mode()&fs.ModeSymlink != 0 && isDirSymlink(full)) {
				if !walk(full) {
					return false
				}
				continue
			}
			if info.Mode()&fs.ModeSymlink != 0 {
				continue
			}
			if !hasEnabledExtension(full, settings.AudioExtensions) {
				continue
			}

			wasAdded, wasUpdated, importErr := e.importTrack(ctx, full, info, clusterTypeNames)
			if importErr != nil {
				log.Printf("scan: import %s: %v", full, importErr)
				scanErrors++
				continue
			}
			if wasAdded {
				added++
			} else if wasUpdated {
				updated++
			}
		}
		return true
	}

	if !walk(root.Path) {
		return added, updated, scanErrors, true
	}
	return added, updated, scanErrors, false
}

func isDirSymlink(path string) bool {
	fi, err := os.Stat(path) // follows the symlink
	return err == nil && fi.IsDir()
}

// importTrack applies the skip-if-unchanged rule, parses the file if
// needed, and upserts the resulting Track plus its Artist/Release/
// Cluster associations in one write transaction.
func (e *Engine) importTrack(ctx context.Context, path string, info fs.FileInfo, clusterTypeNames []string) (added, updated bool, err error) {
	mtime := info.ModTime()

	var existing catalog.Track
	var hasExisting bool
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		t, findErr := e.store.FindTrackByPath(ctx, tx, path)
		if findErr == sql.ErrNoRows {
			return nil
		}
		if findErr != nil {
			return findErr
		}
		existing = t
		hasExisting = true
		return nil
	}); err != nil {
		return false, false, err
	}

	if hasExisting && existing.LastWriteTime.Equal(mtime) {
		return false, false, nil // skip-if-unchanged (spec §4.7 step 2)
	}

	parsed, parseErr := tagparser.Parse(e.ffprobePath, path, clusterTypeNames)
	if parseErr != nil || !parsed.IsValidAudio() {
		// Spec §7 edge case: invalid audio deletes any pre-existing
		// matching Track row rather than leaving it stale.
		if hasExisting {
			delErr := e.store.WithWrite(ctx, func(tx *sql.Tx) error {
				return e.store.DeleteTrack(ctx, tx, existing.ID)
			})
			if delErr != nil {
				return false, false, delErr
			}
		}
		if parseErr != nil {
			return false, false, parseErr
		}
		return false, false, nil
	}

	checksum, err := checksumFile(path)
	if err != nil {
		return false, false, err
	}

	name := parsed.Title
	if name == "" {
		name = filepath.Base(path)
	}

	created := false
	err = e.store.WithWrite(ctx, func(tx *sql.Tx) error {
		var releaseID *int64
		if parsed.Album != "" {
			id, err := e.store.ResolveRelease(ctx, tx, parsed.Album, parsed.AlbumMBID, parsed.DiscTotal)
			if err != nil {
				return err
			}
			releaseID = &id
		}

		var artistIDs []int64
		for _, a := range parsed.Artists {
			id, err := e.store.ResolveArtist(ctx, tx, a.Name, a.MBID)
			if err != nil {
				return err
			}
			artistIDs = append(artistIDs, id)
		}

		track := catalog.Track{
			Path:             path,
			LastWriteTime:    mtime,
			Checksum:         checksum,
			Name:             name,
			DurationSeconds:  parsed.DurationSeconds,
			TrackNumber:      parsed.TrackNumber,
			TrackTotal:       parsed.TrackTotal,
			DiscNumber:       parsed.DiscNumber,
			DiscTotal:        parsed.DiscTotal,
			ReleaseDate:      parsed.Date,
			OriginalDate:     parsed.OriginalDate,
			MBID:             parsed.TrackMBID,
			AcousticBrainzID: parsed.AcousticBrainzID,
			ReleaseID:        releaseID,
		}
		if parsed.HasEmbeddedPicture {
			track.CoverSource = catalog.CoverSourceEmbedded
		} else {
			track.CoverSource = catalog.CoverSourceNone
		}

		wasCreated, upsertErr := e.store.UpsertTrack(ctx, tx, &track)
		if upsertErr != nil {
			return upsertErr
		}
		created = wasCreated

		if err := e.store.SetTrackArtists(ctx, tx, track.ID, artistIDs); err != nil {
			return err
		}

		clusterIDs, err := e.resolveClusters(ctx, tx, parsed.Clusters)
		if err != nil {
			return err
		}
		return e.store.SetTrackClusters(ctx, tx, track.ID, clusterIDs)
	})
	if err != nil {
		return false, false, err
	}

	return created, !created, nil
}

func (e *Engine) resolveClusters(ctx context.Context, tx *sql.Tx, byType map[string][]string) ([]int64, error) {
	types, err := e.store.ListEnabledClusterTypes(ctx, tx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, ct := range types {
		for _, value := range byType[ct.Name] {
			id, err := e.store.ResolveCluster(ctx, tx, ct.ID, value)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (e *Engine) enabledClusterTypeNames(ctx context.Context) ([]string, error) {
	var names []string
	err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		types, err := e.store.ListEnabledClusterTypes(ctx, tx)
		if err != nil {
			return err
		}
		for _, ct := range types {
			names = append(names, ct.Name)
		}
		return nil
	})
	return names, err
}

func hasEnabledExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range extensions {
		if strings.ToLower(want) == ext {
			return true
		}
	}
	return false
}

func isPathUnderAnyRoot(path string, roots []catalog.MediaRoot) bool {
	for _, r := range roots {
		if strings.HasPrefix(path, r.Path) {
			return true
		}
	}
	return false
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
