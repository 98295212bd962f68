package similarity

import (
	"context"
	"database/sql"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jtdct/sonora/internal/catalog"
)

// Engine owns the live Searcher instance, swapped atomically so a
// query in flight always completes against either the old or the new
// instance, never a half-built one (spec §4.8, §9 hot-swap note).
type Engine struct {
	store      *catalog.Store
	cacheDir   string
	iterations int

	current atomic.Pointer[Searcher]
}

// NewEngine builds an Engine with no live searcher; call LoadCache at
// boot and Retrain whenever the catalog changes.
func NewEngine(store *catalog.Store, cacheDir string, iterations int) *Engine {
	return &Engine{store: store, cacheDir: cacheDir, iterations: iterations}
}

// Searcher returns the currently-published instance, or nil if none
// has been built or loaded yet.
func (e *Engine) Searcher() *Searcher {
	return e.current.Load()
}

// LoadCache attempts to load a previously-persisted searcher from the
// cache directory, validated against the catalog's currently enabled
// FeatureTypes. A failed or absent cache leaves the searcher nil until
// the next Retrain (spec §4.8.2).
func (e *Engine) LoadCache(ctx context.Context) error {
	specs, err := e.enabledSpecs(ctx)
	if err != nil {
		return err
	}
	if s, ok := Load(e.cacheDir, specs); ok {
		e.current.Store(s)
	}
	return nil
}

// InvalidateCache deletes the on-disk cache without touching the live
// in-memory searcher. cmd/sonora calls it when a completed scan changed
// the catalog, before retraining.
func (e *Engine) InvalidateCache() {
	_ = os.Remove(filepath.Join(e.cacheDir, cacheFileName))
}

func (e *Engine) enabledSpecs(ctx context.Context) ([]FeatureSpec, error) {
	var specs []FeatureSpec
	err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		fts, err := e.store.ListEnabledFeatureTypes(ctx, tx)
		if err != nil {
			return err
		}
		specs = specsFromFeatureTypes(fts)
		return nil
	})
	return specs, err
}

// Retrain runs a full training pass over the current catalog and, if
// not cancelled, atomically publishes the result and persists it to
// the cache directory (spec §4.8.1, §9 hot-swap: "the builder publishes
// a new searcher only after it has been fully constructed and its
// cache has been written"). It reports built=false if there was
// nothing to train on or the run was cancelled; neither case is an
// error the caller should log loudly.
func (e *Engine) Retrain(ctx context.Context, progress ProgressFunc, cancelled Cancelled) (built bool, err error) {
	specs, err := e.enabledSpecs(ctx)
	if err != nil {
		return false, err
	}
	if len(specs) == 0 {
		return false, nil
	}

	samples, trackRelease, trackArtists, err := CollectSamples(ctx, e.store, specs)
	if err != nil {
		return false, err
	}
	if len(samples) == 0 {
		return false, nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	result, wasCancelled, err := Train(ctx, samples, specs, e.iterations, rng, progress, cancelled)
	if err != nil {
		return false, err
	}
	if wasCancelled || result == nil {
		return false, nil
	}

	searcher := BuildSearcher(result, trackRelease, trackArtists)
	if err := searcher.Save(e.cacheDir); err != nil {
		return false, err
	}
	e.current.Store(searcher)
	return true, nil
}

// rngForQuery gives each query call its own PRNG so result shuffling
// is per-call (spec §4.8.3 step 3: "Shuffle the candidates with a
// per-call PRNG").
func rngForQuery() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
