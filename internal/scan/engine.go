// Package scan implements the scheduled, incremental, cancellable catalog
// scanner (spec §4.7): walk configured roots, parse container metadata,
// reconcile against the catalog store under orphan-cleanup rules, and
// fetch per-track acoustic feature vectors from an external provider. Its
// directory walk and symlink-cycle guard are adapted from CineVault's
// internal/scanner, as a recursive os.ReadDir walk with plain counters
// that runs on the engine's single scan goroutine.
package scan

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jtdct/sonora/internal/catalog"
	"github.com/jtdct/sonora/internal/mbfeatures"
)

// State is the scan scheduler's state machine position (spec §4.7):
// NotScheduled -> Scheduled -> InProgress -> NotScheduled.
type State int

const (
	StateNotScheduled State = iota
	StateScheduled
	StateInProgress
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateInProgress:
		return "in_progress"
	default:
		return "not_scheduled"
	}
}

// RootStats tallies one root's reconciliation outcome.
type RootStats struct {
	Added      int
	Updated    int
	Removed    int
	ScanErrors int
}

// Add folds b into a.
func (a *RootStats) Add(b RootStats) {
	a.Added += b.Added
	a.Updated += b.Updated
	a.Removed += b.Removed
	a.ScanErrors += b.ScanErrors
}

// Progress is one unit of scan progress reporting (spec §4.7, §8).
type Progress struct {
	RootPath string
	Stats    RootStats
}

// Hooks lets the host wire cross-cutting side effects without this
// package importing the cover cache or similarity engine directly (spec
// §4.8.2 invalidation triggers: "a successful scan that changed at least
// one track also invalidates the cover cache and schedules retraining").
type Hooks struct {
	OnProgress func(Progress)
	OnComplete func(changed bool)
}

// Engine owns the scan scheduler and runs scans on a single-threaded
// executor (spec §4.7 Concurrency), serialised by runMu so at most one
// scan body executes at a time regardless of who calls RequestManualScan
// or the timer fires concurrently.
type Engine struct {
	store           *catalog.Store
	ffprobePath     string
	exclusionMarker string
	features        *mbfeatures.Client
	hooks           Hooks

	mu     sync.Mutex
	state  State
	timer  *time.Timer
	cancel context.CancelFunc

	runMu sync.Mutex
}

// NewEngine builds a scan Engine. features may be nil, in which case the
// feature-fetch addon phase is skipped entirely.
func NewEngine(store *catalog.Store, ffprobePath, exclusionMarker string, features *mbfeatures.Client, hooks Hooks) *Engine {
	return &Engine{
		store:           store,
		ffprobePath:     ffprobePath,
		exclusionMarker: exclusionMarker,
		features:        features,
		hooks:           hooks,
	}
}

// Start arms the scheduler from whatever ScanSettings currently says.
// Call once at process boot.
func (e *Engine) Start(ctx context.Context) error {
	return e.reschedule(ctx)
}

// State reports the scheduler's current position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RequestManualScan sets the manual-scan-requested flag and immediately
// reschedules, which will observe the flag and run now (spec §4.7
// scheduling rule).
func (e *Engine) RequestManualScan(ctx context.Context) error {
	if err := e.store.WithWrite(ctx, func(tx *sql.Tx) error {
		return e.store.RequestManualScan(ctx, tx)
	}); err != nil {
		return err
	}
	return e.reschedule(ctx)
}

// Close stops any armed timer and cancels a scan in progress, if any.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) reschedule(ctx context.Context) error {
	var settings catalog.ScanSettings
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		s, err := e.store.GetScanSettings(ctx, tx)
		settings = s
		return err
	}); err != nil {
		return err
	}

	next, ok := NextOccurrence(time.Now().UTC(), settings.Period, settings.StartOfDaySeconds, settings.ManualScanRequested)

	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if !ok {
		e.state = StateNotScheduled
		e.mu.Unlock()
		return nil
	}
	e.state = StateScheduled
	delay := time.Until(next)
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, e.fire)
	e.mu.Unlock()
	return nil
}

func (e *Engine) fire() {
	e.runScan(context.Background())
}

func (e *Engine) runScan(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	cctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.state = StateInProgress
	e.cancel = cancel
	e.mu.Unlock()

	changed, cancelled := e.scanAll(cctx)

	e.mu.Lock()
	e.cancel = nil
	e.mu.Unlock()
	cancel()

	if cancelled {
		// Spec §4.7 Completion: "If cancelled mid-scan, record nothing
		// and re-enter NotScheduled without rescheduling."
		e.mu.Lock()
		e.state = StateNotScheduled
		e.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	_ = e.store.WithWrite(context.Background(), func(tx *sql.Tx) error {
		return e.store.CompleteScan(context.Background(), tx, now, changed)
	})

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(changed)
	}

	_ = e.reschedule(context.Background())
}
