package delivery

import (
	"sync"

	"github.com/jtdct/sonora/internal/catalog"
	"github.com/jtdct/sonora/internal/cover"
	"github.com/jtdct/sonora/internal/similarity"
)

// Config holds the delivery-layer tunables spec §4.9/§6 name.
type Config struct {
	DefaultPageSize       int
	MaxPageSize           int
	FFmpegPath            string
	MaxInFlightTranscodes int
}

// Supervisor is the delivery supervisor of spec §4.9: thin paginated
// catalog wrappers plus the continuation-token streaming pattern shared
// by transcoded audio, cover art, and ZIP downloads.
type Supervisor struct {
	store      *catalog.Store
	cover      *cover.Resolver
	similarity *similarity.Engine
	cfg        Config

	continuations *continuationStore

	mu           sync.Mutex
	inFlightXcode int
}

// New builds a Supervisor over the given store, cover resolver, and
// similarity engine. similarityEngine may be nil if similarity querying
// is disabled.
func New(store *catalog.Store, coverResolver *cover.Resolver, similarityEngine *similarity.Engine, cfg Config) *Supervisor {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 500
	}
	return &Supervisor{
		store:         store,
		cover:         coverResolver,
		similarity:    similarityEngine,
		cfg:           cfg,
		continuations: newContinuationStore(),
	}
}

// ClampPage applies spec §4.9's pagination rule: size=0 means "use
// default", a negative size also gets the default, and anything larger
// than the configured maximum is clamped to it.
func (s *Supervisor) ClampPage(size int) int {
	if size == 0 {
		return s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	if size < 0 {
		return s.cfg.DefaultPageSize
	}
	return size
}

// Continue advances an in-flight streaming response by one buffer
// (spec §4.9 "Subsequent segments"), shared across the audio, cover,
// and download paths since they all register through the same
// continuationStore.
func (s *Supervisor) Continue(token string) (Segment, error) {
	return s.continuations.Continue(token)
}

// Drop cancels an in-flight streaming response (spec §5 Cancellation).
func (s *Supervisor) Drop(token string) {
	s.continuations.Drop(token)
}

func (s *Supervisor) acquireTranscodeSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxInFlightTranscodes > 0 && s.inFlightXcode >= s.cfg.MaxInFlightTranscodes {
		return false
	}
	s.inFlightXcode++
	return true
}

func (s *Supervisor) releaseTranscodeSlot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlightXcode > 0 {
		s.inFlightXcode--
	}
}

// InFlightTranscodes reports the current transcode slot count, for
// diagnostics.
func (s *Supervisor) InFlightTranscodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlightXcode
}
