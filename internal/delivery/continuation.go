// Package delivery routes API requests over the catalog and media
// pipelines (spec §4.9): thin paginated catalog wrappers, plus the
// continuation-token pattern shared by transcoded audio, cover art, and
// ZIP downloads. It generalises CineVault's stream/transcoder.go
// session-map-keyed-by-uuid approach into one Continuation type shared
// by all three streaming paths.
package delivery

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Pipeline is anything that produces bytes one buffer at a time and
// knows when it's done — the shape transcode.Stream, zipstream.Zipper,
// and a resolved cover-bytes reader all share (spec §4.9's "pipeline
// object").
type Pipeline interface {
	Next(buf []byte) (int, error)
	Done() bool
	Close() error
}

// continuation pairs a Pipeline with the metadata the first response
// segment already committed to (Content-Type, Content-Length).
type continuation struct {
	pipeline      Pipeline
	contentType   string
	contentLength int64 // -1 if not advertised (spec §4.9: audio has no Content-Length)
	onClose       func()
}

// continuationStore holds in-flight streaming responses keyed by an
// opaque token, the way CineVault's transcoder keeps a Session map
// keyed by uuid across HTTP continuations.
type continuationStore struct {
	mu    sync.Mutex
	byTok map[string]*continuation
}

func newContinuationStore() *continuationStore {
	return &continuationStore{byTok: map[string]*continuation{}}
}

func (s *continuationStore) put(c *continuation) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.byTok[token] = c
	s.mu.Unlock()
	return token
}

func (s *continuationStore) get(token string) (*continuation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byTok[token]
	return c, ok
}

func (s *continuationStore) drop(token string) {
	s.mu.Lock()
	c, ok := s.byTok[token]
	delete(s.byTok, token)
	s.mu.Unlock()
	if ok {
		_ = c.pipeline.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}
}

// Segment is one buffer's worth of a streaming response.
type Segment struct {
	Data            []byte
	ContentType     string
	ContentLength   int64 // -1 when not advertised
	ContinuationTok string // empty once Done is true
	Done            bool
}

// bufferSize matches spec §8 scenario 4's "first ~256 KiB" segment.
const bufferSize = 256 * 1024

// firstSegment drives a freshly-built pipeline for its first buffer and,
// if not yet complete, registers a continuation token for subsequent
// calls to Continue (spec §4.9 "First segment" / "Subsequent segments").
func (s *continuationStore) firstSegment(p Pipeline, contentType string, contentLength int64, onClose func()) (Segment, error) {
	buf := make([]byte, bufferSize)
	n, err := p.Next(buf)
	if err != nil {
		_ = p.Close()
		if onClose != nil {
			onClose()
		}
		return Segment{}, fmt.Errorf("delivery: first segment: %w", err)
	}

	done := p.Done()
	seg := Segment{Data: buf[:n], ContentType: contentType, ContentLength: contentLength, Done: done}
	if done {
		_ = p.Close()
		if onClose != nil {
			onClose()
		}
		return seg, nil
	}

	seg.ContinuationTok = s.put(&continuation{pipeline: p, contentType: contentType, contentLength: contentLength, onClose: onClose})
	return seg, nil
}

// Continue retrieves the pipeline behind token and writes its next
// buffer's worth of bytes, dropping the continuation once complete
// (spec §4.9 "Subsequent segments").
func (s *continuationStore) Continue(token string) (Segment, error) {
	c, ok := s.get(token)
	if !ok {
		return Segment{}, fmt.Errorf("delivery: unknown continuation %q", token)
	}

	buf := make([]byte, bufferSize)
	n, err := c.pipeline.Next(buf)
	if err != nil {
		s.drop(token)
		return Segment{}, fmt.Errorf("delivery: continue: %w", err)
	}

	done := c.pipeline.Done()
	seg := Segment{Data: buf[:n], ContentType: c.contentType, ContentLength: c.contentLength, Done: done}
	if done {
		s.drop(token)
		return seg, nil
	}
	seg.ContinuationTok = token
	return seg, nil
}

// Drop cancels a continuation early (spec §5 Cancellation: "HTTP
// handler cancellation drops the continuation, which drops the
// pipeline, which drops the transcoder, which SIGKILLs the child").
func (s *continuationStore) Drop(token string) {
	s.drop(token)
}
