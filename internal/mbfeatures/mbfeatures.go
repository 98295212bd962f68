// Package mbfeatures fetches per-track acoustic feature vectors from the
// external low-level feature service keyed by MusicBrainz recording id
// (spec §4.7 Feature fetch addon, §6). The response is stored verbatim as
// an opaque JSON blob; this package never interprets its contents.
package mbfeatures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the client tunables spec §6 names for the feature
// service.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RateLimit and Burst follow the same shape as the MusicBrainz
	// client's rate.NewLimiter(rate.Every(...), burst) pairing.
	RateLimit time.Duration
	Burst     int

	// RetryBaseDelay is the base of the 429 retry backoff (doubled per
	// attempt). Defaults to 2s, matching CineVault's metadata client.
	RetryBaseDelay time.Duration
}

// Client fetches opaque acoustic feature blobs by MBID.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retryBase  time.Duration
}

// NewClient builds a Client from cfg. An empty BaseURL means the feature
// service is unconfigured; callers should check Enabled before using it.
func NewClient(cfg Config) *Client {
	rl := cfg.RateLimit
	if rl <= 0 {
		rl = 333 * time.Millisecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 4
	}
	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Every(rl), burst),
		retryBase:  retryBase,
	}
}

// Enabled reports whether a feature service base URL has been
// configured. Without one, the scan engine's feature-fetch phase is a
// no-op (spec §4.7).
func (c *Client) Enabled() bool { return c.baseURL != "" }

// FetchByMBID issues an HTTPS GET for the low-level feature blob
// belonging to the given MusicBrainz track id and returns the response
// body verbatim (spec §6: "response is an opaque JSON blob stored
// verbatim"). A 429 is retried with exponential backoff, for at most
// three attempts in all; any other non-200 response or transport error is a Transient
// condition the scan engine skips-and-continues on (spec §7).
func (c *Client) FetchByMBID(ctx context.Context, mbid string) ([]byte, error) {
	if mbid == "" {
		return nil, fmt.Errorf("mbfeatures: empty mbid")
	}

	url := fmt.Sprintf("%s/%s/low-level", c.baseURL, mbid)

	var lastResp *http.Response
	var body []byte
	for attempt := 0; attempt < 3; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("mbfeatures: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("mbfeatures: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mbfeatures: request %s: %w", mbid, err)
		}
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("mbfeatures: read response %s: %w", mbid, err)
		}

		lastResp, body = resp, b
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryBase << uint(attempt)):
		}
	}

	if lastResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mbfeatures: %s returned %s", mbid, lastResp.Status)
	}
	return body, nil
}
