// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every tunable the server reads at startup. All fields are
// sourced from the environment; there is no config file format.
type Config struct {
	WorkingDir    string
	DatabasePath  string
	MediaRoots    []string
	FFmpegPath    string
	FFprobePath   string

	CoverCacheSize       int
	CoverMaxSize         int
	CoverJPEGQuality     int
	CoverMaxFileSize     int64
	CoverImageExtensions []string
	CoverPreferredNames  []string
	CoverDefaultPath     string

	MaxTranscodeSessionsPerUser int
	TranscodeTimeoutSeconds     int

	FeatureServiceBaseURL string
	FeatureServiceTimeout int

	SimilarityTrainIterations int
	SimilarityCacheDir        string

	ScanExclusionMarker string

	LoginThrottlerMaxEntries int

	APISubsonic bool

	TLSCertFile string
	TLSKeyFile  string
}

// Load builds a Config from the process environment, falling back to the
// defaults below for anything unset.
func Load() *Config {
	return &Config{
		WorkingDir:   env("WORKING_DIR", "/var/lib/sonora"),
		DatabasePath: env("DATABASE_PATH", "/var/lib/sonora/sonora.db"),
		MediaRoots:   envList("MEDIA_ROOTS", nil),
		FFmpegPath:   env("FFMPEG_FILE", "ffmpeg"),
		FFprobePath:  env("FFPROBE_FILE", "ffprobe"),

		CoverCacheSize:       envInt("COVER_CACHE_SIZE", 256),
		CoverMaxSize:         envInt("COVER_MAX_SIZE", 512),
		CoverJPEGQuality:     envInt("COVER_JPEG_QUALITY", 75),
		CoverMaxFileSize:     int64(envInt("COVER_MAX_FILE_SIZE_BYTES", 10<<20)),
		CoverImageExtensions: envList("COVER_IMAGE_EXTENSIONS", []string{".jpg", ".jpeg", ".png"}),
		CoverPreferredNames:  envList("COVER_PREFERRED_NAMES", []string{"cover", "front", "folder"}),
		CoverDefaultPath:     env("COVER_DEFAULT_PATH", "/var/lib/sonora/default-cover.jpg"),

		MaxTranscodeSessionsPerUser: envInt("MAX_TRANSCODE_SESSIONS_PER_USER", 3),
		TranscodeTimeoutSeconds:     envInt("TRANSCODE_TIMEOUT_SECONDS", 30),

		FeatureServiceBaseURL: env("FEATURE_SERVICE_BASE_URL", ""),
		FeatureServiceTimeout: envInt("FEATURE_SERVICE_TIMEOUT_SECONDS", 10),

		SimilarityTrainIterations: envInt("SIMILARITY_TRAIN_ITERATIONS", 10),
		SimilarityCacheDir:        env("SIMILARITY_CACHE_DIR", "/var/lib/sonora/similarity"),

		ScanExclusionMarker: env("SCAN_EXCLUSION_MARKER", ".sonora-ignore"),

		LoginThrottlerMaxEntries: envInt("LOGIN_THROTTLER_MAX_ENTRIES", 10000),

		APISubsonic: envBool("API_SUBSONIC", true),

		TLSCertFile: env("TLS_CERT_FILE", ""),
		TLSKeyFile:  env("TLS_KEY_FILE", ""),
	}
}

// FeatureServiceEnabled reports whether a low-level feature service has
// been configured. Without one, the scan engine's feature-fetch addon
// phase is a no-op.
func (c *Config) FeatureServiceEnabled() bool {
	return c.FeatureServiceBaseURL != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
