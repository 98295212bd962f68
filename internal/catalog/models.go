package catalog

import "time"

// CoverSource enumerates where a track's cover art originates.
type CoverSource string

const (
	CoverSourceNone     CoverSource = "none"
	CoverSourceEmbedded CoverSource = "embedded"
)

// Track is a single catalogued audio file.
type Track struct {
	ID                int64
	Path              string
	LastWriteTime     time.Time
	Checksum          string
	Name              string
	DurationSeconds   float64
	TrackNumber       *int
	TrackTotal        *int
	DiscNumber        *int
	DiscTotal         *int
	ReleaseDate       *string
	OriginalDate      *string
	MBID              *string
	AcousticBrainzID  *string
	CoverSource       CoverSource
	AddedTime         time.Time
	ReleaseID         *int64
}

// Artist is a performer/creator entity.
type Artist struct {
	ID   int64
	Name string
	MBID *string
}

// Release is an album-class grouping of tracks.
type Release struct {
	ID         int64
	Name       string
	MBID       *string
	DiscTotal  *int
}

// ClusterType names a tag taxonomy, e.g. "GENRE".
type ClusterType struct {
	ID      int64
	Name    string
	Enabled bool
}

// Cluster is a value within a ClusterType, e.g. ("GENRE", "Metal").
type Cluster struct {
	ID            int64
	ClusterTypeID int64
	Value         string
}

// FeatureType declares one named numeric sub-vector used by the
// similarity engine.
type FeatureType struct {
	ID         int64
	Name       string
	Dimensions int
	Weight     float64
	Enabled    bool
}

// Features is the raw per-track acoustic feature payload, stored as
// JSON text keyed by FeatureType name.
type Features struct {
	ID      int64
	TrackID int64
	MBID    string
	JSON    string
}

// UpdatePeriod enumerates the scan schedule cadence.
type UpdatePeriod string

const (
	PeriodNever   UpdatePeriod = "never"
	PeriodDaily   UpdatePeriod = "daily"
	PeriodWeekly  UpdatePeriod = "weekly"
	PeriodMonthly UpdatePeriod = "monthly"
)

// RootType enumerates a MediaRoot's media class.
type RootType string

const (
	RootTypeAudio RootType = "audio"
	RootTypeVideo RootType = "video"
)

// MediaRoot is a watched directory.
type MediaRoot struct {
	ID   int64
	Path string
	Type RootType
}

// ScanSettings is the singleton scan configuration/state row.
type ScanSettings struct {
	ID                  int64
	Period              UpdatePeriod
	StartOfDaySeconds    int
	ManualScanRequested bool
	LastScan            *time.Time
	LastUpdate          *time.Time
	AudioExtensions     []string
	VideoExtensions     []string
}

// SimilaritySettings is the singleton similarity configuration/state row.
type SimilaritySettings struct {
	ID          int64
	ScanVersion int64
}

// User is an opaque authentication principal; AuthInfo holds its
// password hash. Neither is further specified by the core.
type User struct {
	ID       int64
	Username string
}

// AuthInfo stores a bcrypt password hash for a User.
type AuthInfo struct {
	UserID       int64
	PasswordHash string
}
