// Package tagparser opens an audio container and returns its stream
// info, duration, embedded pictures, and a normalised tag map (spec
// §4.2). Tag extraction is delegated to dhowden/tag; stream info and
// duration come from ffprobe, following the same probe-and-decode-JSON
// shape as CineVault's scanner/ffprobe.go. Normalisation (TRACK/DISC
// splitting, date fallback, MBID validation, ARTISTS splitting with
// positional MBID pairing, cluster-type tag matching) happens here, not
// in callers, per the "single parser interface" design note.
package tagparser

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// AudioStream describes one decoded audio stream.
type AudioStream struct {
	Bitrate int
}

// EmbeddedPicture is one picture found inside the container.
type EmbeddedPicture struct {
	MIMEType string
	Data     []byte
}

// ArtistRef pairs an artist name with an optional MBID, positionally
// matched per spec §4.2's ARTISTS/MUSICBRAINZ_ARTISTID pairing rule.
type ArtistRef struct {
	Name string
	MBID *string
}

// ParsedTrack is the normalised result of parsing one audio file.
type ParsedTrack struct {
	AudioStreams       []AudioStream
	DurationSeconds    float64
	HasEmbeddedPicture bool
	Pictures           []EmbeddedPicture
	Tags               map[string]string

	Title        string
	Album        string
	AlbumMBID    *string
	DiscTotal    *int
	Artists      []ArtistRef
	TrackNumber  *int
	TrackTotal   *int
	DiscNumber   *int
	Date         *string
	OriginalDate *string
	TrackMBID    *string
	ReleaseMBID  *string
	ArtistMBID   *string
	AcousticBrainzID *string

	// Clusters maps an enabled ClusterType name to the set of values
	// found under a matching tag key (spec §4.2's cluster-type tag
	// splitting rule).
	Clusters map[string][]string
}

// IsValidAudio reports whether the parsed result counts as audio per
// spec §4.2: at least one audio stream and duration > 0.
func (p *ParsedTrack) IsValidAudio() bool {
	return len(p.AudioStreams) >= 1 && p.DurationSeconds > 0
}

// Parse opens path, extracts container tags via dhowden/tag and stream
// info via ffprobe, and normalises the result. clusterTypeNames is the
// enabled ClusterType taxonomy (spec §3) to match tag keys against.
func Parse(ffprobePath, path string, clusterTypeNames []string) (*ParsedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}

	probe, err := probeAudio(ffprobePath, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	raw := rawTagMap(m)

	p := &ParsedTrack{
		AudioStreams:       probe.streams,
		DurationSeconds:    probe.duration,
		Tags:               raw,
		Title:              firstNonEmpty(raw["TITLE"], m.Title()),
		Album:              firstNonEmpty(raw["ALBUM"], m.Album()),
		Clusters:           map[string][]string{},
	}

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		p.HasEmbeddedPicture = true
		p.Pictures = append(p.Pictures, EmbeddedPicture{MIMEType: pic.MIMEType, Data: pic.Data})
	}

	trackNum, trackTotal := splitNumTotal(raw["TRACK"])
	if trackNum == nil {
		if n, t := m.Track(); n > 0 {
			trackNum = intPtr(n)
			if t > 0 {
				trackTotal = intPtr(t)
			}
		}
	}
	p.TrackNumber, p.TrackTotal = trackNum, trackTotal

	discNum, discTotal := splitNumTotal(raw["DISC"])
	if discNum == nil {
		if n, t := m.Disc(); n > 0 {
			discNum = intPtr(n)
			if t > 0 {
				discTotal = intPtr(t)
			}
		}
	}
	p.DiscNumber, p.DiscTotal = discNum, discTotal

	p.Date = dateFallback(raw)
	if y := m.Year(); p.Date == nil && y > 0 {
		p.Date = strPtr(strconv.Itoa(y))
	}
	p.OriginalDate = nonEmptyPtr(raw["TORY"], raw["TDOR"], raw["ORIGINALDATE"], raw["ORIGINALYEAR"])

	p.TrackMBID = validUUIDPtr(firstNonEmpty(raw["MUSICBRAINZ_TRACKID"], raw["MUSICBRAINZ TRACK ID"]))
	p.ReleaseMBID = validUUIDPtr(firstNonEmpty(raw["MUSICBRAINZ_ALBUMID"], raw["MUSICBRAINZ ALBUM ID"]))
	p.AlbumMBID = p.ReleaseMBID
	p.AcousticBrainzID = validUUIDPtr(raw["ACOUSTICBRAINZ_TRACKID"])

	p.Artists = resolveArtists(raw, m.Artist())
	if len(p.Artists) == 1 {
		p.ArtistMBID = p.Artists[0].MBID
	}

	for _, ct := range clusterTypeNames {
		if v, ok := raw[strings.ToUpper(ct)]; ok && v != "" {
			p.Clusters[ct] = splitClusterValues(v)
		}
	}

	return p, nil
}

// ExtractPicture opens path and returns its first usable embedded
// picture, without paying for an ffprobe round trip — the cover
// resolver's embedded-picture path (spec §4.3 step 1) only needs the
// container tags, not stream/duration info.
func ExtractPicture(path string) (*EmbeddedPicture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, fmt.Errorf("no embedded picture in %s", path)
	}
	return &EmbeddedPicture{MIMEType: pic.MIMEType, Data: pic.Data}, nil
}

// rawTagMap flattens dhowden/tag's format-specific Raw() map into the
// upper-cased string map spec §4.2 demands, folding in the canonical
// getters so downstream normalisation always has ARTIST/ALBUM/TITLE/
// TRACK/DISC/DATE available regardless of container format.
func rawTagMap(m tag.Metadata) map[string]string {
	out := map[string]string{}
	for k, v := range m.Raw() {
		key := strings.ToUpper(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case fmt.Stringer:
			out[key] = val.String()
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}

	if v := m.Artist(); v != "" {
		out["ARTIST"] = v
	}
	if v := m.AlbumArtist(); v != "" {
		out["ALBUMARTIST"] = v
	}
	if v := m.Album(); v != "" {
		out["ALBUM"] = v
	}
	if v := m.Title(); v != "" {
		out["TITLE"] = v
	}
	if v := m.Genre(); v != "" {
		if _, ok := out["GENRE"]; !ok {
			out["GENRE"] = v
		}
	}
	if n, total := m.Track(); n > 0 {
		if total > 0 {
			out["TRACK"] = fmt.Sprintf("%d/%d", n, total)
		} else {
			out["TRACK"] = strconv.Itoa(n)
		}
	}
	if n, total := m.Disc(); n > 0 {
		if total > 0 {
			out["DISC"] = fmt.Sprintf("%d/%d", n, total)
		} else {
			out["DISC"] = strconv.Itoa(n)
		}
	}
	if y := m.Year(); y > 0 {
		if _, ok := out["DATE"]; !ok {
			out["DATE"] = strconv.Itoa(y)
		}
		if _, ok := out["YEAR"]; !ok {
			out["YEAR"] = strconv.Itoa(y)
		}
	}

	if mb := tag.MusicBrainz(&m); mb != nil {
		if mb.Track != "" {
			out["MUSICBRAINZ_TRACKID"] = mb.Track
		}
		if mb.Artist != "" {
			out["MUSICBRAINZ_ARTISTID"] = mb.Artist
		}
		if mb.Album != "" {
			out["MUSICBRAINZ_ALBUMID"] = mb.Album
		}
	}

	return out
}

// splitNumTotal decomposes a TRACK/DISC tag value of the form "N" or
// "N/M" into number and total (spec §4.2).
func splitNumTotal(v string) (num, total *int) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parts := strings.SplitN(v, "/", 2)
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil
	}
	num = intPtr(n)
	if len(parts) == 2 {
		if t, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			total = intPtr(t)
		}
	}
	return num, total
}

// dateFallback implements the DATE/YEAR/TDOR/TORY mapping with the
// original-date fallback of spec §4.2: if OriginalDate is present and
// Date is absent, OriginalDate is copied into Date.
func dateFallback(raw map[string]string) *string {
	if v := firstNonEmpty(raw["DATE"], raw["YEAR"]); v != "" {
		return strPtr(v)
	}
	if v := firstNonEmpty(raw["TORY"], raw["TDOR"], raw["ORIGINALDATE"], raw["ORIGINALYEAR"]); v != "" {
		return strPtr(v)
	}
	return nil
}

// resolveArtists splits a multi-valued ARTISTS tag on "/" or ";" and
// positionally pairs it with MUSICBRAINZ_ARTISTID values when the
// counts match (spec §4.2 / testable boundary: a mismatched count
// disables pairing entirely, producing MBID-less Artists).
func resolveArtists(raw map[string]string, fallbackArtist string) []ArtistRef {
	artistsTag := firstNonEmpty(raw["ARTISTS"], raw["ARTIST"], fallbackArtist)
	if artistsTag == "" {
		return nil
	}
	names := splitOnSlashOrSemicolon(artistsTag)
	if len(names) == 0 {
		return nil
	}

	mbidTag := raw["MUSICBRAINZ_ARTISTID"]
	var mbids []string
	if mbidTag != "" {
		mbids = splitOnSlashOrSemicolon(mbidTag)
	}

	out := make([]ArtistRef, len(names))
	pairMBIDs := len(mbids) == len(names)
	for i, name := range names {
		ref := ArtistRef{Name: name}
		if pairMBIDs {
			ref.MBID = validUUIDPtr(mbids[i])
		}
		out[i] = ref
	}
	return out
}

func splitOnSlashOrSemicolon(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// splitClusterValues splits a tag value matching a configured
// ClusterType name on "/,;" into a set of distinct values (spec §4.2).
func splitClusterValues(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ',' || r == ';'
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// validUUIDPtr validates s as a MusicBrainz UUID tag (spec §4.2:
// "invalid UUIDs are rejected, not coerced"). Returns nil for anything
// that doesn't parse as a UUID.
func validUUIDPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return nil
	}
	return &s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmptyPtr(vals ...string) *string {
	if v := firstNonEmpty(vals...); v != "" {
		return &v
	}
	return nil
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

type probeResult struct {
	streams  []AudioStream
	duration float64
}

type ffprobeStreamJSON struct {
	CodecType string `json:"codec_type"`
	BitRate   string `json:"bit_rate"`
}

type ffprobeFormatJSON struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeOutputJSON struct {
	Streams []ffprobeStreamJSON `json:"streams"`
	Format  ffprobeFormatJSON   `json:"format"`
}

// probeAudio shells out to ffprobe for stream/duration info, the same
// exec.Command+JSON pattern as CineVault's scanner/ffprobe.go, scoped
// to audio streams only.
func probeAudio(ffprobePath, path string) (probeResult, error) {
	cmd := exec.Command(ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path)

	out, err := cmd.Output()
	if err != nil {
		return probeResult{}, fmt.Errorf("ffprobe: %w", err)
	}

	var data ffprobeOutputJSON
	if err := json.Unmarshal(out, &data); err != nil {
		return probeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var result probeResult
	for _, s := range data.Streams {
		if s.CodecType != "audio" {
			continue
		}
		bitrate, _ := strconv.Atoi(s.BitRate)
		if bitrate == 0 {
			bitrate, _ = strconv.Atoi(data.Format.BitRate)
		}
		result.streams = append(result.streams, AudioStream{Bitrate: bitrate})
	}
	if data.Format.Duration != "" {
		result.duration, _ = strconv.ParseFloat(data.Format.Duration, 64)
	}
	return result, nil
}
