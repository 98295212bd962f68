package similarity

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const cacheFileName = "network.txt"

// Searcher is an immutable, fully-constructed similarity instance
// (spec §4.8): a trained network plus the position sets every track,
// release, and artist quantised to. Once built it is never mutated —
// the engine publishes a new Searcher wholesale rather than editing one
// in place (spec §9 hot-swap note).
type Searcher struct {
	Network         *Network
	Normalizer      Normalizer
	Specs           []FeatureSpec
	MedianNeighDist float64

	TrackPositions   map[int64][]Pos
	ReleasePositions map[int64][]Pos
	ArtistPositions  map[int64][]Pos
}

// BuildSearcher derives release and artist position sets (the union of
// their tracks' positions, spec §4.8.1 step 6) from a completed
// training result.
func BuildSearcher(res *TrainResult, trackRelease map[int64]int64, trackArtists map[int64][]int64) *Searcher {
	releasePos := map[int64][]Pos{}
	artistPos := map[int64][]Pos{}

	for trackID, positions := range res.TrackPositions {
		if relID, ok := trackRelease[trackID]; ok {
			releasePos[relID] = unionPos(releasePos[relID], positions)
		}
		for _, artistID := range trackArtists[trackID] {
			artistPos[artistID] = unionPos(artistPos[artistID], positions)
		}
	}

	return &Searcher{
		Network:          res.Network,
		Normalizer:       res.Normalizer,
		Specs:            res.Specs,
		MedianNeighDist:  res.MedianNeighDist,
		TrackPositions:   res.TrackPositions,
		ReleasePositions: releasePos,
		ArtistPositions:  artistPos,
	}
}

func unionPos(existing, add []Pos) []Pos {
	seen := map[Pos]bool{}
	for _, p := range existing {
		seen[p] = true
	}
	out := append([]Pos{}, existing...)
	for _, p := range add {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Save serialises the Searcher to a line-oriented, language-independent
// text file under dir (spec §4.8.2). The format is deliberately simple:
// one declaration per line, space-separated fields.
func (s *Searcher) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("similarity: mkdir cache dir: %w", err)
	}
	path := filepath.Join(dir, cacheFileName)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("similarity: create cache file: %w", err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "side %d\n", s.Network.Side)
	fmt.Fprintf(w, "dim %d\n", s.Network.Dim)
	fmt.Fprintf(w, "median %s\n", formatFloat(s.MedianNeighDist))

	fmt.Fprintf(w, "specs %d\n", len(s.Specs))
	for _, spec := range s.Specs {
		fmt.Fprintf(w, "spec %s %d %s\n", spec.Name, spec.Dimensions, formatFloat(spec.Weight))
	}

	fmt.Fprintf(w, "normmin %s\n", formatFloats(s.Normalizer.Min))
	fmt.Fprintf(w, "normmax %s\n", formatFloats(s.Normalizer.Max))

	for _, p := range s.Network.Positions() {
		fmt.Fprintf(w, "ref %d %d %s\n", p.X, p.Y, formatFloats(s.Network.RefAt(p)))
	}

	writePositions(w, "track", s.TrackPositions)
	writePositions(w, "release", s.ReleasePositions)
	writePositions(w, "artist", s.ArtistPositions)

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("similarity: write cache file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("similarity: close cache file: %w", err)
	}
	return os.Rename(tmp, path)
}

func writePositions(w *bufio.Writer, label string, m map[int64][]Pos) {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprintf(w, "%s %d %s\n", label, id, formatPositions(m[id]))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatFloat(x)
	}
	return strings.Join(parts, ",")
}

func formatPositions(positions []Pos) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("%d:%d", p.X, p.Y)
	}
	return strings.Join(parts, ",")
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parsePositions(s string) ([]Pos, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]Pos, len(fields))
	for i, f := range fields {
		xy := strings.SplitN(f, ":", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("bad position %q", f)
		}
		x, err := strconv.Atoi(xy[0])
		if err != nil {
			return nil, err
		}
		y, err := strconv.Atoi(xy[1])
		if err != nil {
			return nil, err
		}
		out[i] = Pos{X: x, Y: y}
	}
	return out, nil
}

// Load reads a cache file written by Save and validates it against the
// currently-enabled FeatureSpecs. Any consistency failure (missing
// file, malformed line, grid-size/dimension mismatch against the
// expected specs) returns (nil, false): spec §4.8.2 says to
// "delete the cache and leave the searcher absent until the next
// training" rather than surface a hard error.
func Load(dir string, expected []FeatureSpec) (*Searcher, bool) {
	path := filepath.Join(dir, cacheFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	s, ok := parse(f)
	if !ok {
		_ = os.Remove(path)
		return nil, false
	}
	if !specsMatch(s.Specs, expected) {
		_ = os.Remove(path)
		return nil, false
	}
	if s.Network.Side*s.Network.Side != len(s.Network.Positions()) {
		_ = os.Remove(path)
		return nil, false
	}
	if s.Network.Dim != TotalDimensions(expected) {
		_ = os.Remove(path)
		return nil, false
	}
	return s, true
}

func specsMatch(a, b []FeatureSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Dimensions != b[i].Dimensions || a[i].Weight != b[i].Weight {
			return false
		}
	}
	return true
}

func parse(f *os.File) (*Searcher, bool) {
	s := &Searcher{
		TrackPositions:   map[int64][]Pos{},
		ReleasePositions: map[int64][]Pos{},
		ArtistPositions:  map[int64][]Pos{},
	}
	var side, dim, specCount int
	var refs = map[Pos][]float64{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return nil, false
		}
		tag, rest := fields[0], fields[1]

		switch tag {
		case "side":
			v, err := strconv.Atoi(rest)
			if err != nil {
				return nil, false
			}
			side = v
		case "dim":
			v, err := strconv.Atoi(rest)
			if err != nil {
				return nil, false
			}
			dim = v
		case "median":
			v, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return nil, false
			}
			s.MedianNeighDist = v
		case "specs":
			v, err := strconv.Atoi(rest)
			if err != nil {
				return nil, false
			}
			specCount = v
		case "spec":
			parts := strings.SplitN(rest, " ", 3)
			if len(parts) != 3 {
				return nil, false
			}
			dims, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, false
			}
			weight, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, false
			}
			s.Specs = append(s.Specs, FeatureSpec{Name: parts[0], Dimensions: dims, Weight: weight})
		case "normmin":
			v, err := parseFloats(rest)
			if err != nil {
				return nil, false
			}
			s.Normalizer.Min = v
		case "normmax":
			v, err := parseFloats(rest)
			if err != nil {
				return nil, false
			}
			s.Normalizer.Max = v
		case "ref":
			parts := strings.SplitN(rest, " ", 3)
			if len(parts) != 3 {
				return nil, false
			}
			x, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, false
			}
			y, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, false
			}
			vec, err := parseFloats(parts[2])
			if err != nil {
				return nil, false
			}
			refs[Pos{X: x, Y: y}] = vec
		case "track", "release", "artist":
			parts := strings.SplitN(rest, " ", 2)
			if len(parts) != 2 {
				return nil, false
			}
			id, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return nil, false
			}
			positions, err := parsePositions(parts[1])
			if err != nil {
				return nil, false
			}
			switch tag {
			case "track":
				s.TrackPositions[id] = positions
			case "release":
				s.ReleasePositions[id] = positions
			case "artist":
				s.ArtistPositions[id] = positions
			}
		default:
			return nil, false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false
	}
	if specCount != len(s.Specs) {
		return nil, false
	}

	net := &Network{Side: side, Dim: dim, refs: make([][]float64, side*side)}
	for _, p := range net.Positions() {
		vec, ok := refs[p]
		if !ok {
			return nil, false
		}
		net.refs[net.index(p)] = vec
	}
	s.Network = net
	return s, true
}
