package zipstream

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func drain(t *testing.T, z *Zipper) []byte {
	t.Helper()
	var out bytes.Buffer
	buf := make([]byte, MinOutputBufferSize)
	for !z.IsComplete() {
		n, err := z.WriteSome(buf)
		if err != nil {
			t.Fatalf("WriteSome: %v", err)
		}
		if n == 0 && !z.IsComplete() {
			t.Fatal("WriteSome made no progress before completion")
		}
		out.Write(buf[:n])
	}
	return out.Bytes()
}

func TestRoundTripUnzipsToSourceBytes(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTempFile(t, dir, "a.flac", bytes.Repeat([]byte("A"), 100))
	bPath := writeTempFile(t, dir, "b.flac", []byte("short"))

	files := map[string]string{
		"01 - Track A.flac": aPath,
		"02 - Track B.flac": bPath,
	}
	z, err := New(files, time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer z.Close()

	out := drain(t, z)
	if uint64(len(out)) != z.TotalSize() {
		t.Fatalf("output length %d != precomputed TotalSize %d", len(out), z.TotalSize())
	}

	r, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(r.File) != 2 {
		t.Fatalf("want 2 entries, got %d", len(r.File))
	}

	want := map[string][]byte{
		"01 - Track A.flac": bytes.Repeat([]byte("A"), 100),
		"02 - Track B.flac": []byte("short"),
	}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		if !bytes.Equal(got, want[f.Name]) {
			t.Fatalf("entry %s: got %q want %q", f.Name, got, want[f.Name])
		}
	}
}

func TestSizeMismatchFailsWithDistinguishedError(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.flac", bytes.Repeat([]byte("X"), 50))

	z, err := New(map[string]string{"a.flac": path}, time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer z.Close()

	// Grow the file after the pre-stat, so it mismatches when opened
	// for FileData (spec §4.6 / §7: archive is unrecoverable at that
	// point).
	if err := os.WriteFile(path, bytes.Repeat([]byte("X"), 200), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	buf := make([]byte, MinOutputBufferSize)
	var lastErr error
	for !z.IsComplete() {
		_, err := z.WriteSome(buf)
		if err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected a size-mismatch error")
	}
	if !errors.Is(lastErr, ErrSizeMismatch) {
		t.Fatalf("got %v, want ErrSizeMismatch", lastErr)
	}
}

func TestEntriesOrderedByName(t *testing.T) {
	dir := t.TempDir()
	zPath := writeTempFile(t, dir, "z.flac", []byte("z"))
	aPath := writeTempFile(t, dir, "a.flac", []byte("a"))

	z, err := New(map[string]string{"z.flac": zPath, "a.flac": aPath}, time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer z.Close()

	if z.entries[0].name != "a.flac" || z.entries[1].name != "z.flac" {
		t.Fatalf("entries not sorted by name: %v", z.entries)
	}
}
