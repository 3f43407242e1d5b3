// Package archivetest builds in-memory script archives for tests.
package archivetest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/gmrestore/internal/archive"
	"github.com/klauspost/compress/zip"
)

// File is one entry of a test archive.
type File struct {
	Name string
	Body string
}

// Zip writes files, in order, into an uncompressed zip and returns the raw bytes.
func Zip(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Store})
		if err != nil {
			t.Fatalf("creating %s: %v", f.Name, err)
		}
		if _, err := fw.Write([]byte(f.Body)); err != nil {
			t.Fatalf("writing %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// New builds an archive from files.
func New(t testing.TB, files ...File) *archive.Archive {
	t.Helper()

	data := Zip(t, files...)
	a, err := archive.New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	return a
}

// WriteFile writes files as a zip to name inside a fresh temp dir and returns
// its path.
func WriteFile(t testing.TB, name string, files ...File) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Zip(t, files...), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
