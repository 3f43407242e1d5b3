package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrRead marks an archive that cannot be opened or fails integrity checks.
	ErrRead = errors.New("archive read error")

	// ErrNotFound is returned when a named entry does not exist.
	ErrNotFound = errors.New("archive entry not found")
)

// maxEntrySize caps the decompressed size of a single entry.
var maxEntrySize int64 = 64 << 20

// ScriptPattern matches the names of exported user-script entries.
var ScriptPattern = regexp.MustCompile(`\.user\.js$`)

// Entry is a named file inside the archive.
type Entry struct {
	Name string // slash-separated path inside the archive
	Size uint64 // uncompressed size
}

// Foldered reports whether the entry lives inside a folder. Only foldered
// entries carry export manifests.
func (e Entry) Foldered() bool {
	return strings.Contains(e.Name, "/")
}

// Folder returns the containing folder of the entry, or "" for flat entries.
func (e Entry) Folder() string {
	i := strings.LastIndex(e.Name, "/")
	if i < 0 {
		return ""
	}
	return e.Name[:i]
}

// Archive is an opened zip archive. It is safe for concurrent reads.
type Archive struct {
	reader *zip.Reader
	closer io.Closer
	files  map[string]*zip.File
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrRead, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrRead, path, err)
	}
	a, err := New(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// New reads an archive from r. The caller owns r and must keep it open while
// the archive is in use.
func New(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files[normalize(f.Name)] = f
	}

	return &Archive{reader: zr, files: files}, nil
}

// Close releases the underlying file when the archive was opened from disk.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Files returns the entries whose names match pattern, in archive order.
// Directory entries are never returned.
func (a *Archive) Files(pattern *regexp.Regexp) []Entry {
	var entries []Entry
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalize(f.Name)
		if pattern != nil && !pattern.MatchString(name) {
			continue
		}
		entries = append(entries, Entry{Name: name, Size: f.UncompressedSize64})
	}
	return entries
}

// Has reports whether an entry named name exists.
func (a *Archive) Has(name string) bool {
	_, ok := a.files[normalize(name)]
	return ok
}

// Bytes returns the decompressed content of the named entry.
func (a *Archive) Bytes(name string) ([]byte, error) {
	f, ok := a.files[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrRead, name, err)
	}
	defer rc.Close()

	// The header size is untrusted; it only sizes the buffer up to the cap.
	var buf bytes.Buffer
	buf.Grow(int(min(f.UncompressedSize64, uint64(maxEntrySize))))

	// Reading to EOF makes the zip reader verify the size and CRC-32.
	n, err := io.Copy(&buf, io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrRead, name, err)
	}
	if n > maxEntrySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrRead, name, maxEntrySize)
	}
	return buf.Bytes(), nil
}

// Text returns the decompressed content of the named entry as a string.
func (a *Archive) Text(name string) (string, error) {
	data, err := a.Bytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// normalize converts backslash separators written by some zip tools and
// strips a leading "./".
func normalize(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	return strings.TrimPrefix(name, "./")
}
