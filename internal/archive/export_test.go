package archive

import "testing"

// SetMaxEntrySize lowers the per-entry cap for the duration of t.
func SetMaxEntrySize(t testing.TB, n int64) {
	old := maxEntrySize
	maxEntrySize = n
	t.Cleanup(func() { maxEntrySize = old })
}
