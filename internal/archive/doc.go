// Package archive gives read-only access to an exported script archive (a zip
// file). Entries are enumerated in archive order and every read verifies the
// entry checksum, so a truncated or tampered archive surfaces as ErrRead.
package archive
