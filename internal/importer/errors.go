package importer

import (
	"errors"
	"fmt"

	"github.com/agentx-labs/gmrestore/internal/archive"
	"github.com/agentx-labs/gmrestore/internal/manifest"
)

var (
	// ErrArchiveRead marks a corrupt archive or an entry failing its checksum.
	ErrArchiveRead = archive.ErrRead

	// ErrManifestParse marks a missing or malformed export-details file.
	ErrManifestParse = manifest.ErrParse

	// ErrDependencyResolution marks a declared @require or @resource that the
	// folder's resource map cannot satisfy.
	ErrDependencyResolution = errors.New("dependency resolution error")

	// ErrHostMessaging marks a failed request to the script host.
	ErrHostMessaging = errors.New("host messaging error")
)

// EntryError records which archive entry failed.
type EntryError struct {
	Entry string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("importing %s: %v", e.Entry, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
