package host

import (
	"context"
	"errors"

	"github.com/agentx-labs/gmrestore/internal/userscript"
)

// ErrNotInstalled is returned when a uuid or identity has no installed script.
var ErrNotInstalled = errors.New("script not installed")

// Script describes one installed user script.
type Script struct {
	UUID        string
	ID          userscript.Identity
	Version     string
	Description string
	DownloadURL string
	Enabled     bool
}

// Package is a fully resolved script ready to be installed: its source plus
// the content of every @require and @resource it declares.
type Package struct {
	DownloadURL string
	Content     string
	Details     *userscript.Details
	Requires    map[string]string // require URL -> script text
	Resources   map[string][]byte // resource URL -> payload
	Disabled    bool
}

// Messenger is the request surface of the script host.
type Messenger interface {
	// ListUserScripts returns installed scripts. Disabled scripts are
	// included only when includeDisabled is true.
	ListUserScripts(ctx context.Context, includeDisabled bool) ([]Script, error)

	// Uninstall removes the installed script with the given uuid.
	Uninstall(ctx context.Context, uuid string) error
}

// Installer installs resolved script packages.
type Installer interface {
	Install(ctx context.Context, pkg Package) (Script, error)
}

// InstalledIndex maps a script identity to the uuid of its installed
// instance. It is a snapshot and is never mutated during an import.
type InstalledIndex map[userscript.Identity]string

// IndexFrom builds an InstalledIndex from listed scripts.
func IndexFrom(scripts []Script) InstalledIndex {
	idx := make(InstalledIndex, len(scripts))
	for _, s := range scripts {
		idx[s.ID] = s.UUID
	}
	return idx
}

// Has reports whether id is installed.
func (idx InstalledIndex) Has(id userscript.Identity) bool {
	_, ok := idx[id]
	return ok
}
