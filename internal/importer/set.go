package importer

import (
	"sort"

	"github.com/agentx-labs/gmrestore/internal/userscript"
)

// IdentitySet is a grow-only set of script identities.
type IdentitySet map[userscript.Identity]struct{}

// Add inserts id.
func (s IdentitySet) Add(id userscript.Identity) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s IdentitySet) Has(id userscript.Identity) bool {
	_, ok := s[id]
	return ok
}

func sortIdentities(ids []userscript.Identity) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Namespace != ids[j].Namespace {
			return ids[i].Namespace < ids[j].Namespace
		}
		return ids[i].Name < ids[j].Name
	})
}
