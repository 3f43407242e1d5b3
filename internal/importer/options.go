package importer

// Options controls one import run. The zero value is not the default; use
// DefaultOptions.
type Options struct {
	// Remove uninstalls installed scripts that are absent from the archive.
	Remove bool

	// Replace lets an archived script overwrite an installed script with the
	// same identity. When false, installed scripts are left untouched.
	Replace bool

	// ContinueOnError records a failed entry in the summary and moves on to
	// the next one instead of aborting the run. Orphan removal is skipped for
	// a run with failed entries.
	ContinueOnError bool

	// FetchFlatDependencies lets flat entries (no export folder) download
	// declared @require and @resource URLs. Foldered entries never fetch.
	// When false, a flat entry declaring dependencies fails to resolve.
	FetchFlatDependencies bool
}

// DefaultOptions returns remove=false, replace=true, fail-fast, with flat
// entries fetching their dependencies.
func DefaultOptions() Options {
	return Options{Remove: false, Replace: true, FetchFlatDependencies: true}
}
