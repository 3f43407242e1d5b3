// Package importer restores an exported script archive into a script host.
//
// An import is one strictly sequential pass over the archive's *.user.js
// entries. Each entry is read, its export details and resource map are loaded
// from its folder, its declared @require and @resource URLs are bound to
// archived payloads, and the conflict policy decides whether it is installed.
// The first failing entry aborts the run unless Options.ContinueOnError is
// set. When Options.Remove is set, installed scripts the archive does not
// contain are uninstalled afterwards by detached requests whose outcome is
// only logged and counted.
package importer
