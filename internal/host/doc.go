// Package host is the script-management host that imports install into. It
// defines the messaging contract (list installed scripts, uninstall one) and
// the installer contract, and provides Store, a SQLite-backed host that
// implements both with at most one installed instance per script identity.
package host
