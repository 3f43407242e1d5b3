// Package userdata resolves the ~/.gmrestore/ data directory and the location
// of the script host database, honoring environment overrides.
package userdata
