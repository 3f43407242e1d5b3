// Package manifest parses the per-folder metadata written next to each
// exported user script: the export details file (.gm.json), validated against
// an embedded JSON schema, and the optional resource map (.files.json) that
// points declared external URLs at archived payloads.
package manifest
