// Package platform provides cross-platform filesystem helpers. On Unix systems
// it applies permission bits directly; on Windows the helpers are no-ops.
package platform
