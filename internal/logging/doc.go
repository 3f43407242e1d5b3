// Package logging builds the structured logger shared by the CLI and the
// import pipeline.
package logging
