// Package downloader assembles a user script for installation. Callers set
// the script URL and content and may pre-bind declared @require and @resource
// URLs to lazy sources; Start parses the metadata and Install resolves every
// source before handing the finished package to the host installer.
package downloader
