// Package userscript reads the metadata block at the top of a user script
// (// ==UserScript== ... // ==/UserScript==) and derives the stable identity
// under which the script is installed.
package userscript
