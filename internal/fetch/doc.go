// Package fetch retrieves remote script dependencies over HTTP with retries.
package fetch
