// Package config manages user-level settings stored at ~/.gmrestore/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the default import policy and the location of the script database.
package config
