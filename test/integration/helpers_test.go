//go:build integration

package integration_test

import (
	"path/filepath"
	"testing"

	"github.com/agentx-labs/gmrestore/internal/archive/archivetest"
	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/agentx-labs/gmrestore/internal/logging"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	DataDir string // GMRESTORE_DATA
	DBPath  string // GMRESTORE_DB
	Store   *host.Store
}

// setupTestEnv creates an isolated data directory and an open host store.
// The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{DataDir: t.TempDir()}
	env.DBPath = filepath.Join(env.DataDir, "scripts.db")

	t.Setenv("GMRESTORE_DATA", env.DataDir)
	t.Setenv("GMRESTORE_DB", env.DBPath)

	store, err := host.Open(env.DBPath, logging.Discard())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	env.Store = store
	return env
}

// userScript renders a metadata block followed by a one-line body.
func userScript(namespace, name, version string, meta ...string) string {
	s := "// ==UserScript==\n" +
		"// @name " + name + "\n" +
		"// @namespace " + namespace + "\n" +
		"// @version " + version + "\n"
	for _, m := range meta {
		s += "// " + m + "\n"
	}
	return s + "// ==/UserScript==\nconsole.log('" + name + "');\n"
}

// backupArchive returns a mixed archive: one foldered script with a require
// and a resource, one disabled foldered script and one flat script.
func backupArchive(t *testing.T) string {
	t.Helper()

	return archivetest.WriteFile(t, "backup.zip",
		archivetest.File{Name: "Dark Mode/Dark Mode.user.js", Body: userScript("http://example.com", "Dark Mode", "1.4.0",
			"@require https://cdn.example.com/jquery.js",
			"@resource css https://cdn.example.com/dark.css")},
		archivetest.File{Name: "Dark Mode/.gm.json", Body: `{"enabled": true, "downloadUrl": "https://example.com/dark.user.js"}`},
		archivetest.File{Name: "Dark Mode/.files.json", Body: `{
  "https://cdn.example.com/jquery.js": "Dark Mode/jquery.js",
  "https://cdn.example.com/dark.css": "Dark Mode/dark.css"
}`},
		archivetest.File{Name: "Dark Mode/jquery.js", Body: "window.jQuery = {};"},
		archivetest.File{Name: "Dark Mode/dark.css", Body: "body { background: #000; }"},

		archivetest.File{Name: "Old Helper/Old Helper.user.js", Body: userScript("http://example.com", "Old Helper", "0.1.0")},
		archivetest.File{Name: "Old Helper/.gm.json", Body: `{"enabled": false, "downloadUrl": "https://example.com/old.user.js"}`},

		archivetest.File{Name: "scratch.user.js", Body: userScript("local", "scratch", "0.0.1")},
	)
}
