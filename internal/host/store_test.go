package host

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/gmrestore/internal/logging"
	"github.com/agentx-labs/gmrestore/internal/userscript"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scripts.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPackage(ns, name, version string, disabled bool) Package {
	return Package{
		DownloadURL: "http://example.com/" + name + ".user.js",
		Content:     "// " + name,
		Details: &userscript.Details{
			Namespace: ns,
			Name:      name,
			Version:   version,
		},
		Disabled: disabled,
	}
}

func TestInstallAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Install(ctx, testPackage("ns", "a", "1.0", false)); err != nil {
		t.Fatalf("Install a: %v", err)
	}
	if _, err := s.Install(ctx, testPackage("ns", "b", "1.0", true)); err != nil {
		t.Fatalf("Install b: %v", err)
	}

	all, err := s.ListUserScripts(ctx, true)
	if err != nil {
		t.Fatalf("ListUserScripts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListUserScripts(true) returned %d scripts, want 2", len(all))
	}

	enabled, err := s.ListUserScripts(ctx, false)
	if err != nil {
		t.Fatalf("ListUserScripts: %v", err)
	}
	if len(enabled) != 1 || enabled[0].ID.Name != "a" {
		t.Errorf("ListUserScripts(false) = %+v, want only a", enabled)
	}
}

func TestReinstallKeepsUUID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Install(ctx, testPackage("ns", "a", "1.0", false))
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	second, err := s.Install(ctx, testPackage("ns", "a", "2.0", true))
	if err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	if first.UUID != second.UUID {
		t.Errorf("reinstall changed uuid: %s -> %s", first.UUID, second.UUID)
	}

	all, err := s.ListUserScripts(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one instance per identity, got %d", len(all))
	}
	if all[0].Enabled || all[0].Version != "2.0" {
		t.Errorf("reinstalled script = %+v, want disabled v2.0", all[0])
	}
}

func TestInstallStoresDependencies(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	pkg := testPackage("ns", "deps", "", false)
	pkg.Requires = map[string]string{"http://example.com/lib.js": "var lib;"}
	pkg.Resources = map[string][]byte{"http://example.com/logo.png": {0x89, 'P', 'N', 'G'}}

	sc, err := s.Install(ctx, pkg)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	reqs, err := s.Requires(ctx, sc.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if reqs["http://example.com/lib.js"] != "var lib;" {
		t.Errorf("Requires = %v", reqs)
	}
	res, err := s.Resources(ctx, sc.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res["http://example.com/logo.png"], []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("Resources = %v", res)
	}

	// Reinstall without dependencies clears the old rows.
	if _, err := s.Install(ctx, testPackage("ns", "deps", "", false)); err != nil {
		t.Fatal(err)
	}
	reqs, err = s.Requires(ctx, sc.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 0 {
		t.Errorf("stale requires after reinstall: %v", reqs)
	}
}

func TestUninstall(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sc, err := s.Install(ctx, testPackage("ns", "a", "", false))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Uninstall(ctx, sc.UUID); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := s.Lookup(ctx, sc.ID); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Lookup after uninstall: expected ErrNotInstalled, got %v", err)
	}
	if err := s.Uninstall(ctx, sc.UUID); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("second Uninstall: expected ErrNotInstalled, got %v", err)
	}
}

func TestInstallRejectsMissingDetails(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Install(context.Background(), Package{DownloadURL: "x"}); err == nil {
		t.Error("expected error for package without details")
	}
	if _, err := s.Install(context.Background(), testPackage("ns", "", "", false)); err == nil {
		t.Error("expected error for script without a name")
	}
}

func TestDowngradeWarning(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(filepath.Join(t.TempDir(), "scripts.db"), logging.New(&buf, "debug"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Install(ctx, testPackage("ns", "a", "2.1.0", false)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Install(ctx, testPackage("ns", "a", "1.9", false)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "older version") {
		t.Errorf("expected downgrade warning, got %q", buf.String())
	}
}

func TestUpgradeDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(filepath.Join(t.TempDir(), "scripts.db"), logging.New(&buf, "debug"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, v := range []string{"1.9", "v2.0.0", "not-a-version"} {
		if _, err := s.Install(ctx, testPackage("ns", "a", v, false)); err != nil {
			t.Fatal(err)
		}
	}
	if strings.Contains(buf.String(), "older version") {
		t.Errorf("unexpected downgrade warning: %q", buf.String())
	}
}

func TestIndexFrom(t *testing.T) {
	a := userscript.Identity{Namespace: "ns", Name: "a"}
	idx := IndexFrom([]Script{{UUID: "u1", ID: a}})
	if idx[a] != "u1" || !idx.Has(a) {
		t.Errorf("IndexFrom = %v", idx)
	}
	if idx.Has(userscript.Identity{Namespace: "ns", Name: "b"}) {
		t.Error("Has(b) = true, want false")
	}
}
