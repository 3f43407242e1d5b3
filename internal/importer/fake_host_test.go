package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/agentx-labs/gmrestore/internal/userscript"
)

// fakeHost records install and uninstall requests.
type fakeHost struct {
	mu          sync.Mutex
	installed   []host.Script
	installs    []host.Package
	uninstalls  []string
	listErr     error
	uninstallFn func(uuid string) error
}

func (f *fakeHost) ListUserScripts(_ context.Context, includeDisabled bool) ([]host.Script, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []host.Script
	for _, s := range f.installed {
		if s.Enabled || includeDisabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeHost) Uninstall(_ context.Context, uuid string) error {
	f.mu.Lock()
	f.uninstalls = append(f.uninstalls, uuid)
	fn := f.uninstallFn
	f.mu.Unlock()
	if fn != nil {
		return fn(uuid)
	}
	return nil
}

func (f *fakeHost) Install(_ context.Context, pkg host.Package) (host.Script, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs = append(f.installs, pkg)
	return host.Script{
		UUID:        fmt.Sprintf("uuid-%d", len(f.installs)),
		ID:          pkg.Details.ID(),
		DownloadURL: pkg.DownloadURL,
		Enabled:     !pkg.Disabled,
	}, nil
}

func (f *fakeHost) installCalls() []host.Package {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.Package(nil), f.installs...)
}

func (f *fakeHost) uninstallCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uninstalls...)
}

var errUninstall = errors.New("host unavailable")

// fakeFetcher serves fixed bodies and records requested URLs.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("fetching %s: 404", url)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// script returns a user script with the given identity and extra metadata lines.
func script(namespace, name string, meta ...string) string {
	var b strings.Builder
	b.WriteString("// ==UserScript==\n")
	b.WriteString("// @name " + name + "\n")
	if namespace != "" {
		b.WriteString("// @namespace " + namespace + "\n")
	}
	for _, m := range meta {
		b.WriteString("// " + m + "\n")
	}
	b.WriteString("// ==/UserScript==\n")
	b.WriteString("console.log('" + name + "');\n")
	return b.String()
}

func id(namespace, name string) userscript.Identity {
	return userscript.Identity{Namespace: namespace, Name: name}
}
