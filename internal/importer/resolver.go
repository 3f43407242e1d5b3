package importer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/agentx-labs/gmrestore/internal/archive"
	"github.com/agentx-labs/gmrestore/internal/downloader"
	"github.com/agentx-labs/gmrestore/internal/manifest"
	"github.com/agentx-labs/gmrestore/internal/userscript"
)

// Archive is the read surface of an opened export archive.
type Archive interface {
	Files(pattern *regexp.Regexp) []archive.Entry
	Has(name string) bool
	Text(name string) (string, error)
	Bytes(name string) ([]byte, error)
}

// Bundle is what the resolver contributes to a foldered script's install:
// its canonical URL and lazy bindings for every declared dependency.
type Bundle struct {
	ScriptURL string
	Requires  map[string]downloader.TextSource
	Resources map[string]downloader.BlobSource
}

// Apply hands the bundle to d.
func (b *Bundle) Apply(d *downloader.Downloader) {
	d.SetScriptURL(b.ScriptURL)
	d.SetKnownRequires(b.Requires)
	d.SetKnownResources(b.Resources)
}

// resolveDependencies maps every @require and @resource declared in content
// to an archived payload through resources. A declared URL with no mapping,
// or mapped to a path the archive lacks, fails the entry. Payloads are read
// only when the installer asks for them.
func resolveDependencies(a Archive, content string, export *manifest.ExportManifest, resources manifest.ResourceMap) (*Bundle, error) {
	details, err := userscript.Parse(content, export.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyResolution, err)
	}

	b := &Bundle{
		ScriptURL: export.DownloadURL,
		Requires:  make(map[string]downloader.TextSource, len(details.RequireURLs)),
		Resources: make(map[string]downloader.BlobSource, len(details.ResourceURLs)),
	}

	for _, u := range details.RequireURLs {
		p, err := lookup(a, resources, u)
		if err != nil {
			return nil, fmt.Errorf("@require %s: %w", u, err)
		}
		b.Requires[u] = func(context.Context) (string, error) { return a.Text(p) }
	}

	for _, name := range details.ResourceList {
		u := details.ResourceURLs[name]
		p, err := lookup(a, resources, u)
		if err != nil {
			return nil, fmt.Errorf("@resource %s: %w", name, err)
		}
		b.Resources[u] = func(context.Context) ([]byte, error) { return a.Bytes(p) }
	}

	return b, nil
}

func lookup(a Archive, resources manifest.ResourceMap, u string) (string, error) {
	p, ok := resources.Lookup(u)
	if !ok {
		return "", fmt.Errorf("%w: %s is not in %s", ErrDependencyResolution, u, manifest.ResourceFile)
	}
	if !a.Has(p) {
		return "", fmt.Errorf("%w: %s maps to missing archive path %s", ErrDependencyResolution, u, p)
	}
	return p, nil
}
