package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/agentx-labs/gmrestore/internal/userscript"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotStarted is returned by Details and Install before Start succeeds.
	ErrNotStarted = errors.New("downloader not started")

	// ErrUnresolved marks a declared @require or @resource URL that has no
	// known source and no fetcher to fall back on.
	ErrUnresolved = errors.New("unresolved script dependency")
)

// TextSource lazily produces the text of an @require.
type TextSource func(ctx context.Context) (string, error)

// BlobSource lazily produces the payload of an @resource.
type BlobSource func(ctx context.Context) ([]byte, error)

// Fetcher retrieves a URL's content over the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// maxParallel bounds concurrent source resolution within one Install.
const maxParallel = 4

// Downloader builds one script package. It is not safe for concurrent use.
type Downloader struct {
	installer host.Installer
	fetcher   Fetcher

	scriptURL string
	content   string
	requires  map[string]TextSource
	resources map[string]BlobSource

	details *userscript.Details
}

// New returns a Downloader that installs through installer.
func New(installer host.Installer) *Downloader {
	return &Downloader{
		installer: installer,
		requires:  make(map[string]TextSource),
		resources: make(map[string]BlobSource),
	}
}

// SetFetcher enables network retrieval of dependencies with no known source.
func (d *Downloader) SetFetcher(f Fetcher) { d.fetcher = f }

// SetScriptURL sets the canonical source URL.
func (d *Downloader) SetScriptURL(url string) { d.scriptURL = url }

// SetScriptContent sets the script source text.
func (d *Downloader) SetScriptContent(content string) { d.content = content }

// SetKnownRequires binds @require URLs to their sources.
func (d *Downloader) SetKnownRequires(requires map[string]TextSource) {
	for u, src := range requires {
		d.requires[u] = src
	}
}

// SetKnownResources binds @resource URLs to their sources.
func (d *Downloader) SetKnownResources(resources map[string]BlobSource) {
	for u, src := range resources {
		d.resources[u] = src
	}
}

// ScriptURL returns the canonical source URL.
func (d *Downloader) ScriptURL() string { return d.scriptURL }

// Start parses the script metadata and checks that every declared
// dependency can be resolved.
func (d *Downloader) Start(ctx context.Context) error {
	if d.scriptURL == "" {
		return errors.New("starting download: no script URL")
	}
	details, err := userscript.Parse(d.content, d.scriptURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", d.scriptURL, err)
	}

	if d.fetcher == nil {
		for _, u := range details.RequireURLs {
			if _, ok := d.requires[u]; !ok {
				return fmt.Errorf("%w: @require %s of %s", ErrUnresolved, u, d.scriptURL)
			}
		}
		for _, name := range details.ResourceList {
			u := details.ResourceURLs[name]
			if _, ok := d.resources[u]; !ok {
				return fmt.Errorf("%w: @resource %s (%s) of %s", ErrUnresolved, name, u, d.scriptURL)
			}
		}
	}

	d.details = details
	return nil
}

// Details returns the parsed metadata.
func (d *Downloader) Details() (*userscript.Details, error) {
	if d.details == nil {
		return nil, ErrNotStarted
	}
	return d.details, nil
}

// Install resolves every dependency and installs the script. disabled marks
// the installed script as not running.
func (d *Downloader) Install(ctx context.Context, disabled bool) (host.Script, error) {
	if d.details == nil {
		return host.Script{}, ErrNotStarted
	}

	var (
		mu        sync.Mutex
		requires  = make(map[string]string, len(d.details.RequireURLs))
		resources = make(map[string][]byte, len(d.details.ResourceURLs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for _, u := range d.details.RequireURLs {
		g.Go(func() error {
			text, err := d.resolveText(gctx, u)
			if err != nil {
				return fmt.Errorf("resolving @require %s: %w", u, err)
			}
			mu.Lock()
			requires[u] = text
			mu.Unlock()
			return nil
		})
	}
	for _, name := range d.details.ResourceList {
		u := d.details.ResourceURLs[name]
		g.Go(func() error {
			data, err := d.resolveBlob(gctx, u)
			if err != nil {
				return fmt.Errorf("resolving @resource %s: %w", name, err)
			}
			mu.Lock()
			resources[u] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return host.Script{}, err
	}

	return d.installer.Install(ctx, host.Package{
		DownloadURL: d.scriptURL,
		Content:     d.content,
		Details:     d.details,
		Requires:    requires,
		Resources:   resources,
		Disabled:    disabled,
	})
}

func (d *Downloader) resolveText(ctx context.Context, u string) (string, error) {
	if src, ok := d.requires[u]; ok {
		return src(ctx)
	}
	data, err := d.fetch(ctx, u)
	return string(data), err
}

func (d *Downloader) resolveBlob(ctx context.Context, u string) ([]byte, error) {
	if src, ok := d.resources[u]; ok {
		return src(ctx)
	}
	return d.fetch(ctx, u)
}

func (d *Downloader) fetch(ctx context.Context, u string) ([]byte, error) {
	if d.fetcher == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, u)
	}
	return d.fetcher.Fetch(ctx, u)
}
