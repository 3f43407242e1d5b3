package importer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"

	"github.com/agentx-labs/gmrestore/internal/archive"
	"github.com/agentx-labs/gmrestore/internal/downloader"
	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/agentx-labs/gmrestore/internal/manifest"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// localURL synthesizes the source URL of a flat entry, escaping the name.
func localURL(name string) string {
	return (&url.URL{Scheme: "file", Path: "/" + name}).String()
}

// Outcome is what happened to one archive entry.
type Outcome string

const (
	OutcomeInstalled Outcome = "installed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// EntryResult describes one processed archive entry.
type EntryResult struct {
	Entry     string
	Script    host.Script
	Outcome   Outcome
	Foldered  bool
	Requires  int
	Resources int
}

// importEntry reads one script entry, assembles its package and applies the
// conflict policy. Installed identities are added to imported; every identity
// seen in the archive, installed or skipped, is added to present.
func (c *Coordinator) importEntry(ctx context.Context, a Archive, entry archive.Entry, installed host.InstalledIndex, imported, present IdentitySet, opts Options) (EntryResult, error) {
	ctx, span := c.tracer.Start(ctx, "importer.importEntry",
		trace.WithAttributes(attribute.String("gmrestore.entry", entry.Name)))
	defer span.End()

	result := EntryResult{Entry: entry.Name, Foldered: entry.Foldered()}

	content, err := a.Text(entry.Name)
	if err != nil {
		return result, err
	}

	d := downloader.New(c.installer)
	d.SetScriptContent(content)

	enabled := true
	if !entry.Foldered() {
		d.SetScriptURL(localURL(entry.Name))
		if opts.FetchFlatDependencies {
			d.SetFetcher(c.fetcher)
		}
	} else {
		export, resources, err := loadFolder(a, entry.Folder())
		if err != nil {
			return result, err
		}
		enabled = export.Enabled

		bundle, err := resolveDependencies(a, content, export, resources)
		if err != nil {
			return result, err
		}
		bundle.Apply(d)
		result.Requires = len(bundle.Requires)
		result.Resources = len(bundle.Resources)
	}

	if err := d.Start(ctx); err != nil {
		if errors.Is(err, downloader.ErrUnresolved) {
			return result, fmt.Errorf("%w: %v", ErrDependencyResolution, err)
		}
		return result, err
	}
	details, err := d.Details()
	if err != nil {
		return result, err
	}
	id := details.ID()
	result.Script = host.Script{ID: id, DownloadURL: d.ScriptURL(), Version: details.Version, Enabled: enabled}
	present.Add(id)
	span.SetAttributes(attribute.String("gmrestore.script", id.String()))

	if !opts.Replace && installed.Has(id) {
		result.Outcome = OutcomeSkipped
		result.Script.UUID = installed[id]
		c.logger.Debug("script already installed, skipping", "entry", entry.Name, "script", id.String())
		return result, nil
	}

	sc, err := d.Install(ctx, !enabled)
	if err != nil {
		if errors.Is(err, downloader.ErrUnresolved) {
			return result, fmt.Errorf("%w: %v", ErrDependencyResolution, err)
		}
		return result, fmt.Errorf("installing %s: %w", id, err)
	}
	imported.Add(id)
	result.Script = sc
	result.Outcome = OutcomeInstalled
	return result, nil
}

// loadFolder reads the export details (required) and the resource map
// (optional) of a foldered entry.
func loadFolder(a Archive, folder string) (*manifest.ExportManifest, manifest.ResourceMap, error) {
	exportPath := path.Join(folder, manifest.ExportFile)
	data, err := a.Bytes(exportPath)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s is missing", ErrManifestParse, exportPath)
		}
		return nil, nil, err
	}
	export, err := manifest.ParseExport(data, exportPath)
	if err != nil {
		return nil, nil, err
	}

	resourcePath := path.Join(folder, manifest.ResourceFile)
	if !a.Has(resourcePath) {
		return export, manifest.ResourceMap{}, nil
	}
	data, err = a.Bytes(resourcePath)
	if err != nil {
		return nil, nil, err
	}
	resources, err := manifest.ParseResourceMap(data, resourcePath)
	if err != nil {
		return nil, nil, err
	}
	return export, resources, nil
}
