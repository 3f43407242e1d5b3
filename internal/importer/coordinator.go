package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentx-labs/gmrestore/internal/archive"
	"github.com/agentx-labs/gmrestore/internal/downloader"
	"github.com/agentx-labs/gmrestore/internal/fetch"
	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/agentx-labs/gmrestore/internal/logging"
	"github.com/agentx-labs/gmrestore/internal/userscript"
	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/agentx-labs/gmrestore/internal/importer"

// Defaults for the fetcher used when none is supplied.
const (
	fetchRetries = 3
	fetchTimeout = 30 * time.Second
)

// Orphan is an installed script the archive does not contain.
type Orphan struct {
	ID   userscript.Identity
	UUID string
}

// Summary reports one import run.
type Summary struct {
	Entries  []EntryResult
	Failed   []*EntryError
	Imported IdentitySet // identities actually (re)installed
	Present  IdentitySet // identities found in the archive, installed or skipped
	Orphans  []Orphan    // uninstall requested, not awaited
}

// Count returns the number of entries with outcome o.
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, e := range s.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Coordinator runs archive imports against a script host.
type Coordinator struct {
	messenger host.Messenger
	installer host.Installer
	fetcher   downloader.Fetcher
	logger    *log.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	detached sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Removal outcomes are reported here.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithFetcher replaces the HTTP fetcher flat entries use when
// Options.FetchFlatDependencies is set.
func WithFetcher(f downloader.Fetcher) Option {
	return func(c *Coordinator) { c.fetcher = f }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// New returns a Coordinator that lists and uninstalls through messenger and
// installs through installer.
func New(messenger host.Messenger, installer host.Installer, opts ...Option) *Coordinator {
	c := &Coordinator{
		messenger: messenger,
		installer: installer,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.fetcher == nil {
		c.fetcher = fetch.New(fetchRetries, fetchTimeout, c.logger)
	}
	return c
}

// InstalledIndex asks the host for every installed script, disabled ones
// included.
func (c *Coordinator) InstalledIndex(ctx context.Context) (host.InstalledIndex, error) {
	scripts, err := c.messenger.ListUserScripts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: listing installed scripts: %v", ErrHostMessaging, err)
	}
	return host.IndexFrom(scripts), nil
}

// Import lists installed scripts and imports a.
func (c *Coordinator) Import(ctx context.Context, a Archive, opts Options) (*Summary, error) {
	installed, err := c.InstalledIndex(ctx)
	if err != nil {
		return nil, err
	}
	return c.ImportArchive(ctx, a, installed, opts)
}

// ImportArchive imports every script entry of a, one at a time in archive
// order, then dispatches removal of orphans when opts.Remove is set.
// installed is treated as read-only.
//
// Unless opts.ContinueOnError is set, the first failing entry aborts the run
// and its error is returned together with the partial summary; no orphan is
// removed in that case.
func (c *Coordinator) ImportArchive(ctx context.Context, a Archive, installed host.InstalledIndex, opts Options) (summary *Summary, err error) {
	ctx, span := c.tracer.Start(ctx, "importer.ImportArchive",
		trace.WithAttributes(
			attribute.Bool("gmrestore.remove", opts.Remove),
			attribute.Bool("gmrestore.replace", opts.Replace),
			attribute.Int("gmrestore.installed", len(installed)),
		))
	start := time.Now()
	defer func() {
		c.metrics.duration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	summary = &Summary{
		Imported: make(IdentitySet),
		Present:  make(IdentitySet),
	}

	entries := a.Files(archive.ScriptPattern)
	c.logger.Info("importing archive", "entries", len(entries), "installed", len(installed))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := c.importEntry(ctx, a, entry, installed, summary.Imported, summary.Present, opts)
		if err != nil {
			entryErr := &EntryError{Entry: entry.Name, Err: err}
			result.Outcome = OutcomeFailed
			summary.Entries = append(summary.Entries, result)
			c.metrics.entry(OutcomeFailed)
			if !opts.ContinueOnError {
				return summary, entryErr
			}
			c.logger.Error("entry failed, continuing", "entry", entry.Name, "err", err)
			summary.Failed = append(summary.Failed, entryErr)
			continue
		}

		summary.Entries = append(summary.Entries, result)
		c.metrics.entry(result.Outcome)
		c.logger.Info("entry processed",
			"entry", entry.Name,
			"script", result.Script.ID.String(),
			"outcome", string(result.Outcome),
			"enabled", result.Script.Enabled)
	}

	if !opts.Remove {
		return summary, nil
	}
	if len(summary.Failed) > 0 {
		c.logger.Warn("skipping orphan removal: some entries failed", "failed", len(summary.Failed))
		return summary, nil
	}

	summary.Orphans = Orphans(installed, summary.Present)
	for _, o := range summary.Orphans {
		c.removeDetached(ctx, o)
	}
	return summary, nil
}

// Orphans returns the installed scripts whose identity is not in present,
// ordered by identity.
func Orphans(installed host.InstalledIndex, present IdentitySet) []Orphan {
	ids := make([]userscript.Identity, 0, len(installed))
	for id := range installed {
		if !present.Has(id) {
			ids = append(ids, id)
		}
	}
	sortIdentities(ids)

	orphans := make([]Orphan, 0, len(ids))
	for _, id := range ids {
		orphans = append(orphans, Orphan{ID: id, UUID: installed[id]})
	}
	return orphans
}

// removeDetached requests uninstall of o without waiting for the result.
// The request outlives cancellation of ctx.
func (c *Coordinator) removeDetached(ctx context.Context, o Orphan) {
	ctx = context.WithoutCancel(ctx)
	c.detached.Add(1)
	go func() {
		defer c.detached.Done()
		if err := c.messenger.Uninstall(ctx, o.UUID); err != nil {
			c.metrics.removal(false)
			c.logger.Error("orphan removal failed",
				"script", o.ID.String(), "uuid", o.UUID,
				"err", fmt.Errorf("%w: %v", ErrHostMessaging, err))
			return
		}
		c.metrics.removal(true)
		c.logger.Info("removed orphan script", "script", o.ID.String(), "uuid", o.UUID)
	}()
}

// Wait blocks until detached removal requests finish. Imports never call it;
// a process should call it before exiting so requests are not cut short.
func (c *Coordinator) Wait() {
	c.detached.Wait()
}
