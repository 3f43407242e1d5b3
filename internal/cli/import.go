package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/agentx-labs/gmrestore/internal/archive"
	"github.com/agentx-labs/gmrestore/internal/config"
	"github.com/agentx-labs/gmrestore/internal/fetch"
	"github.com/agentx-labs/gmrestore/internal/importer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	importRemove          bool
	importReplace         bool
	importKeepGoing       bool
	importFetchFlatDeps   bool
	importMetricsTextfile string
)

const (
	fetchRetries = 3
	fetchTimeout = 30 * time.Second
)

var importCmd = &cobra.Command{
	Use:   "import <archive.zip>",
	Short: "Restore scripts from an exported archive",
	Long: `Install every user script found in an exported zip archive.

Foldered entries carry their export details and dependency payloads inside the
archive. Flat entries are installed enabled with a file:/// URL.

Use --replace=false to keep scripts that are already installed, and --remove to
uninstall scripts the archive does not contain.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importRemove, "remove", false, "Uninstall installed scripts missing from the archive")
	importCmd.Flags().BoolVar(&importReplace, "replace", true, "Reinstall scripts that are already installed")
	importCmd.Flags().BoolVar(&importKeepGoing, "keep-going", false, "Continue past failing entries (orphan removal is skipped)")
	importCmd.Flags().BoolVar(&importFetchFlatDeps, "fetch-flat-deps", true, "Download @require and @resource of flat entries (--fetch-flat-deps=false to fail instead)")
	importCmd.Flags().StringVar(&importMetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file when done")
	rootCmd.AddCommand(importCmd)
}

// importOptions merges configured defaults with explicitly set flags.
func importOptions(cmd *cobra.Command) importer.Options {
	opts := config.ImportDefaults()
	if cmd.Flags().Changed("remove") {
		opts.Remove = importRemove
	}
	if cmd.Flags().Changed("replace") {
		opts.Replace = importReplace
	}
	opts.ContinueOnError = importKeepGoing
	opts.FetchFlatDependencies = importFetchFlatDeps
	return opts
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	opts := importOptions(cmd)

	a, err := archive.Open(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	coord := importer.New(store, store,
		importer.WithLogger(logger),
		importer.WithMetrics(importer.NewMetrics(reg)),
		importer.WithFetcher(fetch.New(fetchRetries, fetchTimeout, logger)),
	)

	summary, importErr := coord.Import(cmd.Context(), a, opts)
	// Removal requests run detached; let them finish before the store closes.
	coord.Wait()

	if summary != nil {
		printSummary(cmd.OutOrStdout(), args[0], summary)
	}

	if importMetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(importMetricsTextfile, reg); err != nil {
			logger.Warn("writing metrics textfile", "path", importMetricsTextfile, "err", err)
		}
	}

	if importErr != nil {
		return importErr
	}
	if n := len(summary.Failed); n > 0 {
		return fmt.Errorf("%d archive entries failed to import", n)
	}
	return nil
}

func printSummary(w io.Writer, name string, s *importer.Summary) {
	fmt.Fprintln(w, titleStyle.Render("Import "+name))
	for _, e := range s.Entries {
		switch e.Outcome {
		case importer.OutcomeInstalled:
			state := "enabled"
			if !e.Script.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(w, "%s %s %s\n", successIcon, e.Script.ID, dimStyle.Render("("+state+")"))
		case importer.OutcomeSkipped:
			fmt.Fprintf(w, "%s %s %s\n", skipIcon, e.Script.ID, dimStyle.Render("(already installed)"))
		case importer.OutcomeFailed:
			fmt.Fprintf(w, "%s %s\n", errorIcon, e.Entry)
		}
	}
	for _, f := range s.Failed {
		fmt.Fprintf(w, "  %s\n", errorStyle.Render(f.Error()))
	}
	for _, o := range s.Orphans {
		fmt.Fprintf(w, "%s %s %s\n", errorIcon, o.ID, dimStyle.Render("(removal requested)"))
	}

	fmt.Fprintf(w, "\n%d installed, %d skipped, %d failed, %d removal requested\n",
		s.Count(importer.OutcomeInstalled),
		s.Count(importer.OutcomeSkipped),
		s.Count(importer.OutcomeFailed),
		len(s.Orphans))
}
