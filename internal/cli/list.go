package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/spf13/cobra"
)

var (
	listIncludeDisabled bool
	listJSON            bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed scripts",
	Long:  `List the user scripts installed in the script host database.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listIncludeDisabled, "include-disabled", false, "Include disabled scripts")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed script for display.
type listEntry struct {
	UUID        string `json:"uuid"`
	Namespace   string `json:"namespace"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Enabled     bool   `json:"enabled"`
	DownloadURL string `json:"downloadUrl"`
}

func runList(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	scripts, err := store.ListUserScripts(cmd.Context(), listIncludeDisabled)
	if err != nil {
		return err
	}

	if len(scripts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scripts installed yet.")
		return nil
	}

	entries := make([]listEntry, 0, len(scripts))
	for _, s := range scripts {
		entries = append(entries, toListEntry(s))
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func toListEntry(s host.Script) listEntry {
	return listEntry{
		UUID:        s.UUID,
		Namespace:   s.ID.Namespace,
		Name:        s.ID.Name,
		Version:     s.Version,
		Enabled:     s.Enabled,
		DownloadURL: s.DownloadURL,
	}
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tNAME\tVERSION\tENABLED")
	for _, e := range entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", e.Namespace, e.Name, version, e.Enabled)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
