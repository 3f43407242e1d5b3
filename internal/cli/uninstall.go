package cli

import (
	"fmt"

	"github.com/agentx-labs/gmrestore/internal/userscript"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <namespace> <name>",
	Short: "Remove an installed script",
	Long:  `Remove the installed script with the given namespace and name from the script host.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	id := userscript.Identity{Namespace: args[0], Name: args[1]}

	store, err := openStore(newLogger(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	sc, err := store.Lookup(cmd.Context(), id)
	if err != nil {
		return err
	}
	if err := store.Uninstall(cmd.Context(), sc.UUID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
	return nil
}
