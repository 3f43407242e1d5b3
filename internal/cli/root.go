package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/gmrestore/internal/branding"
	"github.com/agentx-labs/gmrestore/internal/config"
	"github.com/agentx-labs/gmrestore/internal/host"
	"github.com/agentx-labs/gmrestore/internal/logging"
	"github.com/agentx-labs/gmrestore/internal/platform"
	"github.com/agentx-labs/gmrestore/internal/userdata"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	logLevel string
	dbPath   string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` restores an exported user-script archive into the local script host.
Installed scripts are reconciled against the archive: conflicting identities are
replaced or kept, and scripts missing from the archive can be removed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the script host database")
}

// versionString returns a formatted version string for display.
func versionString() string {
	if buildVersion == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", buildVersion, buildCommit, buildDate)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// newLogger builds the command logger. The --log-level flag wins over the
// log.level setting.
func newLogger(cmd *cobra.Command) *log.Logger {
	level := logLevel
	if level == "" {
		level = config.LogLevel()
	}
	return logging.New(cmd.ErrOrStderr(), level)
}

// openStore opens the script host database, creating its directory if needed.
func openStore(logger *log.Logger) (*host.Store, error) {
	path := dbPath
	if path == "" {
		var err error
		path, err = userdata.GetDatabasePath()
		if err != nil {
			return nil, fmt.Errorf("resolving database path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), userdata.DirPermSecure); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := host.Open(path, logger)
	if err != nil {
		return nil, err
	}
	// Owner-only access for the database and its WAL files.
	if err := platform.RestrictFiles(userdata.FilePermSecure, path, path+"-wal", path+"-shm"); err != nil {
		logger.Warn("restricting database permissions", "err", err)
	}
	return store, nil
}
