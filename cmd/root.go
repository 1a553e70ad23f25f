package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/logging"
	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "cloudverse",
	Short: "Terminal study companion for cloud computing",
	Long:  "CloudVerse: read cloud computing topics, take quizzes and track streaks from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv(".env")
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CLOUDVERSE_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides CLOUDVERSE_LOG env var)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv reads KEY=value pairs from path into the environment. Variables
// already set win and a missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then CLOUDVERSE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// newLogger builds the command logger. An empty path logs to stderr.
func newLogger(cmd *cobra.Command, path string) (*logging.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv("CLOUDVERSE_LOG")
	}
	if level == "" && path == "" {
		level = "warn"
	}
	return logging.New(logging.Options{
		Mode:  os.Getenv("CLOUDVERSE_LOG_MODE"),
		Level: level,
		Path:  path,
	})
}

// logPathFor puts the log file next to the database.
func logPathFor(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "cloudverse.log")
}

// env bundles what every data command opens.
type env struct {
	store    *store.Store
	progress *progress.Store
	catalog  *catalog.Catalog
	logger   *logging.Logger
	dbPath   string
}

func (e *env) Close() {
	e.logger.Sync()
	_ = e.store.Close()
}

// openEnv opens the store and loads progress synchronously. With toFile the
// logger writes next to the database instead of stderr.
func openEnv(cmd *cobra.Command, toFile bool) (*env, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	logPath := ""
	if toFile {
		logPath = logPathFor(dbPath)
	}
	logger, err := newLogger(cmd, logPath)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ps := progress.New(st.ProgressRepo(), progress.WithLogger(logger))
	if err := ps.Load(cmd.Context()); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load progress: %w", err)
	}

	logger.Debug("opened database", "path", dbPath)
	return &env{store: st, progress: ps, catalog: cat, logger: logger, dbPath: dbPath}, nil
}
