package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/storage"
)

var (
	dbPath   string
	cacheDir string
	outDir   string
	logLevel string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oncourt",
	Short: "NBA on-court interval tool",
	Long: `Rebuild per-player on-court intervals of NBA games from the live box-score
and play-by-play feeds, store them in SQLite and write per-game JSON artifacts.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	home := filepath.Join(mustUserHome(), ".oncourt")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", filepath.Join(home, "oncourt.db"), "path to SQLite database (env ONCOURT_DB)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", filepath.Join(home, "cache"), "payload cache directory (env ONCOURT_CACHE_DIR)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "public", "artifact output directory (env ONCOURT_OUT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error (env ONCOURT_LOG_LEVEL)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(gameCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
}

// initConfig loads an optional .env file, applies environment overrides for
// flags not set on the command line and sets up the logger.
func initConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	for flag, env := range map[string]string{
		"db":        "ONCOURT_DB",
		"cache-dir": "ONCOURT_CACHE_DIR",
		"out":       "ONCOURT_OUT",
		"log-level": "ONCOURT_LOG_LEVEL",
	} {
		v, ok := os.LookupEnv(env)
		if !ok || v == "" || cmd.Flags().Changed(flag) {
			continue
		}
		if err := cmd.Flags().Set(flag, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(logLevel))); err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// openDB opens the database, creating its directory first.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
