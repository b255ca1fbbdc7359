// Package main provides the shelf CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/matsen/papershelf/internal/collection"
	"github.com/matsen/papershelf/internal/config"
	"github.com/matsen/papershelf/internal/fetch"
	"github.com/matsen/papershelf/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose turns on debug logging to stderr
	verbose bool
)

func main() {
	if cwd, err := os.Getwd(); err == nil {
		_ = config.LoadEnv(cwd)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Collect paper metadata from web pages",
	Long: `shelf collects bibliographic metadata from paper pages into a local
collection you can annotate, search, export and share.

Core features:
  - Title, author and abstract extraction for Google Scholar, arXiv, IEEE,
    ACM, ScienceDirect, Springer and OpenReview pages, plus PDFs
  - Duplicate detection by title and URL
  - CSV export and import, BibTeX export, Paperpile import
  - Line-delimited JSON message host for browser integrations

All commands output JSON by default for AI agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a repository.
func getStartingDirectory() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.ResolveRepository(start)
	if err != nil {
		// Show helpful message if no global config exists
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	_ = config.LoadEnv(repoRoot)
	return repoRoot
}

// optionalConfig loads the repository config when one can be found and the
// defaults otherwise. Commands that work outside a repository use it.
func optionalConfig() *config.Config {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	repoRoot, err := config.ResolveRepository(start)
	if err != nil {
		cfg := config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		return cfg
	}
	_ = config.LoadEnv(repoRoot)
	return mustLoadConfig(repoRoot)
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the configured blob store, exits on error.
// The caller is responsible for calling Close() on the returned store.
func mustOpenStore(repoRoot string, cfg *config.Config) storage.BlobStore {
	blob, err := storage.Open(repoRoot, cfg.Store)
	if err != nil {
		exitWithError(ExitError, "opening store: %v", err)
	}
	return blob
}

// newService builds the collection service for a repository.
func newService(blob storage.BlobStore, cfg *config.Config) *collection.Service {
	return collection.New(blob,
		collection.WithLocation(cfg.Location()),
		collection.WithLogger(newLogger()),
	)
}

// newFetcher builds a page fetcher from repository and global settings.
func newFetcher(cfg *config.Config) *fetch.Fetcher {
	opts := []fetch.Option{fetch.WithLogger(newLogger())}

	ua := cfg.UserAgent
	if ua == "" {
		ua = config.GetUserAgent()
	}
	if ua != "" {
		opts = append(opts, fetch.WithUserAgent(ua))
	}
	if d := cfg.Timeout(); d > 0 {
		opts = append(opts, fetch.WithTimeout(d))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, fetch.WithRequestsPerSecond(cfg.RequestsPerSecond))
	}
	return fetch.New(opts...)
}

// newLogger returns a stderr logger when --verbose is set and a discarding
// logger otherwise.
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
