package main

import (
	"fmt"
	"strings"

	"github.com/matsen/papershelf/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  shelf config                            # Show all config
  shelf config timezone                   # Get specific value
  shelf config timezone Asia/Shanghai     # Set value
  shelf config store sqlite               # Switch the store backend

Keys:
  store                file or sqlite
  timezone             IANA zone used for display dates (default: local)
  user-agent           User-Agent sent when fetching pages
  fetch-timeout        Per-request timeout, e.g. 30s
  requests-per-second  Per-host fetch rate

SHELF_STORE, SHELF_TIMEZONE, SHELF_USER_AGENT, SHELF_FETCH_TIMEOUT and
SHELF_REQUESTS_PER_SECOND override the stored values.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, key := range config.Keys {
				v, _ := cfg.Get(key)
				fmt.Printf("%-20s %s\n", key+":", v)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): v})
		}
		return nil
	}

	// Two args: set value. Environment overrides are not persisted.
	value := args[1]
	stored, err := config.LoadFile(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := stored.Set(key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := stored.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// normalizeKey accepts snake_case and mixed-case spellings of a key.
func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}
