package main

import (
	"os"

	"github.com/matsen/papershelf/internal/message"
	"github.com/spf13/cobra"
)

var hostNoFetch bool

func init() {
	hostCmd.Flags().BoolVar(&hostNoFetch, "no-fetch", false, "Only answer requests that carry inline html")
	rootCmd.AddCommand(hostCmd)
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Answer extraction requests on stdin",
	Long: `Answer extraction requests read from stdin, one JSON object per line.

Request:  {"action": "getPaperInfo", "url": "...", "html": "..."}
Response: {"title": "...", "authors": "...", "abstract": "..."}
          {"title": "", "authors": "", "abstract": "", "error": "..."}

Every request gets exactly one response line, in order. When html is
omitted the page is fetched. Runs until stdin is closed.`,
	Args: cobra.NoArgs,
	RunE: runHost,
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg := optionalConfig()

	var fetcher message.PageFetcher
	if !hostNoFetch {
		fetcher = newFetcher(cfg)
	}
	h := message.NewHandler(fetcher, newLogger())

	if err := message.Serve(cmd.Context(), os.Stdin, os.Stdout, h); err != nil {
		exitWithError(ExitError, "serving requests: %v", err)
	}
	return nil
}
