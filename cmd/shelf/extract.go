package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matsen/papershelf/internal/config"
	"github.com/matsen/papershelf/internal/extract"
	"github.com/matsen/papershelf/internal/fetch"
	"github.com/spf13/cobra"
)

var extractHTML string

func init() {
	extractCmd.Flags().StringVar(&extractHTML, "html", "", "Read the page from a file instead of fetching it (- for stdin)")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract title, authors and abstract from a paper page",
	Long: `Extract title, authors and abstract from a paper page.

The URL selects the site rules (Google Scholar, arXiv, IEEE Xplore, ACM DL,
ScienceDirect, Springer, OpenReview); other sites fall back to meta tags.
PDF responses are read directly. Works outside a repository.

Examples:
  shelf extract https://arxiv.org/abs/1706.03762
  shelf extract https://dl.acm.org/doi/10.1145/3292500 --html saved.html
  curl -s https://openreview.net/forum?id=X | shelf extract https://openreview.net/forum?id=X --html -`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := optionalConfig()
	result, err := extractPage(cmd.Context(), cfg, args[0], extractHTML)
	if err != nil {
		exitWithFetchError(err)
	}

	if result.Error != "" {
		exitWithError(ExitDataError, "%s", result.Error)
	}

	if humanOutput {
		if result.Empty() {
			fmt.Println("Nothing could be extracted from this page.")
			return nil
		}
		fmt.Printf("Title:    %s\n", result.Title)
		fmt.Printf("Authors:  %s\n", result.Authors)
		if result.Abstract != "" {
			fmt.Printf("\nAbstract:\n  %s\n", wrapText(result.Abstract, DetailTextWrapWidth, "  "))
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// extractPage runs extraction on htmlSource when given, or fetches rawURL.
// A returned error means the page could not be obtained; extraction
// failures are reported in the result.
func extractPage(ctx context.Context, cfg *config.Config, rawURL, htmlSource string) (extract.Result, error) {
	loc := extract.LocationFromURL(rawURL)
	if htmlSource != "" {
		data, err := readSource(htmlSource)
		if err != nil {
			return extract.Result{}, err
		}
		if extract.IsPDF("", data) {
			return extract.FromPDF(data, loc), nil
		}
		return extract.FromHTML(bytes.NewReader(data), loc), nil
	}

	page, err := newFetcher(cfg).Fetch(ctx, rawURL)
	if err != nil {
		return extract.Result{}, err
	}
	return page.Extract(), nil
}

// readSource reads a file, or stdin for "-".
func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// exitWithFetchError reports a failure to obtain a page and exits.
func exitWithFetchError(err error) {
	var status *fetch.StatusError
	switch {
	case errors.Is(err, fetch.ErrDisallowed):
		exitWithError(ExitFetchError, "%v; save the page and pass it with --html", err)
	case errors.Is(err, fetch.ErrRateLimited):
		exitWithError(ExitFetchError, "%v; try again later", err)
	case errors.As(err, &status):
		exitWithError(ExitFetchError, "%v", err)
	case errors.Is(err, os.ErrNotExist):
		exitWithError(ExitError, "%v", err)
	}
	exitWithError(ExitFetchError, "fetching page: %v", err)
}
