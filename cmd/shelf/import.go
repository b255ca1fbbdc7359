package main

import (
	"errors"
	"fmt"

	"github.com/matsen/papershelf/internal/collection"
	"github.com/matsen/papershelf/internal/importer"
	"github.com/spf13/cobra"
)

var (
	importFormat string
	importDryRun bool
)

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "csv", "Import format (csv, paperpile)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without writing")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import papers from a CSV or Paperpile export",
	Long: `Import papers from a CSV or Paperpile export.

CSV files need Title, Authors, URL and Abstract columns (matched exactly);
Comment, Needs Improvement, Has GitHub and Timestamp are optional. Rows
that cannot be read are reported and skipped. A paper whose title matches
a saved paper, ignoring case, is counted as a duplicate and skipped.

Usage:
  shelf import papers.csv
  shelf import papers.csv --dry-run
  shelf import --format paperpile export.json

Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if importFormat != "csv" && importFormat != "paperpile" {
		exitWithError(ExitError, "unknown format: %s", importFormat)
	}

	data, err := readSource(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()
	svc := newService(blob, cfg)

	var res collection.ImportResult
	if importFormat == "paperpile" {
		res, err = svc.ImportPaperpile(cmd.Context(), data, importDryRun)
	} else {
		res, err = svc.Import(cmd.Context(), data, importDryRun)
	}
	if err != nil {
		blob.Close()
		var missing *importer.MissingColumnsError
		if errors.As(err, &missing) || errors.Is(err, importer.ErrInvalidPaperpile) {
			exitWithError(ExitDataError, "%v", err)
		}
		exitWithError(ExitError, "importing: %v", err)
	}

	if humanOutput {
		printImportHuman(res)
	} else {
		outputJSON(res)
	}
	return nil
}

func printImportHuman(res collection.ImportResult) {
	verb := "Imported"
	if res.DryRun {
		verb = "Would import"
		fmt.Println("Dry run - nothing written")
	}
	fmt.Printf("%s: %d papers\n", verb, res.ImportCount)
	fmt.Printf("Duplicates skipped: %d\n", res.DuplicateCount)

	for _, d := range res.Details {
		if d.Action == importer.ActionDuplicate {
			fmt.Printf("  duplicate  %s\n", truncateString(d.Title, ImportTitleMaxLen))
		}
	}

	if len(res.FailedImports) > 0 {
		fmt.Printf("\nFailed rows: %d\n", len(res.FailedImports))
		for _, f := range res.FailedImports {
			fmt.Printf("  %s\n", importer.FormatFailure(f))
		}
	}
	if len(res.Errors) > 0 {
		fmt.Printf("\nSkipped entries: %d\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
