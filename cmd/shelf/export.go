package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportQuery  queryFlags
	exportOutput string
	exportBibTeX bool
)

func init() {
	addQueryFlags(exportCmd, &exportQuery)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (- for stdout; default paper-collection-<time>.csv)")
	exportCmd.Flags().BoolVar(&exportBibTeX, "bibtex", false, "Export BibTeX instead of CSV")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the papers in the current view",
	Long: `Export the papers selected by the filter flags, newest first.

CSV output starts with a UTF-8 byte order mark so spreadsheet programs
detect the encoding. Dates use the configured time zone.

Examples:
  shelf export
  shelf export --has-github -o github-papers.csv
  shelf export --bibtex -o refs.bib
  shelf export --search "graph" -o -`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// ExportResponse is the response for the export command.
type ExportResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

func runExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()
	svc := newService(blob, cfg)

	q := exportQuery.query()
	format := "csv"

	var out string
	var err error
	if exportBibTeX {
		format = "bibtex"
		out, err = svc.ExportBibTeX(cmd.Context(), q)
	} else {
		out, err = svc.Export(cmd.Context(), q)
	}
	if err != nil {
		blob.Close()
		exitWithCollectionError("exporting", err)
	}

	if exportOutput == "-" {
		fmt.Print(out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Println()
		}
		return nil
	}

	path := exportOutput
	if path == "" {
		path = export.CSVFilename(time.Now())
		if exportBibTeX {
			path = strings.TrimSuffix(path, ".csv") + ".bib"
		}
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", path, err)
	}

	if humanOutput {
		fmt.Printf("Exported to %s\n", path)
	} else {
		outputJSON(ExportResponse{Status: "exported", Path: path, Format: format})
	}
	return nil
}
