package main

import (
	"fmt"

	"github.com/matsen/papershelf/internal/collection"
	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/extract"
	"github.com/spf13/cobra"
)

// formFlags are the editable paper fields accepted on the command line.
type formFlags struct {
	title            string
	authors          string
	abstract         string
	comment          string
	needsImprovement bool
	hasGithub        bool
}

func addFormFlags(cmd *cobra.Command, f *formFlags) {
	cmd.Flags().StringVar(&f.title, "title", "", "Paper title")
	cmd.Flags().StringVar(&f.authors, "authors", "", "Authors, comma separated")
	cmd.Flags().StringVar(&f.abstract, "abstract", "", "Abstract")
	cmd.Flags().StringVar(&f.comment, "comment", "", "Your notes")
	cmd.Flags().BoolVar(&f.needsImprovement, "needs-improvement", false, "Mark as needing improvement in understanding")
	cmd.Flags().BoolVar(&f.hasGithub, "has-github", false, "Mark as having a GitHub repository")
}

// apply overwrites the fields of form whose flags were given.
func (f *formFlags) apply(cmd *cobra.Command, form *collection.Form) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		form.Title = f.title
	}
	if flags.Changed("authors") {
		form.Authors = f.authors
	}
	if flags.Changed("abstract") {
		form.Abstract = f.abstract
	}
	if flags.Changed("comment") {
		form.Comment = f.comment
	}
	if flags.Changed("needs-improvement") {
		form.NeedsImprovement = f.needsImprovement
	}
	if flags.Changed("has-github") {
		form.HasGithub = f.hasGithub
	}
}

var (
	saveForm    formFlags
	saveHTML    string
	saveNoFetch bool
)

func init() {
	addFormFlags(saveCmd, &saveForm)
	saveCmd.Flags().StringVar(&saveHTML, "html", "", "Read the page from a file instead of fetching it (- for stdin)")
	saveCmd.Flags().BoolVar(&saveNoFetch, "no-fetch", false, "Skip extraction and use only the given fields")
	rootCmd.AddCommand(saveCmd)
}

var saveCmd = &cobra.Command{
	Use:   "save <url>",
	Short: "Save the paper at a URL",
	Long: `Save the paper at a URL.

The page is fetched and its title, authors and abstract are extracted.
Flags override extracted values. If the page is already saved (same title,
ignoring case, or same URL) the stored paper is updated instead: its
timestamp and URL are kept and the edit time is recorded.

Examples:
  shelf save https://arxiv.org/abs/1706.03762 --comment "read with team"
  shelf save https://example.org/paper --no-fetch --title "My Paper" --has-github`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func runSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	url := args[0]

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()
	svc := newService(blob, cfg)

	var extracted extract.Result
	if !saveNoFetch {
		var err error
		extracted, err = extractPage(ctx, cfg, url, saveHTML)
		if err != nil {
			exitWithFetchError(err)
		}
	}

	form, state, err := svc.Open(ctx, extracted, url)
	if err != nil {
		exitWithError(ExitError, "opening paper: %v", err)
	}
	saveForm.apply(cmd, &form)

	if state.FieldsEditable && form.Title == "" {
		exitWithError(ExitDataError, "could not extract this page; pass --title (and --authors, --abstract) to save it by hand")
	}

	res, err := svc.Save(ctx, form, url, state)
	if err != nil {
		blob.Close()
		exitWithCollectionError("saving paper", err)
	}

	if humanOutput {
		verb := "Saved"
		if res.Action == collection.ActionUpdated {
			verb = "Updated"
		}
		fmt.Printf("%s: %s\n", verb, res.Paper.Title)
		fmt.Printf("  id: %s  (added %s)\n", res.Paper.Timestamp, export.FormatDisplayDate(res.Paper.Timestamp, cfg.Location()))
	} else {
		outputJSON(res)
	}
	return nil
}
