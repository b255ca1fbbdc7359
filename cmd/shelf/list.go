package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/collection"
	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/view"
	"github.com/spf13/cobra"
)

// queryFlags select papers for list and export.
type queryFlags struct {
	needsImprovement bool
	hasGithub        bool
	search           string
	fields           []string
}

func addQueryFlags(cmd *cobra.Command, q *queryFlags) {
	cmd.Flags().BoolVar(&q.needsImprovement, "needs-improvement", false, "Only papers marked as needing improvement")
	cmd.Flags().BoolVar(&q.hasGithub, "has-github", false, "Only papers with a GitHub repository")
	cmd.Flags().StringVarP(&q.search, "search", "s", "", "Case-insensitive substring to search for")
	cmd.Flags().StringSliceVar(&q.fields, "fields", []string{"title", "authors", "abstract", "comment"}, "Fields to search (title, authors, abstract, comment)")
}

// query builds a collection query, exiting on unknown search fields.
func (q *queryFlags) query() collection.Query {
	fields, unknown := view.ParseFields(q.fields)
	if len(unknown) > 0 {
		exitWithError(ExitError, "unknown search field(s): %s", strings.Join(unknown, ", "))
	}
	return collection.Query{
		Filters: view.Filters{NeedsImprovement: q.needsImprovement, HasGithub: q.hasGithub},
		Search:  q.search,
		Fields:  fields,
	}
}

var (
	listQuery queryFlags
	listLimit int
)

func init() {
	addQueryFlags(listCmd, &listQuery)
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results to return (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved papers, newest first",
	Long: `List saved papers, newest first.

Filters combine with AND. The search term is matched case-insensitively
against the selected fields; a paper matches if any field contains it.

Examples:
  shelf list
  shelf list --has-github --search transformer
  shelf list --search vaswani --fields authors --limit 5`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()

	q := listQuery.query()
	q.Limit = listLimit

	papers, err := newService(blob, cfg).List(cmd.Context(), q)
	if err != nil {
		blob.Close()
		exitWithError(ExitError, "listing papers: %v", err)
	}

	if humanOutput {
		if len(papers) == 0 {
			fmt.Println("No papers found")
			return nil
		}
		fmt.Printf("%d papers:\n\n", len(papers))
		for _, p := range papers {
			printPaperLine(p, cfg.Location())
		}
	} else {
		if papers == nil {
			papers = []paper.Paper{}
		}
		outputJSON(papers)
	}
	return nil
}

// printPaperLine prints a paper as a two-line list entry.
func printPaperLine(p paper.Paper, loc *time.Location) {
	fmt.Printf("  %s  %s", export.FormatDisplayDate(p.Timestamp, loc), truncateString(p.Title, ListTitleMaxLen))
	if marks := flagMarks(p); marks != "" {
		fmt.Printf("  %s", marks)
	}
	fmt.Printf("\n      %s\n", p.Timestamp)
}
