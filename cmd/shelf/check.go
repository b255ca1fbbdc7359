package main

import (
	"fmt"
	"os"

	"github.com/matsen/papershelf/internal/dedupe"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report duplicate titles, URLs and timestamps",
	Long: `Report papers that share a title (ignoring case), a URL or a timestamp.

Bulk imports only check titles, so a collection can end up with two
records for one URL; this command finds them. Exits with code 3 when
conflicts are found.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// CheckResponse is the response for the check command.
type CheckResponse struct {
	Status    string            `json:"status"`
	Conflicts []dedupe.Conflict `json:"conflicts"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()

	conflicts, err := newService(blob, cfg).Check(cmd.Context())
	if err != nil {
		blob.Close()
		exitWithError(ExitError, "checking collection: %v", err)
	}

	status := "ok"
	if len(conflicts) > 0 {
		status = "conflicts"
	}
	if conflicts == nil {
		conflicts = []dedupe.Conflict{}
	}

	if humanOutput {
		if len(conflicts) == 0 {
			fmt.Println("No conflicts found")
		}
		for _, c := range conflicts {
			fmt.Printf("%s: %q at positions %v\n", c.Type, c.Key, c.Indexes)
		}
	} else {
		outputJSON(CheckResponse{Status: status, Conflicts: conflicts})
	}

	if len(conflicts) > 0 {
		blob.Close()
		os.Exit(ExitDataError)
	}
	return nil
}
