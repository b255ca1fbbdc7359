package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <timestamp>",
	Short: "Delete a saved paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

// DeleteResponse is the response for the delete command.
type DeleteResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
}

func runDelete(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()

	removed, err := newService(blob, cfg).Delete(cmd.Context(), args[0])
	if err != nil {
		blob.Close()
		exitWithCollectionError("deleting paper", err)
	}

	if humanOutput {
		fmt.Printf("Deleted: %s\n", removed.Title)
	} else {
		outputJSON(DeleteResponse{Status: "deleted", Timestamp: removed.Timestamp, Title: removed.Title})
	}
	return nil
}
