package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var editForm formFlags

func init() {
	addFormFlags(editCmd, &editForm)
	rootCmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit <timestamp>",
	Short: "Edit a saved paper",
	Long: `Edit a saved paper identified by its timestamp.

Only the given flags change. The URL and timestamp never change; the edit
time is recorded.

Examples:
  shelf edit 2026-03-15T12:00:00.000Z --comment "revisit section 3"
  shelf edit 2026-03-15T12:00:00.000Z --needs-improvement=false`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()
	svc := newService(blob, cfg)

	form, state, err := svc.Edit(ctx, args[0])
	if err != nil {
		blob.Close()
		exitWithCollectionError("editing paper", err)
	}
	editForm.apply(cmd, &form)

	res, err := svc.Save(ctx, form, "", state)
	if err != nil {
		blob.Close()
		exitWithCollectionError("saving paper", err)
	}

	if humanOutput {
		fmt.Printf("Updated: %s\n", res.Paper.Title)
	} else {
		outputJSON(res)
	}
	return nil
}
