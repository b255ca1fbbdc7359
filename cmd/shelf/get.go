package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <timestamp>",
	Short: "Show a saved paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()

	p, err := newService(blob, cfg).Get(cmd.Context(), args[0])
	if err != nil {
		blob.Close()
		exitWithCollectionError("getting paper", err)
	}

	if humanOutput {
		printPaperHuman(p, cfg.Location())
	} else {
		outputJSON(p)
	}
	return nil
}
