package main

import (
	"fmt"
	"os"

	"github.com/matsen/papershelf/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new shelf repository",
	Long: `Initialize a new shelf repository in the current directory.

Creates:
  .papershelf/
  └── config.json     # Default config (store: file)

The paper list itself is created on the first save.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a shelf repository")
	}

	if _, err := config.Init(root); err != nil {
		exitWithError(ExitError, "initializing repository: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized shelf repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}
