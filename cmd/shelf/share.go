package main

import (
	"fmt"
	"os"

	"github.com/matsen/papershelf/internal/share"
	"github.com/spf13/cobra"
)

var shareCopy bool

func init() {
	shareCmd.Flags().BoolVar(&shareCopy, "copy", false, "Copy the card to the clipboard (falls back to <title>_share.txt)")
	rootCmd.AddCommand(shareCmd)
}

var shareCmd = &cobra.Command{
	Use:   "share <timestamp>",
	Short: "Render a shareable text card for a paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runShare,
}

// ShareResponse is the response for the share command.
type ShareResponse struct {
	Text string `json:"text"`
	share.Delivery
}

func runShare(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	blob := mustOpenStore(repoRoot, cfg)
	defer blob.Close()

	p, err := newService(blob, cfg).Get(cmd.Context(), args[0])
	if err != nil {
		blob.Close()
		exitWithCollectionError("sharing paper", err)
	}

	text := share.Text(p, cfg.Location())
	resp := ShareResponse{Text: text}

	if shareCopy {
		dir, exitCode := getStartingDirectory()
		if exitCode != 0 {
			os.Exit(exitCode)
		}
		resp.Delivery, err = share.Deliver(text, p.Title, dir)
		if err != nil {
			exitWithError(ExitError, "writing share card: %v", err)
		}
	}

	if humanOutput {
		fmt.Println(text)
		switch {
		case resp.Copied:
			fmt.Fprintln(os.Stderr, "\nCopied to clipboard.")
		case resp.Path != "":
			fmt.Fprintf(os.Stderr, "\nClipboard unavailable; saved to %s\n", resp.Path)
		}
	} else {
		outputJSON(resp)
	}
	return nil
}
