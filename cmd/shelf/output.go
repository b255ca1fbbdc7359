package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/collection"
	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/paper"
)

// Constants for output formatting.
const (
	ListTitleMaxLen   = 60 // Used in list command output
	ImportTitleMaxLen = 60 // Used in import command output

	// Text wrapping width for abstracts and comments in detail views
	DetailTextWrapWidth = 68
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitWithCollectionError maps a collection error to its exit code and exits.
func exitWithCollectionError(action string, err error) {
	var dup *collection.DuplicateError
	switch {
	case errors.As(err, &dup):
		if humanOutput {
			fmt.Fprintf(os.Stderr, "error: This paper has already been saved: %s (added %s)\n",
				dup.Existing.Title, export.FormatDisplayDate(dup.Existing.Timestamp, time.Local))
			os.Exit(ExitDuplicate)
		}
		outputJSON(DuplicateResponse{Error: "paper already saved", Existing: dup.Existing})
		os.Exit(ExitDuplicate)
	case errors.Is(err, collection.ErrNotFound):
		exitWithError(ExitNotFound, "%s: %v", action, err)
	case errors.Is(err, collection.ErrMissingTitle), errors.Is(err, collection.ErrMissingURL):
		exitWithError(ExitDataError, "%s: %v", action, err)
	case errors.Is(err, collection.ErrNothingToExport):
		exitWithError(ExitDataError, "%s: %v", action, err)
	}
	exitWithError(ExitError, "%s: %v", action, err)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DuplicateResponse is the JSON error response for a rejected duplicate save.
type DuplicateResponse struct {
	Error    string      `json:"error"`
	Existing paper.Paper `json:"existing"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}

// flagMarks renders the paper's flags as short tags.
func flagMarks(p paper.Paper) string {
	var marks []string
	if p.NeedsImprovement {
		marks = append(marks, "[needs-improvement]")
	}
	if p.HasGithub {
		marks = append(marks, "[github]")
	}
	return strings.Join(marks, " ")
}

// printPaperHuman prints a paper's full details.
func printPaperHuman(p paper.Paper, loc *time.Location) {
	fmt.Printf("Title:     %s\n", p.Title)
	fmt.Printf("Authors:   %s\n", p.Authors)
	fmt.Printf("URL:       %s\n", p.URL)
	fmt.Printf("Added:     %s (%s)\n", export.FormatDisplayDate(p.Timestamp, loc), p.Timestamp)
	if p.LastEdited != "" {
		fmt.Printf("Edited:    %s\n", export.FormatDisplayDate(p.LastEdited, loc))
	}
	if marks := flagMarks(p); marks != "" {
		fmt.Printf("Flags:     %s\n", marks)
	}
	if p.Abstract != "" {
		fmt.Printf("\nAbstract:\n  %s\n", wrapText(p.Abstract, DetailTextWrapWidth, "  "))
	}
	if p.Comment != "" {
		fmt.Printf("\nComment:\n  %s\n", wrapText(p.Comment, DetailTextWrapWidth, "  "))
	}
}
