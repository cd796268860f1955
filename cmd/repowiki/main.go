package main

import (
	"fmt"
	"os"

	"repowiki/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, fix := range errors.GetSuggestedFixes(errors.CodeOf(err)) {
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "  Try: %s\n", fix.Command)
			} else if fix.Path != "" {
				fmt.Fprintf(os.Stderr, "  %s (%s)\n", fix.Description, fix.Path)
			}
		}
		os.Exit(1)
	}
}
