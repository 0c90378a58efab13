package main

import (
	"fmt"
	"os"
)

// ============================================================================
// CLAIMLENS CLI — Weekly claims reporting from a ledger export
// ============================================================================

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
