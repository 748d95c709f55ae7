// Command sopflow analyzes standard operating procedure documents: it
// flattens them into ordered workflows, finds inefficiency patterns, scores
// them against a sector benchmark and projects automation ROI.
package main

import (
	"fmt"
	"os"
)

// Set with -ldflags "-X main.version=..." at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
