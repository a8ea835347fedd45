package main

import (
	"fmt"
	"os"
)

var (
	// Version information (set by ldflags during build).
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, BoldRed("Error:"), err)
		os.Exit(1)
	}
}
