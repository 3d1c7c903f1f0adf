// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command erynoad is the Erynoa operator CLI: it starts the HTTP status API
// and World-Formula drift-correction scheduler (serve), runs a compiled
// policy program against a stub host for local testing (vm run), and prints
// a named configuration preset (config show).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "erynoad",
	Short: "Erynoa node operator CLI",
	Long: `erynoad hosts the five Erynoa engines (Trust Kernel, Event Engine,
Consensus Engine, Execution VM, World-Formula Engine) behind a read-only
HTTP status surface, and provides offline tools for running policy bytecode
and inspecting configuration presets.`,
}

func main() {
	rootCmd.AddCommand(
		serveCmd(),
		vmCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
