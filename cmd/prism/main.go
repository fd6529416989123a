package main

import (
	"os"

	"github.com/wonny/prism/cmd/prism/commands"
)

// main is the entry point for the Prism CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
