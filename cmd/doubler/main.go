package main

import (
	"os"

	"github.com/skarani/doubler/cmd/doubler/commands"
)

// main is the entry point for the doubler CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
