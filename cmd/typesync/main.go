// Package main is the entry point for the typesync CLI.
package main

import (
	"os"

	"github.com/storesync/typesync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
