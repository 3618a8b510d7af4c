// Package main provides the entry point for the casedex CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/casedex/cmd/casedex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
