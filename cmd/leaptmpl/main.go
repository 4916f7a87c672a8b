// Package main is the entry point for the leaptmpl CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leaptmpl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
