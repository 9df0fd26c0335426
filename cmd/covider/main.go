// Package main provides the COVIDer command-line tool.
package main

import (
	"os"

	"github.com/dgrafuwsp/COVIDer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
