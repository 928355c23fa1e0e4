// Package main provides the entry point for the stockistmap CLI tool.
package main

import (
	"github.com/stockistmap/stockistmap/cmd/stockistmap/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
