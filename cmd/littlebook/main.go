// Command littlebook arranges the pages of a PDF so that, printed duplex,
// folded and cut, they read in order as a small bound book.
//
// Usage:
//
//	littlebook <command> [options] <args>
//
// Commands:
//
//	impose   Impose a PDF into a printable little book
//	plan     Show signatures, padding and sheets for a page count
//	config   Print the effective configuration
//	version  Show version information
//	help     Show help message
//
// Examples:
//
//	# Impose a PDF into novel_littlebook.pdf in the current directory
//	littlebook impose novel.pdf
//
//	# The same, spelled the short way
//	littlebook -book novel.pdf
//
//	# Preview the layout of a 101-page document
//	littlebook plan 101
package main

import (
	"os"

	"github.com/georgepadayatti/littlebook/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/littlebook
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	cli.Run(os.Args)
}
