// Package cli provides the command-line interface for making little books.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// osExit is a variable for os.Exit to allow testing
var osExit = os.Exit

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the CLI with the given arguments.
// This is the main entry point for the CLI.
func Run(args []string) {
	if len(args) < 2 {
		Usage()
		return
	}

	command := args[1]

	// "littlebook -book input.pdf" keeps working without a command name.
	if strings.HasPrefix(command, "-") && command != "-h" && command != "--help" {
		ImposeCommand(append([]string{args[0], "impose"}, args[1:]...))
		return
	}

	switch command {
	case "impose":
		ImposeCommand(args)
	case "plan":
		PlanCommand(args)
	case "config":
		ConfigCommand(args)
	case "version":
		VersionCommand()
	case "help", "-h", "--help":
		Usage()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		Usage()
		osExit(1)
	}
}

// Usage prints the CLI usage information.
func Usage() {
	name := programName()
	fmt.Fprintf(stdout, "littlebook - arrange a PDF into folded signatures for a small book\n\n")
	fmt.Fprintf(stdout, "Usage: %s <command> [options] <args>\n\n", name)
	fmt.Fprintln(stdout, "Commands:")
	fmt.Fprintln(stdout, "  impose   Impose a PDF into a printable little book")
	fmt.Fprintln(stdout, "  plan     Show signatures, padding and sheets for a page count")
	fmt.Fprintln(stdout, "  config   Print the effective configuration")
	fmt.Fprintln(stdout, "  version  Show version information")
	fmt.Fprintln(stdout, "  help     Show this help message")
	fmt.Fprintln(stdout, "")
	fmt.Fprintf(stdout, "Use '%s <command> -h' for command-specific help\n", name)
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintf(stdout, "  %s impose novel.pdf\n", name)
	fmt.Fprintf(stdout, "  %s -book novel.pdf\n", name)
	fmt.Fprintf(stdout, "  %s impose -margin 5mm -o zine.pdf notes.pdf\n", name)
	fmt.Fprintf(stdout, "  %s plan 101\n", name)
}

// VersionCommand prints version information.
func VersionCommand() {
	fmt.Fprintf(stdout, "littlebook version %s\n", Version)
	fmt.Fprintf(stdout, "Build time: %s\n", BuildTime)
}

func programName() string {
	if len(os.Args) > 0 {
		return os.Args[0]
	}
	return "littlebook"
}
