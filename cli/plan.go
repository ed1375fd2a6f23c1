package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/georgepadayatti/littlebook/impose"
)

// PlanCommand implements the 'plan' command.
func PlanCommand(args []string) {
	planFlags := flag.NewFlagSet("plan", flag.ContinueOnError)
	planFlags.SetOutput(stderr)
	fold := planFlags.String("fold", "canonical", "Fold table for 8-page signatures: canonical, alternate")

	planFlags.Usage = func() {
		fmt.Fprintf(stdout, "Usage: %s plan [options] <page-count>\n\n", programName())
		fmt.Fprintln(stdout, "Show how a document with the given number of pages would be imposed.")
		fmt.Fprintln(stdout, "")
		fmt.Fprintln(stdout, "Options:")
		planFlags.SetOutput(stdout)
		planFlags.PrintDefaults()
		planFlags.SetOutput(stderr)
	}

	if err := planFlags.Parse(args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		osExit(1)
		return
	}
	if planFlags.NArg() != 1 {
		planFlags.Usage()
		osExit(1)
		return
	}

	pages, err := strconv.Atoi(planFlags.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: page count %q is not a number\n", planFlags.Arg(0))
		osExit(1)
		return
	}
	variant, err := impose.ParseFoldVariant(*fold)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
		return
	}
	if err := printPlan(stdout, pages, variant); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
	}
}

func printPlan(w io.Writer, pages int, variant impose.FoldVariant) error {
	profile, err := impose.SelectProfile(pages, variant)
	if err != nil {
		return err
	}
	blank := impose.PaddingFor(pages, profile.SigSize)
	padded := pages + blank
	sheets := (padded + impose.PagesPerSheet - 1) / impose.PagesPerSheet

	fmt.Fprintf(w, "Pages:         %d\n", pages)
	fmt.Fprintf(w, "Signature:     %d pages (%d sheets)\n", profile.SigSize, profile.SheetsPerSignature())
	fmt.Fprintf(w, "Fold order:    %v\n", profile.FoldOrder)
	fmt.Fprintf(w, "Blank pages:   %d\n", blank)
	fmt.Fprintf(w, "Padded pages:  %d\n", padded)
	fmt.Fprintf(w, "Signatures:    %d\n", padded/profile.SigSize)
	fmt.Fprintf(w, "Sheets:        %d\n", sheets)
	return nil
}
