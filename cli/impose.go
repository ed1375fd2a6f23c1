package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/georgepadayatti/littlebook/config"
	"github.com/georgepadayatti/littlebook/document"
	"github.com/georgepadayatti/littlebook/impose"
	"github.com/georgepadayatti/littlebook/pdf/layout"
)

// ImposeOptions contains options for the impose command. Only flags that
// were given on the command line override the configuration file.
type ImposeOptions struct {
	Book       string
	Output     string
	ConfigPath string
	Scale      float64
	Margin     string
	Fold       string
	Workers    int
	Suffix     string
	OutDir     string
	Password   string
	Force      bool
	NoCompress bool
	LogLevel   string
	LogFormat  string

	set map[string]bool
}

func newImposeFlags(opts *ImposeOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("impose", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.Book, "book", "", "Input PDF (alternative to the positional argument)")
	fs.StringVar(&opts.Output, "o", "", "Output file (default <input>_littlebook.pdf in the current directory)")
	fs.StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	fs.Float64Var(&opts.Scale, "scale", 1, "Scale factor applied to every page")
	fs.StringVar(&opts.Margin, "margin", "0", "Sheet margin, e.g. 12, 12pt, 5mm, 0.25in")
	fs.StringVar(&opts.Fold, "fold", "canonical", "Fold table for 8-page signatures: canonical, alternate")
	fs.IntVar(&opts.Workers, "workers", 1, "Number of sheets composed concurrently")
	fs.StringVar(&opts.Suffix, "suffix", impose.DefaultSuffix, "Suffix for the derived output name")
	fs.StringVar(&opts.OutDir, "outdir", "", "Directory for the derived output name")
	fs.StringVar(&opts.Password, "password", "", "Password of an encrypted input")
	fs.BoolVar(&opts.Force, "force", false, "Overwrite an existing output without asking")
	fs.BoolVar(&opts.NoCompress, "no-compress", false, "Write uncompressed content streams")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "Log format: text, json")

	fs.Usage = func() {
		name := programName()
		fmt.Fprintf(stdout, "Usage: %s impose [options] <input.pdf>\n\n", name)
		fmt.Fprintln(stdout, "Reorder the pages of a PDF into folded signatures and place them")
		fmt.Fprintln(stdout, "four to a sheet. Print the result duplex, fold, cut and bind.")
		fmt.Fprintln(stdout, "")
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
		fmt.Fprintln(stdout, "")
		fmt.Fprintln(stdout, "Examples:")
		fmt.Fprintf(stdout, "  %s impose novel.pdf\n", name)
		fmt.Fprintf(stdout, "  %s impose -fold alternate -margin 5mm -o zine.pdf notes.pdf\n", name)
		fmt.Fprintf(stdout, "  %s impose -config littlebook.yaml -force novel.pdf\n", name)
	}
	return fs
}

// parseImposeArgs parses the arguments after the command name and returns
// the input path.
func parseImposeArgs(args []string) (*ImposeOptions, string, error) {
	opts := &ImposeOptions{set: make(map[string]bool)}
	fs := newImposeFlags(opts)
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	input := opts.Book
	switch {
	case input != "" && fs.NArg() > 0:
		return nil, "", errors.New("give the input either with -book or as an argument, not both")
	case input == "" && fs.NArg() == 1:
		input = fs.Arg(0)
	case input == "":
		fs.Usage()
		return nil, "", errors.New("exactly one input file is required")
	}
	return opts, input, nil
}

// apply overrides cfg with the flags that were set.
func (o *ImposeOptions) apply(cfg *config.AppConfig) error {
	if o.set["scale"] {
		cfg.Imposition.Scale = o.Scale
	}
	if o.set["margin"] {
		margin, err := layout.ParseLength(o.Margin)
		if err != nil {
			return fmt.Errorf("-margin: %w", err)
		}
		cfg.Imposition.Margin = config.Length(margin)
	}
	if o.set["fold"] {
		cfg.Imposition.Fold = o.Fold
	}
	if o.set["workers"] {
		cfg.Imposition.Workers = o.Workers
	}
	if o.set["suffix"] {
		cfg.Output.Suffix = o.Suffix
	}
	if o.set["outdir"] {
		cfg.Output.Dir = o.OutDir
	}
	if o.set["password"] {
		cfg.Input.Password = o.Password
	}
	if o.Force {
		cfg.Output.Overwrite = true
	}
	if o.NoCompress {
		cfg.Output.Compress = false
	}
	if o.set["log-level"] {
		cfg.Logging.Level = o.LogLevel
	}
	if o.set["log-format"] {
		cfg.Logging.Format = o.LogFormat
	}
	return cfg.Validate()
}

// ImposeCommand implements the 'impose' command.
func ImposeCommand(args []string) {
	opts, input, err := parseImposeArgs(args[2:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
		return
	}

	output, err := imposeBook(input, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
		return
	}

	fmt.Fprintf(stdout, "Created %s!\n", output)
}

// loadConfig returns the configuration file at path, or the defaults when
// path is empty.
func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		return config.DefaultAppConfig(), nil
	}
	return config.LoadAppConfig(path)
}

// imposeBook performs the imposition and returns the output path.
func imposeBook(input string, opts *ImposeOptions) (string, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return "", err
	}
	if err := opts.apply(cfg); err != nil {
		return "", err
	}

	variant, err := cfg.Imposition.FoldVariant()
	if err != nil {
		return "", err
	}

	output := opts.Output
	if output == "" {
		output = impose.DeriveOutputPathIn(cfg.Output.Dir, input, cfg.Output.Suffix)
	}

	docOpts := document.Options{Password: cfg.Input.Password}
	if cfg.Input.PromptPassword && prompter.Interactive() {
		docOpts.PasswordPrompt = func() (string, error) {
			return prompter.Password(fmt.Sprintf("Password for %s:", filepath.Base(input)))
		}
	}
	doc, err := document.Open(input, docOpts)
	if err != nil {
		return "", err
	}

	// The log file is opened only once the input is known to be readable.
	logger, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return "", err
	}
	defer closeLog()
	logger.Debug("opened input", "path", input, "pages", doc.PageCount(), "encrypted", doc.Reader().Encrypted())

	overwrite, err := confirmOverwrite(output, cfg.Output.Overwrite)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(output); cfg.Output.Dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	sink := document.NewFileSink(doc, output, document.SinkOptions{
		Compress:  cfg.Output.Compress,
		Overwrite: overwrite,
	})
	pipeline := impose.NewPipeline(variant, cfg.Imposition.ComposeOptions(), logger)
	if _, err := pipeline.Run(doc, sink); err != nil {
		return "", err
	}
	return output, nil
}

// confirmOverwrite decides whether an existing output may be replaced.
func confirmOverwrite(output string, allowed bool) (bool, error) {
	if allowed {
		return true, nil
	}
	if _, err := os.Stat(output); err != nil {
		return false, nil
	}
	if !prompter.Interactive() {
		return false, fmt.Errorf("%s already exists (use -force to overwrite)", output)
	}
	ok, err := prompter.Confirm(fmt.Sprintf("%s already exists. Overwrite?", output), false)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrAborted
	}
	return true, nil
}
