package cli

import (
	"errors"
	"flag"
	"fmt"
)

// ConfigCommand implements the 'config' command. It prints the effective
// configuration: the defaults, or the given file merged over them.
func ConfigCommand(args []string) {
	configFlags := flag.NewFlagSet("config", flag.ContinueOnError)
	configFlags.SetOutput(stderr)
	path := configFlags.String("config", "", "YAML configuration file")

	if err := configFlags.Parse(args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		osExit(1)
		return
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
		return
	}
	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
		return
	}
	stdout.Write(data)
}
