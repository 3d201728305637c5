package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wtask/relay/internal/config"
)

var (
	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// Version - application version fingerprint, overridden with -ldflags "-X main.Version=..."
	Version = "1.0.0"
)

// configure - parses command line and builds resulting configuration, usage and version go to out.
// Returns false when application must exit without an error, e.g. help was requested.
func configure(args []string, out io.Writer) (config.Config, bool, error) {
	flags := flag.NewFlagSet(BinaryName, flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintf(out, "Launch text line relay server over TCP\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flags.PrintDefaults()
		fmt.Fprint(out, "\n")
	}

	var (
		path    string
		dotenv  string
		version bool
	)
	flags.StringVar(&path, "config", "", "Path to YAML configuration file")
	flags.StringVar(&dotenv, "env-file", ".env", "Path to dotenv file, skipped when missing")
	flags.BoolVar(&version, "version", false, "Print version and exit")
	apply := config.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return config.Config{}, false, nil
		}
		return config.Config{}, false, err
	}
	if version {
		fmt.Fprintf(out, "%s v%s\n", BinaryName, Version)
		return config.Config{}, false, nil
	}

	cfg, err := config.Load(path, dotenv)
	if err != nil {
		return config.Config{}, false, err
	}
	apply(&cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, false, err
	}
	return cfg, true, nil
}
