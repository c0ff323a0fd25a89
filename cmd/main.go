// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

// Command ccc-dump loads an ELF executable's .mdebug symbol table, imports
// it into a symbol database, and renders the result as text, JSON, or over
// an HTTP API, the same rootCmd/subcommand shape pedumper.go used for the
// PE parser (cobra root + version/dump subcommands), generalized to three
// subcommands and environment-variable-backed flag defaults.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	ccc "github.com/chaoticgd/ccc"
	"github.com/chaoticgd/ccc/log"
)

// buildVersion is set at release time via -ldflags; left blank in
// development builds the way pedumper.go's own version string works.
var buildVersion = "dev"

// config carries the flags shared by every subcommand that imports a file,
// generalizing dump.go's per-section boolean flag struct to the knobs this
// domain actually has: how strict the import should be, what demangles
// symbol names, and where diagnostics additionally go.
type config struct {
	strict    bool
	demangler string
	logFile   string
}

// newLogger builds the fan-out logger every subcommand imports through:
// stderr always, plus cfg.logFile (the --log-file flag) when set.
func newLogger(cfg config) (log.Logger, func(), error) {
	fanout := log.NewFanOut()
	detachStderr := fanout.Add(os.Stderr)
	closeFile := func() {}

	if cfg.logFile != "" {
		f, err := os.Create(cfg.logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		detachFile := fanout.Add(f)
		closeFile = func() {
			detachFile()
			f.Close()
		}
	}

	return fanout, func() {
		detachStderr()
		closeFile()
	}, nil
}

// loadDatabase opens path as an ELF image and imports its .mdebug section,
// the shared first step of dump/json/serve (mdebug_importer.cpp's
// import_symbol_table entry point, via importer.go's Import).
func loadDatabase(path string, cfg config) (*ccc.SymbolDatabase, error) {
	img, closeImg, err := ccc.OpenImage(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer closeImg()

	logger, closeLogger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	defer closeLogger()

	var flags ccc.ImporterFlags
	if cfg.strict {
		flags |= ccc.FlagStrictParsing
	}

	db := ccc.NewSymbolDatabase()
	_, err = ccc.Import(db, img, path, ccc.Options{
		Flags:  flags,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	return db, nil
}

func main() {
	var cfg config

	rootCmd := &cobra.Command{
		Use:   "ccc-dump",
		Short: "Import PS2/MIPS STABS debug information from an ELF executable",
	}
	rootCmd.PersistentFlags().BoolVar(&cfg.strict, "strict", env.Bool("CCC_STRICT"),
		"abort a file's import on the first parse error instead of continuing in loose mode")
	rootCmd.PersistentFlags().StringVar(&cfg.demangler, "demangler", env.Str("CCC_DEMANGLER", ""),
		"reserved for a future external demangler hook (unset: names are used as-is)")
	rootCmd.PersistentFlags().StringVar(&cfg.logFile, "log-file", env.Str("CCC_LOG_FILE", ""),
		"additional file to mirror diagnostic log lines to")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildVersion)
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <elf-file>",
		Short: "Print the imported symbol database as text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadDatabase(args[0], cfg)
			if err != nil {
				return err
			}
			dumpText(os.Stdout, db)
			return nil
		},
	}

	jsonCmd := &cobra.Command{
		Use:   "json <elf-file>",
		Short: "Print the imported symbol database as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadDatabase(args[0], cfg)
			if err != nil {
				return err
			}
			return dumpJSON(os.Stdout, db)
		},
	}

	var serveAddr string
	serveCmd := &cobra.Command{
		Use:   "serve <elf-file>",
		Short: "Serve the imported symbol database as a read-only JSON API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadDatabase(args[0], cfg)
			if err != nil {
				return err
			}
			return serve(serveAddr, db)
		},
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", env.Str("CCC_SERVE_ADDR", "localhost:8080"),
		"address to listen on")

	rootCmd.AddCommand(versionCmd, dumpCmd, jsonCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
