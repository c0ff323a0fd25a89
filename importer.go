// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import (
	"os"

	"github.com/chaoticgd/ccc/log"
)

// Demangler turns a mangled symbol name (as emitted into STABS/.mdebug by
// the compiler) into its demangled, human-readable form. Demangling itself
// is an out-of-scope external collaborator (spec.md §1); Import only needs
// the one function it calls out to.
type Demangler func(mangled string) (demangled string, ok bool)

// Interrupter lets a long-running import be cancelled cooperatively between
// files; Import checks it once per source file.
type Interrupter func() bool

// Options configures a single call to Import.
type Options struct {
	// Flags controls parsing/lowering/deduplication behaviour (spec.md §6).
	Flags ImporterFlags

	// Demangler demangles function/variable names before the
	// member-function-linking post-pass runs. Left nil, names are used
	// as-is (this is the common case for compilers that already emit
	// demangled names into STABS, like most PS2 toolchains).
	Demangler Demangler

	// Interrupt is polled once per source file; when it returns true,
	// Import stops and returns a non-fatal error.
	Interrupt Interrupter

	// Logger receives progress/diagnostic messages. Defaults to a stderr
	// logger filtered to LevelError, matching file.go's default.
	Logger log.Logger
}

// Import runs every analysis pass over a single .mdebug symbol table found
// in img and adds the results to db under a freshly created symbol source,
// which is returned on success (mdebug_importer.cpp's import_symbol_table,
// generalized to Go's multi-return error convention instead of Result<T>).
func Import(db *SymbolDatabase, img *Image, sourceName string, opts Options) (SymbolSourceHandle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stderr)
	}
	helper := log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))

	section, ok := img.SectionByName(".mdebug")
	if !ok {
		return 0, Fatalf("no .mdebug section present")
	}

	reader, err := NewReader(img.Bytes, section.FileOffset)
	if err != nil {
		return 0, err
	}

	source := db.CreateSymbolSource(sourceName)

	for i := range reader.Files {
		if opts.Interrupt != nil && opts.Interrupt() {
			return source, Warnf("import interrupted")
		}
		if err := AnalyseSymbolTable(db, reader, source, opts.Flags, i); err != nil {
			helper.Errorf("analysing %s: %v", reader.Files[i].FullPath, err)
			if opts.Flags.has(FlagStrictParsing) {
				return source, err
			}
		}
	}

	applyDemangler(db, source, opts.Demangler)

	if err := RunPostPasses(db, source, opts.Flags); err != nil {
		return source, err
	}

	return source, nil
}

// applyDemangler runs opts.Demangler over every function and global
// variable belonging to source, preserving the original mangled spelling
// on MangledName and replacing Name with the demangled form wherever the
// demangler succeeds, so postpass.go's member-function linking (which
// splits on "::") sees demangled names exactly as the original's
// fill_in_pointers_to_member_function_definitions expects.
func applyDemangler(db *SymbolDatabase, source SymbolSourceHandle, demangler Demangler) {
	if demangler == nil {
		return
	}
	for _, fn := range db.Functions.All() {
		if fn.Source != source {
			continue
		}
		if demangled, ok := demangler(fn.Name); ok {
			mangled := fn.Name
			db.Functions.Rename(fn.Handle, func(f *Function) {
				f.Name = demangled
				f.MangledName = mangled
			})
		}
	}
	for _, gv := range db.GlobalVariables.All() {
		if gv.Source != source {
			continue
		}
		if demangled, ok := demangler(gv.Name); ok {
			mangled := gv.Name
			db.GlobalVariables.Rename(gv.Handle, func(g *GlobalVariable) {
				g.Name = demangled
				g.MangledName = mangled
			})
		}
	}
}
