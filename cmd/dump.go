// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	ccc "github.com/chaoticgd/ccc"
)

// dumpText prints every symbol store in db as a sequence of tab-aligned
// tables, generalizing the teacher's per-section tabwriter blocks (this
// file's original DOS/NT/section/import dumps) to this domain's own symbol
// kinds.
func dumpText(out io.Writer, db *ccc.SymbolDatabase) {
	dumpDataTypes(out, db)
	dumpFunctions(out, db)
	dumpGlobalVariables(out, db)
}

func dumpDataTypes(out io.Writer, db *ccc.SymbolDatabase) {
	types := db.DataTypes.All()
	if len(types) == 0 {
		return
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	fmt.Fprint(out, "\n\t------[ Data Types ]------\n\n")
	w := tabwriter.NewWriter(out, 1, 1, 3, ' ', 0)
	fmt.Fprintln(w, "Name\tSize\tFiles\tConflict\t")
	for _, t := range types {
		size := int32(-1)
		if t.Root != nil {
			size = t.Root.ComputedSizeBytes
		}
		conflict := t.ConflictReason
		if conflict == "" {
			conflict = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t\n", t.Name, size, len(t.FilesDefinedIn), conflict)
	}
	w.Flush()
}

func dumpFunctions(out io.Writer, db *ccc.SymbolDatabase) {
	fns := db.Functions.All()
	if len(fns) == 0 {
		return
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].Address < fns[j].Address })

	fmt.Fprint(out, "\n\t------[ Functions ]------\n\n")
	w := tabwriter.NewWriter(out, 1, 1, 3, ' ', 0)
	fmt.Fprintln(w, "Address\tSize\tName\tParameters\tLocals\tMemberFunction\t")
	for _, fn := range fns {
		fmt.Fprintf(w, "0x%x\t0x%x\t%s\t%d\t%d\t%v\t\n",
			fn.Address, fn.SizeBytes, fn.Name, fn.Parameters.Count, fn.Locals.Count, fn.IsMemberFunctionish)
	}
	w.Flush()
}

func dumpGlobalVariables(out io.Writer, db *ccc.SymbolDatabase) {
	globals := db.GlobalVariables.All()
	if len(globals) == 0 {
		return
	}
	sort.Slice(globals, func(i, j int) bool { return globals[i].Address < globals[j].Address })

	fmt.Fprint(out, "\n\t------[ Global Variables ]------\n\n")
	w := tabwriter.NewWriter(out, 1, 1, 3, ' ', 0)
	fmt.Fprintln(w, "Address\tName\tStorageClass\t")
	for _, gv := range globals {
		fmt.Fprintf(w, "0x%x\t%s\t%d\t\n", gv.Address, gv.Name, gv.StorageClass)
	}
	w.Flush()
}
