// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	ccc "github.com/chaoticgd/ccc"
)

// serve exposes db as a read-only JSON API on addr: one endpoint each for
// data types, functions and global variables, plus "/" returning everything
// dumpJSON produces at once. There is no write path; this project never persists edits back
// to an executable (spec.md Non-goals: "persistent editing").
func serve(addr string, db *ccc.SymbolDatabase) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, newDatabaseView(db))
	})
	mux.HandleFunc("/types", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, db.DataTypes.All())
	})
	mux.HandleFunc("/functions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, db.Functions.All())
	})
	mux.HandleFunc("/globals", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, db.GlobalVariables.All())
	})

	fmt.Printf("serving symbol database on http://%s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
