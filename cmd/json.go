// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"io"

	ccc "github.com/chaoticgd/ccc"
)

// databaseView is the JSON-friendly projection of a SymbolDatabase: the
// Store type itself isn't serializable (it holds address/name index
// closures alongside its records), so dumpJSON flattens each store to its
// record slice via Store.All and writes the result with an indenting
// json.Encoder.
type databaseView struct {
	DataTypes       []ccc.DataType       `json:"data_types"`
	Functions       []ccc.Function       `json:"functions"`
	GlobalVariables []ccc.GlobalVariable `json:"global_variables"`
	Labels          []ccc.Label          `json:"labels"`
}

func newDatabaseView(db *ccc.SymbolDatabase) databaseView {
	return databaseView{
		DataTypes:       db.DataTypes.All(),
		Functions:       db.Functions.All(),
		GlobalVariables: db.GlobalVariables.All(),
		Labels:          db.Labels.All(),
	}
}

// dumpJSON writes db as indented JSON, the json subcommand's entire job.
func dumpJSON(out io.Writer, db *ccc.SymbolDatabase) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "\t")
	return enc.Encode(newDatabaseView(db))
}
