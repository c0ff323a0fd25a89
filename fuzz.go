// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

// Fuzz runs the whole ELF-to-symbol-database pipeline over an arbitrary
// byte string, the go-fuzz v1 convention the teacher's own fuzz.go follows
// for its PE parser: return 1 for inputs the corpus should keep exploring
// variations of (here, anything that at least reaches the STABS/.mdebug
// machinery), 0 otherwise.
func Fuzz(data []byte) int {
	img, err := OpenImageBytes(data)
	if err != nil {
		return 0
	}

	db := NewSymbolDatabase()
	_, err = Import(db, img, "fuzz", Options{Flags: 0})
	if err != nil {
		return 0
	}
	return 1
}
