// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "testing"

func TestParseStabsSymbolDescriptorOmitted(t *testing.T) {
	sym, err := parseStabsSymbol("count:-16;")
	if err != nil {
		t.Fatalf("parseStabsSymbol() error = %v", err)
	}
	if sym.Name != "count" || sym.Descriptor != SymDescLocalVariable {
		t.Fatalf("got %+v, want name=count, descriptor=SymDescLocalVariable", sym)
	}
}

func TestParseStabsSymbolKnownDescriptor(t *testing.T) {
	sym, err := parseStabsSymbol("total:G-16;")
	if err != nil {
		t.Fatalf("parseStabsSymbol() error = %v", err)
	}
	if sym.Name != "total" || sym.Descriptor != SymDescGlobalVariable {
		t.Fatalf("got %+v, want name=total, descriptor=SymDescGlobalVariable", sym)
	}
	if sym.Type == nil || sym.Type.Descriptor != DescBuiltIn {
		t.Fatalf("got type %+v, want a builtin", sym.Type)
	}
}

func TestParseStabsSymbolMissingColon(t *testing.T) {
	if _, err := parseStabsSymbol("nocolon"); err == nil {
		t.Fatalf("expected error for a stabs symbol with no ':'")
	}
}

func TestParseSymbolsDispatchesNameColonType(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NLSym, String: "flag:-16;"},
	}
	parsed, err := parseSymbols(symbols, false)
	if err != nil {
		t.Fatalf("parseSymbols() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Type != ParsedNameColonType || parsed[0].NameColonType.Name != "flag" {
		t.Fatalf("got %+v, want one ParsedNameColonType entry named flag", parsed)
	}
}

func TestParseSymbolsFunctionEndMarker(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NFun, String: ""},
	}
	parsed, err := parseSymbols(symbols, false)
	if err != nil {
		t.Fatalf("parseSymbols() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Type != ParsedFunctionEnd {
		t.Fatalf("got %+v, want a single ParsedFunctionEnd entry", parsed)
	}
}

func TestParseSymbolsSourceFileMarkers(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NSO, String: "/build/a.c"},
		{IsStabs: true, Code: NSOL, String: "a.h"},
		{IsStabs: true, Code: NLBrac, Index: 1},
		{IsStabs: true, Code: NRBrac, Index: 1},
	}
	parsed, err := parseSymbols(symbols, false)
	if err != nil {
		t.Fatalf("parseSymbols() error = %v", err)
	}
	want := []ParsedSymbolType{ParsedSourceFile, ParsedSubSourceFile, ParsedLBrac, ParsedRBrac}
	if len(parsed) != len(want) {
		t.Fatalf("got %d entries, want %d", len(parsed), len(want))
	}
	for i, w := range want {
		if parsed[i].Type != w {
			t.Fatalf("entry %d: got %v, want %v", i, parsed[i].Type, w)
		}
	}
}

func TestParseSymbolsNonStabsPassthrough(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: false, StorageClass: ScText, StorageType: StProc, String: "main"},
	}
	parsed, err := parseSymbols(symbols, false)
	if err != nil {
		t.Fatalf("parseSymbols() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Type != ParsedNonStabs {
		t.Fatalf("got %+v, want a single ParsedNonStabs entry", parsed)
	}
}

func TestParseSymbolsUnknownCodeLenient(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NEntry, String: "mystery"},
	}
	parsed, err := parseSymbols(symbols, false)
	if err != nil {
		t.Fatalf("parseSymbols() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Type != ParsedNonStabs {
		t.Fatalf("got %+v, want a single lenient ParsedNonStabs entry", parsed)
	}
}

func TestParseSymbolsUnknownCodeStrict(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NEntry, String: "mystery"},
	}
	if _, err := parseSymbols(symbols, true); err == nil {
		t.Fatalf("expected error for an unknown stabs code under strict parsing")
	}
}

func TestParseSymbolsMalformedNameColonTypeLenient(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NLSym, String: "noColonHere"},
	}
	parsed, err := parseSymbols(symbols, false)
	if err != nil {
		t.Fatalf("parseSymbols() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Type != ParsedNonStabs {
		t.Fatalf("got %+v, want a lenient fallback to ParsedNonStabs", parsed)
	}
}

func TestParseSymbolsMalformedNameColonTypeStrict(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NLSym, String: "noColonHere"},
	}
	if _, err := parseSymbols(symbols, true); err == nil {
		t.Fatalf("expected error for a malformed NAME_COLON_TYPE stab under strict parsing")
	}
}

func TestMergeContinuedStabsJoinsBackslashContinuations(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NLSym, String: `Foo:T(1,1)=s4a:(0,1),0,32;\`},
		{IsStabs: true, Code: NLSym, String: `;`},
	}
	merged := mergeContinuedStabs(symbols)
	if len(merged) != 1 {
		t.Fatalf("got %d symbols, want 1 merged symbol", len(merged))
	}
	want := "Foo:T(1,1)=s4a:(0,1),0,32;;"
	if merged[0].String != want {
		t.Fatalf("got %q, want %q", merged[0].String, want)
	}
}

func TestMergeContinuedStabsStopsAtDifferentCode(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NLSym, String: `partial\`},
		{IsStabs: true, Code: NFun, String: "rest"},
	}
	merged := mergeContinuedStabs(symbols)
	if len(merged) != 2 {
		t.Fatalf("got %d symbols, want 2 (continuation requires matching code)", len(merged))
	}
	if merged[0].String != "partial" {
		t.Fatalf("got %q, want the dangling continuation left as-is", merged[0].String)
	}
}

func TestMergeContinuedStabsLeavesPlainSymbolsAlone(t *testing.T) {
	symbols := []Symbol{
		{IsStabs: true, Code: NLSym, String: "plain:-16;"},
	}
	merged := mergeContinuedStabs(symbols)
	if len(merged) != 1 || merged[0].String != "plain:-16;" {
		t.Fatalf("got %+v, want the symbol unchanged", merged)
	}
}
