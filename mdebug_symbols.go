// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "strings"

// ParsedSymbolType is the first-pass categorization of a raw Symbol, derived
// from its stabs code (spec.md §4.F).
type ParsedSymbolType uint8

const (
	ParsedNameColonType ParsedSymbolType = iota
	ParsedSourceFile
	ParsedSubSourceFile
	ParsedLBrac
	ParsedRBrac
	ParsedFunctionEnd
	ParsedNonStabs
)

// ParsedSymbol is one categorized entry in a file's symbol stream, ready to
// drive the analyzer state machine.
type ParsedSymbol struct {
	Type                   ParsedSymbolType
	Raw                    Symbol
	NameColonType          StabsSymbol
	Duplicate              bool
	DontSubstituteTypeName bool
}

// StabsSymbolDescriptor is the one-character code following the first ':' in
// a NAME_COLON_TYPE stab, selecting how the payload is used (spec.md §4.F).
type StabsSymbolDescriptor byte

const (
	SymDescLocalVariable        StabsSymbolDescriptor = 0 // '_', or implied by a bare type number
	SymDescReferenceParameterA  StabsSymbolDescriptor = 'a'
	SymDescLocalFunction        StabsSymbolDescriptor = 'f'
	SymDescGlobalFunction       StabsSymbolDescriptor = 'F'
	SymDescGlobalVariable       StabsSymbolDescriptor = 'G'
	SymDescRegisterParameter    StabsSymbolDescriptor = 'P'
	SymDescValueParameter       StabsSymbolDescriptor = 'p'
	SymDescRegisterVariable     StabsSymbolDescriptor = 'r'
	SymDescStaticGlobalVariable StabsSymbolDescriptor = 'S'
	SymDescTypeName             StabsSymbolDescriptor = 't'
	SymDescEnumStructOrTypeTag  StabsSymbolDescriptor = 'T'
	SymDescStaticLocalVariable  StabsSymbolDescriptor = 'V'
	SymDescReferenceParameterV  StabsSymbolDescriptor = 'v'
)

// knownSymbolDescriptors lists every descriptor letter that can follow the
// "name:" prefix; anything else (a digit, '-', '(') means the descriptor was
// omitted and a local variable is implied.
var knownSymbolDescriptors = map[byte]StabsSymbolDescriptor{
	'_': SymDescLocalVariable,
	'a': SymDescReferenceParameterA,
	'f': SymDescLocalFunction,
	'F': SymDescGlobalFunction,
	'G': SymDescGlobalVariable,
	'P': SymDescRegisterParameter,
	'p': SymDescValueParameter,
	'r': SymDescRegisterVariable,
	'S': SymDescStaticGlobalVariable,
	't': SymDescTypeName,
	'T': SymDescEnumStructOrTypeTag,
	'V': SymDescStaticLocalVariable,
	'v': SymDescReferenceParameterV,
}

// StabsSymbol is a parsed NAME_COLON_TYPE payload.
type StabsSymbol struct {
	Name       string
	Descriptor StabsSymbolDescriptor
	Type       *StabsType
}

// parseStabsSymbol parses "name[:descriptor]type" (spec.md §4.F), grounded
// on mdebug_symbols.cpp's parse_stabs_symbol.
func parseStabsSymbol(raw string) (StabsSymbol, error) {
	c := newStabsCursor(raw)
	name := c.eatDodgyStabsIdentifier()
	if err := c.expectChar(':', "stabs symbol"); err != nil {
		return StabsSymbol{}, err
	}

	sym := StabsSymbol{Name: name, Descriptor: SymDescLocalVariable}
	if b, ok := c.peek(); ok {
		if desc, known := knownSymbolDescriptors[b]; known {
			c.pos++
			sym.Descriptor = desc
		}
	}

	typ, err := parseTopLevelStabsType(c)
	if err != nil {
		return StabsSymbol{}, err
	}
	sym.Type = typ
	return sym, nil
}

// parseSymbols categorizes a file's raw symbol stream into ParsedSymbols,
// splicing together backslash-continued NAME_COLON_TYPE strings first
// (grounded on mdebug_symbols.cpp's parse_symbols, which allows arbitrarily
// long stabs to be split across consecutive records of the same code).
func parseSymbols(symbols []Symbol, strict bool) ([]ParsedSymbol, error) {
	merged := mergeContinuedStabs(symbols)

	out := make([]ParsedSymbol, 0, len(merged))
	for _, sym := range merged {
		p := ParsedSymbol{Raw: sym}
		if !sym.IsStabs {
			p.Type = ParsedNonStabs
			out = append(out, p)
			continue
		}

		switch sym.Code {
		case NGSym, NFun, NStSym, NLCSym, NRSym, NLSym, NPSym:
			if sym.Code == NFun && sym.String == "" {
				p.Type = ParsedFunctionEnd
				out = append(out, p)
				continue
			}
			nct, err := parseStabsSymbol(sym.String)
			if err != nil {
				if strict {
					return nil, err
				}
				p.Type = ParsedNonStabs
				out = append(out, p)
				continue
			}
			p.Type = ParsedNameColonType
			p.NameColonType = nct
		case NSOL:
			p.Type = ParsedSubSourceFile
		case NSO:
			p.Type = ParsedSourceFile
		case NLBrac:
			p.Type = ParsedLBrac
		case NRBrac:
			p.Type = ParsedRBrac
		default:
			if strict {
				return nil, Fatalf("unknown stabs code %#x", uint8(sym.Code))
			}
			p.Type = ParsedNonStabs
		}
		out = append(out, p)
	}
	return out, nil
}

// mergeContinuedStabs joins a run of stabs whose string ends in '\\' into a
// single logical symbol carrying the concatenated string, keyed on the first
// physical symbol's value/storage fields (those don't change across a
// continuation).
func mergeContinuedStabs(symbols []Symbol) []Symbol {
	out := make([]Symbol, 0, len(symbols))
	for i := 0; i < len(symbols); i++ {
		sym := symbols[i]
		if !sym.IsStabs || !strings.HasSuffix(sym.String, `\`) {
			out = append(out, sym)
			continue
		}
		var sb strings.Builder
		sb.WriteString(strings.TrimSuffix(sym.String, `\`))
		j := i + 1
		for j < len(symbols) && symbols[j].IsStabs && symbols[j].Code == sym.Code {
			if strings.HasSuffix(symbols[j].String, `\`) {
				sb.WriteString(strings.TrimSuffix(symbols[j].String, `\`))
				j++
				continue
			}
			sb.WriteString(symbols[j].String)
			j++
			break
		}
		merged := sym
		merged.String = sb.String()
		out = append(out, merged)
		i = j - 1
	}
	return out
}
