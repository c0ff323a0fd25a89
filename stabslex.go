// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "strconv"

// stabsCursor is a mutable position into a STABS string, the Go analogue of
// the original's `const char*&` cursor. Unlike a C string it knows its own
// length, so eatChar can report end-of-input without relying on a NUL
// terminator.
type stabsCursor struct {
	text string
	pos  int
}

func newStabsCursor(text string) *stabsCursor {
	return &stabsCursor{text: text}
}

func (c *stabsCursor) atEnd() bool { return c.pos >= len(c.text) }

func (c *stabsCursor) peek() (byte, bool) {
	if c.atEnd() {
		return 0, false
	}
	return c.text[c.pos], true
}

// eatChar consumes and returns the next byte, or ok=false at end of input.
func (c *stabsCursor) eatChar() (byte, bool) {
	b, ok := c.peek()
	if !ok {
		return 0, false
	}
	c.pos++
	return b, true
}

// expectChar consumes the next byte and fails if it isn't want, naming what
// it was looking for in the error the way spec.md §4.C's failure semantics
// require ("the parser returns an error naming the subject").
func (c *stabsCursor) expectChar(want byte, subject string) error {
	got, ok := c.eatChar()
	if !ok {
		return Fatalf("expected %q (%s) but reached end of input", want, subject)
	}
	if got != want {
		return Fatalf("expected %q (%s) but got %q", want, subject, got)
	}
	return nil
}

// eatS32Literal consumes a base-10 signed integer literal, strtoll-style: an
// optional leading '-', then one or more digits. Fails if no digits were
// consumed.
func (c *stabsCursor) eatS32Literal() (int32, error) {
	v, err := c.eatS64Literal()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (c *stabsCursor) eatS64Literal() (int64, error) {
	start := c.pos
	if b, ok := c.peek(); ok && b == '-' {
		c.pos++
	}
	digitsStart := c.pos
	for {
		b, ok := c.peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		c.pos++
	}
	if c.pos == digitsStart {
		c.pos = start
		return 0, Fatalf("expected an integer literal at %q", c.remainder(16))
	}
	v, err := strconv.ParseInt(c.text[start:c.pos], 10, 64)
	if err != nil {
		return 0, Fatalf("malformed integer literal: %v", err)
	}
	return v, nil
}

// eatStabsIdentifier consumes up to (not including) the next ':' or ';'.
func (c *stabsCursor) eatStabsIdentifier() string {
	start := c.pos
	for {
		b, ok := c.peek()
		if !ok || b == ':' || b == ';' {
			break
		}
		c.pos++
	}
	return c.text[start:c.pos]
}

// eatDodgyStabsIdentifier is eatStabsIdentifier's template-aware cousin:
// ':' and ';' never terminate the identifier inside angle brackets, and
// outside them a "::" followed by a letter or '_' is kept as a namespace
// separator, so an unescaped C++ "NamespaceA::B" or "Foo<A, B>::bar"
// survives intact instead of being cut at the first colon. Any other "::"
// (such as a member function list's "name::(1,2)") ends the identifier at
// its first ':'. Necessary because STABS overloads ':' as both the field
// terminator and the unescaped namespace separator.
func (c *stabsCursor) eatDodgyStabsIdentifier() string {
	start := c.pos
	depth := 0
	for {
		b, ok := c.peek()
		if !ok {
			break
		}
		if b == ':' && depth == 0 {
			if c.pos+2 < len(c.text) && c.text[c.pos+1] == ':' {
				next := c.text[c.pos+2]
				if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') || next == '_' {
					c.pos += 2
					continue
				}
			}
			break
		}
		if b == ';' && depth == 0 {
			break
		}
		switch b {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		}
		c.pos++
	}
	return c.text[start:c.pos]
}

// remainder returns up to n bytes of unconsumed input, for error messages.
func (c *stabsCursor) remainder(n int) string {
	end := minInt(len(c.text), c.pos+n)
	return c.text[c.pos:end]
}
