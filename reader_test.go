// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "testing"

func TestImageSectionByName(t *testing.T) {
	img := &Image{Sections: []ImageSection{
		{Name: ".text", FileOffset: 0x10, Size: 0x20},
		{Name: ".mdebug", FileOffset: 0x40, Size: 0x80},
	}}

	s, ok := img.SectionByName(".mdebug")
	if !ok || s.FileOffset != 0x40 {
		t.Fatalf("SectionByName(.mdebug) = (%+v, %v)", s, ok)
	}
	if _, ok := img.SectionByName(".missing"); ok {
		t.Fatalf("SectionByName(.missing) returned ok=true")
	}
}

func TestBoundsCheck(t *testing.T) {
	data := make([]byte, 16)
	if err := boundsCheck(data, 0, 16); err != nil {
		t.Fatalf("boundsCheck(exact fit) error = %v", err)
	}
	if err := boundsCheck(data, 10, 10); err == nil {
		t.Fatalf("boundsCheck(past end) returned nil error")
	}
	if err := boundsCheck(data, 0, 0); err != nil {
		t.Fatalf("boundsCheck(zero size) error = %v", err)
	}
}

type readStructFixture struct {
	A uint32
	B uint16
	C uint16
}

func TestReadStructDecodesLittleEndian(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x03, 0x00}
	got, err := readStruct[readStructFixture](data, 0)
	if err != nil {
		t.Fatalf("readStruct() error = %v", err)
	}
	if got.A != 1 || got.B != 2 || got.C != 3 {
		t.Fatalf("readStruct() = %+v, want {1 2 3}", got)
	}
}

func TestReadStructBigEndian(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0x00, 0x03}
	got, err := readStructBE[readStructFixture](data, 0)
	if err != nil {
		t.Fatalf("readStructBE() error = %v", err)
	}
	if got.A != 1 || got.B != 2 || got.C != 3 {
		t.Fatalf("readStructBE() = %+v, want {1 2 3}", got)
	}
}

func TestReadStructOutOfBounds(t *testing.T) {
	data := make([]byte, 4)
	if _, err := readStruct[readStructFixture](data, 0); err == nil {
		t.Fatalf("readStruct() on a too-short buffer returned nil error")
	}
}

func TestReadU32LE(t *testing.T) {
	data := []byte{0xef, 0xbe, 0xad, 0xde}
	got, err := readU32LE(data, 0)
	if err != nil || got != 0xdeadbeef {
		t.Fatalf("readU32LE() = (%#x, %v), want (0xdeadbeef, nil)", got, err)
	}
	if _, err := readU32LE(data, 1); err == nil {
		t.Fatalf("readU32LE() past end returned nil error")
	}
}

func TestReadU16LE(t *testing.T) {
	data := []byte{0x34, 0x12}
	got, err := readU16LE(data, 0)
	if err != nil || got != 0x1234 {
		t.Fatalf("readU16LE() = (%#x, %v), want (0x1234, nil)", got, err)
	}
}

func TestReadCString(t *testing.T) {
	data := append([]byte("hello"), 0, 'x')
	got, err := readCString(data, 0)
	if err != nil || got != "hello" {
		t.Fatalf("readCString() = (%q, %v), want (hello, nil)", got, err)
	}

	if _, err := readCString([]byte("no-terminator"), 0); err == nil {
		t.Fatalf("readCString() with no NUL byte returned nil error")
	}

	if _, err := readCString(data, uint32(len(data)+1)); err == nil {
		t.Fatalf("readCString() past end of buffer returned nil error")
	}
}

func TestMaxMinInt(t *testing.T) {
	if maxInt(3, 7) != 7 || maxInt(7, 3) != 7 {
		t.Fatalf("maxInt() incorrect")
	}
	if minInt(3, 7) != 3 || minInt(7, 3) != 3 {
		t.Fatalf("minInt() incorrect")
	}
}
