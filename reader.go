// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import (
	"encoding/binary"
	"fmt"
)

// Image is the byte image plus section metadata the core reads from. ELF
// container parsing itself is out of scope (spec.md §1); Image is the thin
// interface the core needs from whichever collaborator loaded the file.
type Image struct {
	Bytes    []byte
	Sections []ImageSection
}

// ImageSection names a range of Image.Bytes.
type ImageSection struct {
	Name           string
	FileOffset     uint32
	Size           uint32
	VirtualAddress uint32 // zero means "not mapped into memory"
	Link           uint32
}

// SectionByName returns the first section with the given name.
func (img *Image) SectionByName(name string) (ImageSection, bool) {
	for _, s := range img.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return ImageSection{}, false
}

func boundsCheck(data []byte, offset, size uint32) error {
	if uint64(offset)+uint64(size) > uint64(len(data)) {
		return Fatalf("read of %d bytes at offset %#x runs past the end of a %d byte buffer", size, offset, len(data))
	}
	return nil
}

// readStruct decodes a fixed-size little-endian struct at offset, bounds
// checked against data. T must be a struct of fixed-width fields only (no
// pointers, slices, or strings) for binary.Read to accept it.
func readStruct[T any](data []byte, offset uint32) (T, error) {
	var out T
	size := uint32(binary.Size(out))
	if err := boundsCheck(data, offset, size); err != nil {
		return out, err
	}
	if err := binary.Read(sliceReader(data[offset:offset+size]), binary.LittleEndian, &out); err != nil {
		return out, Fatalf("decoding struct: %v", err)
	}
	return out, nil
}

// readStructBE is readStruct for big-endian layouts. The .mdebug Reader is
// little-endian only: NewReader rejects a file descriptor table whose
// big-endian bit is set.
func readStructBE[T any](data []byte, offset uint32) (T, error) {
	var out T
	size := uint32(binary.Size(out))
	if err := boundsCheck(data, offset, size); err != nil {
		return out, err
	}
	if err := binary.Read(sliceReader(data[offset:offset+size]), binary.BigEndian, &out); err != nil {
		return out, Fatalf("decoding struct: %v", err)
	}
	return out, nil
}

type sliceReaderT struct {
	data []byte
	pos  int
}

func sliceReader(data []byte) *sliceReaderT { return &sliceReaderT{data: data} }

func (r *sliceReaderT) Read(p []byte) (int, error) {
	n := copy(p, r.data[r.pos:])
	r.pos += n
	if n == 0 && len(p) > 0 {
		return 0, fmt.Errorf("short read")
	}
	return n, nil
}

// readU32LE reads a single little-endian uint32, bounds checked.
func readU32LE(data []byte, offset uint32) (uint32, error) {
	if err := boundsCheck(data, offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

// readU16LE reads a single little-endian uint16, bounds checked.
func readU16LE(data []byte, offset uint32) (uint16, error) {
	if err := boundsCheck(data, offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

// readCString returns the NUL-terminated string starting at offset, or an
// error if no NUL byte is found before the end of data (the "get_string"
// helper of spec.md §4.A).
func readCString(data []byte, offset uint32) (string, error) {
	if offset > uint32(len(data)) {
		return "", Fatalf("string offset %#x past the end of a %d byte buffer", offset, len(data))
	}
	rest := data[offset:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return "", Fatalf("unterminated string at offset %#x", offset)
}

// maxInt and minInt mirror the small numeric helpers helper.go keeps
// alongside the byte-layer code.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
