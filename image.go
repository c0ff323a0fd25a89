// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/gabriel-vasile/mimetype"
)

// ELF container parsing is explicitly out of scope for the core (spec.md
// §1); OpenImage exists only so the module has something real to hand the
// core an Image with, the same role file.go's New/NewBytes play for the
// teacher's PE parser.

// imageFile wraps the memory-mapped backing store so Close can unmap/close
// it once the caller is done with the returned Image.
type imageFile struct {
	data mmap.MMap
	f    *os.File
}

// OpenImage memory-maps the ELF executable at name and builds the Image
// the core's Import reads .mdebug out of. The returned close func must be
// called once the Image is no longer needed.
func OpenImage(name string) (*Image, func() error, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	img, err := buildImage(data)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, nil, err
	}

	backing := &imageFile{data: data, f: f}
	return img, backing.close, nil
}

func (b *imageFile) close() error {
	if err := b.data.Unmap(); err != nil {
		return err
	}
	return b.f.Close()
}

// OpenImageBytes builds an Image from an in-memory buffer, for callers
// that already have the file's bytes (tests, the fuzz harness).
func OpenImageBytes(data []byte) (*Image, error) {
	return buildImage(data)
}

func buildImage(data []byte) (*Image, error) {
	mime := mimetype.Detect(data)
	if mime.Is("application/x-executable") == false && !isLikelyELF(data) {
		return nil, fmt.Errorf("not an ELF file (detected mime type %s)", mime.String())
	}

	elfFile, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing ELF container: %w", err)
	}
	defer elfFile.Close()

	img := &Image{Bytes: data}
	for _, section := range elfFile.Sections {
		img.Sections = append(img.Sections, ImageSection{
			Name:           section.Name,
			FileOffset:     uint32(section.Offset),
			Size:           uint32(section.Size),
			VirtualAddress: uint32(section.Addr),
			Link:           section.Link,
		})
	}
	return img, nil
}

// isLikelyELF checks the magic bytes directly; mimetype's sniffing table
// doesn't always classify a MIPS/PS2 ELF as "application/x-executable" (its
// heuristics are tuned for the host's own common machine types), so this
// catches the common case mimetype misses without disabling the check
// entirely.
func isLikelyELF(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x7f && data[1] == 'E' && data[2] == 'L' && data[3] == 'F'
}
