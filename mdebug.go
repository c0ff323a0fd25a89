// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import (
	"path"
	"strings"

	"golang.org/x/text/encoding/japanese"
)

// SourceLanguage is the language mdebug.Reader heuristically detects a file
// descriptor's source as, from its path extension (spec.md §4.E).
type SourceLanguage uint8

const (
	LanguageUnknown SourceLanguage = iota
	LanguageC
	LanguageCPP
	LanguageAssembly
)

// symbolicHeaderSize and friends are the fixed byte layouts of the .mdebug
// container, grounded on ccc/mdebug.cpp's packed_struct declarations.
const (
	symbolicHeaderSize    = 0x60
	fileDescriptorSize    = 0x48
	symbolHeaderSize      = 0x0c
	externalSymbolHeaderSize = 0x10
	mdebugMagic           = 0x7009
)

type symbolicHeader struct {
	Magic                         int16
	VersionStamp                  int16
	LineNumberCount               int32
	LineNumbersSizeBytes          int32
	LineNumbersOffset             int32
	DenseNumbersCount             int32
	DenseNumbersOffset            int32
	ProcedureDescriptorCount      int32
	ProcedureDescriptorsOffset    int32
	LocalSymbolCount              int32
	LocalSymbolsOffset            int32
	OptimizationSymbolCount       int32
	OptimizationSymbolsOffset     int32
	AuxiliarySymbolCount          int32
	AuxiliarySymbolsOffset        int32
	LocalStringsSizeBytes         int32
	LocalStringsOffset            int32
	ExternalStringsSizeBytes      int32
	ExternalStringsOffset         int32
	FileDescriptorCount           int32
	FileDescriptorsOffset         int32
	RelativeFileDescriptorCount   int32
	RelativeFileDescriptorsOffset int32
	ExternalSymbolsCount          int32
	ExternalSymbolsOffset         int32
}

func parseSymbolicHeader(data []byte, offset uint32) (symbolicHeader, error) {
	if err := boundsCheck(data, offset, symbolicHeaderSize); err != nil {
		return symbolicHeader{}, err
	}
	get32 := func(o uint32) int32 { v, _ := readU32LE(data, offset+o); return int32(v) }
	h := symbolicHeader{
		Magic:                         int16(mustU16(data, offset+0x00)),
		VersionStamp:                  int16(mustU16(data, offset+0x02)),
		LineNumberCount:               get32(0x04),
		LineNumbersSizeBytes:          get32(0x08),
		LineNumbersOffset:             get32(0x0c),
		DenseNumbersCount:             get32(0x10),
		DenseNumbersOffset:            get32(0x14),
		ProcedureDescriptorCount:      get32(0x18),
		ProcedureDescriptorsOffset:    get32(0x1c),
		LocalSymbolCount:              get32(0x20),
		LocalSymbolsOffset:            get32(0x24),
		OptimizationSymbolCount:       get32(0x28),
		OptimizationSymbolsOffset:     get32(0x2c),
		AuxiliarySymbolCount:          get32(0x30),
		AuxiliarySymbolsOffset:        get32(0x34),
		LocalStringsSizeBytes:         get32(0x38),
		LocalStringsOffset:            get32(0x3c),
		ExternalStringsSizeBytes:      get32(0x40),
		ExternalStringsOffset:         get32(0x44),
		FileDescriptorCount:           get32(0x48),
		FileDescriptorsOffset:         get32(0x4c),
		RelativeFileDescriptorCount:   get32(0x50),
		RelativeFileDescriptorsOffset: get32(0x54),
		ExternalSymbolsCount:          get32(0x58),
		ExternalSymbolsOffset:         get32(0x5c),
	}
	if h.Magic != mdebugMagic {
		return h, Fatalf("bad .mdebug magic %#x, expected %#x", uint16(h.Magic), mdebugMagic)
	}
	return h, nil
}

func mustU16(data []byte, offset uint32) uint16 {
	v, err := readU16LE(data, offset)
	if err != nil {
		return 0
	}
	return v
}

// fileDescriptor is the 0x48-byte per-translation-unit header. The bit
// fields packed into the byte at offset 0x3c (lang:5 f_merge:1 f_readin:1
// f_big_endian:1) are unpacked manually since Go structs have no bitfield
// support.
type fileDescriptor struct {
	Address            uint32
	FilePathStringOffset int32
	StringsOffset      int32
	CbSS               int32
	SymbolBase         int32
	SymbolCount        int32
	LineBase           int32
	LineCount          int32
	OptBase            int32
	OptCount           int32
	ProcedureBase      int16
	ProcedureCount     int16
	AuxBase            int32
	AuxCount           int32
	RelativeFDBase     int32
	RelativeFDCount    int32
	Lang               uint32
	Merge              bool
	ReadIn             bool
	BigEndian          bool
	LineOffset         int32
	LineSizeBytes      int32
}

func parseFileDescriptor(data []byte, offset uint32) (fileDescriptor, error) {
	if err := boundsCheck(data, offset, fileDescriptorSize); err != nil {
		return fileDescriptor{}, err
	}
	get32 := func(o uint32) int32 { v, _ := readU32LE(data, offset+o); return int32(v) }
	get16 := func(o uint32) int16 { return int16(mustU16(data, offset+o)) }
	bits, _ := readU32LE(data, offset+0x3c)
	fd := fileDescriptor{
		Address:              mustU32(data, offset+0x00),
		FilePathStringOffset: get32(0x04),
		StringsOffset:        get32(0x08),
		CbSS:                 get32(0x0c),
		SymbolBase:           get32(0x10),
		SymbolCount:          get32(0x14),
		LineBase:             get32(0x18),
		LineCount:            get32(0x1c),
		OptBase:              get32(0x20),
		OptCount:             get32(0x24),
		ProcedureBase:        get16(0x28),
		ProcedureCount:       get16(0x2a),
		AuxBase:              get32(0x2c),
		AuxCount:             get32(0x30),
		RelativeFDBase:       get32(0x34),
		RelativeFDCount:      get32(0x38),
		Lang:                 bits & 0x1f,
		Merge:                (bits>>5)&1 != 0,
		ReadIn:               (bits>>6)&1 != 0,
		BigEndian:            (bits>>7)&1 != 0,
		LineOffset:           get32(0x40),
		LineSizeBytes:        get32(0x44),
	}
	return fd, nil
}

func mustU32(data []byte, offset uint32) uint32 {
	v, err := readU32LE(data, offset)
	if err != nil {
		return 0
	}
	return v
}

// Symbol is one decoded 12-byte local (or 16-byte external) symbol record.
type Symbol struct {
	String       string
	Value        int32
	StorageType  SymbolStorageType
	StorageClass SymbolStorageClass
	Index        uint32
	IsStabs      bool
	Code         StabsCode
}

// SymbolStorageType is the 6-bit "st" field of a Symbol.
type SymbolStorageType uint8

const (
	StNil SymbolStorageType = iota
	StGlobal
	StStatic
	StParam
	StLocal
	StLabel
	StProc
	StBlock
	StEnd
	StMember
	StTypedef
	StFile
	StRegReloc
	StForward
	StStaticProc
	StConstant
)

// SymbolStorageClass is the 5-bit "sc" field of a Symbol; values follow the
// standard ECOFF/mdebug storage class numbering.
type SymbolStorageClass uint8

const (
	ScNil SymbolStorageClass = iota
	ScText
	ScData
	ScBss
	ScRegister
	ScAbs
	ScUndefined
	ScCdbLocal
	ScBits
	ScCdbSystem
	ScDbx
	ScRegImage
	ScInfo
	ScUserStruct
	ScSData
	ScSBss
	ScRData
	ScVar
	ScCommon
	ScSCommon
	ScVarRegister
	ScVariant
	ScSUndefined
	ScInit
	ScBasTyp
)

// StabsCode is the low byte of a stabs symbol's 20-bit index field once it's
// been identified as a stab by the 0x8f300 mask (spec.md §4.E, §6).
type StabsCode uint8

const (
	NGSym    StabsCode = 0x20
	NFName   StabsCode = 0x22
	NFun     StabsCode = 0x24
	NStSym   StabsCode = 0x26
	NLCSym   StabsCode = 0x28
	NMain    StabsCode = 0x2a
	NPC      StabsCode = 0x30
	NNSyms   StabsCode = 0x32
	NNoMap   StabsCode = 0x34
	NRSym    StabsCode = 0x40
	NM2C     StabsCode = 0x42
	NSLine   StabsCode = 0x44
	NDSLine  StabsCode = 0x46
	NBSLine  StabsCode = 0x48
	NEFD     StabsCode = 0x4a
	NEHDecl  StabsCode = 0x50
	NCatch   StabsCode = 0x54
	NSSym    StabsCode = 0x60
	NEndM    StabsCode = 0x62
	NSO      StabsCode = 0x64
	NLSym    StabsCode = 0x80
	NBIncl   StabsCode = 0x82
	NSOL     StabsCode = 0x84
	NPSym    StabsCode = 0xa0
	NEIncl   StabsCode = 0xa2
	NEntry   StabsCode = 0xa4
	NLBrac   StabsCode = 0xc0
	NExcl    StabsCode = 0xc2
	NScope   StabsCode = 0xc4
	NRBrac   StabsCode = 0xe0
	NBComm   StabsCode = 0xe2
	NEComm   StabsCode = 0xe4
	NEComl   StabsCode = 0xe8
	NNBText  StabsCode = 0xf0
	NNBData  StabsCode = 0xf2
	NNBBss   StabsCode = 0xf4
	NNBSts   StabsCode = 0xf6
	NNBLcs   StabsCode = 0xf8
	NLeng    StabsCode = 0xfe
	NOpt     StabsCode = 0x21
	NStab    StabsCode = 0x00
)

// FileRecord is the reader's per-file-descriptor output: the file's path,
// detected language, and decoded symbol stream (spec.md §4.E).
type FileRecord struct {
	FullPath          string
	WorkingDir        string // "base path" in the original
	CommandLinePath   string // "raw path" in the original
	DetectedLanguage  SourceLanguage
	Symbols           []Symbol
	TextAddress       uint32
}

// Reader is the .mdebug container reader (component E).
type Reader struct {
	header    symbolicHeader
	data      []byte
	sectionOff uint32
	Externals []Symbol
	Files     []FileRecord
}

// NewReader parses the .mdebug section found at sectionOffset within data.
func NewReader(data []byte, sectionOffset uint32) (*Reader, error) {
	h, err := parseSymbolicHeader(data, sectionOffset)
	if err != nil {
		return nil, err
	}
	r := &Reader{header: h, data: data, sectionOff: sectionOffset}

	for i := int32(0); i < h.FileDescriptorCount; i++ {
		fdOffset := sectionOffset + uint32(h.FileDescriptorsOffset) + uint32(i)*fileDescriptorSize
		fd, err := parseFileDescriptor(data, fdOffset)
		if err != nil {
			return nil, err
		}
		if fd.BigEndian {
			return nil, Fatalf("big-endian file descriptor table is not supported")
		}

		rec := FileRecord{TextAddress: fd.Address}
		rawPath, err := readCString(data, sectionOff(sectionOffset, h.LocalStringsOffset)+uint32(fd.StringsOffset)+uint32(fd.FilePathStringOffset))
		if err != nil {
			return nil, err
		}
		rec.CommandLinePath = rawPath
		rec.DetectedLanguage = detectLanguage(rawPath)

		for j := int32(0); j < fd.SymbolCount; j++ {
			symOffset := sectionOffset + uint32(h.LocalSymbolsOffset) + uint32(fd.SymbolBase+j)*symbolHeaderSize
			sym, err := parseSymbol(data, symOffset, sectionOff(sectionOffset, h.LocalStringsOffset)+uint32(fd.StringsOffset))
			if err != nil {
				return nil, err
			}

			// Base-path detection: the first label symbol that directly
			// follows another label (with at least one symbol before that)
			// makes the earlier label's string the build directory.
			if rec.WorkingDir == "" && sym.StorageType == StLabel && len(rec.Symbols) > 1 {
				prev := rec.Symbols[len(rec.Symbols)-1]
				if prev.StorageType == StLabel {
					rec.WorkingDir = prev.String
				}
			}

			rec.Symbols = append(rec.Symbols, sym)
		}

		rec.FullPath = canonicalizePath(rec.WorkingDir, rec.CommandLinePath)
		r.Files = append(r.Files, rec)
	}

	for i := int32(0); i < h.ExternalSymbolsCount; i++ {
		extOffset := sectionOffset + uint32(h.ExternalSymbolsOffset) + uint32(i)*externalSymbolHeaderSize
		sym, err := parseSymbol(data, extOffset+4, sectionOff(sectionOffset, h.ExternalStringsOffset))
		if err != nil {
			return nil, err
		}
		r.Externals = append(r.Externals, sym)
	}

	return r, nil
}

func sectionOff(base uint32, relative int32) uint32 { return base + uint32(relative) }

func detectLanguage(rawPath string) SourceLanguage {
	lower := strings.ToLower(rawPath)
	switch path.Ext(lower) {
	case ".c":
		return LanguageC
	case ".cpp", ".cc", ".cxx":
		return LanguageCPP
	case ".s", ".asm":
		return LanguageAssembly
	default:
		return LanguageUnknown
	}
}

// canonicalizePath implements spec.md §4.E's path canonicalization: slashes
// normalized, then the raw path used verbatim if absolute/drive-qualified,
// else joined onto the working directory.
func canonicalizePath(workingDir, rawPath string) string {
	wd := strings.ReplaceAll(workingDir, "\\", "/")
	rp := strings.ReplaceAll(rawPath, "\\", "/")
	if wd == "" {
		return rp
	}
	if strings.HasPrefix(rp, "/") || (len(rp) >= 3 && rp[1] == ':' && rp[2] == '/') {
		return rp
	}
	return path.Join(wd, rp)
}

func parseSymbol(data []byte, offset uint32, stringsBase uint32) (Symbol, error) {
	if err := boundsCheck(data, offset, symbolHeaderSize); err != nil {
		return Symbol{}, err
	}
	iss := mustU32(data, offset)
	value := int32(mustU32(data, offset+4))
	packed := mustU32(data, offset+8)

	sym := Symbol{
		Value:        value,
		StorageType:  SymbolStorageType(packed & 0x3f),
		StorageClass: SymbolStorageClass((packed >> 6) & 0x1f),
		Index:        (packed >> 12) & 0xfffff,
	}
	str, err := readStabsString(data, stringsBase+iss)
	if err != nil {
		return Symbol{}, err
	}
	sym.String = str

	if (sym.Index & 0xfff00) == 0x8f300 {
		sym.IsStabs = true
		sym.Code = StabsCode(sym.Index - 0x8f300)
	}
	return sym, nil
}

// readStabsString decodes a NUL-terminated string, retrying as Shift-JIS
// when the bytes don't form valid UTF-8 (some PS2 toolchains leak raw
// Shift-JIS bytes into comment or path strings produced from user source
// file names) and falling back to the raw bytes if that also fails to
// decode.
func readStabsString(data []byte, offset uint32) (string, error) {
	raw, err := readCString(data, offset)
	if err != nil {
		return "", err
	}
	if isValidUTF8(raw) {
		return raw, nil
	}
	decoder := japanese.ShiftJIS.NewDecoder()
	decoded, err := decoder.String(raw)
	if err != nil {
		return raw, nil
	}
	return decoded, nil
}

func isValidUTF8(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}
