// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "sort"

// SymbolKindTag discriminates which store a NodeHandle or cross-kind
// reference points into.
type SymbolKindTag uint8

const (
	KindSymbolSource SymbolKindTag = iota
	KindSection
	KindSourceFile
	KindDataType
	KindFunction
	KindGlobalVariable
	KindLabel
	KindLocalVariable
	KindParameterVariable
)

type SymbolSourceHandle uint32
type SectionHandle uint32
type SourceFileHandle uint32
type DataTypeHandle uint32
type FunctionHandle uint32
type GlobalVariableHandle uint32
type LabelHandle uint32
type LocalVariableHandle uint32
type ParameterVariableHandle uint32

// HandleRange names a contiguous run of handles, used for
// SourceFile.Functions/Globals and Function.Parameters/Locals (spec.md §3:
// "name contiguous handle ranges").
type HandleRange[H ~uint32] struct {
	First H
	Count int
}

func (r HandleRange[H]) Empty() bool { return r.Count == 0 }
func (r HandleRange[H]) Last() H     { return r.First + H(r.Count) - 1 }

// NodeHandle is a generation-checked reference into a subtree owned by one
// of the symbol stores (spec.md §4.H, "the only safe way to retain a
// long-lived reference to a subtree inside a DataType"). Resolution looks up
// the owning symbol; if its generation has moved on, the subtree may have
// been replaced or freed by deduplication and the handle resolves to nil.
type NodeHandle struct {
	Kind       SymbolKindTag
	Symbol     uint32
	Node       *Node
	Generation uint32
}

// storeEntry pairs a handle with its record so Store stays generic over any
// record shape without requiring the record itself to expose accessors.
type storeEntry[H ~uint32, T any] struct {
	handle H
	value  T
}

// Store is the handle-keyed, insertion-ordered symbol container described by
// spec.md §4.H: a sorted-by-handle vector plus optional address and name
// multimaps, O(log n) handle lookup via binary search (handles are
// monotonic and never reused, so the vector stays sorted as entries are
// appended and removed).
type Store[H ~uint32, T any] struct {
	entries   []storeEntry[H, T]
	next      H
	addressOf func(T) (uint32, bool)
	nameOf    func(T) (string, bool)
	byAddress map[uint32][]H
	byName    map[string][]H
}

func newStore[H ~uint32, T any](addressOf func(T) (uint32, bool), nameOf func(T) (string, bool)) *Store[H, T] {
	return &Store[H, T]{
		addressOf: addressOf,
		nameOf:    nameOf,
		byAddress: make(map[uint32][]H),
		byName:    make(map[string][]H),
	}
}

// NextHandle returns (without reserving or inserting) the handle the next
// Create call will use; callers that need to know a symbol's own handle while
// still building its record (e.g. SymbolSource pointing at itself) call this
// first.
func (s *Store[H, T]) NextHandle() H { return s.next }

// Create appends a new record under NextHandle() and indexes it.
func (s *Store[H, T]) Create(value T) H {
	h := s.next
	s.next++
	s.entries = append(s.entries, storeEntry[H, T]{handle: h, value: value})
	s.index(h, value)
	return h
}

func (s *Store[H, T]) index(h H, value T) {
	if s.addressOf != nil {
		if addr, ok := s.addressOf(value); ok {
			s.byAddress[addr] = append(s.byAddress[addr], h)
		}
	}
	if s.nameOf != nil {
		if name, ok := s.nameOf(value); ok {
			s.byName[name] = append(s.byName[name], h)
		}
	}
}

func (s *Store[H, T]) deindex(h H, value T) {
	if s.addressOf != nil {
		if addr, ok := s.addressOf(value); ok {
			s.byAddress[addr] = removeHandle(s.byAddress[addr], h)
		}
	}
	if s.nameOf != nil {
		if name, ok := s.nameOf(value); ok {
			s.byName[name] = removeHandle(s.byName[name], h)
		}
	}
}

func removeHandle[H ~uint32](handles []H, target H) []H {
	for i, h := range handles {
		if h == target {
			return append(handles[:i], handles[i+1:]...)
		}
	}
	return handles
}

func (s *Store[H, T]) indexOf(h H) int {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].handle >= h })
	if i < len(s.entries) && s.entries[i].handle == h {
		return i
	}
	return -1
}

// Get returns the record for h, or false if it doesn't exist (destroyed or
// never created).
func (s *Store[H, T]) Get(h H) (T, bool) {
	i := s.indexOf(h)
	if i < 0 {
		var zero T
		return zero, false
	}
	return s.entries[i].value, true
}

// Update mutates the record in place via fn; returns false if h is absent.
// Callers whose mutation changes the indexed address/name field must use
// Move/Rename instead so the secondary maps stay consistent.
func (s *Store[H, T]) Update(h H, fn func(*T)) bool {
	i := s.indexOf(h)
	if i < 0 {
		return false
	}
	fn(&s.entries[i].value)
	return true
}

// Move re-indexes h's address-map entry after setAddress changes its
// address field.
func (s *Store[H, T]) Move(h H, setAddress func(*T)) bool {
	i := s.indexOf(h)
	if i < 0 {
		return false
	}
	s.deindex(h, s.entries[i].value)
	setAddress(&s.entries[i].value)
	s.index(h, s.entries[i].value)
	return true
}

// Rename re-indexes h's name-map entry after setName changes its name field.
func (s *Store[H, T]) Rename(h H, setName func(*T)) bool {
	return s.Move(h, setName)
}

// Destroy removes h. Handles are never reused.
func (s *Store[H, T]) Destroy(h H) bool {
	i := s.indexOf(h)
	if i < 0 {
		return false
	}
	s.deindex(h, s.entries[i].value)
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// DestroyRange removes every handle in [r.First, r.Last()].
func (s *Store[H, T]) DestroyRange(r HandleRange[H]) {
	if r.Empty() {
		return
	}
	for h := r.First; h <= r.Last(); h++ {
		s.Destroy(h)
	}
}

// DestroyWhere removes every record for which pred returns true, used for
// source-scoped bulk deletion.
func (s *Store[H, T]) DestroyWhere(pred func(T) bool) {
	var toRemove []H
	for _, e := range s.entries {
		if pred(e.value) {
			toRemove = append(toRemove, e.handle)
		}
	}
	for _, h := range toRemove {
		s.Destroy(h)
	}
}

// HandlesFromAddress returns every live handle whose record indexed at addr.
func (s *Store[H, T]) HandlesFromAddress(addr uint32) []H { return s.byAddress[addr] }

// HandlesFromName returns every live handle whose record indexed under name.
func (s *Store[H, T]) HandlesFromName(name string) []H { return s.byName[name] }

// FirstHandleFromAddress is a convenience wrapper over HandlesFromAddress.
func (s *Store[H, T]) FirstHandleFromAddress(addr uint32) (H, bool) {
	hs := s.byAddress[addr]
	if len(hs) == 0 {
		var zero H
		return zero, false
	}
	return hs[0], true
}

// FirstHandleFromName is a convenience wrapper over HandlesFromName.
func (s *Store[H, T]) FirstHandleFromName(name string) (H, bool) {
	hs := s.byName[name]
	if len(hs) == 0 {
		var zero H
		return zero, false
	}
	return hs[0], true
}

// Span returns a contiguous view over [r.First, r.Last()], clamped to the
// handles that still exist (an endpoint may have been destroyed).
func (s *Store[H, T]) Span(r HandleRange[H]) []T {
	if r.Empty() {
		return nil
	}
	var out []T
	for h := r.First; h <= r.Last(); h++ {
		if v, ok := s.Get(h); ok {
			out = append(out, v)
		}
	}
	return out
}

// All iterates every live record in handle order.
func (s *Store[H, T]) All() []T {
	out := make([]T, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.value
	}
	return out
}

func (s *Store[H, T]) Len() int { return len(s.entries) }

// --- Variable storage (spec.md §3) ---

type VariableStorageKind uint8

const (
	StorageKindGlobal VariableStorageKind = iota
	StorageKindRegister
	StorageKindStack
)

type GlobalStorageLocation uint8

const (
	GlobalLocationNil GlobalStorageLocation = iota
	GlobalLocationData
	GlobalLocationBss
	GlobalLocationAbs
	GlobalLocationSData
	GlobalLocationSBss
	GlobalLocationRData
	GlobalLocationCommon
	GlobalLocationSCommon
	GlobalLocationSUndefined
)

type GlobalStorage struct {
	Location GlobalStorageLocation
	Address  uint32
}

type RegisterStorage struct {
	DbxRegisterNumber int32
	IsByReference     bool
}

type StackStorage struct {
	StackPointerOffsetBytes int32
}

type VariableStorage struct {
	Kind     VariableStorageKind
	Global   *GlobalStorage
	Register *RegisterStorage
	Stack    *StackStorage
}

// --- Symbol record shapes (spec.md §3's symbol table) ---

type SymbolSource struct {
	Handle SymbolSourceHandle
	Source SymbolSourceHandle // points at itself
	Name   string
}

type Section struct {
	Handle  SectionHandle
	Source  SymbolSourceHandle
	Name    string
	Address uint32
	Size    uint32
}

type LineNumberPair struct {
	Address    uint32
	LineNumber int32
}

type SubSourceFileSpan struct {
	RelativePath string
	StartAddress uint32
}

type SourceFile struct {
	Handle                  SourceFileHandle
	Source                  SymbolSourceHandle
	Name                    string
	RelativePath            string
	TextAddress             uint32
	StabsTypeNumberToHandle map[StabsTypeNumber]DataTypeHandle
	ToolchainVersionInfo    []string
	Functions               HandleRange[FunctionHandle]
	Globals                 HandleRange[GlobalVariableHandle]
}

type DataType struct {
	Handle                             DataTypeHandle
	Source                             SymbolSourceHandle
	Name                                string
	Generation                         uint32
	Root                               *Node
	FilesDefinedIn                     []SourceFileHandle
	ConflictReason                     string
	OnlyDefinedInSingleTranslationUnit bool
	NotDefinedInAnyTranslationUnit     bool
}

type Function struct {
	Handle              FunctionHandle
	Source              SymbolSourceHandle
	Name                string
	Generation          uint32
	Type                *Node
	Address             uint32
	SizeBytes           uint32
	SourceFile          SourceFileHandle
	Parameters          HandleRange[ParameterVariableHandle]
	Locals              HandleRange[LocalVariableHandle]
	LineNumbers         []LineNumberPair
	SubSourceFiles      []SubSourceFileSpan
	RelativePath        string
	StorageClass        StorageClass
	MangledName         string
	IsMemberFunctionish bool
}

type GlobalVariable struct {
	Handle       GlobalVariableHandle
	Source       SymbolSourceHandle
	Name         string
	Generation   uint32
	Type         *Node
	Address      uint32
	SourceFile   SourceFileHandle
	Storage      VariableStorage
	MangledName  string
	StorageClass StorageClass
}

type Label struct {
	Handle  LabelHandle
	Source  SymbolSourceHandle
	Name    string
	Address uint32
}

type LocalVariable struct {
	Handle         LocalVariableHandle
	Source         SymbolSourceHandle
	Name           string
	Generation     uint32
	Type           *Node
	OwningFunction FunctionHandle
	Storage        VariableStorage
	LiveRangeLow   uint32
	LiveRangeHigh  uint32
}

type ParameterVariable struct {
	Handle         ParameterVariableHandle
	Source         SymbolSourceHandle
	Name           string
	Generation     uint32
	Type           *Node
	OwningFunction FunctionHandle
	Storage        VariableStorage
}

// SymbolDatabase owns one Store per symbol kind, wired together the way
// symbol_database.h's symbol_database struct wires its symbol_list<T> members
// (component H).
type SymbolDatabase struct {
	SymbolSources      *Store[SymbolSourceHandle, SymbolSource]
	Sections           *Store[SectionHandle, Section]
	SourceFiles        *Store[SourceFileHandle, SourceFile]
	DataTypes          *Store[DataTypeHandle, DataType]
	Functions          *Store[FunctionHandle, Function]
	GlobalVariables    *Store[GlobalVariableHandle, GlobalVariable]
	Labels             *Store[LabelHandle, Label]
	LocalVariables     *Store[LocalVariableHandle, LocalVariable]
	ParameterVariables *Store[ParameterVariableHandle, ParameterVariable]
}

func NewSymbolDatabase() *SymbolDatabase {
	return &SymbolDatabase{
		SymbolSources: newStore[SymbolSourceHandle, SymbolSource](nil, nil),
		Sections: newStore[SectionHandle](
			func(s Section) (uint32, bool) { return s.Address, true },
			func(s Section) (string, bool) { return s.Name, true },
		),
		SourceFiles: newStore[SourceFileHandle, SourceFile](nil, nil),
		DataTypes: newStore[DataTypeHandle](nil,
			func(d DataType) (string, bool) { return d.Name, d.Name != "" },
		),
		Functions: newStore[FunctionHandle](
			func(f Function) (uint32, bool) { return f.Address, true },
			func(f Function) (string, bool) { return f.Name, true },
		),
		GlobalVariables: newStore[GlobalVariableHandle](
			func(g GlobalVariable) (uint32, bool) { return g.Address, true },
			func(g GlobalVariable) (string, bool) { return g.Name, true },
		),
		Labels: newStore[LabelHandle](
			func(l Label) (uint32, bool) { return l.Address, true },
			nil,
		),
		LocalVariables: newStore[LocalVariableHandle](
			func(l LocalVariable) (uint32, bool) { return l.LiveRangeLow, true },
			nil,
		),
		ParameterVariables: newStore[ParameterVariableHandle, ParameterVariable](nil, nil),
	}
}

// CreateSymbolSource creates a source whose own Source field points at
// itself, matching the original's rule for the symbol-source kind.
func (db *SymbolDatabase) CreateSymbolSource(name string) SymbolSourceHandle {
	h := db.SymbolSources.NextHandle()
	return db.SymbolSources.Create(SymbolSource{Source: h, Name: name})
}

// DestroySymbolsFromSource removes every symbol across every store that
// belongs to source (spec.md §4.H "destroy_symbols_from_source"), cascading
// Function destruction onto its owned parameter/local ranges first.
func (db *SymbolDatabase) DestroySymbolsFromSource(source SymbolSourceHandle) {
	for _, fn := range db.Functions.All() {
		if fn.Source == source {
			db.ParameterVariables.DestroyRange(fn.Parameters)
			db.LocalVariables.DestroyRange(fn.Locals)
		}
	}
	db.Sections.DestroyWhere(func(s Section) bool { return s.Source == source })
	db.SourceFiles.DestroyWhere(func(s SourceFile) bool { return s.Source == source })
	db.DataTypes.DestroyWhere(func(d DataType) bool { return d.Source == source })
	db.Functions.DestroyWhere(func(f Function) bool { return f.Source == source })
	db.GlobalVariables.DestroyWhere(func(g GlobalVariable) bool { return g.Source == source })
	db.Labels.DestroyWhere(func(l Label) bool { return l.Source == source })
	db.LocalVariables.DestroyWhere(func(l LocalVariable) bool { return false }) // owned via Functions above
	db.ParameterVariables.DestroyWhere(func(p ParameterVariable) bool { return false })
	db.SymbolSources.Destroy(source)
}

// ResolveNode dereferences a NodeHandle, returning nil if the owning
// symbol's generation has moved on since the handle was captured.
func (db *SymbolDatabase) ResolveNode(h NodeHandle) *Node {
	var generation uint32
	var ok bool
	switch h.Kind {
	case KindDataType:
		var d DataType
		d, ok = db.DataTypes.Get(DataTypeHandle(h.Symbol))
		generation = d.Generation
	case KindFunction:
		var f Function
		f, ok = db.Functions.Get(FunctionHandle(h.Symbol))
		generation = f.Generation
	case KindGlobalVariable:
		var g GlobalVariable
		g, ok = db.GlobalVariables.Get(GlobalVariableHandle(h.Symbol))
		generation = g.Generation
	case KindLocalVariable:
		var l LocalVariable
		l, ok = db.LocalVariables.Get(LocalVariableHandle(h.Symbol))
		generation = l.Generation
	case KindParameterVariable:
		var p ParameterVariable
		p, ok = db.ParameterVariables.Get(ParameterVariableHandle(h.Symbol))
		generation = p.Generation
	default:
		return nil
	}
	if !ok || generation != h.Generation {
		return nil
	}
	return h.Node
}
