// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "testing"

func TestSplitQualifiedName(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantType     string
		wantFunction string
		wantOk       bool
	}{
		{"simple", "Foo::bar", "Foo", "bar", true},
		{"no separator", "bar", "", "", false},
		{"templated", "Foo<T>::bar", "Foo", "bar", true},
		{"nested qualification uses last separator", "NS::Foo::bar", "NS::Foo", "bar", true},
		{"leading separator", "::bar", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typeName, functionName, ok := splitQualifiedName(tt.input)
			if ok != tt.wantOk {
				t.Fatalf("splitQualifiedName(%q) ok = %v, want %v", tt.input, ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if typeName != tt.wantType || functionName != tt.wantFunction {
				t.Fatalf("splitQualifiedName(%q) = (%q, %q), want (%q, %q)",
					tt.input, typeName, functionName, tt.wantType, tt.wantFunction)
			}
		})
	}
}

func TestComputeSizeBytesBuiltIn(t *testing.T) {
	db := NewSymbolDatabase()
	n := builtin(BuiltInFloat64)
	computeSizeBytes(n, db)
	if n.ComputedSizeBytes != 8 {
		t.Fatalf("ComputedSizeBytes = %d, want 8", n.ComputedSizeBytes)
	}
}

func TestComputeSizeBytesArrayMultipliesElementByCount(t *testing.T) {
	db := NewSymbolDatabase()
	elem := builtin(BuiltInSigned32)
	array := newNode(NodeArray)
	array.Array = &ArrayNode{ElementType: elem, ElementCount: 5}

	computeSizeBytes(array, db)

	if elem.ComputedSizeBytes != 4 {
		t.Fatalf("element ComputedSizeBytes = %d, want 4", elem.ComputedSizeBytes)
	}
	if array.ComputedSizeBytes != 20 {
		t.Fatalf("array ComputedSizeBytes = %d, want 20", array.ComputedSizeBytes)
	}
}

func TestComputeSizeBytesStructUsesSizeBits(t *testing.T) {
	db := NewSymbolDatabase()
	s := newNode(NodeStructOrUnion)
	s.StructOrUnion = &StructOrUnionNode{IsStruct: true}
	s.SizeBits = 64

	computeSizeBytes(s, db)

	if s.ComputedSizeBytes != 8 {
		t.Fatalf("ComputedSizeBytes = %d, want 8", s.ComputedSizeBytes)
	}
}

func TestComputeSizeBytesPointerIsFourBytes(t *testing.T) {
	db := NewSymbolDatabase()
	p := newNode(NodePointerOrReference)
	p.PointerOrReference = &PointerOrReferenceNode{}

	computeSizeBytes(p, db)

	if p.ComputedSizeBytes != 4 {
		t.Fatalf("ComputedSizeBytes = %d, want 4", p.ComputedSizeBytes)
	}
}

func TestComputeSizeBytesTypeNameRecursesIntoResolvedTarget(t *testing.T) {
	db := NewSymbolDatabase()
	src := db.CreateSymbolSource("test")

	target := newNode(NodeStructOrUnion)
	target.StructOrUnion = &StructOrUnionNode{IsStruct: true}
	target.SizeBits = 32

	handle := db.DataTypes.Create(DataType{Source: src, Name: "Target", Root: target})

	tn := newNode(NodeTypeName)
	tn.TypeName = &TypeNameNode{IsResolved: true, ResolvedHandle: handle}

	computeSizeBytes(tn, db)

	if tn.ComputedSizeBytes != 4 {
		t.Fatalf("ComputedSizeBytes = %d, want 4 (target's size lazily computed)", tn.ComputedSizeBytes)
	}
	if target.ComputedSizeBytes != 4 {
		t.Fatalf("target.ComputedSizeBytes = %d, want 4 (memoized as a side effect)", target.ComputedSizeBytes)
	}
}

func TestComputeSizeBytesUnresolvedTypeNameLeavesSizeUncomputed(t *testing.T) {
	db := NewSymbolDatabase()
	tn := newNode(NodeTypeName)
	tn.TypeName = &TypeNameNode{IsResolved: false}

	computeSizeBytes(tn, db)

	if tn.ComputedSizeBytes != -1 {
		t.Fatalf("ComputedSizeBytes = %d, want -1 (unresolved)", tn.ComputedSizeBytes)
	}
	if !tn.CannotComputeSize {
		t.Fatalf("CannotComputeSize = false, want true")
	}
}

func TestComputeSizeBytesMemoizesAndStopsRecursion(t *testing.T) {
	db := NewSymbolDatabase()
	n := builtin(BuiltInSigned32)
	n.ComputedSizeBytes = 99 // already computed; computeSizeBytes must not touch it again

	computeSizeBytes(n, db)

	if n.ComputedSizeBytes != 99 {
		t.Fatalf("ComputedSizeBytes = %d, want 99 (already-computed nodes are left alone)", n.ComputedSizeBytes)
	}
}

func TestMarkSingleTranslationUnitTypes(t *testing.T) {
	db := NewSymbolDatabase()
	src := db.CreateSymbolSource("test")

	single := db.DataTypes.Create(DataType{Source: src, Name: "Single", FilesDefinedIn: []SourceFileHandle{1}})
	multi := db.DataTypes.Create(DataType{Source: src, Name: "Multi", FilesDefinedIn: []SourceFileHandle{1, 2}})

	markSingleTranslationUnitTypes(db, src)

	got, _ := db.DataTypes.Get(single)
	if !got.OnlyDefinedInSingleTranslationUnit {
		t.Fatalf("single-file type not marked OnlyDefinedInSingleTranslationUnit")
	}
	got, _ = db.DataTypes.Get(multi)
	if got.OnlyDefinedInSingleTranslationUnit {
		t.Fatalf("multi-file type incorrectly marked OnlyDefinedInSingleTranslationUnit")
	}
}

func TestLinkMemberFunctionDefinitionsMatchesByTrailingName(t *testing.T) {
	db := NewSymbolDatabase()
	src := db.CreateSymbolSource("test")

	decl := newNode(NodeFunction)
	decl.Name = "bar"
	decl.Function = &FunctionNode{}

	s := newNode(NodeStructOrUnion)
	s.StructOrUnion = &StructOrUnionNode{IsStruct: true, MemberFunctions: []*Node{decl}}

	db.DataTypes.Create(DataType{Source: src, Name: "Foo", Root: s})
	fn := db.Functions.Create(Function{Source: src, Name: "Foo::bar"})

	linkMemberFunctionDefinitions(db)

	if !decl.Function.HasDefinition || decl.Function.DefinitionHandle != fn {
		t.Fatalf("member function declaration not linked to its out-of-line definition")
	}
	got, _ := db.Functions.Get(fn)
	if !got.IsMemberFunctionish {
		t.Fatalf("definition not marked IsMemberFunctionish")
	}
}

func TestLinkMemberFunctionDefinitionsIgnoresUnqualifiedNames(t *testing.T) {
	db := NewSymbolDatabase()
	src := db.CreateSymbolSource("test")
	db.Functions.Create(Function{Source: src, Name: "standalone"})

	// Must not panic or otherwise misbehave when no "::" is present.
	linkMemberFunctionDefinitions(db)
}
