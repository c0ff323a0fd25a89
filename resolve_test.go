// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "testing"

func TestCompareNodesDifferentKindsDiffer(t *testing.T) {
	lhs := builtin(BuiltInSigned32)
	rhs := newNode(NodeEnum)
	rhs.Enum = &EnumNode{}

	result := compareNodes(lhs, rhs, NewSymbolDatabase(), true)
	if result.Type != CompareDiffers || result.FailReason != FailDescriptor {
		t.Fatalf("compareNodes() = %+v, want Differs/FailDescriptor", result)
	}
}

func TestCompareNodesIdenticalBuiltInsMatch(t *testing.T) {
	lhs := builtin(BuiltInSigned32)
	rhs := builtin(BuiltInSigned32)

	result := compareNodes(lhs, rhs, NewSymbolDatabase(), true)
	if result.Type != CompareMatchesNoSwap {
		t.Fatalf("compareNodes() = %+v, want MatchesNoSwap", result)
	}
}

func TestCompareNodesDifferentBuiltInClassesDiffer(t *testing.T) {
	lhs := builtin(BuiltInSigned32)
	rhs := builtin(BuiltInFloat64)

	result := compareNodes(lhs, rhs, NewSymbolDatabase(), true)
	if result.Type != CompareDiffers || result.FailReason != FailBuiltInClass {
		t.Fatalf("compareNodes() = %+v, want Differs/FailBuiltInClass", result)
	}
}

func TestCompareNodesIntrusiveFieldsOnlyCheckedWhenRequested(t *testing.T) {
	lhs := builtin(BuiltInSigned32)
	lhs.Name = "a"
	rhs := builtin(BuiltInSigned32)
	rhs.Name = "b"

	if result := compareNodes(lhs, rhs, NewSymbolDatabase(), true); result.Type != CompareDiffers {
		t.Fatalf("compareNodes(checkIntrusiveFields=true) = %+v, want Differs", result)
	}
	if result := compareNodes(lhs, rhs, NewSymbolDatabase(), false); result.Type != CompareMatchesNoSwap {
		t.Fatalf("compareNodes(checkIntrusiveFields=false) = %+v, want MatchesNoSwap", result)
	}
}

func TestCompareNodesArrayElementCountMismatchDiffers(t *testing.T) {
	lhs := newNode(NodeArray)
	lhs.Array = &ArrayNode{ElementType: builtin(BuiltInSigned32), ElementCount: 4}
	rhs := newNode(NodeArray)
	rhs.Array = &ArrayNode{ElementType: builtin(BuiltInSigned32), ElementCount: 8}

	result := compareNodes(lhs, rhs, NewSymbolDatabase(), true)
	if result.Type != CompareDiffers || result.FailReason != FailArrayElementCount {
		t.Fatalf("compareNodes() = %+v, want Differs/FailArrayElementCount", result)
	}
}

func TestCompareNodesStructFieldCountMismatchDiffers(t *testing.T) {
	lhs := newNode(NodeStructOrUnion)
	lhs.StructOrUnion = &StructOrUnionNode{IsStruct: true, Fields: []*Node{builtin(BuiltInSigned32)}}
	rhs := newNode(NodeStructOrUnion)
	rhs.StructOrUnion = &StructOrUnionNode{IsStruct: true}

	result := compareNodes(lhs, rhs, NewSymbolDatabase(), true)
	if result.Type != CompareDiffers || result.FailReason != FailFieldsSize {
		t.Fatalf("compareNodes() = %+v, want Differs/FailFieldsSize", result)
	}
}

func TestCompareNodesAndMergeFavourCombinationsConfuse(t *testing.T) {
	// The child pair is a raw int on the left and, on the right, a type name
	// whose STABS target is an int; tryToMatchWobblyTypedefs turns that into
	// MatchesFavourRHS, which cancels a parent MatchesFavourLHS out into
	// MatchesConfused.
	db := NewSymbolDatabase()
	sf := db.SourceFiles.Create(SourceFile{Name: "a.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})
	num := StabsTypeNumber{Type: 5}
	target := db.DataTypes.Create(DataType{Name: "Foo", Root: builtin(BuiltInSigned32)})
	db.SourceFiles.Update(sf, func(s *SourceFile) { s.StabsTypeNumberToHandle[num] = target })
	typeName := newNode(NodeTypeName)
	typeName.TypeName = &TypeNameNode{HasUnresolvedStabs: true, UnresolvedFileHandle: sf, UnresolvedTypeNumber: num}

	dest := matches(CompareMatchesFavourLHS)
	if dest.Type != CompareMatchesFavourLHS {
		t.Fatalf("sanity check failed")
	}
	result, done := compareNodesAndMerge(&dest, builtin(BuiltInSigned32), typeName, db)
	if done || result.Type != CompareMatchesConfused {
		t.Fatalf("compareNodesAndMerge() = (%+v, %v), want (MatchesConfused, false)", result, done)
	}
}

func TestLookupTypeByStabsNumberTakesPriority(t *testing.T) {
	db := NewSymbolDatabase()
	sf := db.SourceFiles.Create(SourceFile{Name: "a.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})
	want := db.DataTypes.Create(DataType{Name: "Foo"})

	num := StabsTypeNumber{Type: 5}
	db.SourceFiles.Update(sf, func(s *SourceFile) { s.StabsTypeNumberToHandle[num] = want })

	tn := &TypeNameNode{HasUnresolvedStabs: true, UnresolvedFileHandle: sf, UnresolvedTypeNumber: num}
	got, ok := lookupType(db, tn, false)
	if !ok || got != want {
		t.Fatalf("lookupType() = (%v, %v), want (%v, true)", got, ok, want)
	}
}

func TestLookupTypeFallsBackToNameLookup(t *testing.T) {
	db := NewSymbolDatabase()
	want := db.DataTypes.Create(DataType{Name: "Bar"})

	tn := &TypeNameNode{TypeNameString: "Bar"}
	if _, ok := lookupType(db, tn, false); ok {
		t.Fatalf("lookupType() with fallbackOnNameLookup=false found a result, want none")
	}
	got, ok := lookupType(db, tn, true)
	if !ok || got != want {
		t.Fatalf("lookupType() = (%v, %v), want (%v, true)", got, ok, want)
	}
}

func TestCreateDataTypeIfUniqueFirstDefinitionIsCreated(t *testing.T) {
	db := NewSymbolDatabase()
	sf := db.SourceFiles.Create(SourceFile{Name: "a.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})
	node := builtin(BuiltInSigned32)
	node.StabsTypeNumber.Type = -1

	handle, err := createDataTypeIfUnique(db, node, "Foo", sf, 0)
	if err != nil {
		t.Fatalf("createDataTypeIfUnique() error = %v", err)
	}
	dt, ok := db.DataTypes.Get(handle)
	if !ok || dt.Name != "Foo" || len(dt.FilesDefinedIn) != 1 || dt.FilesDefinedIn[0] != sf {
		t.Fatalf("created data type = %+v", dt)
	}
}

func TestCreateDataTypeIfUniqueMatchingDefinitionMergesFileList(t *testing.T) {
	db := NewSymbolDatabase()
	sfA := db.SourceFiles.Create(SourceFile{Name: "a.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})
	sfB := db.SourceFiles.Create(SourceFile{Name: "b.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})

	first := builtin(BuiltInSigned32)
	first.StabsTypeNumber.Type = -1
	handleA, err := createDataTypeIfUnique(db, first, "Foo", sfA, 0)
	if err != nil {
		t.Fatalf("createDataTypeIfUnique() error = %v", err)
	}

	second := builtin(BuiltInSigned32)
	second.StabsTypeNumber.Type = -1
	handleB, err := createDataTypeIfUnique(db, second, "Foo", sfB, 0)
	if err != nil {
		t.Fatalf("createDataTypeIfUnique() error = %v", err)
	}

	if handleA != handleB {
		t.Fatalf("matching definitions produced two data types: %v, %v", handleA, handleB)
	}
	dt, _ := db.DataTypes.Get(handleA)
	if len(dt.FilesDefinedIn) != 2 {
		t.Fatalf("FilesDefinedIn = %v, want 2 entries", dt.FilesDefinedIn)
	}
}

func TestCreateDataTypeIfUniqueConflictingDefinitionRecordsReason(t *testing.T) {
	db := NewSymbolDatabase()
	sfA := db.SourceFiles.Create(SourceFile{Name: "a.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})
	sfB := db.SourceFiles.Create(SourceFile{Name: "b.cpp", StabsTypeNumberToHandle: map[StabsTypeNumber]DataTypeHandle{}})

	first := builtin(BuiltInSigned32)
	first.StabsTypeNumber.Type = -1
	handleA, _ := createDataTypeIfUnique(db, first, "Foo", sfA, 0)

	second := builtin(BuiltInFloat64)
	second.StabsTypeNumber.Type = -1
	handleB, err := createDataTypeIfUnique(db, second, "Foo", sfB, 0)
	if err != nil {
		t.Fatalf("createDataTypeIfUnique() error = %v", err)
	}
	if handleA == handleB {
		t.Fatalf("conflicting definitions were merged into one data type")
	}

	dtA, _ := db.DataTypes.Get(handleA)
	if dtA.ConflictReason == "" {
		t.Fatalf("existing data type did not record a conflict reason")
	}
	dtB, _ := db.DataTypes.Get(handleB)
	if dtB.ConflictReason == "" {
		t.Fatalf("new data type did not record a conflict reason")
	}
}
