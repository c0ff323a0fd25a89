// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

// CompareResultType classifies the outcome of comparing two candidate ASTs
// for the same named type across translation units (spec.md §4.G).
type CompareResultType uint8

const (
	CompareMatchesNoSwap CompareResultType = iota
	CompareMatchesFavourLHS
	CompareMatchesFavourRHS
	CompareMatchesConfused
	CompareDiffers
)

// CompareFailReason records which field caused a DIFFERS verdict, surfaced
// to users as a DataType's conflict reason string.
type CompareFailReason uint8

const (
	FailNone CompareFailReason = iota
	FailDescriptor
	FailStorageClass
	FailName
	FailRelativeOffsetBytes
	FailAbsoluteOffsetBytes
	FailBitfieldOffsetBits
	FailSizeBits
	FailConstness
	FailArrayElementCount
	FailBuiltInClass
	FailFunctionReturnTypeHasValue
	FailFunctionParameterCount
	FailFunctionParametersHasValue
	FailFunctionModifier
	FailFunctionIsConstructor
	FailEnumConstants
	FailBaseClassCount
	FailFieldsSize
	FailMemberFunctionCount
	FailTypeName
)

var compareFailReasonStrings = map[CompareFailReason]string{
	FailNone:                       "error",
	FailDescriptor:                 "descriptor",
	FailStorageClass:               "storage class",
	FailName:                       "name",
	FailRelativeOffsetBytes:        "relative offset",
	FailAbsoluteOffsetBytes:        "absolute offset",
	FailBitfieldOffsetBits:         "bitfield offset",
	FailSizeBits:                   "size",
	FailConstness:                  "constness",
	FailArrayElementCount:          "array element count",
	FailBuiltInClass:               "builtin class",
	FailFunctionReturnTypeHasValue: "function return type has value",
	FailFunctionParameterCount:     "function parameter count",
	FailFunctionParametersHasValue: "function parameter",
	FailFunctionModifier:           "function modifier",
	FailFunctionIsConstructor:      "function is constructor",
	FailEnumConstants:              "enum constant",
	FailBaseClassCount:             "base class count",
	FailFieldsSize:                 "fields size",
	FailMemberFunctionCount:        "member function count",
	FailTypeName:                   "type name",
}

func compareFailReasonToString(r CompareFailReason) string {
	return compareFailReasonStrings[r]
}

// CompareResult is the verdict of compareNodes: either the two sides match
// (optionally favouring one as the better representative to keep) or they
// differ for a recorded reason.
type CompareResult struct {
	Type       CompareResultType
	FailReason CompareFailReason
}

func matches(t CompareResultType) CompareResult { return CompareResult{Type: t} }

func differs(reason CompareFailReason) CompareResult {
	return CompareResult{Type: CompareDiffers, FailReason: reason}
}

// compareNodes is the structural comparator grounded on ast.cpp's
// compare_nodes: it decides whether two ASTs for a type of the same name,
// found in different translation units, describe the same type. The
// intrusive fields (storage class, name, offsets, size, constness) are
// checked only when checkIntrusiveFields is set: createDataTypeIfUnique and
// compareNodesAndMerge (so every nested child) set it, and only
// tryToMatchWobblyTypedefs' comparison of a typedef's target against the raw
// type clears it. The remaining fields are always checked.
func compareNodes(lhs, rhs *Node, db *SymbolDatabase, checkIntrusiveFields bool) CompareResult {
	if lhs.Kind != rhs.Kind {
		return differs(FailDescriptor)
	}
	if checkIntrusiveFields {
		if lhs.StorageClass != rhs.StorageClass {
			return differs(FailStorageClass)
		}
		if lhs.Name != rhs.Name {
			return differs(FailName)
		}
		if lhs.RelativeOffsetBytes != rhs.RelativeOffsetBytes {
			return differs(FailRelativeOffsetBytes)
		}
		if lhs.AbsoluteOffsetBytes != rhs.AbsoluteOffsetBytes {
			return differs(FailAbsoluteOffsetBytes)
		}
		if lhs.SizeBits != rhs.SizeBits {
			return differs(FailSizeBits)
		}
		if lhs.IsConst != rhs.IsConst {
			return differs(FailConstness)
		}
	}

	result := matches(CompareMatchesNoSwap)
	switch lhs.Kind {
	case NodeArray:
		if res, done := compareNodesAndMerge(&result, lhs.Array.ElementType, rhs.Array.ElementType, db); done {
			return res
		}
		if lhs.Array.ElementCount != rhs.Array.ElementCount {
			return differs(FailArrayElementCount)
		}
	case NodeBitField:
		if lhs.BitField.BitfieldOffsetBits != rhs.BitField.BitfieldOffsetBits {
			return differs(FailBitfieldOffsetBits)
		}
		if res, done := compareNodesAndMerge(&result, lhs.BitField.UnderlyingType, rhs.BitField.UnderlyingType, db); done {
			return res
		}
	case NodeBuiltIn:
		if lhs.BuiltIn.Class != rhs.BuiltIn.Class {
			return differs(FailBuiltInClass)
		}
	case NodeEnum:
		if !equalEnumConstants(lhs.Enum.Constants, rhs.Enum.Constants) {
			return differs(FailEnumConstants)
		}
	case NodeForwardDeclared:
		if lhs.ForwardDeclared.Kind != rhs.ForwardDeclared.Kind {
			return differs(FailDescriptor)
		}
	case NodeFunction:
		lf, rf := lhs.Function, rhs.Function
		if (lf.ReturnType != nil) != (rf.ReturnType != nil) {
			return differs(FailFunctionReturnTypeHasValue)
		}
		if lf.ReturnType != nil {
			if res, done := compareNodesAndMerge(&result, lf.ReturnType, rf.ReturnType, db); done {
				return res
			}
		}
		if lf.HasParameters && rf.HasParameters {
			if len(lf.Parameters) != len(rf.Parameters) {
				return differs(FailFunctionParameterCount)
			}
			for i := range lf.Parameters {
				if res, done := compareNodesAndMerge(&result, lf.Parameters[i], rf.Parameters[i], db); done {
					return res
				}
			}
		} else if lf.HasParameters != rf.HasParameters {
			return differs(FailFunctionParametersHasValue)
		}
		if lf.Modifier != rf.Modifier {
			return differs(FailFunctionModifier)
		}
		if lf.IsConstructor != rf.IsConstructor {
			return differs(FailFunctionIsConstructor)
		}
	case NodePointerOrReference:
		lp, rp := lhs.PointerOrReference, rhs.PointerOrReference
		if lp.IsPointer != rp.IsPointer {
			return differs(FailDescriptor)
		}
		if res, done := compareNodesAndMerge(&result, lp.ValueType, rp.ValueType, db); done {
			return res
		}
	case NodePointerToDataMember:
		lm, rm := lhs.PointerToDataMember, rhs.PointerToDataMember
		if res, done := compareNodesAndMerge(&result, lm.ClassType, rm.ClassType, db); done {
			return res
		}
		if res, done := compareNodesAndMerge(&result, lm.MemberType, rm.MemberType, db); done {
			return res
		}
	case NodeStructOrUnion:
		ls, rs := lhs.StructOrUnion, rhs.StructOrUnion
		if ls.IsStruct != rs.IsStruct {
			return differs(FailDescriptor)
		}
		if len(ls.BaseClasses) != len(rs.BaseClasses) {
			return differs(FailBaseClassCount)
		}
		for i := range ls.BaseClasses {
			if res, done := compareNodesAndMerge(&result, ls.BaseClasses[i], rs.BaseClasses[i], db); done {
				return res
			}
		}
		if len(ls.Fields) != len(rs.Fields) {
			return differs(FailFieldsSize)
		}
		for i := range ls.Fields {
			if res, done := compareNodesAndMerge(&result, ls.Fields[i], rs.Fields[i], db); done {
				return res
			}
		}
		if len(ls.MemberFunctions) != len(rs.MemberFunctions) {
			return differs(FailMemberFunctionCount)
		}
		for i := range ls.MemberFunctions {
			if res, done := compareNodesAndMerge(&result, ls.MemberFunctions[i], rs.MemberFunctions[i], db); done {
				return res
			}
		}
	case NodeTypeName:
		lt, rt := lhs.TypeName, rhs.TypeName
		// Don't check the source, so a plain reference and a cross
		// reference to the same type are treated as equal.
		if lt.IsResolved {
			if !rt.IsResolved || lt.ResolvedHandle != rt.ResolvedHandle {
				return differs(FailTypeName)
			}
		} else if lt.TypeNameString != rt.TypeNameString {
			return differs(FailTypeName)
		}
	}
	return result
}

func equalEnumConstants(a, b []EnumConstant) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// compareNodesAndMerge recurses into a child pair, folds the child's verdict
// into the running parent verdict the way ast.cpp's compare_nodes_and_merge
// does (DIFFERS is contagious; two opposite FAVOUR verdicts cancel out into
// CONFUSED), and additionally retries the comparison via
// tryToMatchWobblyTypedefs when the plain comparison differs. The returned
// bool reports whether the caller should return immediately with the given
// result (true only once the merged verdict has become DIFFERS).
func compareNodesAndMerge(dest *CompareResult, lhs, rhs *Node, db *SymbolDatabase) (CompareResult, bool) {
	result := compareNodes(lhs, rhs, db, true)
	tryToMatchWobblyTypedefs(&result, lhs, rhs, db)

	if dest.Type != result.Type {
		switch {
		case dest.Type == CompareDiffers || result.Type == CompareDiffers:
			dest.Type = CompareDiffers
		case dest.Type == CompareMatchesConfused || result.Type == CompareMatchesConfused:
			dest.Type = CompareMatchesConfused
		case dest.Type == CompareMatchesFavourLHS && result.Type == CompareMatchesFavourRHS,
			dest.Type == CompareMatchesFavourRHS && result.Type == CompareMatchesFavourLHS:
			dest.Type = CompareMatchesConfused
		case dest.Type == CompareMatchesFavourLHS || result.Type == CompareMatchesFavourLHS:
			dest.Type = CompareMatchesFavourLHS
		case dest.Type == CompareMatchesFavourRHS || result.Type == CompareMatchesFavourRHS:
			dest.Type = CompareMatchesFavourRHS
		}
	}
	if dest.FailReason == FailNone {
		dest.FailReason = result.FailReason
	}
	if dest.Type == CompareDiffers {
		return *dest, true
	}
	return *dest, false
}

// tryToMatchWobblyTypedefs detects the common case where one translation
// unit sees a typedef name and another sees the plain underlying type,
// which would otherwise make deduplication fail for no good reason
// (ast.cpp's try_to_match_wobbly_typedefs). It tries both orderings of
// (TypeName side, raw side).
func tryToMatchWobblyTypedefs(result *CompareResult, lhs, rhs *Node, db *SymbolDatabase) {
	typeNameNode, rawNode := lhs, rhs
	for i := 0; result.Type == CompareDiffers && i < 2; i++ {
		if typeNameNode.Kind == NodeTypeName {
			tn := typeNameNode.TypeName
			if tn.HasUnresolvedStabs {
				sourceFile, ok := db.SourceFiles.Get(tn.UnresolvedFileHandle)
				if ok {
					if handle, ok := sourceFile.StabsTypeNumberToHandle[tn.UnresolvedTypeNumber]; ok {
						referenced, ok := db.DataTypes.Get(handle)
						if ok && referenced.Root != nil {
							newResult := compareNodes(referenced.Root, rawNode, db, false)
							if newResult.Type != CompareDiffers {
								if i == 0 {
									result.Type = CompareMatchesFavourLHS
								} else {
									result.Type = CompareMatchesFavourRHS
								}
							}
						}
					}
				}
			}
		}
		typeNameNode, rawNode = rawNode, typeNameNode
	}
}

// lookupType resolves a TypeName node to a DataTypeHandle the way
// symbol_table.cpp's SymbolTable::lookup_type does: first by the STABS type
// number recorded against the source file the name was seen in (exact, even
// across same-named types), falling back to a plain name lookup for forward
// declarations that are never defined in the translation unit that
// references them.
func lookupType(db *SymbolDatabase, typeName *TypeNameNode, fallbackOnNameLookup bool) (DataTypeHandle, bool) {
	if typeName.HasUnresolvedStabs {
		sourceFile, ok := db.SourceFiles.Get(typeName.UnresolvedFileHandle)
		if ok {
			if handle, ok := sourceFile.StabsTypeNumberToHandle[typeName.UnresolvedTypeNumber]; ok {
				return handle, true
			}
		}
	}
	if fallbackOnNameLookup {
		if handle, ok := db.DataTypes.FirstHandleFromName(typeName.TypeNameString); ok {
			return handle, true
		}
	}
	return 0, false
}

// createDataTypeIfUnique registers node as the data type named name, found
// while analyzing source. If an existing data type under the same name
// structurally matches (per compareNodes), node is folded into it — its
// file list gains source, and if node turns out to be the better
// representative (MATCHES_FAVOUR_RHS) it replaces the existing AST,
// invalidating any NodeHandles previously taken out against it via a
// generation bump. Otherwise a new, distinct DataType with the same name is
// created and the conflict is recorded on both sides so callers can surface
// "defined differently in different translation units" diagnostics
// (symbol_table.cpp's SymbolTable::create_data_type_if_unique).
func createDataTypeIfUnique(db *SymbolDatabase, node *Node, name string, source SourceFileHandle, symbolSource SymbolSourceHandle) (DataTypeHandle, error) {
	recordStabsNumber := func(handle DataTypeHandle) {
		if node.StabsTypeNumber.Type <= -1 {
			return
		}
		db.SourceFiles.Update(source, func(sf *SourceFile) {
			sf.StabsTypeNumberToHandle[node.StabsTypeNumber] = handle
		})
	}

	existing := db.DataTypes.HandlesFromName(name)
	if len(existing) == 0 {
		handle := db.DataTypes.Create(DataType{
			Source:         symbolSource,
			Name:           name,
			Generation:     1,
			Root:           node,
			FilesDefinedIn: []SourceFileHandle{source},
		})
		recordStabsNumber(handle)
		return handle, nil
	}

	var compareFailReason string
	for _, existingHandle := range existing {
		existingType, ok := db.DataTypes.Get(existingHandle)
		if !ok {
			continue
		}

		result := compareNodes(existingType.Root, node, db, true)
		if result.Type == CompareDiffers {
			isAnonymousEnum := existingType.Root.Kind == NodeEnum && existingType.Name == ""
			if !isAnonymousEnum {
				reason := compareFailReasonToString(result.FailReason)
				db.DataTypes.Update(existingHandle, func(dt *DataType) { dt.ConflictReason = reason })
				compareFailReason = reason
			}
			continue
		}

		db.DataTypes.Update(existingHandle, func(dt *DataType) {
			dt.FilesDefinedIn = append(dt.FilesDefinedIn, source)
			if result.Type == CompareMatchesFavourRHS {
				dt.Root = node
				dt.Generation++
			}
		})
		recordStabsNumber(existingHandle)
		return existingHandle, nil
	}

	handle := db.DataTypes.Create(DataType{
		Source:         symbolSource,
		Name:           name,
		Generation:     1,
		Root:           node,
		FilesDefinedIn: []SourceFileHandle{source},
		ConflictReason: compareFailReason,
	})
	recordStabsNumber(handle)
	return handle, nil
}
