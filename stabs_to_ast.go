// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import (
	"strconv"
	"strings"
)

// ImporterFlags are the caller-tunable bits that alter parsing/lowering
// behaviour throughout components C, D and G.
type ImporterFlags uint32

const (
	FlagStrictParsing ImporterFlags = 1 << iota
	FlagNoAccessSpecifiers
	FlagNoMemberFunctions
	FlagNoGeneratedMemberFunctions
	FlagDontDeduplicateTypes
)

func (f ImporterFlags) has(bit ImporterFlags) bool { return f&bit != 0 }

// lowerState carries everything stabs_type_to_ast needs beyond the type
// being lowered itself: the per-file back-reference table, which file the
// result will belong to, and the active importer flags.
type lowerState struct {
	file        SourceFileHandle
	stabsTypes  map[StabsTypeNumber]*StabsType
	flags       ImporterFlags
}

const maxLoweringDepth = 200

// stabsTypeToAST is the STABS→AST lowering visitor (component D), grounded
// on stabs_to_ast.cpp's stabs_type_to_ast.
func stabsTypeToAST(t *StabsType, state *lowerState, absParentOffsetBytes int32, depth int32, substituteTypeName bool, forceSubstitute bool) (*Node, error) {
	if depth > maxLoweringDepth {
		return nil, Fatalf("call depth greater than %d in stabs type lowering, probably infinite recursion", maxLoweringDepth)
	}

	if t.Name != "" {
		tryRoot := depth > 0 && (t.IsRoot || t.Descriptor == DescRange || t.Descriptor == DescBuiltIn)
		isNameEmpty := t.Name == "" || t.Name == " "
		isVaList := t.Name == "__builtin_va_list"
		if (substituteTypeName || tryRoot) && !isNameEmpty && !isVaList {
			n := newNode(NodeTypeName)
			n.TypeName = &TypeNameNode{
				Source:               TypeNameReference,
				TypeNameString:       t.Name,
				UnresolvedFileHandle: state.file,
				UnresolvedTypeNumber: t.TypeNumber,
				HasUnresolvedStabs:   true,
			}
			return n, nil
		}
	}

	if forceSubstitute {
		var typeString string
		switch t.Descriptor {
		case DescEnum:
			typeString = "__unnamed_enum"
		case DescStruct:
			typeString = "__unnamed_struct"
		case DescUnion:
			typeString = "__unnamed_union"
		}
		if typeString != "" {
			n := newNode(NodeTypeName)
			n.TypeName = &TypeNameNode{
				Source:               TypeNameReference,
				TypeNameString:       typeString,
				UnresolvedFileHandle: state.file,
				UnresolvedTypeNumber: t.TypeNumber,
				HasUnresolvedStabs:   true,
			}
			return n, nil
		}
	}

	if !t.HasBody {
		if t.Anonymous {
			return nil, Fatalf("cannot lookup type (type is anonymous)")
		}
		found, ok := state.stabsTypes[t.TypeNumber]
		if !ok {
			if state.flags.has(FlagStrictParsing) {
				return nil, Fatalf("failed to lookup STABS type by its type number (%d,%d)", t.TypeNumber.File, t.TypeNumber.Type)
			}
			n := newNode(NodeTypeName)
			n.TypeName = &TypeNameNode{Source: TypeNameError}
			return n, nil
		}
		return stabsTypeToAST(found, state, absParentOffsetBytes, depth+1, substituteTypeName, forceSubstitute)
	}

	var result *Node

	switch t.Descriptor {
	case DescTypeReference:
		ref := t.TypeReference
		if t.Anonymous || ref.Type.Anonymous || ref.Type.TypeNumber != t.TypeNumber {
			node, err := stabsTypeToAST(ref.Type, state, absParentOffsetBytes, depth+1, substituteTypeName, forceSubstitute)
			if err != nil {
				return nil, err
			}
			result = node
		} else {
			n := newNode(NodeTypeName)
			n.TypeName = &TypeNameNode{Source: TypeNameReference, TypeNameString: "void"}
			result = n
		}

	case DescArray:
		n := newNode(NodeArray)
		elem, err := stabsTypeToAST(t.Array.ElementType, state, absParentOffsetBytes, depth+1, true, forceSubstitute)
		if err != nil {
			return nil, err
		}
		index := t.Array.IndexType.Range
		if index == nil {
			return nil, Fatalf("invalid index type for array")
		}
		lowValue, err := strconv.ParseInt(index.Low, 10, 64)
		if err != nil {
			return nil, Fatalf("failed to parse low part of range as integer")
		}
		if lowValue != 0 {
			return nil, Fatalf("invalid index type for array")
		}
		highValue, err := strconv.ParseInt(index.High, 10, 64)
		if err != nil {
			return nil, Fatalf("failed to parse high part of range as integer")
		}
		var count int32
		if highValue == 4294967295 {
			count = 0
		} else {
			count = int32(highValue + 1)
		}
		n.Array = &ArrayNode{ElementType: elem, ElementCount: count}
		result = n

	case DescEnum:
		n := newNode(NodeEnum)
		n.Enum = &EnumNode{Constants: t.Enum.Fields}
		result = n

	case DescFunction:
		n := newNode(NodeFunction)
		ret, err := stabsTypeToAST(t.Function.ReturnType, state, absParentOffsetBytes, depth+1, true, forceSubstitute)
		if err != nil {
			return nil, err
		}
		n.Function = &FunctionNode{ReturnType: ret, VTableIndex: -1}
		result = n

	case DescVolatileQualifier:
		node, err := stabsTypeToAST(t.Qualifier.Type, state, absParentOffsetBytes, depth+1, substituteTypeName, forceSubstitute)
		if err != nil {
			return nil, err
		}
		node.IsVolatile = true
		result = node

	case DescConstQualifier:
		node, err := stabsTypeToAST(t.Qualifier.Type, state, absParentOffsetBytes, depth+1, substituteTypeName, forceSubstitute)
		if err != nil {
			return nil, err
		}
		node.IsConst = true
		result = node

	case DescRange:
		class, err := classifyRange(t.Range)
		if err != nil {
			return nil, err
		}
		n := newNode(NodeBuiltIn)
		n.BuiltIn = &BuiltInNode{Class: class}
		result = n

	case DescStruct, DescUnion:
		n := newNode(NodeStructOrUnion)
		su := t.StructOrUnion
		node := &StructOrUnionNode{IsStruct: t.Descriptor == DescStruct}
		n.SizeBits = int32(su.Size) * 8
		for _, base := range su.BaseClasses {
			baseNode, err := stabsTypeToAST(base.Type, state, absParentOffsetBytes, depth+1, true, forceSubstitute)
			if err != nil {
				return nil, err
			}
			baseNode.IsBaseClass = true
			baseNode.AbsoluteOffsetBytes = base.Offset
			baseNode.AccessSpecifier = visibilityToAccessSpecifier(base.Visibility, state.flags)
			node.BaseClasses = append(node.BaseClasses, baseNode)
		}
		for _, field := range su.Fields {
			fieldNode, err := fieldToAST(field, state, absParentOffsetBytes, depth)
			if err != nil {
				return nil, err
			}
			node.Fields = append(node.Fields, fieldNode)
		}
		memberFuncs, err := memberFunctionsToAST(su, t.Name, state, absParentOffsetBytes, depth)
		if err != nil {
			return nil, err
		}
		node.MemberFunctions = memberFuncs
		n.StructOrUnion = node
		result = n

	case DescCrossReference:
		n := newNode(NodeTypeName)
		n.TypeName = &TypeNameNode{
			Source:              TypeNameCrossReference,
			TypeNameString:      t.CrossReference.Identifier,
			ForwardDeclared:     true,
			ForwardDeclaredKind: t.CrossReference.Kind,
		}
		result = n

	case DescFloatingPointBuiltIn:
		n := newNode(NodeBuiltIn)
		var class BuiltInClass
		switch t.FloatingPointBuiltIn.Bytes {
		case 1:
			class = BuiltInUnsigned8
		case 2:
			class = BuiltInUnsigned16
		case 4:
			class = BuiltInUnsigned32
		case 8:
			class = BuiltInUnsigned64
		case 16:
			class = BuiltInUnsigned128
		default:
			class = BuiltInUnsigned8
		}
		n.BuiltIn = &BuiltInNode{Class: class}
		result = n

	case DescMethod:
		n := newNode(NodeFunction)
		ret, err := stabsTypeToAST(t.Method.ReturnType, state, absParentOffsetBytes, depth+1, true, true)
		if err != nil {
			return nil, err
		}
		fn := &FunctionNode{ReturnType: ret, HasParameters: true, VTableIndex: -1}
		for _, param := range t.Method.ParameterTypes {
			paramNode, err := stabsTypeToAST(param, state, absParentOffsetBytes, depth+1, true, true)
			if err != nil {
				return nil, err
			}
			fn.Parameters = append(fn.Parameters, paramNode)
		}
		n.Function = fn
		result = n

	case DescPointer:
		value, err := stabsTypeToAST(t.Pointer.ValueType, state, absParentOffsetBytes, depth+1, true, forceSubstitute)
		if err != nil {
			return nil, err
		}
		n := newNode(NodePointerOrReference)
		n.PointerOrReference = &PointerOrReferenceNode{IsPointer: true, ValueType: value}
		result = n

	case DescReference:
		value, err := stabsTypeToAST(t.Reference.ValueType, state, absParentOffsetBytes, depth+1, true, forceSubstitute)
		if err != nil {
			return nil, err
		}
		n := newNode(NodePointerOrReference)
		n.PointerOrReference = &PointerOrReferenceNode{IsPointer: false, ValueType: value}
		result = n

	case DescTypeAttribute:
		if t.SizeAttribute != nil {
			node, err := stabsTypeToAST(t.SizeAttribute.Type, state, absParentOffsetBytes, depth+1, substituteTypeName, forceSubstitute)
			if err != nil {
				return nil, err
			}
			node.SizeBits = int32(t.SizeAttribute.SizeBits)
			result = node
		} else {
			n := newNode(NodePointerToDataMember)
			classNode, err := stabsTypeToAST(t.PointerToMember.ClassType, state, absParentOffsetBytes, depth+1, true, true)
			if err != nil {
				return nil, err
			}
			memberNode, err := stabsTypeToAST(t.PointerToMember.MemberType, state, absParentOffsetBytes, depth+1, true, true)
			if err != nil {
				return nil, err
			}
			n.PointerToDataMember = &PointerToDataMemberNode{ClassType: classNode, MemberType: memberNode}
			result = n
		}

	case DescBuiltIn:
		if t.BuiltIn.TypeID != 16 {
			return nil, Fatalf("unknown built-in type")
		}
		n := newNode(NodeBuiltIn)
		n.BuiltIn = &BuiltInNode{Class: BuiltInBool8}
		result = n

	default:
		return nil, Fatalf("invalid type descriptor %q", byte(t.Descriptor))
	}

	if result == nil {
		return nil, Fatalf("result of stabs type lowering is nil")
	}
	return result, nil
}

// rangeStringClass is one literal (low, high) -> class special case;
// classifyRange checks these before falling back to parsed-integer bounds,
// since some of these values overflow 64 bits as text.
type rangeStringClass struct {
	low, high string
	class     BuiltInClass
}

var rangeStringClasses = []rangeStringClass{
	{"4", "0", BuiltInFloat32},
	{"000000000000000000000000", "001777777777777777777777", BuiltInUnsigned64},
	{"00000000000000000000000000000000000000000000", "00000000000000000000001777777777777777777777", BuiltInUnsigned64},
	{"0000000000000", "01777777777777777777777", BuiltInUnsigned64},
	{"0", "18446744073709551615", BuiltInUnsigned64},
	{"001000000000000000000000", "000777777777777777777777", BuiltInSigned64},
	{"00000000000000000000001000000000000000000000", "00000000000000000000000777777777777777777777", BuiltInSigned64},
	{"01000000000000000000000", "0777777777777777777777", BuiltInSigned64},
	{"-9223372036854775808", "9223372036854775807", BuiltInSigned64},
	{"8", "0", BuiltInFloat64},
	{"00000000000000000000000000000000000000000000", "03777777777777777777777777777777777777777777", BuiltInUnsigned128},
	{"02000000000000000000000000000000000000000000", "01777777777777777777777777777777777777777777", BuiltInSigned128},
	{"000000000000000000000000", "0377777777777777777777777777777777", BuiltInUnqualified128},
	{"16", "0", BuiltInFloat128},
	{"0", "-1", BuiltInUnqualified128},
}

type rangeIntegerClass struct {
	low, high int64
	class     BuiltInClass
}

var rangeIntegerClasses = []rangeIntegerClass{
	{0, 255, BuiltInUnsigned8},
	{-128, 127, BuiltInSigned8},
	{0, 127, BuiltInUnqualified8},
	{0, 65535, BuiltInUnsigned16},
	{-32768, 32767, BuiltInSigned16},
	{0, 4294967295, BuiltInUnsigned32},
	{-2147483648, 2147483647, BuiltInSigned32},
}

// classifyRange maps a Range stab's textual bounds to a built-in class,
// grounded on stabs_to_ast.cpp's classify_range.
func classifyRange(r *StabsRange) (BuiltInClass, error) {
	for _, candidate := range rangeStringClasses {
		if candidate.low == r.Low && candidate.high == r.High {
			return candidate.class, nil
		}
	}

	base := func(s string) int { if strings.HasPrefix(s, "0") && s != "0" { return 8 }; return 10 }
	lowValue, err := strconv.ParseInt(r.Low, base(r.Low), 64)
	if err != nil {
		return 0, Fatalf("failed to parse low part of range as integer: %v", err)
	}
	highValue, err := strconv.ParseInt(r.High, base(r.High), 64)
	if err != nil {
		return 0, Fatalf("failed to parse high part of range as integer: %v", err)
	}

	for _, candidate := range rangeIntegerClasses {
		if (candidate.low == lowValue || candidate.low == -lowValue) && candidate.high == highValue {
			return candidate.class, nil
		}
	}

	return 0, Fatalf("failed to classify range (%s, %s)", r.Low, r.High)
}

// fieldToAST lowers one struct/union field, detecting bitfields first
// (stabs_to_ast.cpp's field_to_ast).
func fieldToAST(field StabsField, state *lowerState, absParentOffsetBytes int32, depth int32) (*Node, error) {
	isBitfield, err := detectBitfield(field, state)
	if err != nil {
		return nil, err
	}

	relativeOffsetBytes := field.OffsetBits / 8
	absoluteOffsetBytes := absParentOffsetBytes + relativeOffsetBytes

	if isBitfield {
		underlying, err := stabsTypeToAST(field.Type, state, absoluteOffsetBytes, depth+1, true, false)
		if err != nil {
			return nil, err
		}
		n := newNode(NodeBitField)
		name := field.Name
		if name == " " {
			name = ""
		}
		n.Name = name
		n.RelativeOffsetBytes = relativeOffsetBytes
		n.AbsoluteOffsetBytes = absoluteOffsetBytes
		n.SizeBits = field.SizeBits
		n.AccessSpecifier = visibilityToAccessSpecifier(field.Visibility, state.flags)
		n.BitField = &BitFieldNode{
			BitfieldOffsetBits: field.OffsetBits % 8,
			UnderlyingType:     underlying,
		}
		return n, nil
	}

	node, err := stabsTypeToAST(field.Type, state, absoluteOffsetBytes, depth+1, true, false)
	if err != nil {
		return nil, err
	}
	node.Name = field.Name
	node.RelativeOffsetBytes = relativeOffsetBytes
	node.AbsoluteOffsetBytes = absoluteOffsetBytes
	node.SizeBits = field.SizeBits
	node.AccessSpecifier = visibilityToAccessSpecifier(field.Visibility, state.flags)

	if strings.HasPrefix(field.Name, "$vf") || strings.HasPrefix(field.Name, "_vptr$") || strings.HasPrefix(field.Name, "_vptr.") {
		// Vtable-pointer fields render like any other field; nothing further
		// to special-case since the JSON/header printers aren't in scope here.
	}
	if field.IsStatic {
		node.StorageClass = StorageStatic
	}
	return node, nil
}

// detectBitfield resolves up to 50 layers of transparent aliasing before
// comparing the field's declared size against the underlying type's true
// size (stabs_to_ast.cpp's detect_bitfield).
func detectBitfield(field StabsField, state *lowerState) (bool, error) {
	if field.IsStatic {
		return false, nil
	}

	t := field.Type
	for i := 0; i < 50; i++ {
		if !t.HasBody {
			if t.Anonymous {
				return false, nil
			}
			next, ok := state.stabsTypes[t.TypeNumber]
			if !ok || next == t {
				return false, nil
			}
			t = next
		} else if t.Descriptor == DescTypeReference {
			t = t.TypeReference.Type
		} else if t.Descriptor == DescConstQualifier {
			t = t.Qualifier.Type
		} else if t.Descriptor == DescVolatileQualifier {
			t = t.Qualifier.Type
		} else {
			break
		}
		if i == 49 {
			return false, nil
		}
	}

	var underlyingSizeBits int32
	switch t.Descriptor {
	case DescRange:
		class, err := classifyRange(t.Range)
		if err != nil {
			return false, err
		}
		underlyingSizeBits = builtinClassSize(class) * 8
	case DescCrossReference:
		if t.CrossReference.Kind == ForwardDeclaredEnum {
			underlyingSizeBits = 32
		} else {
			return false, nil
		}
	case DescTypeAttribute:
		if t.SizeAttribute == nil {
			return false, nil
		}
		underlyingSizeBits = int32(t.SizeAttribute.SizeBits)
	case DescBuiltIn:
		underlyingSizeBits = 8
	default:
		return false, nil
	}

	if underlyingSizeBits == 0 {
		return false, nil
	}
	return field.SizeBits != underlyingSizeBits, nil
}

// memberFunctionsToAST lowers a struct/union's member function sets,
// applying the __as->operator= rename and constructor detection
// (stabs_to_ast.cpp's member_functions_to_ast).
func memberFunctionsToAST(su *StabsStructOrUnion, typeName string, state *lowerState, absParentOffsetBytes int32, depth int32) ([]*Node, error) {
	if state.flags.has(FlagNoMemberFunctions) {
		return nil, nil
	}

	typeNameNoTemplateArgs := typeName
	if idx := strings.Index(typeName, "<"); idx >= 0 {
		typeNameNoTemplateArgs = typeName[:idx]
	}

	if state.flags.has(FlagNoGeneratedMemberFunctions) {
		onlySpecial := true
	outer:
		for _, set := range su.MemberFunctions {
			for _, overload := range set.Overloads {
				if overload.Type.Descriptor != DescFunction && overload.Type.Descriptor != DescMethod {
					continue
				}
				var paramCount int
				if overload.Type.Descriptor == DescMethod {
					paramCount = len(overload.Type.Method.ParameterTypes)
				}
				special := set.Name == "__as" || set.Name == "operator=" || strings.HasPrefix(set.Name, "$") ||
					(set.Name == typeNameNoTemplateArgs && paramCount == 0)
				if !special {
					onlySpecial = false
					break outer
				}
			}
		}
		if onlySpecial {
			return nil, nil
		}
	}

	var out []*Node
	for _, set := range su.MemberFunctions {
		for _, overload := range set.Overloads {
			node, err := stabsTypeToAST(overload.Type, state, absParentOffsetBytes, depth+1, true, true)
			if err != nil {
				return nil, err
			}
			if set.Name == "__as" {
				node.Name = "operator="
			} else {
				node.Name = set.Name
			}
			if node.Kind == NodeFunction {
				node.Function.Modifier = overload.Modifier
				node.Function.IsConstructor = typeName != "" && (set.Name == typeName || set.Name == typeNameNoTemplateArgs)
				node.Function.VTableIndex = overload.VTableIndex
			}
			node.AccessSpecifier = visibilityToAccessSpecifier(overload.Visibility, state.flags)
			out = append(out, node)
		}
	}
	return out, nil
}

// visibilityToAccessSpecifier maps a STABS visibility byte to an
// AccessSpecifier, forcing public when the importer flag requests it.
func visibilityToAccessSpecifier(v StabsFieldVisibility, flags ImporterFlags) AccessSpecifier {
	if flags.has(FlagNoAccessSpecifiers) {
		return AccessPublic
	}
	switch v {
	case VisibilityProtected:
		return AccessProtected
	case VisibilityPrivate:
		return AccessPrivate
	default:
		return AccessPublic
	}
}
