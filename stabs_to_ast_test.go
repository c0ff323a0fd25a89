// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "testing"

func TestClassifyRangeIntegerClasses(t *testing.T) {
	tests := []struct {
		low, high string
		want      BuiltInClass
	}{
		{"0", "255", BuiltInUnsigned8},
		{"-128", "127", BuiltInSigned8},
		{"0", "127", BuiltInUnqualified8},
		{"0", "65535", BuiltInUnsigned16},
		{"-32768", "32767", BuiltInSigned16},
		{"0", "4294967295", BuiltInUnsigned32},
		{"-2147483648", "2147483647", BuiltInSigned32},
	}
	for _, tt := range tests {
		got, err := classifyRange(&StabsRange{Low: tt.low, High: tt.high})
		if err != nil {
			t.Fatalf("classifyRange(%s, %s) error = %v", tt.low, tt.high, err)
		}
		if got != tt.want {
			t.Fatalf("classifyRange(%s, %s) = %v, want %v", tt.low, tt.high, got, tt.want)
		}
	}
}

func TestClassifyRangeStringClasses(t *testing.T) {
	tests := []struct {
		name      string
		low, high string
		want      BuiltInClass
	}{
		{"float32", "4", "0", BuiltInFloat32},
		{"float64", "8", "0", BuiltInFloat64},
		{"float128", "16", "0", BuiltInFloat128},
		{"signed64", "-9223372036854775808", "9223372036854775807", BuiltInSigned64},
		{"unqualified128 zero/minus-one", "0", "-1", BuiltInUnqualified128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifyRange(&StabsRange{Low: tt.low, High: tt.high})
			if err != nil {
				t.Fatalf("classifyRange() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("classifyRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyRangeUnknown(t *testing.T) {
	if _, err := classifyRange(&StabsRange{Low: "1", High: "2"}); err == nil {
		t.Fatalf("expected error for unclassifiable range")
	}
}

func TestDetectBitfieldStaticField(t *testing.T) {
	got, err := detectBitfield(StabsField{IsStatic: true}, &lowerState{})
	if err != nil {
		t.Fatalf("detectBitfield() error = %v", err)
	}
	if got {
		t.Fatalf("detectBitfield() = true for a static field, want false")
	}
}

func TestDetectBitfieldSizeMismatch(t *testing.T) {
	byteType := &StabsType{Descriptor: DescRange, HasBody: true, Range: &StabsRange{Low: "0", High: "255"}}

	got, err := detectBitfield(StabsField{Type: byteType, SizeBits: 1}, &lowerState{})
	if err != nil {
		t.Fatalf("detectBitfield() error = %v", err)
	}
	if !got {
		t.Fatalf("detectBitfield() = false for a 1-bit field backed by an 8-bit range, want true")
	}

	got, err = detectBitfield(StabsField{Type: byteType, SizeBits: 8}, &lowerState{})
	if err != nil {
		t.Fatalf("detectBitfield() error = %v", err)
	}
	if got {
		t.Fatalf("detectBitfield() = true for a full-width field, want false")
	}
}

func TestDetectBitfieldThroughAliases(t *testing.T) {
	byteType := &StabsType{
		TypeNumber: StabsTypeNumber{File: 0, Type: 5},
		HasBody:    true,
		Descriptor: DescRange,
		Range:      &StabsRange{Low: "0", High: "255"},
	}
	backReference := &StabsType{TypeNumber: StabsTypeNumber{File: 0, Type: 5}, HasBody: false}
	state := &lowerState{stabsTypes: map[StabsTypeNumber]*StabsType{byteType.TypeNumber: byteType}}

	got, err := detectBitfield(StabsField{Type: backReference, SizeBits: 1}, state)
	if err != nil {
		t.Fatalf("detectBitfield() error = %v", err)
	}
	if !got {
		t.Fatalf("detectBitfield() = false resolving a back-reference alias, want true")
	}
}

func TestDetectBitfieldUnresolvableAlias(t *testing.T) {
	dangling := &StabsType{TypeNumber: StabsTypeNumber{File: 9, Type: 9}, HasBody: false}
	got, err := detectBitfield(StabsField{Type: dangling, SizeBits: 1}, &lowerState{stabsTypes: map[StabsTypeNumber]*StabsType{}})
	if err != nil {
		t.Fatalf("detectBitfield() error = %v", err)
	}
	if got {
		t.Fatalf("detectBitfield() = true for an unresolvable alias, want false")
	}
}

func TestStabsTypeToASTEnum(t *testing.T) {
	constants := []EnumConstant{{Value: 0, Name: "RED"}, {Value: 1, Name: "GREEN"}}
	stabsType := &StabsType{Descriptor: DescEnum, HasBody: true, Enum: &StabsEnum{Fields: constants}}

	node, err := stabsTypeToAST(stabsType, &lowerState{}, 0, 0, false, false)
	if err != nil {
		t.Fatalf("stabsTypeToAST() error = %v", err)
	}
	if node.Kind != NodeEnum || node.Enum == nil {
		t.Fatalf("got kind %v, want NodeEnum", node.Kind)
	}
	if len(node.Enum.Constants) != len(constants) {
		t.Fatalf("got %d constants, want %d", len(node.Enum.Constants), len(constants))
	}
	for i, c := range node.Enum.Constants {
		if c != constants[i] {
			t.Fatalf("constant %d = %+v, want %+v", i, c, constants[i])
		}
	}
}

func TestStabsTypeToASTArray(t *testing.T) {
	element := &StabsType{Descriptor: DescRange, HasBody: true, Range: &StabsRange{Low: "0", High: "255"}}
	index := &StabsType{Descriptor: DescRange, HasBody: true, Range: &StabsRange{Low: "0", High: "3"}}
	array := &StabsType{Descriptor: DescArray, HasBody: true, Array: &StabsArray{IndexType: index, ElementType: element}}

	node, err := stabsTypeToAST(array, &lowerState{}, 0, 0, false, false)
	if err != nil {
		t.Fatalf("stabsTypeToAST() error = %v", err)
	}
	if node.Kind != NodeArray || node.Array == nil {
		t.Fatalf("got kind %v, want NodeArray", node.Kind)
	}
	if node.Array.ElementCount != 4 {
		t.Fatalf("got element count %d, want 4 (0..3 inclusive)", node.Array.ElementCount)
	}
	if node.Array.ElementType.Kind != NodeBuiltIn || node.Array.ElementType.BuiltIn.Class != BuiltInUnsigned8 {
		t.Fatalf("got element type %+v, want an unsigned 8-bit builtin", node.Array.ElementType)
	}
}

func TestStabsTypeToASTArrayUnqualifiedLength(t *testing.T) {
	// A high bound of 0xffffffff marks a zero-length array, per spec.
	element := &StabsType{Descriptor: DescRange, HasBody: true, Range: &StabsRange{Low: "0", High: "255"}}
	index := &StabsType{Descriptor: DescRange, HasBody: true, Range: &StabsRange{Low: "0", High: "4294967295"}}
	array := &StabsType{Descriptor: DescArray, HasBody: true, Array: &StabsArray{IndexType: index, ElementType: element}}

	node, err := stabsTypeToAST(array, &lowerState{}, 0, 0, false, false)
	if err != nil {
		t.Fatalf("stabsTypeToAST() error = %v", err)
	}
	if node.Array.ElementCount != 0 {
		t.Fatalf("got element count %d, want 0 for the unqualified-length special case", node.Array.ElementCount)
	}
}

func TestStabsTypeToASTBuiltIn(t *testing.T) {
	ok := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 16}}
	node, err := stabsTypeToAST(ok, &lowerState{}, 0, 0, false, false)
	if err != nil {
		t.Fatalf("stabsTypeToAST() error = %v", err)
	}
	if node.Kind != NodeBuiltIn || node.BuiltIn.Class != BuiltInBool8 {
		t.Fatalf("got %+v, want a bool builtin", node)
	}

	unknown := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 5}}
	if _, err := stabsTypeToAST(unknown, &lowerState{}, 0, 0, false, false); err == nil {
		t.Fatalf("expected error for an unknown built-in type id")
	}
}

func TestStabsTypeToASTPointerAndQualifiers(t *testing.T) {
	value := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 16}}
	ptr := &StabsType{Descriptor: DescPointer, HasBody: true, Pointer: &StabsPointerType{ValueType: value}}
	qualified := &StabsType{Descriptor: DescConstQualifier, HasBody: true, Qualifier: &StabsQualifier{Type: ptr}}

	node, err := stabsTypeToAST(qualified, &lowerState{}, 0, 0, false, false)
	if err != nil {
		t.Fatalf("stabsTypeToAST() error = %v", err)
	}
	if !node.IsConst {
		t.Fatalf("got IsConst=false, want true")
	}
	if node.Kind != NodePointerOrReference || !node.PointerOrReference.IsPointer {
		t.Fatalf("got %+v, want a const pointer", node)
	}
}

func TestMemberFunctionsToASTRename(t *testing.T) {
	returnType := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 16}}
	assignOp := StabsMemberFunctionSet{
		Name: "__as",
		Overloads: []StabsMemberFunction{
			{Type: &StabsType{Descriptor: DescFunction, HasBody: true, Function: &StabsFunction{ReturnType: returnType}}, Visibility: VisibilityPublic},
		},
	}
	su := &StabsStructOrUnion{MemberFunctions: []StabsMemberFunctionSet{assignOp}}

	nodes, err := memberFunctionsToAST(su, "Foo", &lowerState{}, 0, 0)
	if err != nil {
		t.Fatalf("memberFunctionsToAST() error = %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].Name != "operator=" {
		t.Fatalf("got name %q, want operator=", nodes[0].Name)
	}
	if nodes[0].Function.IsConstructor {
		t.Fatalf("got IsConstructor=true for operator=, want false")
	}
}

func TestMemberFunctionsToASTConstructorDetection(t *testing.T) {
	returnType := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 16}}
	ctor := StabsMemberFunctionSet{
		Name: "Foo",
		Overloads: []StabsMemberFunction{
			{Type: &StabsType{Descriptor: DescFunction, HasBody: true, Function: &StabsFunction{ReturnType: returnType}}, Visibility: VisibilityPublic},
		},
	}
	su := &StabsStructOrUnion{MemberFunctions: []StabsMemberFunctionSet{ctor}}

	nodes, err := memberFunctionsToAST(su, "Foo", &lowerState{}, 0, 0)
	if err != nil {
		t.Fatalf("memberFunctionsToAST() error = %v", err)
	}
	if len(nodes) != 1 || !nodes[0].Function.IsConstructor {
		t.Fatalf("got %+v, want exactly one constructor node", nodes)
	}
}

func TestMemberFunctionsToASTNoMemberFunctionsFlag(t *testing.T) {
	su := &StabsStructOrUnion{MemberFunctions: []StabsMemberFunctionSet{{Name: "bar"}}}
	nodes, err := memberFunctionsToAST(su, "Foo", &lowerState{flags: FlagNoMemberFunctions}, 0, 0)
	if err != nil {
		t.Fatalf("memberFunctionsToAST() error = %v", err)
	}
	if nodes != nil {
		t.Fatalf("got %v, want nil when FlagNoMemberFunctions is set", nodes)
	}
}

func TestMemberFunctionsToASTNoGeneratedFiltersAllSpecial(t *testing.T) {
	returnType := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 16}}
	ctor := StabsMemberFunctionSet{
		Name: "Foo",
		Overloads: []StabsMemberFunction{
			{Type: &StabsType{Descriptor: DescFunction, HasBody: true, Function: &StabsFunction{ReturnType: returnType}}, Visibility: VisibilityPublic},
		},
	}
	su := &StabsStructOrUnion{MemberFunctions: []StabsMemberFunctionSet{ctor}}

	nodes, err := memberFunctionsToAST(su, "Foo", &lowerState{flags: FlagNoGeneratedMemberFunctions}, 0, 0)
	if err != nil {
		t.Fatalf("memberFunctionsToAST() error = %v", err)
	}
	if nodes != nil {
		t.Fatalf("got %v, want nil when every overload looks generated", nodes)
	}
}

func TestMemberFunctionsToASTNoGeneratedKeepsNonSpecial(t *testing.T) {
	returnType := &StabsType{Descriptor: DescBuiltIn, HasBody: true, BuiltIn: &StabsBuiltIn{TypeID: 16}}
	userMethod := StabsMemberFunctionSet{
		Name: "bar",
		Overloads: []StabsMemberFunction{
			{Type: &StabsType{Descriptor: DescFunction, HasBody: true, Function: &StabsFunction{ReturnType: returnType}}, Visibility: VisibilityPublic},
		},
	}
	su := &StabsStructOrUnion{MemberFunctions: []StabsMemberFunctionSet{userMethod}}

	nodes, err := memberFunctionsToAST(su, "Foo", &lowerState{flags: FlagNoGeneratedMemberFunctions}, 0, 0)
	if err != nil {
		t.Fatalf("memberFunctionsToAST() error = %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "bar" {
		t.Fatalf("got %v, want one node named bar", nodes)
	}
}

func TestVisibilityToAccessSpecifier(t *testing.T) {
	tests := []struct {
		v    StabsFieldVisibility
		want AccessSpecifier
	}{
		{VisibilityPrivate, AccessPrivate},
		{VisibilityProtected, AccessProtected},
		{VisibilityPublic, AccessPublic},
		{VisibilityNone, AccessPublic},
	}
	for _, tt := range tests {
		if got := visibilityToAccessSpecifier(tt.v, 0); got != tt.want {
			t.Fatalf("visibilityToAccessSpecifier(%q, 0) = %v, want %v", byte(tt.v), got, tt.want)
		}
	}
	if got := visibilityToAccessSpecifier(VisibilityPrivate, FlagNoAccessSpecifiers); got != AccessPublic {
		t.Fatalf("visibilityToAccessSpecifier with FlagNoAccessSpecifiers = %v, want AccessPublic", got)
	}
}
