// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

// StabsTypeNumber identifies a STABS type within a translation unit. Most
// games just use a single bare number (File == -1); some SDKs (the homebrew
// toolchain among them) use the two-part (file,type) form.
type StabsTypeNumber struct {
	File int32
	Type int32
}

// NodeKind is the AST's tagged-union discriminant (spec.md §9: "model these
// as tagged unions... with a descriptor discriminant and per-variant fields
// accessed through exhaustive matching"). Exactly one of the pointer fields
// on a Node is non-nil for the matching Kind.
type NodeKind uint8

const (
	NodeArray NodeKind = iota
	NodeBitField
	NodeBuiltIn
	NodeData
	NodeEnum
	NodeFunction
	NodeInitializerList
	NodePointerOrReference
	NodePointerToDataMember
	NodeStructOrUnion
	NodeTypeName
	NodeForwardDeclared
)

// StorageClass is the variable/typedef storage classification carried by a
// stab's symbol descriptor or a STABS type's is_typedef flag.
type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageTypedef
	StorageExtern
	StorageStatic
	StorageAuto
	StorageRegister
)

// AccessSpecifier is a struct/union member's visibility.
type AccessSpecifier uint8

const (
	AccessPublic AccessSpecifier = iota
	AccessProtected
	AccessPrivate
)

// BuiltInClass enumerates the primitive kinds a range or built-in stab can
// classify to.
type BuiltInClass uint8

const (
	BuiltInVoid BuiltInClass = iota
	BuiltInUnsigned8
	BuiltInSigned8
	BuiltInUnqualified8
	BuiltInBool8
	BuiltInUnsigned16
	BuiltInSigned16
	BuiltInUnsigned32
	BuiltInSigned32
	BuiltInFloat32
	BuiltInUnsigned64
	BuiltInSigned64
	BuiltInFloat64
	BuiltInUnsigned128
	BuiltInSigned128
	BuiltInUnqualified128
	BuiltInFloat128
	BuiltInUnknownProbablyArray
)

// builtinClassSizes mirrors builtin_class_size; used by the size-computation
// post-pass (component I) and by bitfield underlying-size detection.
var builtinClassSizes = map[BuiltInClass]int32{
	BuiltInVoid:                 0,
	BuiltInUnsigned8:            1,
	BuiltInSigned8:              1,
	BuiltInUnqualified8:         1,
	BuiltInBool8:                1,
	BuiltInUnsigned16:           2,
	BuiltInSigned16:             2,
	BuiltInUnsigned32:           4,
	BuiltInSigned32:             4,
	BuiltInFloat32:              4,
	BuiltInUnsigned64:           8,
	BuiltInSigned64:             8,
	BuiltInFloat64:              8,
	BuiltInUnsigned128:          16,
	BuiltInSigned128:            16,
	BuiltInUnqualified128:       16,
	BuiltInFloat128:             16,
	BuiltInUnknownProbablyArray: -1,
}

func builtinClassSize(c BuiltInClass) int32 {
	if sz, ok := builtinClassSizes[c]; ok {
		return sz
	}
	return -1
}

// MemberFunctionModifier classifies a member function descriptor.
type MemberFunctionModifier uint8

const (
	ModifierNone MemberFunctionModifier = iota
	ModifierStatic
	ModifierVirtual
)

// ForwardDeclaredKind is the kind named by a cross-reference/forward
// declaration (struct, union, or enum).
type ForwardDeclaredKind uint8

const (
	ForwardDeclaredStruct ForwardDeclaredKind = iota
	ForwardDeclaredUnion
	ForwardDeclaredEnum
)

// TypeNameSource classifies why a Node is a TypeName placeholder rather than
// an inlined definition.
type TypeNameSource uint8

const (
	TypeNameReference TypeNameSource = iota
	TypeNameCrossReference
	TypeNameAnonymousReference
	TypeNameThis
	TypeNameError
)

// Node is one AST tree node. The shared attributes (spec.md §3, "Common
// attributes") live directly on Node; variant-specific data lives in exactly
// one of the pointer fields selected by Kind.
type Node struct {
	Kind NodeKind

	IsConst            bool
	IsVolatile         bool
	IsBaseClass        bool
	CannotComputeSize  bool
	IsMemberFunctionish bool
	StorageClass       StorageClass
	AccessSpecifier    AccessSpecifier

	ComputedSizeBytes int32 // -1 == not yet computed

	Name string

	StabsTypeNumber StabsTypeNumber

	RelativeOffsetBytes int32 // -1 == not applicable
	AbsoluteOffsetBytes int32
	SizeBits            int32 // -1 == unknown, as recorded in the symbol table

	Array               *ArrayNode
	BitField            *BitFieldNode
	BuiltIn             *BuiltInNode
	Data                *DataNode
	Enum                *EnumNode
	Function            *FunctionNode
	InitializerList     *InitializerListNode
	PointerOrReference  *PointerOrReferenceNode
	PointerToDataMember *PointerToDataMemberNode
	StructOrUnion       *StructOrUnionNode
	TypeName            *TypeNameNode
	ForwardDeclared     *ForwardDeclaredNode
}

// newNode builds a Node with the offsets/size defaulted the way the original
// constructors do (-1 meaning "not applicable/not yet known").
func newNode(kind NodeKind) *Node {
	return &Node{
		Kind:                kind,
		ComputedSizeBytes:   -1,
		RelativeOffsetBytes: -1,
		AbsoluteOffsetBytes: -1,
		SizeBits:            -1,
	}
}

// ArrayNode is an array type: ElementCount elements of ElementType.
type ArrayNode struct {
	ElementType  *Node
	ElementCount int32 // -1 == not yet known
}

// BitFieldNode wraps a narrower-than-its-storage field.
type BitFieldNode struct {
	BitfieldOffsetBits int32 // offset relative to the last whole byte
	UnderlyingType      *Node
}

// BuiltInNode is a primitive type.
type BuiltInNode struct {
	Class BuiltInClass
}

// DataNode renders a scalar value (global variable initializers); not part
// of the JSON output format, matching the original.
type DataNode struct {
	FieldName string
	String    string
}

// EnumNode is an enumeration's ordered (value, name) constant list.
type EnumNode struct {
	Constants []EnumConstant
}

// EnumConstant is one (value, name) pair of an EnumNode.
type EnumConstant struct {
	Value int32
	Name  string
}

// FunctionNode is a function type, with or without a known parameter list
// (STABS 'f' function types never carry one; '#'/method types do).
type FunctionNode struct {
	ReturnType       *Node // nil if unknown
	Parameters       []*Node
	HasParameters    bool
	Modifier         MemberFunctionModifier
	VTableIndex      int32 // -1 if not virtual
	IsConstructor    bool
	DefinitionHandle FunctionHandle // filled in by the member-function-linking post-pass
	HasDefinition    bool
}

// InitializerListNode renders an aggregate value; not part of the JSON
// output format, matching the original.
type InitializerListNode struct {
	Children  []*Node
	FieldName string
}

// PointerOrReferenceNode is either `T*` (IsPointer) or `T&`.
type PointerOrReferenceNode struct {
	IsPointer bool
	ValueType *Node
}

// PointerToDataMemberNode is a pointer-to-member (`T ClassType::*`).
type PointerToDataMemberNode struct {
	ClassType  *Node
	MemberType *Node
}

// BaseClass is one base-class entry of a StructOrUnionNode; base classes are
// represented as ordinary Nodes with IsBaseClass set on the shared fields, so
// this alias just documents intent at call sites.
type BaseClass = Node

// StructOrUnionNode is a struct (IsStruct) or union aggregate.
type StructOrUnionNode struct {
	IsStruct        bool
	BaseClasses     []*Node
	Fields          []*Node
	MemberFunctions []*Node // each is a NodeFunction Node carrying one overload
}

// TypeNameNode is a placeholder for a type referenced by name/number rather
// than inlined, resolved by component G.
type TypeNameNode struct {
	Source               TypeNameSource
	TypeNameString        string
	ResolvedHandle        DataTypeHandle
	IsResolved            bool
	ForwardDeclared       bool
	ForwardDeclaredKind   ForwardDeclaredKind // valid only when ForwardDeclared
	HasUnresolvedStabs    bool
	UnresolvedFileHandle  SourceFileHandle
	UnresolvedTypeNumber  StabsTypeNumber
}

// ForwardDeclaredNode is a bare forward declaration with no further
// structure. The importer itself never builds one: a cross-reference lowers
// to a TypeName with ForwardDeclared set, and the stub data types
// resolveTypeName synthesizes are struct/union or enum nodes.
type ForwardDeclaredNode struct {
	Kind ForwardDeclaredKind
}

// TraversalOrder selects pre- or post-order traversal for forEachNode.
type TraversalOrder int

const (
	PreorderTraversal TraversalOrder = iota
	PostorderTraversal
)

// ExplorationMode lets a preorder callback skip a subtree.
type ExplorationMode int

const (
	ExploreChildren ExplorationMode = iota
	DontExploreChildren
)

// forEachNode is the Go analogue of ast.h's for_each_node template: the
// traversal routine the post-passes (type-name resolution and size
// computation) are built on. compareNodes does its own recursion, and JSON
// output goes through encoding/json.
func forEachNode(node *Node, order TraversalOrder, callback func(*Node) ExplorationMode) {
	if node == nil {
		return
	}
	if order == PreorderTraversal && callback(node) == DontExploreChildren {
		return
	}
	switch node.Kind {
	case NodeArray:
		forEachNode(node.Array.ElementType, order, callback)
	case NodeBitField:
		forEachNode(node.BitField.UnderlyingType, order, callback)
	case NodeBuiltIn, NodeData, NodeEnum, NodeTypeName, NodeForwardDeclared:
		// leaves
	case NodeFunction:
		if node.Function.ReturnType != nil {
			forEachNode(node.Function.ReturnType, order, callback)
		}
		for _, p := range node.Function.Parameters {
			forEachNode(p, order, callback)
		}
	case NodeInitializerList:
		for _, c := range node.InitializerList.Children {
			forEachNode(c, order, callback)
		}
	case NodePointerOrReference:
		forEachNode(node.PointerOrReference.ValueType, order, callback)
	case NodePointerToDataMember:
		forEachNode(node.PointerToDataMember.ClassType, order, callback)
		forEachNode(node.PointerToDataMember.MemberType, order, callback)
	case NodeStructOrUnion:
		for _, c := range node.StructOrUnion.BaseClasses {
			forEachNode(c, order, callback)
		}
		for _, c := range node.StructOrUnion.Fields {
			forEachNode(c, order, callback)
		}
		for _, c := range node.StructOrUnion.MemberFunctions {
			forEachNode(c, order, callback)
		}
	}
	if order == PostorderTraversal {
		callback(node)
	}
}
