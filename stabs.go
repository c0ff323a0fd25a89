// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

// StabsTypeDescriptor is the byte following '=' that selects a StabsType
// variant (spec.md §4.C.2).
type StabsTypeDescriptor byte

const (
	DescTypeReference     StabsTypeDescriptor = 0
	DescArray             StabsTypeDescriptor = 'a'
	DescEnum              StabsTypeDescriptor = 'e'
	DescFunction          StabsTypeDescriptor = 'f'
	DescConstQualifier    StabsTypeDescriptor = 'k'
	DescVolatileQualifier StabsTypeDescriptor = 'B'
	DescRange             StabsTypeDescriptor = 'r'
	DescStruct            StabsTypeDescriptor = 's'
	DescUnion             StabsTypeDescriptor = 'u'
	DescCrossReference    StabsTypeDescriptor = 'x'
	DescFloatingPointBuiltIn StabsTypeDescriptor = 'R'
	DescMethod            StabsTypeDescriptor = '#'
	DescReference         StabsTypeDescriptor = '&'
	DescPointer           StabsTypeDescriptor = '*'
	DescTypeAttribute     StabsTypeDescriptor = '@'
	DescBuiltIn           StabsTypeDescriptor = '-'
)

// StabsFieldVisibility is the one-character visibility code on struct/union
// fields, base classes, and member functions.
type StabsFieldVisibility byte

const (
	VisibilityNone                StabsFieldVisibility = 0
	VisibilityPrivate             StabsFieldVisibility = '0'
	VisibilityProtected           StabsFieldVisibility = '1'
	VisibilityPublic              StabsFieldVisibility = '2'
	VisibilityPublicOptimizedOut  StabsFieldVisibility = '9'
)

// StabsType is the tagged union over every STABS type variant (spec.md §3).
// Like ast.Node, shared fields live on the struct directly and
// variant-specific payloads live in exactly one of the pointer fields
// selected by Descriptor.
type StabsType struct {
	TypeNumber StabsTypeNumber
	Anonymous  bool
	HasBody    bool
	IsRoot     bool
	IsTypedef  bool
	Name       string // populated only for root types and cross-references
	Descriptor StabsTypeDescriptor

	TypeReference     *StabsTypeReference
	Array             *StabsArray
	Enum              *StabsEnum
	Function          *StabsFunction
	Qualifier         *StabsQualifier // const or volatile, selected by Descriptor
	Range             *StabsRange
	StructOrUnion     *StabsStructOrUnion
	CrossReference    *StabsCrossReference
	FloatingPointBuiltIn *StabsFloatingPointBuiltIn
	Method            *StabsMethod
	Reference         *StabsReferenceType
	Pointer           *StabsPointerType
	SizeAttribute     *StabsSizeAttribute
	PointerToMember   *StabsPointerToNonStaticDataMember
	BuiltIn           *StabsBuiltIn
}

type StabsTypeReference struct{ Type *StabsType }
type StabsArray struct {
	IndexType   *StabsType
	ElementType *StabsType
}
type StabsEnum struct{ Fields []EnumConstant }
type StabsFunction struct{ ReturnType *StabsType }
type StabsQualifier struct{ Type *StabsType }
type StabsRange struct {
	Type *StabsType
	Low  string
	High string
}
type StabsBaseClass struct {
	Visibility StabsFieldVisibility
	Offset     int32
	Type       *StabsType
}
type StabsField struct {
	Name       string
	Visibility StabsFieldVisibility
	Type       *StabsType
	IsStatic   bool
	OffsetBits int32
	SizeBits   int32
	TypeName   string // only set when IsStatic
}
type StabsMemberFunction struct {
	Type          *StabsType
	Visibility    StabsFieldVisibility
	IsConst       bool
	IsVolatile    bool
	Modifier      MemberFunctionModifier
	VTableIndex   int32
	VirtualType   *StabsType // set only when Modifier == ModifierVirtual
}
type StabsMemberFunctionSet struct {
	Name     string
	Overloads []StabsMemberFunction
}
type StabsStructOrUnion struct {
	Size            int64
	BaseClasses     []StabsBaseClass
	Fields          []StabsField
	MemberFunctions []StabsMemberFunctionSet
	FirstBaseClass  *StabsType // top-level '~%type;' suffix, struct only
}
type StabsCrossReference struct {
	Kind       ForwardDeclaredKind
	Identifier string
}
type StabsFloatingPointBuiltIn struct {
	Class BuiltInClass
	Bytes int32
}
type StabsMethod struct {
	ReturnType     *StabsType
	ClassType      *StabsType // nil for a plain function-typed method
	ParameterTypes []*StabsType
}
type StabsReferenceType struct{ ValueType *StabsType }
type StabsPointerType struct{ ValueType *StabsType }
type StabsSizeAttribute struct {
	SizeBits int64
	Type     *StabsType
}
type StabsPointerToNonStaticDataMember struct {
	ClassType  *StabsType
	MemberType *StabsType
}
type StabsBuiltIn struct{ TypeID int64 }

func newStabsType(descriptor StabsTypeDescriptor) *StabsType {
	return &StabsType{Descriptor: descriptor}
}

// parseTopLevelStabsType parses one complete top-level type body, including
// the struct first-base-class suffix and the live-range suffix (spec.md
// §4.C.4), grounded on stabs.cpp's parse_top_level_stabs_type.
func parseTopLevelStabsType(c *stabsCursor) (*StabsType, error) {
	t, err := parseStabsType(c)
	if err != nil {
		return nil, err
	}

	if t.Descriptor == DescStruct && t.StructOrUnion != nil {
		if rest := c.text[c.pos:]; len(rest) >= 2 && rest[0] == '~' && rest[1] == '%' {
			c.pos += 2
			firstBase, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			t.StructOrUnion.FirstBaseClass = firstBase
			if err := c.expectChar(';', "first base class suffix"); err != nil {
				return nil, err
			}
		}
	}

	if rest := c.text[c.pos:]; len(rest) >= 2 && rest[0] == ';' && rest[1] == 'l' {
		c.pos += 2
		if err := c.expectChar('(', "live range suffix"); err != nil {
			return nil, err
		}
		if err := c.expectChar('#', "live range suffix"); err != nil {
			return nil, err
		}
		if _, err := c.eatS32Literal(); err != nil {
			return nil, Fatalf("failed to parse live range suffix: %v", err)
		}
		if err := c.expectChar(',', "live range suffix"); err != nil {
			return nil, err
		}
		if err := c.expectChar('#', "live range suffix"); err != nil {
			return nil, err
		}
		if _, err := c.eatS32Literal(); err != nil {
			return nil, Fatalf("failed to parse live range suffix: %v", err)
		}
		if err := c.expectChar(')', "live range suffix"); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// parseStabsType parses one type number plus (optionally) its body,
// grounded on stabs.cpp's parse_stabs_type.
func parseStabsType(c *stabsCursor) (*StabsType, error) {
	var info StabsType
	b, ok := c.peek()
	if !ok {
		return nil, Fatalf("unexpected end of input")
	}

	switch {
	case b == '(':
		c.pos++
		file, err := c.eatS32Literal()
		if err != nil {
			return nil, Fatalf("cannot parse file number: %v", err)
		}
		if err := c.expectChar(',', "type number"); err != nil {
			return nil, err
		}
		num, err := c.eatS32Literal()
		if err != nil {
			return nil, Fatalf("cannot parse type number: %v", err)
		}
		if err := c.expectChar(')', "type number"); err != nil {
			return nil, err
		}
		info.TypeNumber = StabsTypeNumber{File: file, Type: num}
		if nb, ok := c.peek(); !ok || nb != '=' {
			info.HasBody = false
			return &info, nil
		}
		c.pos++
	case b >= '0' && b <= '9':
		num, err := c.eatS32Literal()
		if err != nil {
			return nil, Fatalf("cannot parse type number: %v", err)
		}
		info.TypeNumber = StabsTypeNumber{File: -1, Type: num}
		if nb, ok := c.peek(); !ok || nb != '=' {
			info.HasBody = false
			return &info, nil
		}
		c.pos++
	default:
		info.Anonymous = true
	}
	info.HasBody = true

	if c.atEnd() {
		return nil, Fatalf("unexpected end of input")
	}

	var descriptor StabsTypeDescriptor
	if nb, _ := c.peek(); (nb >= '0' && nb <= '9') || nb == '(' {
		descriptor = DescTypeReference
	} else {
		db, ok := c.eatChar()
		if !ok {
			return nil, Fatalf("cannot parse type descriptor")
		}
		descriptor = StabsTypeDescriptor(db)
	}

	out := &info
	out.Descriptor = descriptor

	switch descriptor {
	case DescTypeReference:
		inner, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		out.TypeReference = &StabsTypeReference{Type: inner}

	case DescArray:
		index, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		elem, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		out.Array = &StabsArray{IndexType: index, ElementType: elem}

	case DescEnum:
		var fields []EnumConstant
		for {
			nb, ok := c.peek()
			if !ok {
				return nil, Fatalf("unexpected end of input in enum")
			}
			if nb == ';' {
				c.pos++
				break
			}
			name := c.eatDodgyStabsIdentifier()
			if err := c.expectChar(':', "enum"); err != nil {
				return nil, err
			}
			value, err := c.eatS32Literal()
			if err != nil {
				return nil, Fatalf("cannot parse enum value: %v", err)
			}
			fields = append(fields, EnumConstant{Value: value, Name: name})
			if err := c.expectChar(',', "enum"); err != nil {
				return nil, err
			}
		}
		out.Enum = &StabsEnum{Fields: fields}

	case DescFunction:
		ret, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		out.Function = &StabsFunction{ReturnType: ret}

	case DescConstQualifier, DescVolatileQualifier:
		inner, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		out.Qualifier = &StabsQualifier{Type: inner}

	case DescRange:
		inner, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		if err := c.expectChar(';', "range type descriptor"); err != nil {
			return nil, err
		}
		low := c.eatDodgyStabsIdentifier()
		if err := c.expectChar(';', "low range value"); err != nil {
			return nil, err
		}
		high := c.eatDodgyStabsIdentifier()
		if err := c.expectChar(';', "high range value"); err != nil {
			return nil, err
		}
		out.Range = &StabsRange{Type: inner, Low: low, High: high}

	case DescStruct, DescUnion:
		size, err := c.eatS64Literal()
		if err != nil {
			return nil, Fatalf("cannot parse struct/union size: %v", err)
		}
		su := &StabsStructOrUnion{Size: size}
		if descriptor == DescStruct {
			if nb, ok := c.peek(); ok && nb == '!' {
				c.pos++
				count, err := c.eatS32Literal()
				if err != nil {
					return nil, Fatalf("cannot parse base class count: %v", err)
				}
				if err := c.expectChar(',', "base class section"); err != nil {
					return nil, err
				}
				for i := int32(0); i < count; i++ {
					c.eatChar()
					vb, ok := c.eatChar()
					if !ok {
						return nil, Fatalf("cannot parse base class visibility")
					}
					offset, err := c.eatS32Literal()
					if err != nil {
						return nil, Fatalf("cannot parse base class offset: %v", err)
					}
					if err := c.expectChar(',', "base class section"); err != nil {
						return nil, err
					}
					baseType, err := parseStabsType(c)
					if err != nil {
						return nil, err
					}
					if err := c.expectChar(';', "base class section"); err != nil {
						return nil, err
					}
					su.BaseClasses = append(su.BaseClasses, StabsBaseClass{
						Visibility: StabsFieldVisibility(vb),
						Offset:     offset,
						Type:       baseType,
					})
				}
			}
		}
		fields, err := parseFieldList(c)
		if err != nil {
			return nil, err
		}
		su.Fields = fields
		memberFuncs, err := parseMemberFunctions(c)
		if err != nil {
			return nil, err
		}
		su.MemberFunctions = memberFuncs
		out.StructOrUnion = su

	case DescCrossReference:
		kb, ok := c.eatChar()
		if !ok {
			return nil, Fatalf("cannot parse cross reference type")
		}
		var kind ForwardDeclaredKind
		switch kb {
		case 'e':
			kind = ForwardDeclaredEnum
		case 's':
			kind = ForwardDeclaredStruct
		case 'u':
			kind = ForwardDeclaredUnion
		default:
			return nil, Fatalf("invalid cross reference type %q", kb)
		}
		identifier := c.eatDodgyStabsIdentifier()
		out.Name = identifier
		if err := c.expectChar(':', "cross reference"); err != nil {
			return nil, err
		}
		out.CrossReference = &StabsCrossReference{Kind: kind, Identifier: identifier}

	case DescFloatingPointBuiltIn:
		fpclass, err := c.eatS32Literal()
		if err != nil {
			return nil, Fatalf("cannot parse floating point class: %v", err)
		}
		if err := c.expectChar(';', "floating point builtin"); err != nil {
			return nil, err
		}
		bytes, err := c.eatS32Literal()
		if err != nil {
			return nil, Fatalf("cannot parse floating point builtin: %v", err)
		}
		if err := c.expectChar(';', "floating point builtin"); err != nil {
			return nil, err
		}
		if _, err := c.eatS32Literal(); err != nil {
			return nil, Fatalf("cannot parse floating point builtin: %v", err)
		}
		if err := c.expectChar(';', "floating point builtin"); err != nil {
			return nil, err
		}
		out.FloatingPointBuiltIn = &StabsFloatingPointBuiltIn{Class: floatClassFromID(fpclass), Bytes: bytes}

	case DescMethod:
		m := &StabsMethod{}
		if nb, ok := c.peek(); ok && nb == '#' {
			c.pos++
			ret, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			m.ReturnType = ret
			if nb, ok := c.peek(); ok && nb == ';' {
				c.pos++
			}
		} else {
			classType, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			m.ClassType = classType
			if err := c.expectChar(',', "method"); err != nil {
				return nil, err
			}
			ret, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			m.ReturnType = ret
			for !c.atEnd() {
				nb, _ := c.peek()
				if nb == ';' {
					c.pos++
					break
				}
				if err := c.expectChar(',', "method"); err != nil {
					return nil, err
				}
				param, err := parseStabsType(c)
				if err != nil {
					return nil, err
				}
				m.ParameterTypes = append(m.ParameterTypes, param)
			}
		}
		out.Method = m

	case DescReference:
		inner, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		out.Reference = &StabsReferenceType{ValueType: inner}

	case DescPointer:
		inner, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		out.Pointer = &StabsPointerType{ValueType: inner}

	case DescTypeAttribute:
		if nb, ok := c.peek(); ok && ((nb >= '0' && nb <= '9') || nb == '(') {
			classType, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			if err := c.expectChar(',', "pointer to non-static data member"); err != nil {
				return nil, err
			}
			memberType, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			out.PointerToMember = &StabsPointerToNonStaticDataMember{ClassType: classType, MemberType: memberType}
		} else {
			if err := c.expectChar('s', "weird value following '@' type descriptor"); err != nil {
				return nil, err
			}
			sizeBits, err := c.eatS64Literal()
			if err != nil {
				return nil, Fatalf("cannot parse type attribute: %v", err)
			}
			if err := c.expectChar(';', "type attribute"); err != nil {
				return nil, err
			}
			inner, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			out.SizeAttribute = &StabsSizeAttribute{SizeBits: sizeBits, Type: inner}
		}

	case DescBuiltIn:
		typeID, err := c.eatS64Literal()
		if err != nil {
			return nil, Fatalf("cannot parse builtin: %v", err)
		}
		if err := c.expectChar(';', "builtin"); err != nil {
			return nil, err
		}
		out.BuiltIn = &StabsBuiltIn{TypeID: typeID}

	default:
		return nil, Fatalf("invalid type descriptor %q (%#x)", byte(descriptor), byte(descriptor))
	}

	return out, nil
}

// floatClassFromID maps the 'R' floating-point built-in's class id to our
// BuiltInClass; ids 1/2/3 are IEEE single/double/quad per the original
// toolchain's convention.
func floatClassFromID(id int32) BuiltInClass {
	switch id {
	case 1:
		return BuiltInFloat32
	case 2:
		return BuiltInFloat64
	default:
		return BuiltInFloat128
	}
}

// parseFieldList parses the struct/union member list, grounded on
// stabs.cpp's parse_field_list (spec.md §4.C.3's three field shapes).
func parseFieldList(c *stabsCursor) ([]StabsField, error) {
	var fields []StabsField
	for !c.atEnd() {
		if nb, _ := c.peek(); nb == ';' {
			c.pos++
			break
		}

		beforeField := c.pos
		var field StabsField
		field.Name = c.eatDodgyStabsIdentifier()

		if err := c.expectChar(':', "identifier"); err != nil {
			return nil, err
		}
		if nb, ok := c.peek(); ok && nb == '/' {
			c.pos++
			vb, ok := c.eatChar()
			if !ok {
				return nil, Fatalf("cannot parse field visibility")
			}
			field.Visibility = StabsFieldVisibility(vb)
			switch field.Visibility {
			case VisibilityNone, VisibilityPrivate, VisibilityProtected, VisibilityPublic, VisibilityPublicOptimizedOut:
			default:
				return nil, Fatalf("invalid field visibility")
			}
		}
		if nb, ok := c.peek(); ok && nb == ':' {
			// This wasn't a field at all — it belongs to the enclosing
			// member-function-set terminator; rewind and stop.
			c.pos = beforeField
			break
		}

		fieldType, err := parseStabsType(c)
		if err != nil {
			return nil, err
		}
		field.Type = fieldType

		switch {
		case len(field.Name) >= 1 && field.Name[0] == '$':
			if err := c.expectChar(',', "field type"); err != nil {
				return nil, err
			}
			offsetBits, err := c.eatS32Literal()
			if err != nil {
				return nil, Fatalf("cannot parse field offset: %v", err)
			}
			field.OffsetBits = offsetBits
			if err := c.expectChar(';', "field offset"); err != nil {
				return nil, err
			}
		default:
			nb, ok := c.peek()
			if !ok {
				return nil, Fatalf("expected ':' or ',' at end of input")
			}
			switch nb {
			case ':':
				c.pos++
				field.IsStatic = true
				typeName := c.eatDodgyStabsIdentifier()
				field.TypeName = typeName
				if err := c.expectChar(';', "identifier"); err != nil {
					return nil, err
				}
			case ',':
				c.pos++
				offsetBits, err := c.eatS32Literal()
				if err != nil {
					return nil, Fatalf("cannot parse field offset: %v", err)
				}
				field.OffsetBits = offsetBits
				if err := c.expectChar(',', "field offset"); err != nil {
					return nil, err
				}
				sizeBits, err := c.eatS32Literal()
				if err != nil {
					return nil, Fatalf("cannot parse field size: %v", err)
				}
				field.SizeBits = sizeBits
				if err := c.expectChar(';', "field size"); err != nil {
					return nil, err
				}
			default:
				return nil, Fatalf("expected ':' or ',', got %q", nb)
			}
		}

		fields = append(fields, field)
	}
	return fields, nil
}

// parseMemberFunctions parses the trailing "name::overload1;overload2;...;"
// sets, grounded on stabs.cpp's parse_member_functions.
func parseMemberFunctions(c *stabsCursor) ([]StabsMemberFunctionSet, error) {
	if nb, ok := c.peek(); ok && (nb == ',' || nb == ':') {
		// Belongs to an enclosing field list, not this member function list.
		return nil, nil
	}

	var sets []StabsMemberFunctionSet
	for !c.atEnd() {
		if nb, _ := c.peek(); nb == ';' {
			c.pos++
			break
		}
		var set StabsMemberFunctionSet
		set.Name = c.eatStabsIdentifier()
		if err := c.expectChar(':', "member function"); err != nil {
			return nil, err
		}
		if err := c.expectChar(':', "member function"); err != nil {
			return nil, err
		}
		for !c.atEnd() {
			if nb, _ := c.peek(); nb == ';' {
				c.pos++
				break
			}
			var fn StabsMemberFunction
			typ, err := parseStabsType(c)
			if err != nil {
				return nil, err
			}
			fn.Type = typ
			if err := c.expectChar(':', "member function"); err != nil {
				return nil, err
			}
			c.eatDodgyStabsIdentifier() // mangled name, discarded here
			if err := c.expectChar(';', "member function"); err != nil {
				return nil, err
			}
			vb, ok := c.eatChar()
			if !ok {
				return nil, Fatalf("cannot parse member function visibility")
			}
			fn.Visibility = StabsFieldVisibility(vb)
			switch fn.Visibility {
			case VisibilityPrivate, VisibilityProtected, VisibilityPublic, VisibilityPublicOptimizedOut:
			default:
				return nil, Fatalf("invalid visibility for member function")
			}
			mb, ok := c.eatChar()
			if !ok {
				return nil, Fatalf("cannot parse member function modifiers")
			}
			switch mb {
			case 'A':
				fn.IsConst, fn.IsVolatile = false, false
			case 'B':
				fn.IsConst, fn.IsVolatile = true, false
			case 'C':
				fn.IsConst, fn.IsVolatile = false, true
			case 'D':
				fn.IsConst, fn.IsVolatile = true, true
			case '?', '.':
			default:
				return nil, Fatalf("invalid member function modifiers")
			}
			flag, ok := c.eatChar()
			if !ok {
				return nil, Fatalf("cannot parse member function type")
			}
			switch flag {
			case '.':
				fn.Modifier = ModifierNone
			case '?':
				fn.Modifier = ModifierStatic
			case '*':
				vtableIndex, err := c.eatS32Literal()
				if err != nil {
					return nil, Fatalf("cannot parse vtable index: %v", err)
				}
				fn.VTableIndex = vtableIndex
				if err := c.expectChar(';', "virtual member function"); err != nil {
					return nil, err
				}
				virtualType, err := parseStabsType(c)
				if err != nil {
					return nil, err
				}
				fn.VirtualType = virtualType
				if err := c.expectChar(';', "virtual member function"); err != nil {
					return nil, err
				}
				fn.Modifier = ModifierVirtual
			default:
				return nil, Fatalf("invalid member function type")
			}
			set.Overloads = append(set.Overloads, fn)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// enumerateNumberedTypes walks a StabsType tree collecting every non-
// anonymous, body-bearing type keyed by its type number, the Go analogue of
// StabsType::enumerate_numbered_types (used to build each file's per-file
// type-number map for component F/G).
func enumerateNumberedTypes(t *StabsType, out map[StabsTypeNumber]*StabsType) {
	if t == nil {
		return
	}
	if !t.Anonymous && t.HasBody {
		out[t.TypeNumber] = t
	}
	switch {
	case t.TypeReference != nil:
		enumerateNumberedTypes(t.TypeReference.Type, out)
	case t.Array != nil:
		enumerateNumberedTypes(t.Array.IndexType, out)
		enumerateNumberedTypes(t.Array.ElementType, out)
	case t.Function != nil:
		enumerateNumberedTypes(t.Function.ReturnType, out)
	case t.Qualifier != nil:
		enumerateNumberedTypes(t.Qualifier.Type, out)
	case t.Range != nil:
		enumerateNumberedTypes(t.Range.Type, out)
	case t.StructOrUnion != nil:
		for i := range t.StructOrUnion.BaseClasses {
			enumerateNumberedTypes(t.StructOrUnion.BaseClasses[i].Type, out)
		}
		for i := range t.StructOrUnion.Fields {
			enumerateNumberedTypes(t.StructOrUnion.Fields[i].Type, out)
		}
		for i := range t.StructOrUnion.MemberFunctions {
			for j := range t.StructOrUnion.MemberFunctions[i].Overloads {
				enumerateNumberedTypes(t.StructOrUnion.MemberFunctions[i].Overloads[j].Type, out)
			}
		}
	case t.Method != nil:
		enumerateNumberedTypes(t.Method.ReturnType, out)
		enumerateNumberedTypes(t.Method.ClassType, out)
		for _, p := range t.Method.ParameterTypes {
			enumerateNumberedTypes(p, out)
		}
	case t.Reference != nil:
		enumerateNumberedTypes(t.Reference.ValueType, out)
	case t.Pointer != nil:
		enumerateNumberedTypes(t.Pointer.ValueType, out)
	case t.SizeAttribute != nil:
		enumerateNumberedTypes(t.SizeAttribute.Type, out)
	case t.PointerToMember != nil:
		enumerateNumberedTypes(t.PointerToMember.ClassType, out)
		enumerateNumberedTypes(t.PointerToMember.MemberType, out)
	}
}

func stabsFieldVisibilityToString(v StabsFieldVisibility) string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	case VisibilityPublic:
		return "public"
	case VisibilityPublicOptimizedOut:
		return "public_optimizedout"
	default:
		return "none"
	}
}
