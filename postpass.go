// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "strings"

// RunPostPasses runs every whole-database analysis pass that must see all
// of a symbol source's types before it can do useful work (component I):
// marking single-translation-unit types, resolving TypeName placeholders to
// concrete DataTypeHandles, computing AST node sizes, and linking member
// function declarations to their out-of-line definitions. Grounded on
// mdebug_importer.cpp's import_files tail end.
func RunPostPasses(db *SymbolDatabase, source SymbolSourceHandle, flags ImporterFlags) error {
	markSingleTranslationUnitTypes(db, source)

	if err := resolveTypeNames(db, source, flags); err != nil {
		return err
	}

	forEachSymbolType(db, source, func(n *Node) {
		computeSizeBytes(n, db)
	})

	linkMemberFunctionDefinitions(db)

	return nil
}

// forEachSymbolType visits the root AST node of every symbol belonging to
// source (function/global/local/parameter/data-type), mirroring the
// original's database.for_each_symbol sweep.
func forEachSymbolType(db *SymbolDatabase, source SymbolSourceHandle, visit func(*Node)) {
	for _, dt := range db.DataTypes.All() {
		if dt.Source == source && dt.Root != nil {
			visit(dt.Root)
		}
	}
	for _, fn := range db.Functions.All() {
		if fn.Source == source && fn.Type != nil {
			visit(fn.Type)
		}
	}
	for _, gv := range db.GlobalVariables.All() {
		if gv.Source == source && gv.Type != nil {
			visit(gv.Type)
		}
	}
	for _, lv := range db.LocalVariables.All() {
		if lv.Source == source && lv.Type != nil {
			visit(lv.Type)
		}
	}
	for _, pv := range db.ParameterVariables.All() {
		if pv.Source == source && pv.Type != nil {
			visit(pv.Type)
		}
	}
}

// markSingleTranslationUnitTypes flags every data type belonging to source
// that was only ever defined in one translation unit, letting downstream
// consumers treat it as unambiguously owned rather than merged across
// files (mdebug_importer.cpp's only_defined_in_single_translation_unit loop).
func markSingleTranslationUnitTypes(db *SymbolDatabase, source SymbolSourceHandle) {
	for _, dt := range db.DataTypes.All() {
		if dt.Source == source && len(dt.FilesDefinedIn) == 1 {
			db.DataTypes.Update(dt.Handle, func(d *DataType) { d.OnlyDefinedInSingleTranslationUnit = true })
		}
	}
}

// resolveTypeNames walks every AST belonging to source and resolves each
// TypeName placeholder to a concrete DataTypeHandle, synthesizing a
// forward-declared stub data type when nothing else in this symbol source
// defines the type (mdebug_importer.cpp's resolve_type_names /
// resolve_type_name).
func resolveTypeNames(db *SymbolDatabase, source SymbolSourceHandle, flags ImporterFlags) error {
	var firstErr error
	forEachSymbolType(db, source, func(root *Node) {
		forEachNode(root, PreorderTraversal, func(n *Node) ExplorationMode {
			if n.Kind == NodeTypeName {
				if err := resolveTypeName(n.TypeName, db, source); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return ExploreChildren
		})
	})
	return firstErr
}

func resolveTypeName(tn *TypeNameNode, db *SymbolDatabase, source SymbolSourceHandle) error {
	if !tn.HasUnresolvedStabs && !tn.ForwardDeclared {
		return nil
	}

	// Lookup the type by its STABS type number, which finds the right type
	// even when multiple types share the same name.
	if tn.HasUnresolvedStabs {
		sourceFile, ok := db.SourceFiles.Get(tn.UnresolvedFileHandle)
		if ok {
			if handle, ok := sourceFile.StabsTypeNumberToHandle[tn.UnresolvedTypeNumber]; ok {
				tn.ResolvedHandle = handle
				tn.IsResolved = true
				tn.ForwardDeclared = false
				tn.HasUnresolvedStabs = false
				return nil
			}
		}
	}

	// Fall back to a name lookup restricted to this symbol source. This is
	// how a forward declaration finds a type that is in fact defined
	// somewhere else in the same symbol table.
	if tn.TypeNameString != "" {
		for _, handle := range db.DataTypes.HandlesFromName(tn.TypeNameString) {
			dt, ok := db.DataTypes.Get(handle)
			if ok && dt.Source == source {
				tn.ResolvedHandle = handle
				tn.IsResolved = true
				tn.ForwardDeclared = true
				tn.HasUnresolvedStabs = false
				return nil
			}
		}
	}

	// This usually means the type name came from an automatically
	// generated member function's `this` parameter trying to reference its
	// own enclosing struct; synthesizing a forward declaration here would
	// be wrong.
	if tn.Source == TypeNameThis {
		return nil
	}

	if !tn.ForwardDeclared {
		return nil
	}

	var stub *Node
	switch tn.ForwardDeclaredKind {
	case ForwardDeclaredStruct:
		stub = newNode(NodeStructOrUnion)
		stub.StructOrUnion = &StructOrUnionNode{IsStruct: true}
	case ForwardDeclaredUnion:
		stub = newNode(NodeStructOrUnion)
		stub.StructOrUnion = &StructOrUnionNode{IsStruct: false}
	case ForwardDeclaredEnum:
		stub = newNode(NodeEnum)
		stub.Enum = &EnumNode{}
	default:
		return nil
	}
	stub.Name = tn.TypeNameString

	handle := db.DataTypes.Create(DataType{
		Source:                         source,
		Name:                           tn.TypeNameString,
		Root:                           stub,
		NotDefinedInAnyTranslationUnit: true,
	})
	tn.ResolvedHandle = handle
	tn.IsResolved = true
	tn.ForwardDeclared = true
	tn.HasUnresolvedStabs = false
	return nil
}

// computeSizeBytes fills in node.ComputedSizeBytes post-order, the Go
// analogue of mdebug_importer.cpp's compute_size_bytes: structs/unions take
// their already-parsed bit size, arrays multiply element size by count,
// pointers/references are always 4 bytes (32-bit MIPS), and a TypeName node
// recurses into its resolved target, lazily computing that target's size
// the first time it's needed and memoizing the result via
// ComputedSizeBytes/CannotComputeSize so a type referenced from many places
// is only ever sized once and a cyclic reference can't recurse forever.
func computeSizeBytes(node *Node, db *SymbolDatabase) {
	forEachNode(node, PostorderTraversal, func(n *Node) ExplorationMode {
		if n.ComputedSizeBytes > -1 || n.CannotComputeSize {
			return ExploreChildren
		}
		n.CannotComputeSize = true

		switch n.Kind {
		case NodeArray:
			if n.Array.ElementType.ComputedSizeBytes > -1 {
				n.ComputedSizeBytes = n.Array.ElementType.ComputedSizeBytes * n.Array.ElementCount
			}
		case NodeBitField:
			// A bitfield's own size isn't meaningful; only its underlying
			// storage type's size is.
		case NodeBuiltIn:
			n.ComputedSizeBytes = builtinClassSize(n.BuiltIn.Class)
		case NodeFunction:
			// Functions aren't sized.
		case NodeEnum:
			n.ComputedSizeBytes = 4
		case NodeStructOrUnion:
			n.ComputedSizeBytes = n.SizeBits / 8
		case NodePointerOrReference:
			n.ComputedSizeBytes = 4
		case NodePointerToDataMember:
			// Not sized.
		case NodeTypeName:
			tn := n.TypeName
			if !tn.IsResolved {
				break
			}
			resolved, ok := db.DataTypes.Get(tn.ResolvedHandle)
			if !ok || resolved.Root == nil {
				break
			}
			if resolved.Root.ComputedSizeBytes < 0 && !resolved.Root.CannotComputeSize {
				computeSizeBytes(resolved.Root, db)
			}
			n.ComputedSizeBytes = resolved.Root.ComputedSizeBytes
		}

		if n.ComputedSizeBytes > -1 {
			n.CannotComputeSize = false
		}
		return ExploreChildren
	})
}

// linkMemberFunctionDefinitions matches every out-of-line function
// definition against the member function declaration it implements, by
// splitting the function's demangled name on its last "::" separator and
// looking for a struct/union of the resulting type name with a matching
// member function declaration. This is a fresh implementation: the
// original's equivalent pass existed only as disabled, commented-out code,
// but linking definitions to declarations is needed for callers to answer
// "where is this member function defined".
func linkMemberFunctionDefinitions(db *SymbolDatabase) {
	for _, fn := range db.Functions.All() {
		typeName, functionName, ok := splitQualifiedName(fn.Name)
		if !ok {
			continue
		}
		// Try the type name as written first, then with its template
		// arguments stripped.
		typeNames := []string{fn.Name[:strings.LastIndex(fn.Name, "::")]}
		if typeNames[0] != typeName {
			typeNames = append(typeNames, typeName)
		}
		for _, candidate := range typeNames {
			for _, handle := range db.DataTypes.HandlesFromName(candidate) {
				dt, ok := db.DataTypes.Get(handle)
				if !ok || dt.Root == nil || dt.Root.Kind != NodeStructOrUnion {
					continue
				}
				for _, decl := range dt.Root.StructOrUnion.MemberFunctions {
					if decl.Name != functionName || decl.Kind != NodeFunction {
						continue
					}
					decl.Function.DefinitionHandle = fn.Handle
					decl.Function.HasDefinition = true
					db.Functions.Update(fn.Handle, func(f *Function) { f.IsMemberFunctionish = true })
				}
			}
		}
	}
}

// splitQualifiedName splits "Type::member" into ("Type", "member") at the
// last "::". The returned type name has any template argument list stripped
// (it is truncated at the first "<", so "Type<T>::member" yields "Type");
// linkMemberFunctionDefinitions uses it as the fallback after the type name
// as written.
func splitQualifiedName(name string) (typeName, functionName string, ok bool) {
	sep := strings.LastIndex(name, "::")
	if sep <= 0 {
		return "", "", false
	}
	functionName = name[sep+2:]
	typeName = name[:sep]
	if angle := strings.IndexByte(typeName, '<'); angle >= 0 {
		typeName = typeName[:angle]
	}
	return typeName, functionName, true
}
