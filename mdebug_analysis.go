// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import "strings"

// analysisState is the per-function scoping state machine (spec.md §4.F),
// grounded on mdebug_analysis.cpp's LocalSymbolTableAnalyser.
type analysisState uint8

const (
	notInFunction analysisState = iota
	inFunctionBeginning
	inFunctionEnd
)

// AnalyseSymbolTable runs component F over every (or one) file descriptor of
// a parsed .mdebug reader, populating db. fileIndex < 0 means "all files".
func AnalyseSymbolTable(db *SymbolDatabase, reader *Reader, source SymbolSourceHandle, flags ImporterFlags, fileIndex int) error {
	globals := make(map[string]Symbol)
	for _, ext := range reader.Externals {
		if ext.StorageType == StGlobal && ext.StorageClass != ScUndefined {
			globals[ext.String] = ext
		}
	}

	if fileIndex >= 0 {
		if fileIndex >= len(reader.Files) {
			return Fatalf("file index out of range")
		}
		return analyseFile(db, reader.Files[fileIndex], source, globals, flags)
	}
	for _, f := range reader.Files {
		if err := analyseFile(db, f, source, globals, flags); err != nil {
			return err
		}
	}
	return nil
}

func analyseFile(db *SymbolDatabase, file FileRecord, source SymbolSourceHandle, globals map[string]Symbol, flags ImporterFlags) error {
	sourceFileHandle := db.SourceFiles.Create(SourceFile{
		Source:                  source,
		Name:                    file.FullPath,
		TextAddress:             file.TextAddress,
		StabsTypeNumberToHandle: make(map[StabsTypeNumber]DataTypeHandle),
	})

	var toolchainInfo []string
	for _, sym := range file.Symbols {
		if sym.StorageClass == ScInfo && sym.String != "@stabs" {
			toolchainInfo = append(toolchainInfo, sym.String)
		}
	}
	db.SourceFiles.Update(sourceFileHandle, func(sf *SourceFile) {
		sf.ToolchainVersionInfo = toolchainInfo
	})

	parsed, err := parseSymbols(file.Symbols, flags.has(FlagStrictParsing))
	if err != nil {
		return err
	}

	stabsTypes := make(map[StabsTypeNumber]*StabsType)
	for _, p := range parsed {
		if p.Type == ParsedNameColonType && p.NameColonType.Type != nil {
			enumerateNumberedTypes(p.NameColonType.Type, stabsTypes)
		}
	}

	lower := &lowerState{file: sourceFileHandle, stabsTypes: stabsTypes, flags: flags}
	a := newAnalyser(db, source, sourceFileHandle, lower, flags)

	for _, p := range parsed {
		if err := a.dispatch(p, globals); err != nil {
			return err
		}
	}

	if err := a.finish(); err != nil {
		return err
	}

	return nil
}

type analyser struct {
	db       *SymbolDatabase
	source   SymbolSourceHandle
	file     SourceFileHandle
	lower    *lowerState
	flags    ImporterFlags

	state              analysisState
	functionsFirst     FunctionHandle
	functionsCount     int
	currentFunction    *FunctionHandle
	currentParameters  HandleRange[ParameterVariableHandle]
	currentLocals      HandleRange[LocalVariableHandle]
	pendingLocalsBegin []LocalVariableHandle
	pendingLocalsEnd   map[int32][]LocalVariableHandle
	nextRelativePath   string
}

func newAnalyser(db *SymbolDatabase, source SymbolSourceHandle, file SourceFileHandle, lower *lowerState, flags ImporterFlags) *analyser {
	return &analyser{
		db:               db,
		source:           source,
		file:             file,
		lower:            lower,
		flags:            flags,
		pendingLocalsEnd: make(map[int32][]LocalVariableHandle),
	}
}

func (a *analyser) dispatch(p ParsedSymbol, globals map[string]Symbol) error {
	switch p.Type {
	case ParsedNameColonType:
		return a.dispatchNameColonType(p, globals)
	case ParsedSourceFile:
		return a.sourceFile(p.Raw.String, p.Raw.Value)
	case ParsedSubSourceFile:
		return a.subSourceFile(p.Raw.String, p.Raw.Value)
	case ParsedLBrac:
		return a.lbrac(int32(p.Raw.Index), p.Raw.Value)
	case ParsedRBrac:
		return a.rbrac(int32(p.Raw.Index), p.Raw.Value)
	case ParsedFunctionEnd:
		return a.functionEnd()
	case ParsedNonStabs:
		if p.Raw.StorageClass != ScText {
			return nil
		}
		switch p.Raw.StorageType {
		case StProc:
			return a.procedure(p.Raw.String, uint32(p.Raw.Value), false)
		case StStaticProc:
			return a.procedure(p.Raw.String, uint32(p.Raw.Value), true)
		case StLabel:
			return a.label(p.Raw.String, p.Raw.Value, int32(p.Raw.Index))
		case StEnd:
			return a.textEnd(p.Raw.Value)
		}
	}
	return nil
}

func (a *analyser) dispatchNameColonType(p ParsedSymbol, globals map[string]Symbol) error {
	nct := p.NameColonType
	switch nct.Descriptor {
	case SymDescLocalFunction, SymDescGlobalFunction:
		return a.function(nct.Name, nct.Type, p.Raw.Value)

	case SymDescReferenceParameterA, SymDescRegisterParameter, SymDescValueParameter, SymDescReferenceParameterV:
		isStackVariable := nct.Descriptor == SymDescValueParameter
		isByReference := nct.Descriptor == SymDescReferenceParameterA || nct.Descriptor == SymDescReferenceParameterV
		return a.parameter(nct.Name, nct.Type, isStackVariable, p.Raw.Value, isByReference)

	case SymDescRegisterVariable, SymDescLocalVariable, SymDescStaticLocalVariable:
		var storage VariableStorage
		isStatic := false
		switch nct.Descriptor {
		case SymDescStaticLocalVariable:
			location, ok := symbolClassToGlobalVariableLocation(p.Raw.StorageClass)
			if !ok {
				return Fatalf("invalid static local variable location")
			}
			storage = VariableStorage{Kind: StorageKindGlobal, Global: &GlobalStorage{Location: location, Address: uint32(p.Raw.Value)}}
			isStatic = true
		case SymDescRegisterVariable:
			storage = VariableStorage{Kind: StorageKindRegister, Register: &RegisterStorage{DbxRegisterNumber: p.Raw.Value}}
		default:
			storage = VariableStorage{Kind: StorageKindStack, Stack: &StackStorage{StackPointerOffsetBytes: p.Raw.Value}}
		}
		return a.localVariable(nct.Name, nct.Type, storage, isStatic)

	case SymDescGlobalVariable, SymDescStaticGlobalVariable:
		var address uint32 = 0xffffffff
		location, _ := symbolClassToGlobalVariableLocation(p.Raw.StorageClass)
		if nct.Descriptor == SymDescGlobalVariable {
			if ext, ok := globals[nct.Name]; ok {
				address = uint32(ext.Value)
				location, _ = symbolClassToGlobalVariableLocation(ext.StorageClass)
			}
		} else {
			address = uint32(p.Raw.Value)
		}
		isStatic := nct.Descriptor == SymDescStaticGlobalVariable
		return a.globalVariable(nct.Name, address, nct.Type, isStatic, location)

	case SymDescTypeName, SymDescEnumStructOrTypeTag:
		return a.dataType(nct)
	}
	return nil
}

func (a *analyser) sourceFile(path string, textAddress int32) error {
	a.db.SourceFiles.Update(a.file, func(sf *SourceFile) {
		sf.RelativePath = path
		sf.TextAddress = uint32(textAddress)
	})
	if a.nextRelativePath == "" {
		a.nextRelativePath = path
	}
	return nil
}

func (a *analyser) dataType(nct StabsSymbol) error {
	node, err := stabsTypeToAST(nct.Type, a.lower, 0, 0, false, false)
	if err != nil {
		return err
	}
	if nct.Name == " " {
		node.Name = ""
	} else {
		node.Name = nct.Name
	}
	// A 't' descriptor is always a typedef occurrence, body inlined or not
	// (the common `typedef struct {...} Foo;` pattern puts the struct body
	// directly on the 't' stab).
	if nct.Descriptor == SymDescTypeName {
		node.StorageClass = StorageTypedef
	}
	node.StabsTypeNumber = nct.Type.TypeNumber

	if a.flags.has(FlagDontDeduplicateTypes) {
		h := a.db.DataTypes.Create(DataType{Source: a.source, Name: node.Name, Root: node, Generation: 1})
		a.db.SourceFiles.Update(a.file, func(sf *SourceFile) {
			sf.StabsTypeNumberToHandle[node.StabsTypeNumber] = h
		})
		return nil
	}

	_, err = createDataTypeIfUnique(a.db, node, node.Name, a.file, a.source)
	return err
}

func (a *analyser) globalVariable(name string, address uint32, typ *StabsType, isStatic bool, location GlobalStorageLocation) error {
	node, err := stabsTypeToAST(typ, a.lower, 0, 0, true, false)
	if err != nil {
		return err
	}
	if isStatic {
		node.StorageClass = StorageStatic
	}
	a.db.GlobalVariables.Create(GlobalVariable{
		Source:     a.source,
		Name:       name,
		Generation: 1,
		Type:       node,
		Address:    address,
		SourceFile: a.file,
		Storage:    VariableStorage{Kind: StorageKindGlobal, Global: &GlobalStorage{Location: location, Address: address}},
	})
	return nil
}

func (a *analyser) subSourceFile(path string, textAddress int32) error {
	if a.currentFunction != nil && a.state == inFunctionBeginning {
		a.db.Functions.Update(*a.currentFunction, func(f *Function) {
			f.SubSourceFiles = append(f.SubSourceFiles, SubSourceFileSpan{RelativePath: path, StartAddress: uint32(textAddress)})
		})
	} else {
		a.nextRelativePath = path
	}
	return nil
}

func (a *analyser) procedure(name string, address uint32, isStatic bool) error {
	if a.currentFunction == nil || a.currentFunctionName() != name {
		if err := a.createFunction(address, name); err != nil {
			return err
		}
	}
	a.db.Functions.Move(*a.currentFunction, func(f *Function) {
		f.Address = address
		if isStatic {
			f.StorageClass = StorageStatic
		}
	})
	a.pendingLocalsBegin = nil
	a.pendingLocalsEnd = make(map[int32][]LocalVariableHandle)
	return nil
}

func (a *analyser) currentFunctionName() string {
	f, _ := a.db.Functions.Get(*a.currentFunction)
	return f.Name
}

func (a *analyser) label(name string, address int32, lineNumber int32) error {
	if address != -1 && a.currentFunction != nil && strings.HasPrefix(name, "$") {
		if uint32(address) >= 256*1024*1024 {
			return Fatalf("address too big")
		}
		a.db.Functions.Update(*a.currentFunction, func(f *Function) {
			f.LineNumbers = append(f.LineNumbers, LineNumberPair{Address: uint32(address), LineNumber: lineNumber})
		})
	}
	return nil
}

func (a *analyser) textEnd(functionSize int32) error {
	if a.state == inFunctionBeginning {
		a.db.Functions.Update(*a.currentFunction, func(f *Function) {
			if f.Address != 0xffffffff {
				f.SizeBytes = uint32(functionSize)
			}
		})
		a.state = inFunctionEnd
	}
	return nil
}

func (a *analyser) function(name string, returnType *StabsType, address int32) error {
	if a.currentFunction == nil || a.currentFunctionName() != name {
		if err := a.createFunction(uint32(address), name); err != nil {
			return err
		}
	}
	node, err := stabsTypeToAST(returnType, a.lower, 0, 0, true, true)
	if err != nil {
		return err
	}
	a.db.Functions.Update(*a.currentFunction, func(f *Function) { f.Type = node })
	return nil
}

func (a *analyser) functionEnd() error {
	if a.currentFunction != nil {
		a.db.Functions.Update(*a.currentFunction, func(f *Function) {
			f.Parameters = a.currentParameters
			f.Locals = a.currentLocals
		})
	}
	a.currentFunction = nil
	a.currentParameters = HandleRange[ParameterVariableHandle]{}
	a.currentLocals = HandleRange[LocalVariableHandle]{}
	return nil
}

func (a *analyser) parameter(name string, typ *StabsType, isStackVariable bool, offsetOrRegister int32, isByReference bool) error {
	if a.currentFunction == nil {
		return Fatalf("parameter symbol before first func/proc symbol")
	}
	node, err := stabsTypeToAST(typ, a.lower, 0, 0, true, true)
	if err != nil {
		return err
	}
	var storage VariableStorage
	if isStackVariable {
		storage = VariableStorage{Kind: StorageKindStack, Stack: &StackStorage{StackPointerOffsetBytes: offsetOrRegister}}
	} else {
		storage = VariableStorage{Kind: StorageKindRegister, Register: &RegisterStorage{DbxRegisterNumber: offsetOrRegister, IsByReference: isByReference}}
	}
	h := a.db.ParameterVariables.Create(ParameterVariable{
		Source:         a.source,
		Name:           name,
		Generation:     1,
		Type:           node,
		OwningFunction: *a.currentFunction,
		Storage:        storage,
	})
	a.expandParameterRange(h)
	return nil
}

func (a *analyser) expandParameterRange(h ParameterVariableHandle) {
	if a.currentParameters.Count == 0 {
		a.currentParameters = HandleRange[ParameterVariableHandle]{First: h, Count: 1}
		return
	}
	a.currentParameters.Count = int(h-a.currentParameters.First) + 1
}

func (a *analyser) localVariable(name string, typ *StabsType, storage VariableStorage, isStatic bool) error {
	if a.currentFunction == nil {
		return nil
	}
	node, err := stabsTypeToAST(typ, a.lower, 0, 0, true, false)
	if err != nil {
		return err
	}
	if isStatic {
		node.StorageClass = StorageStatic
	}
	h := a.db.LocalVariables.Create(LocalVariable{
		Source:         a.source,
		Name:           name,
		Generation:     1,
		Type:           node,
		OwningFunction: *a.currentFunction,
		Storage:        storage,
	})
	a.pendingLocalsBegin = append(a.pendingLocalsBegin, h)
	if a.currentLocals.Count == 0 {
		a.currentLocals = HandleRange[LocalVariableHandle]{First: h, Count: 1}
	} else {
		a.currentLocals.Count = int(h-a.currentLocals.First) + 1
	}
	return nil
}

func (a *analyser) lbrac(number int32, beginOffset int32) error {
	sf, _ := a.db.SourceFiles.Get(a.file)
	for _, h := range a.pendingLocalsBegin {
		a.db.LocalVariables.Update(h, func(l *LocalVariable) {
			l.LiveRangeLow = sf.TextAddress + uint32(beginOffset)
		})
	}
	a.pendingLocalsEnd[number] = append(a.pendingLocalsEnd[number], a.pendingLocalsBegin...)
	a.pendingLocalsBegin = nil
	return nil
}

func (a *analyser) rbrac(number int32, endOffset int32) error {
	handles, ok := a.pendingLocalsEnd[number]
	if !ok {
		return Fatalf("N_RBRAC symbol without a matching N_LBRAC symbol")
	}
	sf, _ := a.db.SourceFiles.Get(a.file)
	for _, h := range handles {
		a.db.LocalVariables.Update(h, func(l *LocalVariable) {
			l.LiveRangeHigh = sf.TextAddress + uint32(endOffset)
		})
	}
	delete(a.pendingLocalsEnd, number)
	return nil
}

func (a *analyser) finish() error {
	if a.state == inFunctionBeginning {
		return Fatalf("unexpected end of symbol table")
	}
	a.db.SourceFiles.Update(a.file, func(sf *SourceFile) {
		sf.Functions = HandleRange[FunctionHandle]{First: a.functionsFirst, Count: a.functionsCount}
	})
	return nil
}

func (a *analyser) createFunction(address uint32, name string) error {
	h := a.db.Functions.Create(Function{
		Source:     a.source,
		Name:       name,
		Generation: 1,
		Address:    address,
		SourceFile: a.file,
	})
	a.currentFunction = &h
	if a.functionsCount == 0 {
		a.functionsFirst = h
		a.functionsCount = 1
	} else {
		a.functionsCount = int(h-a.functionsFirst) + 1
	}
	a.state = inFunctionBeginning

	sf, _ := a.db.SourceFiles.Get(a.file)
	if a.nextRelativePath != "" {
		a.db.Functions.Update(h, func(f *Function) {
			if f.RelativePath != sf.RelativePath {
				f.RelativePath = a.nextRelativePath
			}
		})
	}
	return nil
}

func symbolClassToGlobalVariableLocation(class SymbolStorageClass) (GlobalStorageLocation, bool) {
	switch class {
	case ScNil:
		return GlobalLocationNil, true
	case ScData:
		return GlobalLocationData, true
	case ScBss:
		return GlobalLocationBss, true
	case ScAbs:
		return GlobalLocationAbs, true
	case ScSData:
		return GlobalLocationSData, true
	case ScSBss:
		return GlobalLocationSBss, true
	case ScRData:
		return GlobalLocationRData, true
	case ScCommon:
		return GlobalLocationCommon, true
	case ScSCommon:
		return GlobalLocationSCommon, true
	default:
		return 0, false
	}
}
