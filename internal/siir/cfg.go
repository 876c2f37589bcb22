package siir

import "github.com/nwmarino/statim/internal/target"

// CFG is the top-level control-flow graph for one translation unit. It owns
// every interned type and constant, every Global and Function (and,
// transitively, every BasicBlock, Instruction, and Local within them), and
// records the input file name and compilation Target. Deleting a CFG
// deletes everything it owns.
type CFG struct {
	File   string
	Target target.Target

	globals   map[string]*Global
	functions map[string]*Function

	// Type pool.
	ints      map[uint8]*IntegerType
	floats    map[uint8]*FloatType
	pointers  map[Type]*PointerType
	arrays    map[arrayKey]*ArrayType
	structs   map[string]*StructType
	fnTypes   []*FunctionType

	constants constantPool

	// Arenas. Instructions and basic blocks are allocated from page-based
	// pools rather than one-by-one, per the arena-plus-index guidance for
	// graph-shaped IR nodes; the intrusive prev/next/preds/succs fields
	// still provide direct traversal, so consumers never see the pool.
	instrPool pool[Instruction]
	blockPool pool[BasicBlock]
}

// NewCFG creates an empty CFG for the given input file and target.
func NewCFG(file string, tgt target.Target) *CFG {
	cfg := &CFG{
		File:      file,
		Target:    tgt,
		globals:   make(map[string]*Global),
		functions: make(map[string]*Function),
		ints:      make(map[uint8]*IntegerType),
		floats:    make(map[uint8]*FloatType),
		pointers:  make(map[Type]*PointerType),
		arrays:    make(map[arrayKey]*ArrayType),
		structs:   make(map[string]*StructType),
		constants: newConstantPool(),
		instrPool: newPool[Instruction](),
		blockPool: newPool[BasicBlock](),
	}
	one := cfg.IntType(1)
	cfg.constants.int1Zero = &ConstantInt{ValueBase: newValueBase(ValueKindConstant, one), Val: 0}
	cfg.constants.int1One = &ConstantInt{ValueBase: newValueBase(ValueKindConstant, one), Val: 1}
	return cfg
}

// --- Type pool ---

// IntType returns the interned integer type of the given width (one of 1,
// 8, 16, 32, 64).
func (cfg *CFG) IntType(width uint8) Type {
	switch width {
	case 1, 8, 16, 32, 64:
	default:
		panic("statim: invariant violated: unsupported integer width")
	}
	if t, ok := cfg.ints[width]; ok {
		return t
	}
	t := &IntegerType{Width: width}
	cfg.ints[width] = t
	return t
}

// FloatType returns the interned float type of the given width (32 or 64).
func (cfg *CFG) FloatType(width uint8) Type {
	switch width {
	case 32, 64:
	default:
		panic("statim: invariant violated: unsupported float width")
	}
	if t, ok := cfg.floats[width]; ok {
		return t
	}
	t := &FloatType{Width: width}
	cfg.floats[width] = t
	return t
}

// PointerType returns the interned pointer-to-pointee type.
func (cfg *CFG) PointerType(pointee Type) Type {
	if t, ok := cfg.pointers[pointee]; ok {
		return t
	}
	t := &PointerType{Pointee: pointee}
	cfg.pointers[pointee] = t
	return t
}

// ArrayType returns the interned array type of the given element and count.
func (cfg *CFG) ArrayType(elem Type, count uint64) Type {
	key := arrayKey{elem: elem, count: count}
	if t, ok := cfg.arrays[key]; ok {
		return t
	}
	t := &ArrayType{Element: elem, Count: count}
	cfg.arrays[key] = t
	return t
}

// StructTypeShell returns the named struct type, creating an empty
// (incomplete) forward shell if it does not yet exist. Struct types are
// identified by name; SetFields populates the shell once.
func (cfg *CFG) StructTypeShell(name string) *StructType {
	if t, ok := cfg.structs[name]; ok {
		return t
	}
	t := &StructType{Name: name}
	cfg.structs[name] = t
	return t
}

// FunctionType interns a function signature type. Unlike the other type
// kinds, function types are not deduplicated by structural equality in
// this pool (each call site that needs a distinct *FunctionType for a
// distinct signature is expected to reuse the Function.Signature that
// already carries it); FunctionType still records every minted instance so
// CFG destruction frees them together.
func (cfg *CFG) FunctionType(params []Type, ret Type) *FunctionType {
	t := &FunctionType{Params: params, Ret: ret}
	cfg.fnTypes = append(cfg.fnTypes, t)
	return t
}

// --- Globals & functions ---

// GetGlobal returns the global named name, or nil if none exists.
func (cfg *CFG) GetGlobal(name string) *Global { return cfg.globals[name] }

// AddGlobal registers a new global. Panics if name is already in use by
// another top-level value.
func (cfg *CFG) AddGlobal(name string, pointeeType Type, init Constant, linkage Linkage) *Global {
	if _, exists := cfg.globals[name]; exists {
		panic("statim: invariant violated: duplicate global name " + name)
	}
	g := &Global{
		ValueBase:   newValueBase(ValueKindGlobal, cfg.PointerType(pointeeType)),
		Name:        name,
		PointeeType: pointeeType,
		Init:        init,
		Linkage:     linkage,
	}
	cfg.globals[name] = g
	return g
}

// Globals returns every global in declaration order is not guaranteed;
// callers that need determinism should sort by Name.
func (cfg *CFG) Globals() map[string]*Global { return cfg.globals }

// GetFunction returns the function named name, or nil if none exists.
func (cfg *CFG) GetFunction(name string) *Function { return cfg.functions[name] }

// AddFunction registers and returns a new function with the given
// signature, linkage, and external-declaration flag.
func (cfg *CFG) AddFunction(name string, sig *FunctionType, linkage Linkage, external bool) *Function {
	if _, exists := cfg.functions[name]; exists {
		panic("statim: invariant violated: duplicate function name " + name)
	}
	fn := newFunction(cfg, name, sig, linkage, external)
	cfg.functions[name] = fn
	return fn
}

// Functions returns the name -> Function table.
func (cfg *CFG) Functions() map[string]*Function { return cfg.functions }

// --- Arena-backed allocation, used by Builder and Function.AppendBlock ---

func (cfg *CFG) allocInstruction() *Instruction {
	return cfg.instrPool.allocate()
}

func (cfg *CFG) allocBlock() *BasicBlock {
	return cfg.blockPool.allocate()
}
