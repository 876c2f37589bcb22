package siir

// Function is a named, typed top-level callable: an ordered list of
// Arguments, a named table of stack Locals, a doubly linked list of
// BasicBlocks, and the Linkage that controls whether the assembly emitter
// marks its symbol `.global`.
//
// External functions (no body) are declarations only — they exist so calls
// to library or runtime symbols type-check, and the instruction selector
// never lowers their bodies.
type Function struct {
	ValueBase

	Name      string
	Signature *FunctionType
	Linkage   Linkage
	External  bool

	Arguments []*Argument
	locals    map[string]*Local

	firstBlock, lastBlock *BasicBlock

	nextResultID uint32
	nextBlockNum int

	parent *CFG
}

func (f *Function) ReplaceAllUsesWith(other Value) {
	replaceAllUsesWith(f, &f.ValueBase, other)
}

func newFunction(cfg *CFG, name string, sig *FunctionType, linkage Linkage, external bool) *Function {
	fn := &Function{
		ValueBase: newValueBase(ValueKindFunction, cfg.PointerType(sig)),
		Name:      name,
		Signature: sig,
		Linkage:   linkage,
		External:  external,
		locals:    make(map[string]*Local),
		parent:    cfg,
	}
	for i, pt := range sig.Params {
		fn.Arguments = append(fn.Arguments, newArgument(i, pt))
	}
	return fn
}

// Front/Back return the first/last block of the function, or nil if empty.
func (f *Function) Front() *BasicBlock { return f.firstBlock }
func (f *Function) Back() *BasicBlock  { return f.lastBlock }

// Locals returns the function's name -> Local table. The returned map is
// shared, not copied; callers must not mutate it except through
// AddLocal/RemoveLocal.
func (f *Function) Locals() map[string]*Local { return f.locals }

// AddLocal allocates a new stack slot of the given type and alignment,
// registers it under name, and returns it. Its Type is a pointer to
// allocatedType.
func (f *Function) AddLocal(name string, allocatedType Type, align uint64) *Local {
	if _, exists := f.locals[name]; exists {
		panic("statim: invariant violated: duplicate local name " + name)
	}
	local := newLocal(name, allocatedType, align)
	local.ValueBase = newValueBase(ValueKindLocal, f.parent.PointerType(allocatedType))
	local.parent = f
	f.locals[name] = local
	return local
}

// RemoveLocal deletes a Local from the function's table. The SSA
// construction pass calls this once every use of a promoted local has been
// rewritten away.
func (f *Function) RemoveLocal(local *Local) {
	if local.Used() {
		panic("statim: invariant violated: removing a local that still has uses")
	}
	delete(f.locals, local.Name)
}

// AppendBlock creates and appends a new, empty basic block to the end of
// the function's block list.
func (f *Function) AppendBlock() *BasicBlock {
	blk := f.parent.allocBlock()
	*blk = BasicBlock{ValueBase: newValueBase(ValueKindBasicBlock, nil), Number: f.nextBlockNum}
	f.nextBlockNum++
	blk.parent = f

	if f.lastBlock != nil {
		f.lastBlock.next = blk
		blk.prev = f.lastBlock
	} else {
		f.firstBlock = blk
	}
	f.lastBlock = blk
	return blk
}

// nextResult mints a fresh, function-unique, monotonically increasing
// result id. 0 is never minted so it can serve as "no result" for
// effect-only instructions.
func (f *Function) nextResult() uint32 {
	f.nextResultID++
	return f.nextResultID
}
