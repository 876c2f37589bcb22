package mir

// Opcode is a target-dependent instruction opcode. mir itself assigns no
// meaning to the value; each backend (e.g. internal/backend/amd64) defines
// its own Opcode constants and converts them to/from mir.Opcode at the
// package boundary.
type Opcode uint32

// MachineInst is a single target-dependent instruction: an opcode and an
// ordered operand list, linked into its parent MachineBlock's instruction
// list.
type MachineInst struct {
	Opcode   Opcode
	operands []Operand

	parent     *MachineBlock
	prev, next *MachineInst
}

// NewMachineInst builds a detached instruction with the given opcode and
// initial operands; it is attached to a block via MachineBlock.Append or
// MachineBlock.Prepend.
func NewMachineInst(op Opcode, operands ...Operand) *MachineInst {
	return &MachineInst{Opcode: op, operands: operands}
}

func (mi *MachineInst) Parent() *MachineBlock { return mi.parent }
func (mi *MachineInst) Prev() *MachineInst    { return mi.prev }
func (mi *MachineInst) Next() *MachineInst    { return mi.next }

func (mi *MachineInst) NumOperands() int      { return len(mi.operands) }
func (mi *MachineInst) Operands() []Operand   { return mi.operands }
func (mi *MachineInst) Operand(i int) Operand { return mi.operands[i] }

func (mi *MachineInst) SetOperand(i int, o Operand) { mi.operands[i] = o }

// AddOperand appends a new operand.
func (mi *MachineInst) AddOperand(o Operand) *MachineInst {
	mi.operands = append(mi.operands, o)
	return mi
}

func (mi *MachineInst) AddReg(r Register, subreg uint16, isDef bool, opts ...func(*Operand)) *MachineInst {
	return mi.AddOperand(Reg(r, subreg, isDef, opts...))
}

func (mi *MachineInst) AddMem(base Register, disp int32) *MachineInst {
	return mi.AddOperand(Mem(base, disp))
}

func (mi *MachineInst) AddStackIndex(idx uint32) *MachineInst {
	return mi.AddOperand(StackIndex(idx))
}

func (mi *MachineInst) AddImm(v int64) *MachineInst { return mi.AddOperand(Imm(v)) }

func (mi *MachineInst) AddBlock(b *MachineBlock) *MachineInst { return mi.AddOperand(Block(b)) }

func (mi *MachineInst) AddConstantIndex(idx uint32) *MachineInst {
	return mi.AddOperand(ConstantIndex(idx))
}

func (mi *MachineInst) AddSymbol(name string) *MachineInst { return mi.AddOperand(Symbol(name)) }

// Defs calls fn for every explicit def-register operand.
func (mi *MachineInst) Defs(fn func(i int, o Operand)) {
	for i, o := range mi.operands {
		if o.IsReg() && o.IsExplicitDef() {
			fn(i, o)
		}
	}
}

// Uses calls fn for every explicit use-register operand.
func (mi *MachineInst) Uses(fn func(i int, o Operand)) {
	for i, o := range mi.operands {
		if o.IsReg() && o.IsExplicitUse() {
			fn(i, o)
		}
	}
}

// AllDefs calls fn for every def-register operand, explicit or implicit.
func (mi *MachineInst) AllDefs(fn func(i int, o Operand)) {
	for i, o := range mi.operands {
		if o.IsReg() && o.IsDef() {
			fn(i, o)
		}
	}
}

// AllUses calls fn for every use-register operand, explicit or implicit.
func (mi *MachineInst) AllUses(fn func(i int, o Operand)) {
	for i, o := range mi.operands {
		if o.IsReg() && o.IsUse() {
			fn(i, o)
		}
	}
}

// detach unlinks mi from its parent block's instruction list.
func (mi *MachineInst) detach() {
	if mi.parent == nil {
		return
	}
	blk := mi.parent
	if mi.prev != nil {
		mi.prev.next = mi.next
	} else {
		blk.first = mi.next
	}
	if mi.next != nil {
		mi.next.prev = mi.prev
	} else {
		blk.last = mi.prev
	}
	mi.prev, mi.next, mi.parent = nil, nil, nil
}
