package amd64

import (
	"github.com/nwmarino/statim/internal/diagnostics"
	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

// InstSelection lowers one siir.Function into a mir.MachineFunction,
// instruction by instruction, in the source function's block order. It
// assumes every virtual register it will ever reference has already been
// minted by a prepass (mintVRegs), so operand lowering never has to care
// whether a definition lexically precedes its use (phis and loop-carried
// values do not).
//
// Every MachineInst operand list here follows AT&T textual order: source
// operand(s) first, destination operand last. The assembly writer prints an
// instruction's operands in list order with no reordering, so this
// convention has to hold uniformly across every case below.
type InstSelection struct {
	obj    *mir.MachineObject
	cfg    *siir.CFG
	fn     *siir.Function
	mf     *mir.MachineFunction
	report *diagnostics.Reporter

	cur    *mir.MachineBlock
	curSIIR *siir.BasicBlock // the source block is.cur's tail currently belongs to
	blocks map[*siir.BasicBlock]*mir.MachineBlock
	vregs  map[uint32]mir.Register // siir Instruction.ResultID -> vreg
	args   map[int]mir.Register    // siir Argument.Index -> vreg
	locals map[*siir.Local]uint32  // local -> stack slot index

	// deferred records comparison instructions whose sole use is a
	// branch-if, so the branch-if site can fuse CMP/UCOMISS/UCOMISD
	// directly with the appropriate Jcc instead of materializing a 0/1
	// boolean the branch would immediately re-test.
	deferred map[*siir.Instruction]bool

	// phiCopies[target][pred] is the parallel-copy set that must execute at
	// the end of pred before control transfers to target, resolving every
	// phi target defines for the pred edge.
	phiCopies map[*siir.BasicBlock]map[*siir.BasicBlock][]phiCopy
}

type phiCopy struct {
	dst mir.Register
	src siir.Value
	typ siir.Type
}

// NewInstSelection prepares selection of fn into a fresh MachineFunction
// registered on obj. Diagnostics (e.g. a call exceeding the argument-count
// limit) are reported through report.
func NewInstSelection(obj *mir.MachineObject, cfg *siir.CFG, fn *siir.Function, report *diagnostics.Reporter) *InstSelection {
	mf := mir.NewMachineFunction(fn)
	obj.AddFunction(mf)
	return &InstSelection{
		obj:       obj,
		cfg:       cfg,
		fn:        fn,
		mf:        mf,
		report:    report,
		blocks:    make(map[*siir.BasicBlock]*mir.MachineBlock),
		vregs:     make(map[uint32]mir.Register),
		args:      make(map[int]mir.Register),
		locals:    make(map[*siir.Local]uint32),
		deferred:  make(map[*siir.Instruction]bool),
		phiCopies: make(map[*siir.BasicBlock]map[*siir.BasicBlock][]phiCopy),
	}
}

func classOf(ty siir.Type) mir.RegisterClass {
	if siir.IsFloat(ty) {
		return mir.FloatingPoint
	}
	return mir.GeneralPurpose
}

// widthOf returns the bit width (8/16/32/64) an instruction selecting for ty
// should operate at. A 1-bit type occupies one byte of storage, like every
// other sub-byte-free width this backend supports.
func widthOf(ty siir.Type) uint8 {
	switch t := ty.(type) {
	case *siir.IntegerType:
		if t.Width == 1 {
			return 8
		}
		return t.Width
	case *siir.PointerType:
		return 64
	case *siir.FloatType:
		return t.Width
	default:
		panic("statim: invariant violated: type has no selectable width")
	}
}

func pick4(width uint8, w8, w16, w32, w64 Opcode) Opcode {
	switch width {
	case 8:
		return w8
	case 16:
		return w16
	case 32:
		return w32
	case 64:
		return w64
	default:
		panic("statim: invariant violated: unsupported operand width")
	}
}

func movOpcodeFor(ty siir.Type) Opcode {
	if siir.IsFloat(ty) {
		if ty.(*siir.FloatType).Width == 64 {
			return MOVSD
		}
		return MOVSS
	}
	return pick4(widthOf(ty), MOV8, MOV16, MOV32, MOV64)
}

// Run lowers the whole function. External (bodyless) functions are not
// selected; the caller is expected to skip them entirely.
func (is *InstSelection) Run() *mir.MachineFunction {
	if is.fn.External {
		return is.mf
	}

	for blk := is.fn.Front(); blk != nil; blk = blk.Next() {
		is.blocks[blk] = is.mf.Append()
	}
	is.mintVRegs()
	is.markDeferredComparisons()
	is.collectPhiCopies()

	first := true
	for blk := is.fn.Front(); blk != nil; blk = blk.Next() {
		is.cur = is.blocks[blk]
		if first {
			is.emitPrologueArgs()
			first = false
		}
		is.selectBlock(blk)
	}
	return is.mf
}

// mintVRegs assigns every argument and every result-producing instruction a
// virtual register up front, so operand lowering never has to special-case
// forward references.
func (is *InstSelection) mintVRegs() {
	for _, arg := range is.fn.Arguments {
		is.args[arg.Index] = is.mf.NewVReg(classOf(arg.Type()))
	}
	for blk := is.fn.Front(); blk != nil; blk = blk.Next() {
		for inst := blk.Front(); inst != nil; inst = inst.Next() {
			if inst.Type() != nil {
				is.vregs[inst.ResultID] = is.mf.NewVReg(classOf(inst.Type()))
			}
		}
	}
}

// markDeferredComparisons finds every comparison instruction whose only use
// is as the condition of a branch-if and marks it for fusion at the branch
// site rather than materialization into a boolean result.
func (is *InstSelection) markDeferredComparisons() {
	for blk := is.fn.Front(); blk != nil; blk = blk.Next() {
		for inst := blk.Front(); inst != nil; inst = inst.Next() {
			if !inst.IsComparison() {
				continue
			}
			uses := inst.Uses()
			if len(uses) != 1 {
				continue
			}
			user, ok := uses[0].User().(*siir.Instruction)
			if ok && user.Opcode == siir.OpBranchIf && user.Operand(0) == siir.Value(inst) {
				is.deferred[inst] = true
			}
		}
	}
}

// collectPhiCopies walks every phi in the function and records, per
// predecessor edge, the copy it requires.
func (is *InstSelection) collectPhiCopies() {
	for blk := is.fn.Front(); blk != nil; blk = blk.Next() {
		for inst := blk.Front(); inst != nil; inst = inst.Next() {
			if !inst.IsPhi() {
				continue
			}
			dst := is.vregs[inst.ResultID]
			for _, u := range inst.Operands() {
				po := u.Value().(*siir.PhiOperand)
				if is.phiCopies[blk] == nil {
					is.phiCopies[blk] = make(map[*siir.BasicBlock][]phiCopy)
				}
				is.phiCopies[blk][po.Predecessor] = append(is.phiCopies[blk][po.Predecessor],
					phiCopy{dst: dst, src: po.Incoming(), typ: inst.Type()})
			}
		}
	}
}

// emit appends a new instruction to the current block.
func (is *InstSelection) emit(op Opcode, operands ...mir.Operand) *mir.MachineInst {
	inst := mir.NewMachineInst(mir.Opcode(op), operands...)
	is.cur.Append(inst)
	return inst
}

func (is *InstSelection) vreg(v siir.Value) mir.Register {
	switch val := v.(type) {
	case *siir.Instruction:
		if r, ok := is.vregs[val.ResultID]; ok {
			return r
		}
		panic("statim: invariant violated: instruction result has no vreg")
	case *siir.Argument:
		return is.args[val.Index]
	default:
		return is.materialize(v)
	}
}

// materialize loads a constant-like value into a fresh scratch vreg,
// returning the vreg holding it. Used for operands that cannot be encoded
// directly as an immediate or memory reference at their use site.
func (is *InstSelection) materialize(v siir.Value) mir.Register {
	switch c := v.(type) {
	case *siir.ConstantInt:
		dst := is.mf.NewVReg(mir.GeneralPurpose)
		is.emitLoadImm(dst, widthOf(c.Type()), c.Val)
		return dst
	case *siir.ConstantNull:
		dst := is.mf.NewVReg(mir.GeneralPurpose)
		is.emitLoadImm(dst, 64, 0)
		return dst
	case *siir.ConstantFP:
		dst := is.mf.NewVReg(mir.FloatingPoint)
		align := uint32(is.cfg.Target.AlignOf(c.Type().(target.Type)))
		idx := is.mf.Pool.GetOrCreate(c, align)
		is.emit(movOpcodeFor(c.Type()), mir.ConstantIndex(idx), mir.Reg(dst, 0, true))
		return dst
	case *siir.Global:
		dst := is.mf.NewVReg(mir.GeneralPurpose)
		is.emit(LEA, mir.Symbol(c.Name), mir.Reg(dst, 0, true))
		return dst
	case *siir.Function:
		dst := is.mf.NewVReg(mir.GeneralPurpose)
		is.emit(LEA, mir.Symbol(c.Name), mir.Reg(dst, 0, true))
		return dst
	case *siir.BlockAddress:
		dst := is.mf.NewVReg(mir.GeneralPurpose)
		is.emit(LEA, mir.Block(is.blocks[c.Block]), mir.Reg(dst, 0, true))
		return dst
	case *siir.ConstantString:
		dst := is.mf.NewVReg(mir.GeneralPurpose)
		sym := is.obj.StringSymbol(c.Bytes)
		is.emit(LEA, mir.Symbol(sym), mir.Reg(dst, 0, true))
		return dst
	default:
		panic("statim: invariant violated: value cannot be materialized")
	}
}

// emitLoadImm moves an immediate into dst at the given width, using MOVABS
// for 64-bit immediates too wide to encode as a 32-bit sign-extended
// operand, and the plain sized MOV otherwise.
func (is *InstSelection) emitLoadImm(dst mir.Register, width uint8, v int64) {
	if width == 64 && (v < -(1<<31) || v >= (1<<31)) {
		is.emit(MOVABS, mir.Imm(v), mir.Reg(dst, 0, true))
		return
	}
	is.emit(pick4(width, MOV8, MOV16, MOV32, MOV64), mir.Imm(v), mir.Reg(dst, 0, true))
}

// fitsImm32 reports whether v can be encoded as a 32-bit sign-extended
// immediate operand.
func fitsImm32(v int64) bool { return v >= -(1<<31) && v < (1<<31) }

// immOrReg lowers v to an immediate operand when it is a small integer
// constant, or otherwise to a use-register operand holding its value.
func (is *InstSelection) immOrReg(v siir.Value) mir.Operand {
	if c, ok := v.(*siir.ConstantInt); ok && fitsImm32(c.Val) {
		return mir.Imm(c.Val)
	}
	return mir.Reg(is.vreg(v), 0, false)
}

func (is *InstSelection) reg(v siir.Value) mir.Operand { return mir.Reg(is.vreg(v), 0, false) }

// ensureLocalSlot reserves (once) and returns the stack slot index backing a
// Local that survived SSA promotion, i.e. one whose address escapes a pure
// load/store pattern.
func (is *InstSelection) ensureLocalSlot(l *siir.Local) uint32 {
	if idx, ok := is.locals[l]; ok {
		return idx
	}
	size := uint32(is.cfg.Target.SizeOf(l.AllocatedType.(target.Type)))
	align := uint32(is.cfg.Target.AlignOf(l.AllocatedType.(target.Type)))
	offset := is.mf.Stack.Reserve(size, align, l)
	idx := uint32(len(is.mf.Stack.Entries) - 1)
	_ = offset
	is.locals[l] = idx
	return idx
}

// addressOperand resolves a pointer-typed SIIR value to the memory operand
// that addresses it.
func (is *InstSelection) addressOperand(ptr siir.Value) mir.Operand {
	if l, ok := ptr.(*siir.Local); ok {
		return mir.StackIndex(is.ensureLocalSlot(l))
	}
	return mir.Mem(is.vreg(ptr), 0)
}

func (is *InstSelection) selectBlock(blk *siir.BasicBlock) {
	is.curSIIR = blk
	for inst := blk.Front(); inst != nil; inst = inst.Next() {
		if inst.IsPhi() || is.deferred[inst] {
			continue
		}
		is.selectInst(inst)
	}
}

// emitPrologueArgs copies SystemV argument registers into the vregs minted
// for is.fn's arguments, reading any overflow (past the six GP / eight XMM
// argument registers) from the caller's pushed stack slots at 16(%rbp) and
// up, in declaration order.
func (is *InstSelection) emitPrologueArgs() {
	gpIdx, fpIdx, stackIdx := 0, 0, 0
	for _, arg := range is.fn.Arguments {
		dst := is.args[arg.Index]
		ty := arg.Type()
		if siir.IsFloat(ty) {
			if fpIdx < len(FloatArgumentRegisters) {
				is.emit(movOpcodeFor(ty), mir.Reg(AsMachineReg(FloatArgumentRegisters[fpIdx]), 0, false), mir.Reg(dst, 0, true))
				fpIdx++
				continue
			}
		} else {
			if gpIdx < len(ArgumentRegisters) {
				is.emit(movOpcodeFor(ty), mir.Reg(AsMachineReg(ArgumentRegisters[gpIdx]), 0, false), mir.Reg(dst, 0, true))
				gpIdx++
				continue
			}
		}
		disp := int32(16 + stackIdx*8)
		is.emit(movOpcodeFor(ty), mir.Mem(AsMachineReg(RBP), disp), mir.Reg(dst, 0, true))
		stackIdx++
	}
}

// emitPhiEdgeCopies sequences and emits, into the current (predecessor)
// block, the copies every successor's phis need for this edge.
func (is *InstSelection) emitPhiEdgeCopies(pred, succ *siir.BasicBlock) {
	copies := is.phiCopies[succ][pred]
	if len(copies) == 0 {
		return
	}

	type regCopy struct {
		dst, src mir.Register
		typ      siir.Type
	}
	var regCopies []regCopy
	var otherCopies []phiCopy
	for _, c := range copies {
		switch src := c.src.(type) {
		case *siir.Instruction:
			regCopies = append(regCopies, regCopy{dst: c.dst, src: is.vregs[src.ResultID], typ: c.typ})
		case *siir.Argument:
			regCopies = append(regCopies, regCopy{dst: c.dst, src: is.args[src.Index], typ: c.typ})
		default:
			otherCopies = append(otherCopies, c)
		}
	}

	pending := regCopies
	for len(pending) > 0 {
		progressed := false
		for i, c := range pending {
			stillNeeded := false
			for j, other := range pending {
				if j != i && other.src == c.dst {
					stillNeeded = true
					break
				}
			}
			if !stillNeeded {
				if c.dst != c.src {
					is.emit(movOpcodeFor(c.typ), mir.Reg(c.src, 0, false), mir.Reg(c.dst, 0, true))
				}
				pending = append(pending[:i:i], pending[i+1:]...)
				progressed = true
				break
			}
		}
		if !progressed {
			c := pending[0]
			scratch := ScratchGP
			if c.typ != nil && siir.IsFloat(c.typ) {
				scratch = ScratchFP
			}
			scratchReg := AsMachineReg(scratch)
			is.emit(movOpcodeFor(c.typ), mir.Reg(c.dst, 0, false), mir.Reg(scratchReg, 0, true))
			for i := range pending {
				if pending[i].src == c.dst {
					pending[i].src = scratchReg
				}
			}
		}
	}

	for _, c := range otherCopies {
		src := is.vreg(c.src)
		is.emit(movOpcodeFor(c.typ), mir.Reg(src, 0, false), mir.Reg(c.dst, 0, true))
	}
}
