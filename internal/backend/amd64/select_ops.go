package amd64

import (
	"fmt"
	"math"

	"github.com/nwmarino/statim/internal/diagnostics"
	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

// selectInst lowers a single non-phi, non-deferred-comparison instruction
// into the current block.
func (is *InstSelection) selectInst(inst *siir.Instruction) {
	switch inst.Opcode {
	case siir.OpNop:
	case siir.OpLoad:
		is.selectLoad(inst)
	case siir.OpStore:
		is.selectStore(inst)
	case siir.OpAccessPtr:
		is.selectAccessPtr(inst)
	case siir.OpConstant, siir.OpString:
		is.selectConstantLike(inst)
	case siir.OpIAdd:
		is.selectBinary(inst, ADD8, ADD16, ADD32, ADD64)
	case siir.OpISub:
		is.selectBinary(inst, SUB8, SUB16, SUB32, SUB64)
	case siir.OpSMul, siir.OpUMul:
		is.selectMul(inst)
	case siir.OpSDiv:
		is.selectDivRem(inst, true, false)
	case siir.OpUDiv:
		is.selectDivRem(inst, false, false)
	case siir.OpSRem:
		is.selectDivRem(inst, true, true)
	case siir.OpURem:
		is.selectDivRem(inst, false, true)
	case siir.OpFAdd:
		is.selectFloatBinary(inst, ADDSS, ADDSD)
	case siir.OpFSub:
		is.selectFloatBinary(inst, SUBSS, SUBSD)
	case siir.OpFMul:
		is.selectFloatBinary(inst, MULSS, MULSD)
	case siir.OpFDiv:
		is.selectFloatBinary(inst, DIVSS, DIVSD)
	case siir.OpFRem:
		is.selectFRem(inst)
	case siir.OpINeg:
		is.selectINeg(inst)
	case siir.OpFNeg:
		is.selectFNeg(inst)
	case siir.OpAnd:
		is.selectBinary(inst, AND8, AND16, AND32, AND64)
	case siir.OpOr:
		is.selectBinary(inst, OR8, OR16, OR32, OR64)
	case siir.OpXor:
		is.selectBinary(inst, XOR8, XOR16, XOR32, XOR64)
	case siir.OpShl:
		is.selectShift(inst, SHL8, SHL16, SHL32, SHL64)
	case siir.OpShr:
		is.selectShift(inst, SHR8, SHR16, SHR32, SHR64)
	case siir.OpSar:
		is.selectShift(inst, SAR8, SAR16, SAR32, SAR64)
	case siir.OpNot:
		is.selectNot(inst)
	case siir.OpSExt:
		is.selectSExt(inst)
	case siir.OpZExt:
		is.selectZExt(inst)
	case siir.OpITrunc:
		is.selectITrunc(inst)
	case siir.OpFExt:
		is.emit(CVTSS2SD, is.reg(inst.Operand(0)), mir.Reg(is.vreg(inst), 0, true))
	case siir.OpFTrunc:
		is.emit(CVTSD2SS, is.reg(inst.Operand(0)), mir.Reg(is.vreg(inst), 0, true))
	case siir.OpSI2FP:
		is.selectSI2FP(inst)
	case siir.OpUI2FP:
		is.selectUI2FP(inst)
	case siir.OpFP2SI:
		is.selectFP2SI(inst)
	case siir.OpFP2UI:
		is.selectFP2UI(inst)
	case siir.OpP2I, siir.OpI2P:
		is.selectBitcastGP(inst)
	case siir.OpReinterpret:
		is.selectReinterpret(inst)
	case siir.OpSelect:
		is.selectSelect(inst)
	case siir.OpCall:
		is.selectCall(inst)
	case siir.OpJump:
		is.selectJump(inst)
	case siir.OpBranchIf:
		is.selectBranchIf(inst)
	case siir.OpReturn:
		is.selectReturn(inst)
	case siir.OpAbort:
		is.emit(CALL, mir.Symbol("statim_abort"))
		is.emit(UD2)
	case siir.OpUnreachable:
		is.emit(UD2)
	default:
		if inst.IsComparison() {
			is.selectComparison(inst)
			return
		}
		panic("statim: invariant violated: unselected opcode " + inst.Opcode.String())
	}
}

func (is *InstSelection) selectLoad(inst *siir.Instruction) {
	dst := is.vreg(inst)
	addr := is.addressOperand(inst.Operand(0))
	is.emit(movOpcodeFor(inst.Type()), addr, mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectStore(inst *siir.Instruction) {
	val := inst.Operand(0)
	addr := is.addressOperand(inst.Operand(1))
	var src mir.Operand
	if siir.IsFloat(val.Type()) {
		src = is.reg(val)
	} else {
		src = is.immOrReg(val)
	}
	is.emit(movOpcodeFor(val.Type()), src, addr)
}

// addressRegister returns a GP register holding the runtime address of v,
// materializing a fresh LEA-from-stack for a Local rather than reusing
// addressOperand's direct StackIndex (access-ptr needs a real address to add
// a field/element displacement to).
func (is *InstSelection) addressRegister(v siir.Value) mir.Register {
	if l, ok := v.(*siir.Local); ok {
		r := is.mf.NewVReg(mir.GeneralPurpose)
		is.emit(LEA, mir.StackIndex(is.ensureLocalSlot(l)), mir.Reg(r, 0, true))
		return r
	}
	return is.vreg(v)
}

func (is *InstSelection) selectAccessPtr(inst *siir.Instruction) {
	base := inst.Operand(0)
	idx := inst.Operand(1).(*siir.ConstantInt)
	aggTy := base.Type().(*siir.PointerType).Pointee

	var offset uint64
	switch t := aggTy.(type) {
	case *siir.StructType:
		offset = is.cfg.Target.FieldOffset(aggTy.(target.Type), int(idx.Val))
	case *siir.ArrayType:
		offset = uint64(idx.Val) * is.cfg.Target.SizeOf(t.Element.(target.Type))
	default:
		panic("statim: invariant violated: access-ptr base is not an aggregate pointer")
	}

	dst := is.vreg(inst)
	baseReg := is.addressRegister(base)
	is.emit(LEA, mir.Mem(baseReg, int32(offset)), mir.Reg(dst, 0, true))
}

// selectConstantLike lowers a BuildConstant/OpString wrapper instruction: its
// sole operand has already been materialized into a register (possibly the
// same vreg minted for the instruction's own result), so this is a copy only
// when the two differ.
func (is *InstSelection) selectConstantLike(inst *siir.Instruction) {
	src := is.vreg(inst.Operand(0))
	dst := is.vreg(inst)
	if src == dst {
		return
	}
	is.emit(movOpcodeFor(inst.Type()), mir.Reg(src, 0, false), mir.Reg(dst, 0, true))
}

// selectBinary lowers a two-address integer op: dst := lhs; dst op= rhs.
func (is *InstSelection) selectBinary(inst *siir.Instruction, op8, op16, op32, op64 Opcode) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
	is.emit(pick4(widthOf(ty), op8, op16, op32, op64), is.immOrReg(inst.Operand(1)), mir.Reg(dst, 0, true))
}

// selectMul lowers both smul and umul via the two-operand IMUL form: the low
// bits of a truncating multiply are identical regardless of signedness.
func (is *InstSelection) selectMul(inst *siir.Instruction) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
	is.emit(pick4(widthOf(ty), IMUL8, IMUL16, IMUL32, IMUL64), is.immOrReg(inst.Operand(1)), mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectFloatBinary(inst *siir.Instruction, opSS, opSD Opcode) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
	op := opSS
	if ty.(*siir.FloatType).Width == 64 {
		op = opSD
	}
	is.emit(op, is.reg(inst.Operand(1)), mir.Reg(dst, 0, true))
}

// selectFRem has no SSE remainder instruction to lower to; it calls the libm
// fmod/fmodf entry point, the same path a C compiler targeting this ABI
// takes for a floating-point remainder.
func (is *InstSelection) selectFRem(inst *siir.Instruction) {
	ty := inst.Type()
	sym := "fmodf"
	if ty.(*siir.FloatType).Width == 64 {
		sym = "fmod"
	}
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(AsMachineReg(XMM0), 0, true))
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(1)), mir.Reg(AsMachineReg(XMM1), 0, true))
	is.emit(CALL, mir.Symbol(sym))
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), mir.Reg(AsMachineReg(XMM0), 0, false), mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectINeg(inst *siir.Instruction) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
	is.emit(pick4(widthOf(ty), NEG8, NEG16, NEG32, NEG64), mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectNot(inst *siir.Instruction) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
	is.emit(pick4(widthOf(ty), NOT8, NOT16, NOT32, NOT64), mir.Reg(dst, 0, true))
}

// selectFNeg flips the sign bit by XORing with a pool constant holding only
// that bit set (the bit pattern of -0.0), rather than a subtraction, since
// SSE has no dedicated negate.
func (is *InstSelection) selectFNeg(inst *siir.Instruction) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))

	mask := is.cfg.ConstFP(ty, math.Copysign(0, -1))
	align := uint32(is.cfg.Target.AlignOf(ty.(target.Type)))
	idx := is.mf.Pool.GetOrCreate(mask, align)
	op := XORPS
	if ty.(*siir.FloatType).Width == 64 {
		op = XORPD
	}
	is.emit(op, mir.ConstantIndex(idx), mir.Reg(dst, 0, true))
}

func sextOpcode(from, to uint8) Opcode {
	switch {
	case from == 8 && to == 32:
		return MOVSX8to32
	case from == 8 && to == 64:
		return MOVSX8to64
	case from == 16 && to == 32:
		return MOVSX16to32
	case from == 16 && to == 64:
		return MOVSX16to64
	case from == 32 && to == 64:
		return MOVSX32to64
	default:
		panic("statim: invariant violated: unsupported sign-extension widths")
	}
}

func zextOpcode(from, to uint8) Opcode {
	switch {
	case from == 8 && to == 32:
		return MOVZX8to32
	case from == 8 && to == 64:
		return MOVZX8to64
	case from == 16 && to == 32:
		return MOVZX16to32
	case from == 16 && to == 64:
		return MOVZX16to64
	default:
		panic("statim: invariant violated: unsupported zero-extension widths")
	}
}

func (is *InstSelection) selectSExt(inst *siir.Instruction) {
	fw := widthOf(inst.Operand(0).Type())
	tw := widthOf(inst.Type())
	dst := is.vreg(inst)
	is.emit(sextOpcode(fw, tw), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectZExt(inst *siir.Instruction) {
	fw := widthOf(inst.Operand(0).Type())
	tw := widthOf(inst.Type())
	dst := is.vreg(inst)
	if fw == 32 && tw == 64 {
		// A 32-bit MOV already zeroes the upper half of its 64-bit register.
		is.emit(MOV32, is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
		return
	}
	is.emit(zextOpcode(fw, tw), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectITrunc(inst *siir.Instruction) {
	tw := widthOf(inst.Type())
	dst := is.vreg(inst)
	is.emit(pick4(tw, MOV8, MOV16, MOV32, MOV64), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
}

// widen sign- or zero-extends v from its declared width up to to, minting a
// fresh vreg (a no-op returning the original vreg when the widths already
// match).
func (is *InstSelection) widen(v siir.Value, from, to uint8, signed bool) mir.Register {
	r := is.vreg(v)
	if from == to {
		return r
	}
	dst := is.mf.NewVReg(mir.GeneralPurpose)
	if from == 32 && to == 64 && !signed {
		is.emit(MOV32, mir.Reg(r, 0, false), mir.Reg(dst, 0, true))
		return dst
	}
	op := zextOpcode(from, to)
	if signed {
		op = sextOpcode(from, to)
	}
	is.emit(op, mir.Reg(r, 0, false), mir.Reg(dst, 0, true))
	return dst
}

func (is *InstSelection) selectSI2FP(inst *siir.Instruction) {
	val := inst.Operand(0)
	intW := widthOf(val.Type())
	floatTy := inst.Type().(*siir.FloatType)

	srcReg := is.vreg(val)
	if intW < 32 {
		srcReg = is.widen(val, intW, 32, true)
		intW = 32
	}

	op := CVTSI2SS32
	switch {
	case floatTy.Width == 64 && intW == 64:
		op = CVTSI2SD64
	case floatTy.Width == 64:
		op = CVTSI2SD32
	case intW == 64:
		op = CVTSI2SS64
	}
	dst := is.vreg(inst)
	is.emit(op, mir.Reg(srcReg, 0, false), mir.Reg(dst, 0, true))
}

// selectUI2FP widens to 64 bits (zero-extending) so the value is always a
// non-negative signed 64-bit integer, then uses the signed conversion path.
// A genuinely unsigned 64-bit operand whose top bit is set is out of scope:
// that needs the multi-instruction correction sequence this backend does
// not emit.
func (is *InstSelection) selectUI2FP(inst *siir.Instruction) {
	val := inst.Operand(0)
	intW := widthOf(val.Type())
	floatTy := inst.Type().(*siir.FloatType)

	widened := is.widen(val, intW, 64, false)

	op := CVTSI2SS64
	if floatTy.Width == 64 {
		op = CVTSI2SD64
	}
	dst := is.vreg(inst)
	is.emit(op, mir.Reg(widened, 0, false), mir.Reg(dst, 0, true))
}

func (is *InstSelection) selectFP2SI(inst *siir.Instruction) {
	floatTy := inst.Operand(0).Type().(*siir.FloatType)
	intW := widthOf(inst.Type())

	op := CVTTSS2SI32
	switch {
	case floatTy.Width == 64 && intW == 64:
		op = CVTTSD2SI64
	case floatTy.Width == 64:
		op = CVTTSD2SI32
	case intW == 64:
		op = CVTTSS2SI64
	}

	tmp := is.mf.NewVReg(mir.GeneralPurpose)
	is.emit(op, is.reg(inst.Operand(0)), mir.Reg(tmp, 0, true))
	dst := is.vreg(inst)
	is.emit(pick4(intW, MOV8, MOV16, MOV32, MOV64), mir.Reg(tmp, 0, false), mir.Reg(dst, 0, true))
}

// selectFP2UI converts via the 64-bit signed path and truncates, the same
// simplification as selectUI2FP's inverse: exact for magnitudes that fit a
// signed 64-bit integer, which covers every practical use of this opcode.
func (is *InstSelection) selectFP2UI(inst *siir.Instruction) {
	floatTy := inst.Operand(0).Type().(*siir.FloatType)
	intW := widthOf(inst.Type())

	op := CVTTSS2SI64
	if floatTy.Width == 64 {
		op = CVTTSD2SI64
	}
	tmp := is.mf.NewVReg(mir.GeneralPurpose)
	is.emit(op, is.reg(inst.Operand(0)), mir.Reg(tmp, 0, true))
	dst := is.vreg(inst)
	is.emit(pick4(intW, MOV8, MOV16, MOV32, MOV64), mir.Reg(tmp, 0, false), mir.Reg(dst, 0, true))
}

// selectBitcastGP lowers p2i/i2p: both sides are general-purpose registers
// and a pointer is always 64 bits, so this is a width-matching copy.
func (is *InstSelection) selectBitcastGP(inst *siir.Instruction) {
	width := widthOf(inst.Type())
	dst := is.vreg(inst)
	is.emit(pick4(width, MOV8, MOV16, MOV32, MOV64), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))
}

// selectReinterpret lowers a same-size bit reinterpretation. Int<->int and
// pointer<->pointer stay on the GP side as a plain copy; crossing the
// GP/XMM boundary goes through MOVD/MOVQ.
func (is *InstSelection) selectReinterpret(inst *siir.Instruction) {
	from := inst.Operand(0).Type()
	to := inst.Type()
	dst := is.vreg(inst)
	srcReg := is.vreg(inst.Operand(0))

	fromFloat := siir.IsFloat(from)
	toFloat := siir.IsFloat(to)
	switch {
	case fromFloat == toFloat:
		is.emit(movOpcodeFor(to), mir.Reg(srcReg, 0, false), mir.Reg(dst, 0, true))
	case toFloat:
		op := MOVD32
		if widthOf(to) == 64 {
			op = MOVQ64
		}
		is.emit(op, mir.Reg(srcReg, 0, false), mir.Reg(dst, 0, true))
	default:
		op := MOVD32
		if widthOf(from) == 64 {
			op = MOVQ64
		}
		is.emit(op, mir.Reg(srcReg, 0, false), mir.Reg(dst, 0, true))
	}
}

// selectSelect lowers a branchless select. Integer widths use the CMOV
// family reserved for this purpose; float widths have no SSE conditional
// move, so they fall back to a three-block branch.
func (is *InstSelection) selectSelect(inst *siir.Instruction) {
	ty := inst.Type()
	cond := inst.Operand(0)
	ifTrue := inst.Operand(1)
	ifFalse := inst.Operand(2)
	dst := is.vreg(inst)

	if siir.IsFloat(ty) {
		condReg := is.vreg(cond)
		is.emit(TEST8, mir.Reg(condReg, 0, false), mir.Reg(condReg, 0, false))

		trueB := is.mf.Append()
		falseB := is.mf.Append()
		doneB := is.mf.Append()
		is.emit(JNZ, mir.Block(trueB))
		is.emit(JMP, mir.Block(falseB))

		is.cur = trueB
		is.emit(movOpcodeFor(ty), is.reg(ifTrue), mir.Reg(dst, 0, true))
		is.emit(JMP, mir.Block(doneB))

		is.cur = falseB
		is.emit(movOpcodeFor(ty), is.reg(ifFalse), mir.Reg(dst, 0, true))
		is.emit(JMP, mir.Block(doneB))

		is.cur = doneB
		return
	}

	width := widthOf(ty)
	is.emit(movOpcodeFor(ty), is.reg(ifFalse), mir.Reg(dst, 0, true))
	condReg := is.vreg(cond)
	is.emit(TEST8, mir.Reg(condReg, 0, false), mir.Reg(condReg, 0, false))
	cmov := CMOVNE32
	if width == 64 {
		cmov = CMOVNE64
	}
	is.emit(cmov, is.reg(ifTrue), mir.Reg(dst, 0, true))
}

func (is *InstSelection) argOperand(v siir.Value) mir.Operand {
	if siir.IsFloat(v.Type()) {
		return is.reg(v)
	}
	return is.immOrReg(v)
}

// selectCall marshals arguments into the SystemV register-passing
// convention, emits the call, and (for a non-void call) copies the return
// value out of RAX/XMM0 into the call's own result register. A call with
// more than len(ArgumentRegisters) integer or len(FloatArgumentRegisters)
// float arguments has no stack-argument fallback and is rejected outright.
func (is *InstSelection) selectCall(inst *siir.Instruction) {
	callee := inst.Operand(0)
	numArgs := len(inst.Operands()) - 1

	type argSlot struct {
		reg Register
		val siir.Value
	}
	var regArgs []argSlot

	gpIdx, fpIdx := 0, 0
	for i := 1; i <= numArgs; i++ {
		v := inst.Operand(i)
		if siir.IsFloat(v.Type()) {
			if fpIdx >= len(FloatArgumentRegisters) {
				is.rejectArgOverflow(len(FloatArgumentRegisters), "float")
				return
			}
			regArgs = append(regArgs, argSlot{reg: FloatArgumentRegisters[fpIdx], val: v})
			fpIdx++
		} else {
			if gpIdx >= len(ArgumentRegisters) {
				is.rejectArgOverflow(len(ArgumentRegisters), "integer")
				return
			}
			regArgs = append(regArgs, argSlot{reg: ArgumentRegisters[gpIdx], val: v})
			gpIdx++
		}
	}

	for _, a := range regArgs {
		is.emit(movOpcodeFor(a.val.Type()), is.argOperand(a.val), mir.Reg(AsMachineReg(a.reg), 0, true))
	}

	if fn, ok := callee.(*siir.Function); ok {
		is.emit(CALL, mir.Symbol(fn.Name))
	} else {
		is.emit(CALL, mir.Reg(is.vreg(callee), 0, false))
	}

	if inst.Type() != nil {
		dst := is.vreg(inst)
		if siir.IsFloat(inst.Type()) {
			is.emit(movOpcodeFor(inst.Type()), mir.Reg(AsMachineReg(XMM0), 0, false), mir.Reg(dst, 0, true))
		} else {
			is.emit(movOpcodeFor(inst.Type()), mir.Reg(AsMachineReg(RAX), 0, false), mir.Reg(dst, 0, true))
		}
	}
}

// rejectArgOverflow reports the Kind-2 fatal diagnostic for a call whose
// argument count exceeds the given class's register-passing limit. This
// backend has no stack-argument spill path.
func (is *InstSelection) rejectArgOverflow(limit int, class string) {
	is.report.Fatal(diagnostics.Position{}, fmt.Sprintf(
		"call in %q: more than %d %s arguments is unsupported", is.fn.Name, limit, class))
}

// edgeTarget returns the MachineBlock control should transfer to for the
// cur->succ edge: succ's own block directly if no phi of succ's needs a copy
// on this edge, or a freshly synthesized edge block holding those copies
// followed by an unconditional jump to succ otherwise. Splitting the edge
// this way is what lets OpBranchIf place two different predecessors' worth
// of copies ahead of two different successors without either set clobbering
// registers the other still needs.
func (is *InstSelection) edgeTarget(cur, succ *siir.BasicBlock) *mir.MachineBlock {
	if len(is.phiCopies[succ][cur]) == 0 {
		return is.blocks[succ]
	}
	saved := is.cur
	edge := is.mf.Append()
	is.cur = edge
	is.emitPhiEdgeCopies(cur, succ)
	is.emit(JMP, mir.Block(is.blocks[succ]))
	is.cur = saved
	return edge
}

func (is *InstSelection) selectJump(inst *siir.Instruction) {
	target := inst.Operand(0).(*siir.BlockAddress).Block
	is.emitPhiEdgeCopies(is.curSIIR, target)
	is.emit(JMP, mir.Block(is.blocks[target]))
}

func (is *InstSelection) selectBranchIf(inst *siir.Instruction) {
	cond := inst.Operand(0)
	trueBlk := inst.Operand(1).(*siir.BlockAddress).Block
	falseBlk := inst.Operand(2).(*siir.BlockAddress).Block
	cur := is.curSIIR

	var jcc Opcode
	if condInst, ok := cond.(*siir.Instruction); ok && is.deferred[condInst] {
		jcc = is.emitCompareAndGetJcc(condInst)
	} else {
		r := is.vreg(cond)
		is.emit(TEST8, mir.Reg(r, 0, false), mir.Reg(r, 0, false))
		jcc = JNZ
	}

	trueTarget := is.edgeTarget(cur, trueBlk)
	falseTarget := is.edgeTarget(cur, falseBlk)
	is.emit(jcc, mir.Block(trueTarget))
	is.emit(JMP, mir.Block(falseTarget))
}

func (is *InstSelection) selectReturn(inst *siir.Instruction) {
	if len(inst.Operands()) > 0 {
		val := inst.Operand(0)
		ty := val.Type()
		if siir.IsFloat(ty) {
			is.emit(movOpcodeFor(ty), is.reg(val), mir.Reg(AsMachineReg(XMM0), 0, true))
		} else {
			is.emit(movOpcodeFor(ty), is.immOrReg(val), mir.Reg(AsMachineReg(RAX), 0, true))
		}
	}
	is.emit(RET)
}

func jccToSetcc(jcc Opcode) Opcode {
	switch jcc {
	case JE:
		return SETE
	case JNE:
		return SETNE
	case JZ:
		return SETZ
	case JNZ:
		return SETNZ
	case JL:
		return SETL
	case JLE:
		return SETLE
	case JG:
		return SETG
	case JGE:
		return SETGE
	case JA:
		return SETA
	case JAE:
		return SETAE
	case JB:
		return SETB
	case JBE:
		return SETBE
	default:
		panic("statim: invariant violated: jcc has no matching setcc")
	}
}

func (is *InstSelection) emitIntCmp(lhs, rhs siir.Value) {
	width := widthOf(lhs.Type())
	is.emit(pick4(width, CMP8, CMP16, CMP32, CMP64), is.immOrReg(rhs), is.reg(lhs))
}

// emitFloatCmp lowers to UCOMISS/UCOMISD, whose flags match an unsigned
// integer compare (CF/ZF/PF), hence the Jcc choices in
// emitCompareAndGetJcc's float cases. This does not distinguish ordered from
// unordered comparisons on a NaN operand; every cmp-o*/cmp-un* pair maps to
// the same Jcc.
func (is *InstSelection) emitFloatCmp(lhs, rhs siir.Value) {
	op := UCOMISS
	if lhs.Type().(*siir.FloatType).Width == 64 {
		op = UCOMISD
	}
	is.emit(op, is.reg(rhs), is.reg(lhs))
}

// emitCompareAndGetJcc emits the CMP/UCOMISS/UCOMISD for cmp and returns the
// Jcc opcode that reads its flags the way cmp's opcode requires.
func (is *InstSelection) emitCompareAndGetJcc(cmp *siir.Instruction) Opcode {
	lhs := cmp.Operand(0)
	rhs := cmp.Operand(1)
	switch cmp.Opcode {
	case siir.OpCmpIEQ:
		is.emitIntCmp(lhs, rhs)
		return JE
	case siir.OpCmpINE:
		is.emitIntCmp(lhs, rhs)
		return JNE
	case siir.OpCmpSLT:
		is.emitIntCmp(lhs, rhs)
		return JL
	case siir.OpCmpSLE:
		is.emitIntCmp(lhs, rhs)
		return JLE
	case siir.OpCmpSGT:
		is.emitIntCmp(lhs, rhs)
		return JG
	case siir.OpCmpSGE:
		is.emitIntCmp(lhs, rhs)
		return JGE
	case siir.OpCmpULT:
		is.emitIntCmp(lhs, rhs)
		return JB
	case siir.OpCmpULE:
		is.emitIntCmp(lhs, rhs)
		return JBE
	case siir.OpCmpUGT:
		is.emitIntCmp(lhs, rhs)
		return JA
	case siir.OpCmpUGE:
		is.emitIntCmp(lhs, rhs)
		return JAE
	case siir.OpCmpOEQ, siir.OpCmpUNEQ:
		is.emitFloatCmp(lhs, rhs)
		return JE
	case siir.OpCmpONE, siir.OpCmpUNNE:
		is.emitFloatCmp(lhs, rhs)
		return JNE
	case siir.OpCmpOLT, siir.OpCmpUNLT:
		is.emitFloatCmp(lhs, rhs)
		return JB
	case siir.OpCmpOLE, siir.OpCmpUNLE:
		is.emitFloatCmp(lhs, rhs)
		return JBE
	case siir.OpCmpOGT, siir.OpCmpUNGT:
		is.emitFloatCmp(lhs, rhs)
		return JA
	case siir.OpCmpOGE, siir.OpCmpUNGE:
		is.emitFloatCmp(lhs, rhs)
		return JAE
	default:
		panic("statim: invariant violated: not a comparison opcode")
	}
}

// selectComparison lowers a comparison used as an ordinary SSA value (i.e.
// not fused into a branch-if): the Jcc emitCompareAndGetJcc would have taken
// becomes a SETcc writing the 0/1 result instead.
func (is *InstSelection) selectComparison(inst *siir.Instruction) {
	jcc := is.emitCompareAndGetJcc(inst)
	setcc := jccToSetcc(jcc)
	dst := is.vreg(inst)
	is.emit(setcc, mir.Reg(dst, 0, true))
}

// selectShift lowers shl/shr/sar. A variable shift count must be in %cl;
// this backend moves it there directly at selection time rather than
// reserving RCX from the allocator's pool for the instruction's live range,
// mirroring the reference allocator's total absence of fixed-register
// interference constraints.
func (is *InstSelection) selectShift(inst *siir.Instruction, op8, op16, op32, op64 Opcode) {
	ty := inst.Type()
	dst := is.vreg(inst)
	is.emit(movOpcodeFor(ty), is.reg(inst.Operand(0)), mir.Reg(dst, 0, true))

	op := pick4(widthOf(ty), op8, op16, op32, op64)
	amount := inst.Operand(1)
	if c, ok := amount.(*siir.ConstantInt); ok {
		is.emit(op, mir.Imm(c.Val), mir.Reg(dst, 0, true))
		return
	}
	is.emit(pick4(widthOf(amount.Type()), MOV8, MOV16, MOV32, MOV64),
		is.reg(amount), mir.Reg(AsMachineReg(RCX), 0, true))
	is.emit(op, mir.Reg(AsMachineReg(RCX), 0, false, mir.Implicit), mir.Reg(dst, 0, true))
}

// selectDivRem lowers sdiv/udiv/srem/urem. The dividend and divisor are
// always widened to at least 32 bits first (sign- or zero-extension
// preserves the mathematical value exactly), since IDIV/DIV below 32 bits
// need CBW/CWD forms this backend does not model.
func (is *InstSelection) selectDivRem(inst *siir.Instruction, signed, wantRemainder bool) {
	ty := inst.Type()
	width := widthOf(ty)
	workWidth := width
	if workWidth < 32 {
		workWidth = 32
	}

	lhsReg := is.widen(inst.Operand(0), width, workWidth, signed)
	rhsReg := is.widen(inst.Operand(1), width, workWidth, signed)

	movOp := pick4(workWidth, MOV8, MOV16, MOV32, MOV64)
	is.emit(movOp, mir.Reg(lhsReg, 0, false), mir.Reg(AsMachineReg(RAX), 0, true))
	if signed {
		if workWidth == 64 {
			is.emit(CQO)
		} else {
			is.emit(CDQ)
		}
	} else {
		is.emit(movOp, mir.Imm(0), mir.Reg(AsMachineReg(RDX), 0, true))
	}

	divOp := pick4(workWidth, IDIV8, IDIV16, IDIV32, IDIV64)
	if !signed {
		divOp = pick4(workWidth, DIV8, DIV16, DIV32, DIV64)
	}
	is.emit(divOp,
		mir.Reg(rhsReg, 0, false),
		mir.Reg(AsMachineReg(RAX), 0, false, mir.Implicit),
		mir.Reg(AsMachineReg(RDX), 0, false, mir.Implicit),
		mir.Reg(AsMachineReg(RAX), 0, true, mir.Implicit),
		mir.Reg(AsMachineReg(RDX), 0, true, mir.Implicit),
	)

	resultPhys := RAX
	if wantRemainder {
		resultPhys = RDX
	}
	dst := is.vreg(inst)
	is.emit(pick4(width, MOV8, MOV16, MOV32, MOV64), mir.Reg(AsMachineReg(resultPhys), 0, false), mir.Reg(dst, 0, true))
}
