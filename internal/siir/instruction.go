package siir

import "fmt"

// Opcode is the fixed set of SIIR operations. Signedness, where relevant, is
// carried by the opcode itself, never by the operand types.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Memory.
	OpLoad
	OpStore
	OpAccessPtr

	// Constants.
	OpConstant
	OpString

	// Control.
	OpJump
	OpBranchIf
	OpReturn
	OpAbort
	OpUnreachable
	OpPhi

	// Calls.
	OpCall

	// Arithmetic.
	OpIAdd
	OpISub
	OpSMul
	OpUMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem
	OpINeg
	OpFNeg

	// Bitwise/shift.
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpSar
	OpNot

	// Conversions.
	OpSExt
	OpZExt
	OpITrunc
	OpFExt
	OpFTrunc
	OpSI2FP
	OpUI2FP
	OpFP2SI
	OpFP2UI
	OpP2I
	OpI2P
	OpReinterpret

	// Select.
	OpSelect

	// Comparisons.
	OpCmpIEQ
	OpCmpINE
	OpCmpSLT
	OpCmpSLE
	OpCmpSGT
	OpCmpSGE
	OpCmpULT
	OpCmpULE
	OpCmpUGT
	OpCmpUGE
	OpCmpOEQ
	OpCmpONE
	OpCmpOLT
	OpCmpOLE
	OpCmpOGT
	OpCmpOGE
	OpCmpUNEQ
	OpCmpUNNE
	OpCmpUNLT
	OpCmpUNLE
	OpCmpUNGT
	OpCmpUNGE

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	OpNop:          "nop",
	OpLoad:         "load",
	OpStore:        "store",
	OpAccessPtr:    "access-ptr",
	OpConstant:     "constant",
	OpString:       "string",
	OpJump:         "jump",
	OpBranchIf:     "branch-if",
	OpReturn:       "return",
	OpAbort:        "abort",
	OpUnreachable:  "unreachable",
	OpPhi:          "phi",
	OpCall:         "call",
	OpIAdd:         "iadd",
	OpISub:         "isub",
	OpSMul:         "smul",
	OpUMul:         "umul",
	OpSDiv:         "sdiv",
	OpUDiv:         "udiv",
	OpSRem:         "srem",
	OpURem:         "urem",
	OpFAdd:         "fadd",
	OpFSub:         "fsub",
	OpFMul:         "fmul",
	OpFDiv:         "fdiv",
	OpFRem:         "frem",
	OpINeg:         "ineg",
	OpFNeg:         "fneg",
	OpAnd:          "and",
	OpOr:           "or",
	OpXor:          "xor",
	OpShl:          "shl",
	OpShr:          "shr",
	OpSar:          "sar",
	OpNot:          "not",
	OpSExt:         "sext",
	OpZExt:         "zext",
	OpITrunc:       "itrunc",
	OpFExt:         "fext",
	OpFTrunc:       "ftrunc",
	OpSI2FP:        "si2fp",
	OpUI2FP:        "ui2fp",
	OpFP2SI:        "fp2si",
	OpFP2UI:        "fp2ui",
	OpP2I:          "p2i",
	OpI2P:          "i2p",
	OpReinterpret:  "reinterpret",
	OpSelect:       "select",
	OpCmpIEQ:       "cmp-ieq",
	OpCmpINE:       "cmp-ine",
	OpCmpSLT:       "cmp-slt",
	OpCmpSLE:       "cmp-sle",
	OpCmpSGT:       "cmp-sgt",
	OpCmpSGE:       "cmp-sge",
	OpCmpULT:       "cmp-ult",
	OpCmpULE:       "cmp-ule",
	OpCmpUGT:       "cmp-ugt",
	OpCmpUGE:       "cmp-uge",
	OpCmpOEQ:       "cmp-oeq",
	OpCmpONE:       "cmp-one",
	OpCmpOLT:       "cmp-olt",
	OpCmpOLE:       "cmp-ole",
	OpCmpOGT:       "cmp-ogt",
	OpCmpOGE:       "cmp-oge",
	OpCmpUNEQ:      "cmp-uneq",
	OpCmpUNNE:      "cmp-unne",
	OpCmpUNLT:      "cmp-unlt",
	OpCmpUNLE:      "cmp-unle",
	OpCmpUNGT:      "cmp-ungt",
	OpCmpUNGE:      "cmp-unge",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", op)
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpJump, OpBranchIf, OpReturn, OpAbort, OpUnreachable:
		return true
	default:
		return false
	}
}

// IsComparison reports whether op is one of the cmp-* family.
func (op Opcode) IsComparison() bool {
	return op >= OpCmpIEQ && op < opcodeCount
}

// HasSideEffects reports whether op can never be removed purely because it
// has zero uses: calls, stores, branches, returns, and the two halting
// instructions always survive trivial DCE.
func (op Opcode) HasSideEffects() bool {
	switch op {
	case OpCall, OpStore, OpBranchIf, OpReturn, OpJump, OpAbort, OpUnreachable:
		return true
	default:
		return false
	}
}

// Instruction is a single SIIR operation: an opcode, an ordered operand
// list, an optional result, a 16-bit per-opcode data field (e.g. alignment
// for load/store), and its position within a basic block's instruction
// list.
type Instruction struct {
	ValueBase
	UserBase

	Opcode   Opcode
	ResultID uint32
	Data     uint16

	parent     *BasicBlock
	prev, next *Instruction
}

func (i *Instruction) ReplaceAllUsesWith(other Value) {
	replaceAllUsesWith(i, &i.ValueBase, other)
}

func (i *Instruction) Operands() []*Use          { return i.UserBase.Operands() }
func (i *Instruction) Operand(n int) Value       { return i.UserBase.Operand(n) }
func (i *Instruction) SetOperand(n int, v Value) { i.UserBase.SetOperand(n, v) }

// Parent returns the basic block this instruction belongs to, or nil if
// detached.
func (i *Instruction) Parent() *BasicBlock { return i.parent }

// Prev/Next walk the intrusive instruction list within the parent block.
func (i *Instruction) Prev() *Instruction { return i.prev }
func (i *Instruction) Next() *Instruction { return i.next }

func (i *Instruction) IsLoad() bool  { return i.Opcode == OpLoad }
func (i *Instruction) IsStore() bool { return i.Opcode == OpStore }
func (i *Instruction) IsPhi() bool   { return i.Opcode == OpPhi }
func (i *Instruction) IsComparison() bool { return i.Opcode.IsComparison() }
func (i *Instruction) IsTerminator() bool { return i.Opcode.IsTerminator() }

// AddIncoming appends a PhiOperand to a phi instruction naming predecessor
// pred and incoming value value.
func (i *Instruction) AddIncoming(value Value, pred *BasicBlock) {
	if i.Opcode != OpPhi {
		panic("statim: invariant violated: AddIncoming on a non-phi instruction")
	}
	op := newPhiOperand(pred, value)
	i.UserBase.appendOperand(i, op)
}

// IncomingFrom returns the PhiOperand naming pred, or nil if pred does not
// appear among this phi's operands.
func (i *Instruction) IncomingFrom(pred *BasicBlock) *PhiOperand {
	for _, u := range i.Operands() {
		po := u.Value().(*PhiOperand)
		if po.Predecessor == pred {
			return po
		}
	}
	return nil
}

// detachFromParent unlinks the instruction from its block's instruction
// list without deleting it. The caller must ensure it has no remaining uses
// before actually discarding it.
func (i *Instruction) detachFromParent() {
	if i.parent == nil {
		return
	}
	blk := i.parent
	if i.prev != nil {
		i.prev.next = i.next
	} else {
		blk.firstInst = i.next
	}
	if i.next != nil {
		i.next.prev = i.prev
	} else {
		blk.lastInst = i.prev
	}
	i.prev, i.next, i.parent = nil, nil, nil
}
