package amd64

import (
	"fmt"
	"io"
	"math/bits"
	"sort"
	"strings"

	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

// AsmWriter renders a fully selected and allocated MachineObject as SystemV
// AT&T assembly text, the same textual contract the original compiler hands
// to an external `as` rather than emitting object code directly.
type AsmWriter struct {
	obj *mir.MachineObject

	// fnID numbers functions in emission order, used to scope .LBB/.LCPI
	// labels per function the way the original's g_function_id does.
	fnID int
}

func NewAsmWriter(obj *mir.MachineObject) *AsmWriter {
	return &AsmWriter{obj: obj}
}

func isMoveOpcode(op Opcode) bool {
	switch op {
	case MOV8, MOV16, MOV32, MOV64, MOVSS, MOVSD, MOVAPS, MOVAPD:
		return true
	default:
		return false
	}
}

func inQuad(op, base Opcode) bool { return op >= base && op <= base+3 }

func quadWidth(op, base Opcode) uint8 {
	return [4]uint8{1, 2, 4, 8}[op-base]
}

func widthForIdx(idx int, from, to uint8) uint8 {
	if idx == 0 {
		return from
	}
	return to
}

// registerWidth returns the byte width (1, 2, 4, or 8) a register operand at
// position idx of an op instruction should be printed at. XMM operands
// render identically regardless of width (Register.StringAt ignores it for
// them), so only the GP-affecting cases below need to be exact.
func registerWidth(op Opcode, idx int) uint8 {
	switch {
	case inQuad(op, MOV8):
		return quadWidth(op, MOV8)
	case inQuad(op, ADD8):
		return quadWidth(op, ADD8)
	case inQuad(op, SUB8):
		return quadWidth(op, SUB8)
	case inQuad(op, IMUL8):
		return quadWidth(op, IMUL8)
	case inQuad(op, MUL8):
		return quadWidth(op, MUL8)
	case inQuad(op, IDIV8):
		return quadWidth(op, IDIV8)
	case inQuad(op, DIV8):
		return quadWidth(op, DIV8)
	case inQuad(op, AND8):
		return quadWidth(op, AND8)
	case inQuad(op, OR8):
		return quadWidth(op, OR8)
	case inQuad(op, XOR8):
		return quadWidth(op, XOR8)
	case inQuad(op, SHL8):
		return quadWidth(op, SHL8)
	case inQuad(op, SHR8):
		return quadWidth(op, SHR8)
	case inQuad(op, SAR8):
		return quadWidth(op, SAR8)
	case inQuad(op, NOT8):
		return quadWidth(op, NOT8)
	case inQuad(op, NEG8):
		return quadWidth(op, NEG8)
	case inQuad(op, CMP8):
		return quadWidth(op, CMP8)
	case inQuad(op, TEST8):
		return quadWidth(op, TEST8)
	case op >= CMOVE32 && op <= CMOVBE32:
		return 4
	case op >= CMOVE64 && op <= CMOVBE64:
		return 8
	case op.IsSetcc():
		return 1
	case op == MOVSX8to32 || op == MOVZX8to32:
		return widthForIdx(idx, 1, 4)
	case op == MOVSX8to64 || op == MOVZX8to64:
		return widthForIdx(idx, 1, 8)
	case op == MOVSX16to32 || op == MOVZX16to32:
		return widthForIdx(idx, 2, 4)
	case op == MOVSX16to64 || op == MOVZX16to64:
		return widthForIdx(idx, 2, 8)
	case op == MOVSX32to64:
		return widthForIdx(idx, 4, 8)
	case op == MOVABS, op == PUSH64, op == POP64:
		return 8
	case op == CVTSI2SS32, op == CVTSI2SD32:
		return 4
	case op == CVTSI2SS64, op == CVTSI2SD64:
		return 8
	case op == CVTTSS2SI32, op == CVTTSD2SI32:
		return 4
	case op == CVTTSS2SI64, op == CVTTSD2SI64:
		return 8
	case op == MOVD32:
		return 4
	case op == MOVQ64:
		return 8
	default:
		return 8
	}
}

// isRedundantMove reports whether mi is a move whose two operands are the
// same physical register, left over after allocation may have happened to
// assign both a phi copy's source and destination the same color.
func isRedundantMove(mi *mir.MachineInst) bool {
	if !isMoveOpcode(Opcode(mi.Opcode)) || mi.NumOperands() != 2 {
		return false
	}
	a, b := mi.Operand(0), mi.Operand(1)
	if !a.IsReg() || !b.IsReg() {
		return false
	}
	return a.Reg() == b.Reg() && a.Subreg() == b.Subreg()
}

func (w *AsmWriter) emitOperand(sb *strings.Builder, mf *mir.MachineFunction, op Opcode, idx int, o mir.Operand) {
	switch o.Kind() {
	case mir.OpRegister:
		width := registerWidth(op, idx)
		fmt.Fprintf(sb, "%%%s", FromMachineReg(o.Reg()).StringAt(width))
	case mir.OpMemory:
		if o.MemDisp() != 0 {
			fmt.Fprintf(sb, "%d", o.MemDisp())
		}
		fmt.Fprintf(sb, "(%%%s)", FromMachineReg(o.MemBase()).StringAt(8))
	case mir.OpImmediate:
		fmt.Fprintf(sb, "$%d", o.Imm())
	case mir.OpStackIndex:
		slot := mf.Stack.Entries[o.StackIdx()]
		offset := -slot.Offset - int32(slot.Size)
		fmt.Fprintf(sb, "%d(%%rbp)", offset)
	case mir.OpBasicBlock:
		fmt.Fprintf(sb, ".LBB%d_%d", w.fnID, o.MBB().Number)
	case mir.OpConstantIndex:
		fmt.Fprintf(sb, ".LCPI%d_%d(%%rip)", w.fnID, o.ConstIdx())
	case mir.OpSymbol:
		sb.WriteString(o.SymbolName())
	}
}

func (w *AsmWriter) emitInstruction(sb *strings.Builder, mf *mir.MachineFunction, mi *mir.MachineInst) {
	if isRedundantMove(mi) {
		return
	}

	op := Opcode(mi.Opcode)
	if op.IsRet() {
		frame := mf.Stack.Alignment()
		fmt.Fprintf(sb, "\taddq\t$%d, %%rsp\n\tpopq\t%%rbp\n\t.cfi_def_cfa %%rsp, 8\n\tretq\n", frame)
		return
	}

	fmt.Fprintf(sb, "\t%s\t", op.String())
	ops := mi.Operands()
	first := true
	for i, o := range ops {
		if o.IsReg() && o.IsImplicit() {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		w.emitOperand(sb, mf, op, i, o)
	}
	if op.IsCall() {
		sb.WriteString("@PLT")
	}
	sb.WriteByte('\n')
}

func (w *AsmWriter) emitBasicBlock(sb *strings.Builder, mf *mir.MachineFunction, b *mir.MachineBlock) {
	fmt.Fprintf(sb, ".LBB%d_%d:\n", w.fnID, b.Number)
	for inst := b.Front(); inst != nil; inst = inst.Next() {
		w.emitInstruction(sb, mf, inst)
	}
}

func constantByteSize(tgt target.Target, c siir.Constant) uint32 {
	return uint32(tgt.SizeOf(c.Type().(target.Type)))
}

func emitConstant(sb *strings.Builder, tgt target.Target, c siir.Constant) {
	sb.WriteString("\t.")
	switch v := c.(type) {
	case *siir.ConstantInt:
		switch constantByteSize(tgt, c) {
		case 1:
			sb.WriteString("byte ")
		case 2:
			sb.WriteString("word ")
		case 4:
			sb.WriteString("long ")
		default:
			sb.WriteString("quad ")
		}
		fmt.Fprintf(sb, "%d", v.Val)
	case *siir.ConstantFP:
		switch constantByteSize(tgt, c) {
		case 4:
			fmt.Fprintf(sb, "long 0x%x", uint32(v.Bits))
		default:
			fmt.Fprintf(sb, "quad 0x%x", v.Bits)
		}
	case *siir.ConstantNull:
		sb.WriteString("quad 0x0")
	case *siir.ConstantString:
		sb.WriteString("string \"")
		for _, b := range v.Bytes {
			switch b {
			case '\\':
				sb.WriteString("\\\\")
			case '\'':
				sb.WriteString("\\'")
			case '"':
				sb.WriteString("\\\"")
			case '\n':
				sb.WriteString("\\n")
			case '\t':
				sb.WriteString("\\t")
			case '\r':
				sb.WriteString("\\r")
			case '\b':
				sb.WriteString("\\b")
			case 0:
				sb.WriteString("\\0")
			default:
				sb.WriteByte(b)
			}
		}
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}

func (w *AsmWriter) emitFunction(sb *strings.Builder, mf *mir.MachineFunction) {
	name := mf.Name()
	fmt.Fprintf(sb, "# begin function %s\n", name)

	lastSize := -1
	for idx, entry := range mf.Pool.Entries {
		size := int(constantByteSize(w.obj.Target, entry.Constant))
		if size != lastSize {
			fmt.Fprintf(sb, "\t.section\t.rodata.cst%d,\"aM\",@progbits,8\n\t.p2align\t%d, 0x0\n", size, bits.Len32(uint32(size))-1)
			lastSize = size
		}
		fmt.Fprintf(sb, ".LCPI%d_%d:\n", w.fnID, idx)
		emitConstant(sb, w.obj.Target, entry.Constant)
	}

	sb.WriteString("\t.text\n")
	if mf.Fn.Linkage == siir.LinkageExternal {
		fmt.Fprintf(sb, "\t.global\t%s\n", name)
	}
	fmt.Fprintf(sb, "\t.p2align 4\n\t.type\t%s, @function\n%s:\n\t.cfi_startproc\n", name, name)
	sb.WriteString("\tpushq\t%rbp\n\t.cfi_def_cfa_offset 16\n\t.cfi_offset %rbp, -16\n\tmovq\t%rsp, %rbp\n\t.cfi_def_cfa_register %rbp\n")
	fmt.Fprintf(sb, "\tsubq\t$%d, %%rsp\n", mf.Stack.Alignment())

	for b := mf.Front(); b != nil; b = b.Next() {
		w.emitBasicBlock(sb, mf, b)
	}

	fmt.Fprintf(sb, ".LFE%d:\n\t.size\t%s, .LFE%d-%s\n\t.cfi_endproc\n# end function %s\n\n", w.fnID, name, w.fnID, name, name)
}

func emitGlobal(sb *strings.Builder, tgt target.Target, g *siir.Global) {
	if g.Init == nil {
		return
	}

	sb.WriteString("\t.data\n")
	if g.Linkage == siir.LinkageExternal {
		fmt.Fprintf(sb, "\t.global %s\n", g.Name)
	}
	align := tgt.AlignOf(g.Init.Type().(target.Type))
	size := tgt.SizeOf(g.Init.Type().(target.Type))
	fmt.Fprintf(sb, "\t.align\t%d\n\t.type\t%s, @object\n\t.size\t%s, %d\n%s:\n", align, g.Name, g.Name, size, g.Name)
	emitConstant(sb, tgt, g.Init)
}

// Run writes w.obj's globals, string literals and functions to out, in that
// order, as complete AT&T assembly text.
func (w *AsmWriter) Run(out io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\t.file\t\"%s\"\n", w.obj.CFG.File)

	globals := w.obj.CFG.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		emitGlobal(&sb, w.obj.Target, globals[name])
	}

	strs := w.obj.Strings()
	if len(strs) > 0 {
		sb.WriteString("\t.section\t.rodata\n")
		for _, lit := range strs {
			fmt.Fprintf(&sb, "%s:\n\t.string \"", lit.Symbol)
			for _, b := range lit.Bytes {
				switch b {
				case '\\':
					sb.WriteString("\\\\")
				case '"':
					sb.WriteString("\\\"")
				case '\n':
					sb.WriteString("\\n")
				case '\t':
					sb.WriteString("\\t")
				case 0:
					sb.WriteString("\\0")
				default:
					sb.WriteByte(b)
				}
			}
			sb.WriteString("\"\n")
		}
	}

	w.fnID = 0
	for _, mf := range w.obj.Functions() {
		if mf.Fn.External {
			w.fnID++
			continue
		}
		w.emitFunction(&sb, mf)
		w.fnID++
	}

	sb.WriteString("\t.ident\t\"statim\"\n\t.section\t.note.GNU-stack,\"\",@progbits\n")

	_, err := out.Write([]byte(sb.String()))
	return err
}
