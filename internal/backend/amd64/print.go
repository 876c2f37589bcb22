package amd64

import (
	"fmt"
	"io"
	"sort"

	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
)

// Printer renders a MachineObject back to a human-readable MIR dump, used
// by --dump-machine-ir diagnostics. It runs after instruction selection but before
// or after register allocation: virtual registers still show as vN until
// Allocate has rewritten them to physical registers.
type Printer struct {
	obj *mir.MachineObject
}

// NewPrinter builds a Printer over obj.
func NewPrinter(obj *mir.MachineObject) *Printer {
	return &Printer{obj: obj}
}

func printOperand(w io.Writer, mf *mir.MachineFunction, o mir.Operand) {
	switch o.Kind() {
	case mir.OpRegister:
		if o.IsDef() {
			if o.IsImplicit() {
				fmt.Fprint(w, "implicit-def ")
			}
			if o.IsDead() {
				fmt.Fprint(w, "dead ")
			}
		} else {
			if o.IsImplicit() {
				fmt.Fprint(w, "implicit ")
			}
			if o.IsKill() {
				fmt.Fprint(w, "killed ")
			}
		}

		reg := o.Reg()
		if reg.IsVirtual() {
			if info := mf.Regs.Info(reg.ID()); info != nil && info.Alloc.Valid() {
				reg = info.Alloc
			}
		}

		if reg.IsVirtual() {
			fmt.Fprintf(w, "v%d:%d", reg.ID()-uint32(mir.VirtualBarrier), o.Subreg())
		} else {
			fmt.Fprintf(w, "%%%s", FromMachineReg(reg).StringAt(uint8(o.Subreg())))
		}

	case mir.OpMemory:
		fmt.Fprint(w, "[")
		base := o.MemBase()
		if base.IsVirtual() {
			fmt.Fprintf(w, "v%d", base.ID()-uint32(mir.VirtualBarrier))
		} else {
			fmt.Fprintf(w, "%%%s", FromMachineReg(base).StringAt(64))
		}
		if o.MemDisp() != 0 {
			if o.MemDisp() > 0 {
				fmt.Fprint(w, "+")
			}
			fmt.Fprintf(w, "%d", o.MemDisp())
		}
		fmt.Fprint(w, "]")

	case mir.OpStackIndex:
		fmt.Fprintf(w, "stack.%d", o.StackIdx())

	case mir.OpImmediate:
		fmt.Fprintf(w, "$%d", o.Imm())

	case mir.OpBasicBlock:
		fmt.Fprintf(w, "bb%d", o.MBB().Number)

	case mir.OpConstantIndex:
		fmt.Fprintf(w, "const.%d", o.ConstIdx())

	case mir.OpSymbol:
		fmt.Fprint(w, o.SymbolName())
	}
}

func numExplicitDefs(mi *mir.MachineInst) int {
	n := 0
	for _, o := range mi.Operands() {
		if o.IsReg() && o.IsExplicitDef() {
			n++
		}
	}
	return n
}

func printInst(w io.Writer, mf *mir.MachineFunction, mi *mir.MachineInst) {
	fmt.Fprint(w, "    ")

	single := numExplicitDefs(mi) == 1
	if single {
		for _, o := range mi.Operands() {
			if o.IsReg() && o.IsExplicitDef() {
				printOperand(w, mf, o)
				break
			}
		}
		fmt.Fprint(w, " = ")
	}

	fmt.Fprintf(w, "%s ", Opcode(mi.Opcode))

	ops := mi.Operands()
	for idx, o := range ops {
		if single && o.IsReg() && o.IsExplicitDef() {
			continue
		}
		printOperand(w, mf, o)
		if idx+1 != len(ops) {
			next := ops[idx+1]
			if !(next.IsReg() && next.IsExplicitDef()) {
				fmt.Fprint(w, ", ")
			}
		}
	}
}

func printBlock(w io.Writer, mf *mir.MachineFunction, b *mir.MachineBlock) {
	fmt.Fprintf(w, "%s:\n", b.Name())
	for inst := b.Front(); inst != nil; inst = inst.Next() {
		printInst(w, mf, inst)
		fmt.Fprint(w, "\n")
	}
}

// constantText renders a constant pool entry's value the way the selector's
// own ConstantInt/ConstantFP/ConstantString/ConstantNull cases materialize
// it, for the stack/constant-pool header lines of a function dump.
func constantText(c siir.Constant) string {
	switch v := c.(type) {
	case *siir.ConstantInt:
		return fmt.Sprintf("%d", v.Val)
	case *siir.ConstantFP:
		if ft, ok := v.Type().(*siir.FloatType); ok && ft.Width == 32 {
			return fmt.Sprintf("%v", v.Float32())
		}
		return fmt.Sprintf("%v", v.Float64())
	case *siir.ConstantNull:
		return "null"
	case *siir.ConstantString:
		return fmt.Sprintf("%q", v.Bytes)
	default:
		return "<const>"
	}
}

func printFunction(w io.Writer, mf *mir.MachineFunction) {
	fmt.Fprintf(w, "%s:\n", mf.Name())

	for idx, e := range mf.Stack.Entries {
		fmt.Fprintf(w, "    stack.%d offset: %d, size: %d, align: %d\n", idx, e.Offset, e.Size, e.Align)
	}

	for idx, e := range mf.Pool.Entries {
		fmt.Fprintf(w, "    const.%d %s %s\n", idx, e.Constant.Type().String(), constantText(e.Constant))
	}

	if mf.Stack.NumEntries() > 0 || mf.Pool.NumEntries() > 0 {
		fmt.Fprint(w, "\n")
	}

	for b := mf.Front(); b != nil; b = b.Next() {
		printBlock(w, mf, b)
	}
}

// Run writes a textual dump of every function in the object to w, in
// deterministic (name-sorted) order.
func (p *Printer) Run(w io.Writer) error {
	names := make([]string, 0)
	byName := make(map[string]*mir.MachineFunction)
	for _, fn := range p.obj.Functions() {
		names = append(names, fn.Name())
		byName[fn.Name()] = fn
	}
	sort.Strings(names)

	for _, name := range names {
		printFunction(w, byName[name])
		fmt.Fprint(w, "\n")
	}
	return nil
}
