package siir

import (
	"fmt"
	"io"
	"sort"
)

// Print writes a textual rendition of cfg to w: every global, then every
// function in name order with its blocks and instructions. The format is
// stable across runs for the same CFG (declaration order for top-level
// names is by sorted name, not map iteration order), so it doubles as the
// backend's --dump-siir output and as a basis for emitter-determinism
// tests.
func Print(w io.Writer, cfg *CFG) {
	names := make([]string, 0, len(cfg.globals))
	for name := range cfg.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printGlobal(w, cfg.globals[name])
	}

	fnNames := make([]string, 0, len(cfg.functions))
	for name := range cfg.functions {
		fnNames = append(fnNames, name)
	}
	sort.Strings(fnNames)
	for _, name := range fnNames {
		printFunction(w, cfg.functions[name])
	}
}

func printGlobal(w io.Writer, g *Global) {
	linkage := "internal"
	if g.Linkage == LinkageExternal {
		linkage = "external"
	}
	if g.Init != nil {
		fmt.Fprintf(w, "global %s %s : %s = %s\n", linkage, g.Name, g.PointeeType, printValue(g.Init))
	} else {
		fmt.Fprintf(w, "global %s %s : %s\n", linkage, g.Name, g.PointeeType)
	}
}

func printFunction(w io.Writer, fn *Function) {
	kw := "define"
	if fn.External {
		kw = "declare"
	}
	fmt.Fprintf(w, "%s %s %s\n", kw, fn.Name, fn.Signature)
	if fn.External {
		return
	}
	for blk := fn.Front(); blk != nil; blk = blk.Next() {
		fmt.Fprintf(w, "%s:\n", blk.Name())
		for inst := blk.Front(); inst != nil; inst = inst.Next() {
			printInstruction(w, inst)
		}
	}
	fmt.Fprintln(w)
}

func printInstruction(w io.Writer, inst *Instruction) {
	result := ""
	if inst.Type() != nil {
		result = fmt.Sprintf("%%%d = ", inst.ResultID)
	}

	switch inst.Opcode {
	case OpJump:
		fmt.Fprintf(w, "  jump %s\n", printValue(inst.Operand(0)))
	case OpBranchIf:
		fmt.Fprintf(w, "  branch-if %s, %s, %s\n",
			printValue(inst.Operand(0)), printValue(inst.Operand(1)), printValue(inst.Operand(2)))
	case OpReturn:
		if len(inst.Operands()) == 0 {
			fmt.Fprintf(w, "  return\n")
		} else {
			fmt.Fprintf(w, "  return %s\n", printValue(inst.Operand(0)))
		}
	case OpAbort:
		fmt.Fprintf(w, "  abort\n")
	case OpUnreachable:
		fmt.Fprintf(w, "  unreachable\n")
	case OpPhi:
		fmt.Fprintf(w, "  %sphi %s", result, inst.Type())
		for _, u := range inst.Operands() {
			po := u.Value().(*PhiOperand)
			fmt.Fprintf(w, " [%s, %s]", printValue(po.Incoming()), po.Predecessor.Name())
		}
		fmt.Fprintln(w)
	case OpCall:
		fmt.Fprintf(w, "  %scall %s(", result, printValue(inst.Operand(0)))
		for i, u := range inst.Operands()[1:] {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprint(w, printValue(u.Value()))
		}
		fmt.Fprintln(w, ")")
	default:
		fmt.Fprintf(w, "  %s%s", result, inst.Opcode)
		for i, u := range inst.Operands() {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprint(w, " ", printValue(u.Value()))
		}
		fmt.Fprintln(w)
	}
}

// printValue renders an operand value as it appears inline within an
// instruction's operand list.
func printValue(v Value) string {
	switch val := v.(type) {
	case *ConstantInt:
		return fmt.Sprintf("%d", val.Val)
	case *ConstantFP:
		return fmt.Sprintf("%g", val.Float64())
	case *ConstantNull:
		return "null"
	case *ConstantString:
		return fmt.Sprintf("%q", string(val.Bytes))
	case *BlockAddress:
		return "&" + val.Block.Name()
	case *Global:
		return "@" + val.Name
	case *Function:
		return "@" + val.Name
	case *Argument:
		return fmt.Sprintf("arg%d", val.Index)
	case *Local:
		return "%" + val.Name
	case *Instruction:
		return fmt.Sprintf("%%%d", val.ResultID)
	case *BasicBlock:
		return val.Name()
	case *PhiOperand:
		return printValue(val.Incoming())
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
