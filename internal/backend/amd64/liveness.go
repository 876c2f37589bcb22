package amd64

import (
	"sort"

	"github.com/nwmarino/statim/internal/mir"
)

// LiveInterval is the live range of a single virtual register across a
// whole function, expressed as a span of global instruction positions
// (assigned in block-append/front-to-back order by numberInstructions).
// This backend never spills, so one contiguous interval per vreg is enough:
// the conservative union computed by ComputeLiveness always covers the
// vreg's true (possibly smaller, hole-having) live range.
type LiveInterval struct {
	Reg        mir.Register
	Start, End int
}

// blockRange is the [first, last] global position of a block's instructions.
type blockRange struct {
	first, last int
}

// numberInstructions assigns every instruction in mf a position, increasing
// by block-append order and then front-to-back within each block.
func numberInstructions(mf *mir.MachineFunction) (map[*mir.MachineInst]int, map[*mir.MachineBlock]blockRange, []*mir.MachineBlock) {
	pos := make(map[*mir.MachineInst]int)
	ranges := make(map[*mir.MachineBlock]blockRange)
	var order []*mir.MachineBlock

	n := 0
	for b := mf.Front(); b != nil; b = b.Next() {
		order = append(order, b)
		first := n
		for inst := b.Front(); inst != nil; inst = inst.Next() {
			pos[inst] = n
			n++
		}
		last := n - 1
		if b.Front() == nil {
			last = first
		}
		ranges[b] = blockRange{first: first, last: last}
	}
	return pos, ranges, order
}

// successors returns every MachineBlock a block's terminator(s) can transfer
// control to. MachineBlock carries no predecessor/successor lists of its
// own (see block.go); control flow is read back out of the Block-kind
// operands the selector left on Jcc/JMP instructions.
func successors(b *mir.MachineBlock) []*mir.MachineBlock {
	var succs []*mir.MachineBlock
	for inst := b.Front(); inst != nil; inst = inst.Next() {
		for _, o := range inst.Operands() {
			if o.IsBlock() {
				succs = append(succs, o.MBB())
			}
		}
	}
	return succs
}

// instDefsUses returns the virtual registers an instruction defines and
// uses, folding in the two-address destructive idiom: a destructive
// opcode's explicit def operand is also a use of its own incoming value,
// even though mir.Operand only carries one isDef flag per slot.
func instDefsUses(mi *mir.MachineInst) (defs, uses []mir.Register) {
	mi.AllDefs(func(_ int, o mir.Operand) {
		if o.Reg().IsVirtual() {
			defs = append(defs, o.Reg())
		}
	})
	mi.AllUses(func(_ int, o mir.Operand) {
		if o.Reg().IsVirtual() {
			uses = append(uses, o.Reg())
		}
	})

	if Opcode(mi.Opcode).IsDestructive() {
		ops := mi.Operands()
		for i := len(ops) - 1; i >= 0; i-- {
			o := ops[i]
			if o.IsReg() && o.IsExplicitDef() && o.Reg().IsVirtual() {
				uses = append(uses, o.Reg())
				break
			}
		}
	}
	return
}

type regSet map[mir.Register]bool

func (s regSet) clone() regSet {
	c := make(regSet, len(s))
	for r := range s {
		c[r] = true
	}
	return c
}

func (s regSet) equal(o regSet) bool {
	if len(s) != len(o) {
		return false
	}
	for r := range s {
		if !o[r] {
			return false
		}
	}
	return true
}

// ComputeLiveness runs standard iterative backward dataflow over mf's
// blocks (live-out = union of successors' live-in; live-in = locally used
// registers plus whatever live-out isn't locally killed first) and folds
// the result into one interval per virtual register, extended to cover
// every block the register is live into or out of.
func ComputeLiveness(mf *mir.MachineFunction) []LiveInterval {
	pos, ranges, order := numberInstructions(mf)

	localUse := make(map[*mir.MachineBlock]regSet)
	localDef := make(map[*mir.MachineBlock]regSet)
	liveIn := make(map[*mir.MachineBlock]regSet)
	liveOut := make(map[*mir.MachineBlock]regSet)
	succs := make(map[*mir.MachineBlock][]*mir.MachineBlock)

	for _, b := range order {
		use := make(regSet)
		def := make(regSet)
		for inst := b.Front(); inst != nil; inst = inst.Next() {
			defs, uses := instDefsUses(inst)
			for _, r := range uses {
				if !def[r] {
					use[r] = true
				}
			}
			for _, r := range defs {
				def[r] = true
			}
		}
		localUse[b] = use
		localDef[b] = def
		liveIn[b] = make(regSet)
		liveOut[b] = make(regSet)
		succs[b] = successors(b)
	}

	changed := true
	for changed {
		changed = false
		for i := len(order) - 1; i >= 0; i-- {
			b := order[i]
			out := make(regSet)
			for _, s := range succs[b] {
				for r := range liveIn[s] {
					out[r] = true
				}
			}
			in := out.clone()
			for r := range localDef[b] {
				delete(in, r)
			}
			for r := range localUse[b] {
				in[r] = true
			}
			if !in.equal(liveIn[b]) || !out.equal(liveOut[b]) {
				changed = true
			}
			liveIn[b] = in
			liveOut[b] = out
		}
	}

	bounds := make(map[mir.Register]*LiveInterval)
	extend := func(r mir.Register, at int) {
		if iv, ok := bounds[r]; ok {
			if at < iv.Start {
				iv.Start = at
			}
			if at > iv.End {
				iv.End = at
			}
			return
		}
		bounds[r] = &LiveInterval{Reg: r, Start: at, End: at}
	}

	for _, b := range order {
		br := ranges[b]
		for r := range liveIn[b] {
			extend(r, br.first)
		}
		for r := range liveOut[b] {
			extend(r, br.last)
		}
		for inst := b.Front(); inst != nil; inst = inst.Next() {
			p := pos[inst]
			defs, uses := instDefsUses(inst)
			for _, r := range defs {
				extend(r, p)
			}
			for _, r := range uses {
				extend(r, p)
			}
		}
	}

	intervals := make([]LiveInterval, 0, len(bounds))
	for _, iv := range bounds {
		intervals = append(intervals, *iv)
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].Reg < intervals[j].Reg
	})
	return intervals
}
