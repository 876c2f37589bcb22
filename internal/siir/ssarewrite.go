package siir

// SSAConstruction promotes every promotable stack Local of a function to
// pure SSA values, inserting phi instructions where control flow merges
// multiple definitions. A Local is promotable iff every recorded use is the
// pointer operand of a direct load or store; a Local with any other use
// (its address taken into a call, an access-ptr base, etc.) is left on the
// stack untouched.
//
// The construction follows Braun, Buchwald, Hack, Leißa, Mallon, and
// Zwinkau's "Simple and Efficient Construction of Static Single Assignment
// Form": reading a Local's value in a block whose predecessor set is not
// yet fully known inserts an incomplete phi there, and that phi is
// completed once the block is sealed (every predecessor processed). Trivial phis
// (every operand the same value, or a self-reference) are removed as soon
// as they are discovered, recursively applied to their users.
type SSAConstruction struct{}

func (SSAConstruction) Name() string { return "mem2reg" }

func (SSAConstruction) Run(cfg *CFG) {
	for _, fn := range cfg.functions {
		if fn.External {
			continue
		}
		runSSAConstruction(cfg, fn)
	}
}

func runSSAConstruction(cfg *CFG, fn *Function) {
	rpo := computeRPO(fn)

	var locals []*Local
	for _, l := range fn.Locals() {
		locals = append(locals, l)
	}

	for _, local := range locals {
		if !isPromotable(local) {
			continue
		}
		promoteLocal(cfg, local, rpo)
		fn.RemoveLocal(local)
	}
}

// computeRPO returns the function's blocks in reverse postorder, computed
// by a depth-first walk from the entry block.
func computeRPO(fn *Function) []*BasicBlock {
	entry := fn.Front()
	if entry == nil {
		return nil
	}

	visited := make(map[*BasicBlock]bool)
	var postorder []*BasicBlock

	var visit func(blk *BasicBlock)
	visit = func(blk *BasicBlock) {
		if visited[blk] {
			return
		}
		visited[blk] = true
		for _, succ := range blk.Succs() {
			visit(succ)
		}
		postorder = append(postorder, blk)
	}
	visit(entry)

	rpo := make([]*BasicBlock, len(postorder))
	for i, blk := range postorder {
		rpo[len(postorder)-1-i] = blk
	}
	return rpo
}

// isPromotable reports whether every use of local is the pointer operand of
// a direct OpLoad or the pointer operand (index 1) of a direct OpStore.
func isPromotable(local *Local) bool {
	for _, u := range local.Uses() {
		inst, ok := u.User().(*Instruction)
		if !ok {
			return false
		}
		switch {
		case inst.IsLoad() && u.Index() == 0:
		case inst.IsStore() && u.Index() == 1:
		default:
			return false
		}
	}
	return true
}

// zeroValue returns the zero-valued constant of ty, used as the value read
// from a Local along a path with no reaching definition (e.g. a load of an
// uninitialized local in the entry block). This backend gives such a read
// deterministic semantics rather than leaving it undefined.
func zeroValue(cfg *CFG, ty Type) Value {
	switch t := ty.(type) {
	case *IntegerType:
		return cfg.ConstInt(t, 0)
	case *FloatType:
		return cfg.ConstFP(t, 0)
	case *PointerType:
		return cfg.ConstNull(t)
	default:
		panic("statim: invariant violated: local of non-scalar type is not promotable")
	}
}

// promoteLocal rewrites every load/store of local into pure SSA values
// using readVariable/writeVariable over local definitions per block,
// sealing blocks as their predecessor set is fully filled.
func promoteLocal(cfg *CFG, local *Local, rpo []*BasicBlock) {
	defs := make(map[*BasicBlock]Value)
	sealed := make(map[*BasicBlock]bool)
	incomplete := make(map[*BasicBlock]*Instruction)
	filled := make(map[*BasicBlock]int)

	var readVariable func(blk *BasicBlock) Value
	var readVariableRecursive func(blk *BasicBlock) Value
	var addPhiOperands func(phi *Instruction, blk *BasicBlock) Value
	var tryRemoveTrivialPhi func(phi *Instruction) Value
	var sealBlock func(blk *BasicBlock)

	readVariable = func(blk *BasicBlock) Value {
		if v, ok := defs[blk]; ok {
			return v
		}
		return readVariableRecursive(blk)
	}

	readVariableRecursive = func(blk *BasicBlock) Value {
		var val Value
		switch {
		case !sealed[blk]:
			b := NewBuilder(cfg)
			b.SetInsertBlock(blk)
			b.SetInsertMode(Prepend)
			phi := b.BuildPhi(local.AllocatedType)
			incomplete[blk] = phi
			val = phi
		case len(blk.Preds()) == 0:
			val = zeroValue(cfg, local.AllocatedType)
		case len(blk.Preds()) == 1:
			val = readVariable(blk.Preds()[0])
		default:
			b := NewBuilder(cfg)
			b.SetInsertBlock(blk)
			b.SetInsertMode(Prepend)
			phi := b.BuildPhi(local.AllocatedType)
			defs[blk] = phi
			val = addPhiOperands(phi, blk)
		}
		defs[blk] = val
		return val
	}

	addPhiOperands = func(phi *Instruction, blk *BasicBlock) Value {
		for _, pred := range blk.Preds() {
			phi.AddIncoming(readVariable(pred), pred)
		}
		return tryRemoveTrivialPhi(phi)
	}

	tryRemoveTrivialPhi = func(phi *Instruction) Value {
		var same Value
		for _, u := range phi.Operands() {
			incoming := u.Value().(*PhiOperand).Incoming()
			if incoming == phi || incoming == same {
				continue
			}
			if same != nil {
				return phi // genuinely merges two distinct values; keep it
			}
			same = incoming
		}
		if same == nil {
			same = zeroValue(cfg, phi.Type())
		}

		users := phi.Uses()
		phi.ReplaceAllUsesWith(same)
		for _, op := range phi.Operands() {
			op.Value().(*PhiOperand).SetOperand(0, nil)
		}
		phi.detachFromParent()

		for blk, def := range defs {
			if def == Value(phi) {
				defs[blk] = same
			}
		}

		// A phi can be used either directly by another instruction, or
		// indirectly as the incoming value wrapped by another phi's
		// PhiOperand; walk both shapes to find the owning phi instruction
		// to retry for triviality.
		for _, u := range users {
			switch owner := u.User().(type) {
			case *Instruction:
				if owner.IsPhi() && owner != phi {
					tryRemoveTrivialPhi(owner)
				}
			case *PhiOperand:
				for _, pu := range owner.Uses() {
					if otherPhi, ok := pu.User().(*Instruction); ok && otherPhi.IsPhi() && otherPhi != phi {
						tryRemoveTrivialPhi(otherPhi)
					}
				}
			}
		}
		return same
	}

	sealBlock = func(blk *BasicBlock) {
		if phi, ok := incomplete[blk]; ok {
			addPhiOperands(phi, blk)
			delete(incomplete, blk)
		}
		sealed[blk] = true
	}

	for _, blk := range rpo {
		if len(blk.Preds()) == 0 {
			sealBlock(blk)
		}
	}

	for _, blk := range rpo {
		for inst := blk.Front(); inst != nil; {
			next := inst.Next()
			switch {
			case inst.IsStore() && inst.Operand(1) == Value(local):
				defs[blk] = inst.Operand(0)
				removeOperandUses(inst)
				inst.detachFromParent()
			case inst.IsLoad() && inst.Operand(0) == Value(local):
				inst.ReplaceAllUsesWith(readVariable(blk))
				removeOperandUses(inst)
				inst.detachFromParent()
			}
			inst = next
		}

		for _, succ := range blk.Succs() {
			if sealed[succ] {
				continue
			}
			filled[succ]++
			if filled[succ] == len(succ.Preds()) {
				sealBlock(succ)
			}
		}
	}
}
