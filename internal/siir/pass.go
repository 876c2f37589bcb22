package siir

// Pass transforms or analyzes every function of a CFG in place.
type Pass interface {
	Name() string
	Run(cfg *CFG)
}

// RunPasses runs each pass over cfg in order.
func RunPasses(cfg *CFG, passes ...Pass) {
	for _, p := range passes {
		p.Run(cfg)
	}
}

// DeadCodeElimination repeatedly removes side-effect-free instructions with
// zero uses until a fixed point is reached. Removing one dead instruction
// can make its operands dead in turn (e.g. an iadd whose only consumer was
// itself unused), so the pass iterates rather than making a single pass
// over each block.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string { return "dce" }

func (DeadCodeElimination) Run(cfg *CFG) {
	for _, fn := range cfg.functions {
		runDCE(fn)
	}
}

func runDCE(fn *Function) {
	for {
		changed := false
		for blk := fn.Front(); blk != nil; blk = blk.Next() {
			for inst := blk.Front(); inst != nil; {
				next := inst.Next()
				if !inst.Opcode.HasSideEffects() && !inst.Used() {
					removeOperandUses(inst)
					inst.detachFromParent()
					changed = true
				}
				inst = next
			}
		}
		if !changed {
			return
		}
	}
}

// removeOperandUses severs every def-use edge an instruction holds on its
// own operands before it is discarded, so its operands' use counts reflect
// its removal immediately.
func removeOperandUses(inst *Instruction) {
	for _, u := range inst.Operands() {
		u.set(nil)
	}
}
