package amd64

import (
	"fmt"
	"sort"

	"github.com/nwmarino/statim/internal/mir"
)

// active is a live interval currently occupying a physical register during
// the linear scan below.
type active struct {
	interval LiveInterval
	phys     Register
}

// Allocate runs linear-scan register allocation over mf: every virtual
// register gets a fixed physical register for its entire live range. There
// is no spilling; a program whose simultaneous live range count exceeds the
// candidate pool for a class is rejected outright, matching the reference
// allocator this is grounded on.
func Allocate(mf *mir.MachineFunction) {
	intervals := ComputeLiveness(mf)
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })

	var gpActive, fpActive []active
	gpFree := freePool(GeneralPurposeRegisters)
	fpFree := freePool(FloatRegisters)

	for _, iv := range intervals {
		info := mf.Regs.Info(uint32(iv.Reg))
		if info == nil {
			continue
		}

		var active_ *[]active
		var free *[]Register
		if info.Class == mir.FloatingPoint {
			active_, free = &fpActive, &fpFree
		} else {
			active_, free = &gpActive, &gpFree
		}

		expireOld(active_, free, iv.Start)

		if len(*free) == 0 {
			panic(fmt.Sprintf("statim: register allocation failed: spilling not implemented (class=%v, vreg=%d)", info.Class, iv.Reg.ID()))
		}

		phys := (*free)[len(*free)-1]
		*free = (*free)[:len(*free)-1]
		info.Alloc = AsMachineReg(phys)

		*active_ = append(*active_, active{interval: iv, phys: phys})
		sort.Slice(*active_, func(i, j int) bool { return (*active_)[i].interval.End < (*active_)[j].interval.End })
	}

	rewriteOperands(mf)
}

func freePool(regs []Register) []Register {
	// Reverse so the preference-ordered list (cheapest-to-use first) is
	// popped from the back in its intended order.
	pool := make([]Register, len(regs))
	for i, r := range regs {
		pool[len(regs)-1-i] = r
	}
	return pool
}

// expireOld returns to free every active interval whose end precedes start,
// i.e. intervals no longer live by the time the new one begins.
func expireOld(active_ *[]active, free *[]Register, start int) {
	kept := (*active_)[:0]
	for _, a := range *active_ {
		if a.interval.End < start {
			*free = append(*free, a.phys)
			continue
		}
		kept = append(kept, a)
	}
	*active_ = kept
}

// rewriteOperands replaces every virtual register operand across mf with
// the physical register the allocator assigned it.
func rewriteOperands(mf *mir.MachineFunction) {
	for b := mf.Front(); b != nil; b = b.Next() {
		for inst := b.Front(); inst != nil; inst = inst.Next() {
			ops := inst.Operands()
			for i, o := range ops {
				if !o.IsReg() || !o.Reg().IsVirtual() {
					continue
				}
				info := mf.Regs.Info(uint32(o.Reg()))
				if info == nil || !info.Alloc.Valid() {
					panic("statim: invariant violated: virtual register never allocated")
				}
				o.SetReg(info.Alloc)
				inst.SetOperand(i, o)
			}
		}
	}
}
