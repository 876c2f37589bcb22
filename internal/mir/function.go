package mir

import "github.com/nwmarino/statim/internal/siir"

// StackEntry reserves space on a function's stack frame, either for a
// promoted-away-from local that the selector re-spilled, or for a register
// the allocator could not keep live (not used by this backend, which never
// spills, but kept for the frame layout the prologue/epilogue emit).
type StackEntry struct {
	Offset int32
	Size   uint32
	Align  uint32
	Local  *siir.Local
}

// StackInfo is the accumulated stack-frame layout of a MachineFunction.
type StackInfo struct {
	Entries []StackEntry
}

func (s *StackInfo) NumEntries() int { return len(s.Entries) }

// Size returns the stack size in bytes, without outer alignment.
func (s *StackInfo) Size() uint32 {
	if len(s.Entries) == 0 {
		return 0
	}
	last := s.Entries[len(s.Entries)-1]
	return uint32(last.Offset) + last.Size
}

// Alignment returns the SystemV-required 16-byte-rounded frame alignment
// given the entries reserved so far.
func (s *StackInfo) Alignment() uint32 {
	var maxAlign uint32 = 1
	for _, e := range s.Entries {
		if e.Align > maxAlign {
			maxAlign = e.Align
		}
	}
	size := s.Size()
	for maxAlign < size {
		maxAlign += 16
	}
	if maxAlign%16 != 0 {
		maxAlign += 16 - maxAlign%16
	}
	return maxAlign
}

// Reserve appends a new stack entry sized/aligned for local (nil for an
// allocator-internal slot) and returns its offset.
func (s *StackInfo) Reserve(size, align uint32, local *siir.Local) int32 {
	offset := int32(alignUp32(s.Size(), align))
	s.Entries = append(s.Entries, StackEntry{Offset: offset, Size: size, Align: align, Local: local})
	return offset
}

func alignUp32(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// RegisterInfo tracks per-virtual-register allocation metadata.
type RegisterInfo struct {
	VRegs map[uint32]*VRegInfo
}

func newRegisterInfo() RegisterInfo {
	return RegisterInfo{VRegs: make(map[uint32]*VRegInfo)}
}

// Declare registers a fresh virtual register of the given class.
func (ri *RegisterInfo) Declare(id uint32, cls RegisterClass) {
	ri.VRegs[id] = &VRegInfo{Class: cls}
}

func (ri *RegisterInfo) Info(id uint32) *VRegInfo { return ri.VRegs[id] }

// ConstantPoolEntry is a constant referenced by a function's code and
// emitted to a read-only data section under a synthetic label.
type ConstantPoolEntry struct {
	Constant siir.Constant
	Align    uint32
}

// ConstantPool deduplicates per-function constant-pool entries.
type ConstantPool struct {
	Entries []ConstantPoolEntry
}

func (cp *ConstantPool) NumEntries() int { return len(cp.Entries) }

// GetOrCreate returns the index of an existing entry for (constant, align),
// or appends and returns a new one.
func (cp *ConstantPool) GetOrCreate(constant siir.Constant, align uint32) uint32 {
	for i, e := range cp.Entries {
		if e.Constant == constant && e.Align == align {
			return uint32(i)
		}
	}
	idx := uint32(len(cp.Entries))
	cp.Entries = append(cp.Entries, ConstantPoolEntry{Constant: constant, Align: align})
	return idx
}

// MachineFunction is the target-dependent counterpart of a siir.Function:
// a doubly linked list of MachineBlocks, plus the stack, register, and
// constant-pool bookkeeping the allocator and assembly emitter need.
type MachineFunction struct {
	Fn *siir.Function

	Stack    StackInfo
	Regs     RegisterInfo
	Pool     ConstantPool

	front, back *MachineBlock
	nextBlockNum int
	nextVReg     uint32
}

// NewMachineFunction creates an empty MachineFunction derived from fn.
func NewMachineFunction(fn *siir.Function) *MachineFunction {
	return &MachineFunction{Fn: fn, Regs: newRegisterInfo()}
}

// Name returns the SIIR function name this machine function derives from.
func (mf *MachineFunction) Name() string { return mf.Fn.Name }

func (mf *MachineFunction) Front() *MachineBlock { return mf.front }
func (mf *MachineFunction) Back() *MachineBlock  { return mf.back }

func (mf *MachineFunction) Empty() bool { return mf.front == nil }

// Append creates and appends a new, empty MachineBlock.
func (mf *MachineFunction) Append() *MachineBlock {
	blk := newMachineBlock(mf.nextBlockNum)
	mf.nextBlockNum++
	blk.parent = mf
	if mf.back != nil {
		mf.back.next = blk
		blk.prev = mf.back
	} else {
		mf.front = blk
	}
	mf.back = blk
	return blk
}

// NewVReg mints a fresh virtual register of the given class.
func (mf *MachineFunction) NewVReg(cls RegisterClass) Register {
	id := mf.nextVReg
	mf.nextVReg++
	reg := VirtualBarrier + Register(id)
	mf.Regs.Declare(uint32(reg), cls)
	return reg
}
