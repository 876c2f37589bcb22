package amd64

import (
	"fmt"

	"github.com/nwmarino/statim/internal/mir"
)

// Register enumerates the x86-64 physical registers this backend knows
// about. Values are assigned starting at 1 so that mir.Register(0) keeps
// meaning "no register"; a Register here is stored in a mir.Operand by
// converting with AsMachineReg.
type Register uint32

const (
	noReg Register = iota

	RAX
	RBX
	RCX
	RDX
	RDI
	RSI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	RSP
	RBP
	XMM0
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15

	registerCount
)

// AsMachineReg converts a physical Register to the mir.Register namespace.
func AsMachineReg(r Register) mir.Register { return mir.Register(r) }

// FromMachineReg recovers the physical Register from a mir.Register that
// is known to be physical (panics otherwise).
func FromMachineReg(r mir.Register) Register {
	if !r.IsPhysical() {
		panic("statim: invariant violated: FromMachineReg on a non-physical register")
	}
	return Register(r.ID())
}

// GeneralPurposeRegisters lists the integer registers available to the
// allocator, in assignment preference order: caller-saved scratch
// registers first (cheapest to use, since they need no frame-wide save),
// then callee-saved ones. R11 is withheld from this pool; the selector
// reserves it as ScratchGP for phi-copy cycle breaking and other
// transient needs that arise after allocation has already run.
var GeneralPurposeRegisters = []Register{
	RAX, RCX, RDX, RSI, RDI, R8, R9, R10,
	RBX, R12, R13, R14, R15,
}

// FloatRegisters lists the available XMM registers in assignment order.
// XMM15 is withheld as ScratchFP, for the same reason R11 is withheld from
// GeneralPurposeRegisters.
var FloatRegisters = []Register{
	XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7,
	XMM8, XMM9, XMM10, XMM11, XMM12, XMM13, XMM14,
}

// ScratchGP and ScratchFP are reserved outside the allocator's pools so the
// instruction selector always has a spare register of each class to break
// parallel-copy cycles when resolving phis, without disturbing a range the
// allocator has already assigned.
const ScratchGP = R11
const ScratchFP = XMM15

// ArgumentRegisters lists the SystemV integer argument-passing registers
// in order.
var ArgumentRegisters = []Register{RDI, RSI, RDX, RCX, R8, R9}

// FloatArgumentRegisters lists the SystemV float argument-passing
// registers in order.
var FloatArgumentRegisters = []Register{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}

// ReturnRegister and FloatReturnRegister are SystemV's integer/float
// return-value registers.
const ReturnRegister = RAX

var FloatReturnRegister = XMM0

func (r Register) Class() mir.RegisterClass {
	if r >= XMM0 && r <= XMM15 {
		return mir.FloatingPoint
	}
	return mir.GeneralPurpose
}

// IsCalleeSaved reports whether r must be saved/restored by a function
// that clobbers it, per the SystemV AMD64 ABI.
func (r Register) IsCalleeSaved() bool {
	switch r {
	case RBX, RBP, RSP, R12, R13, R14, R15:
		return true
	default:
		return false
	}
}

// IsCallerSaved is the complement of IsCalleeSaved among general-purpose
// and floating-point registers.
func (r Register) IsCallerSaved() bool {
	return !r.IsCalleeSaved()
}

var registerNames64 = [registerCount]string{
	RAX: "rax", RBX: "rbx", RCX: "rcx", RDX: "rdx", RDI: "rdi", RSI: "rsi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11", R12: "r12", R13: "r13",
	R14: "r14", R15: "r15", RSP: "rsp", RBP: "rbp",
	XMM0: "xmm0", XMM1: "xmm1", XMM2: "xmm2", XMM3: "xmm3",
	XMM4: "xmm4", XMM5: "xmm5", XMM6: "xmm6", XMM7: "xmm7",
	XMM8: "xmm8", XMM9: "xmm9", XMM10: "xmm10", XMM11: "xmm11",
	XMM12: "xmm12", XMM13: "xmm13", XMM14: "xmm14", XMM15: "xmm15",
}

var registerNames32 = [registerCount]string{
	RAX: "eax", RBX: "ebx", RCX: "ecx", RDX: "edx", RDI: "edi", RSI: "esi",
	R8: "r8d", R9: "r9d", R10: "r10d", R11: "r11d", R12: "r12d", R13: "r13d",
	R14: "r14d", R15: "r15d", RSP: "esp", RBP: "ebp",
}

var registerNames16 = [registerCount]string{
	RAX: "ax", RBX: "bx", RCX: "cx", RDX: "dx", RDI: "di", RSI: "si",
	R8: "r8w", R9: "r9w", R10: "r10w", R11: "r11w", R12: "r12w", R13: "r13w",
	R14: "r14w", R15: "r15w", RSP: "sp", RBP: "bp",
}

var registerNames8 = [registerCount]string{
	RAX: "al", RBX: "bl", RCX: "cl", RDX: "dl", RDI: "dil", RSI: "sil",
	R8: "r8b", R9: "r9b", R10: "r10b", R11: "r11b", R12: "r12b", R13: "r13b",
	R14: "r14b", R15: "r15b", RSP: "spl", RBP: "bpl",
}

// String renders r under its 64-bit name (StringAt(8)).
func (r Register) String() string {
	return r.StringAt(8)
}

// StringAt renders the AT&T register name of r at a given byte width,
// e.g. StringAt(4) on RAX yields "eax". Widths other than 1, 2 and 4
// (including 0) give the 64-bit name; the width is ignored for XMM
// registers, which have one name.
func (r Register) StringAt(width uint8) string {
	if r >= XMM0 && r <= XMM15 {
		return registerNames64[r]
	}
	switch width {
	case 1:
		return registerNames8[r]
	case 2:
		return registerNames16[r]
	case 4:
		return registerNames32[r]
	default:
		if name := registerNames64[r]; name != "" {
			return name
		}
		return fmt.Sprintf("reg(%d)", r)
	}
}
