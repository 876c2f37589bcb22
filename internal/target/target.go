// Package target describes the compilation target: architecture, ABI, OS,
// and the type layout rules (size, alignment, struct field offsets) that
// the instruction selector and register allocator need.
//
// Only one target is modeled: x86-64 Linux SystemV. The type is still
// exposed as a value rather than a set of package-level constants so that
// every consumer takes it explicitly, per the "no process-wide globals"
// guidance that runs through this backend.
package target

// Arch enumerates recognized target architectures.
type Arch uint8

const (
	ArchX86_64 Arch = iota
)

// ABI enumerates recognized calling conventions.
type ABI uint8

const (
	ABISystemV ABI = iota
)

// OS enumerates recognized target operating systems.
type OS uint8

const (
	OSLinux OS = iota
)

// Type is the minimal type-shape the target layout routines need,
// satisfied by *siir.IntegerType, *siir.FloatType, etc., so that target
// never imports the siir package (siir imports target), avoiding an
// import cycle.
type Type interface {
	// LayoutKind returns one of the LayoutKind constants below.
	LayoutKind() LayoutKind
	// IntegerWidth is valid when LayoutKind is LayoutInteger.
	IntegerWidth() uint8
	// FloatWidth is valid when LayoutKind is LayoutFloat.
	FloatWidth() uint8
	// ArrayElem/ArrayCount are valid when LayoutKind is LayoutArray.
	ArrayElem() Type
	ArrayCount() uint64
	// StructFields is valid when LayoutKind is LayoutStruct.
	StructFields() []Type
}

// LayoutKind mirrors siir.TypeKind closely enough for layout purposes.
type LayoutKind uint8

const (
	LayoutInteger LayoutKind = iota
	LayoutFloat
	LayoutPointer
	LayoutArray
	LayoutStruct
	LayoutFunction
)

// Target records the fixed architecture/ABI/OS triple and exposes the size,
// alignment, and struct-layout queries the rest of the backend needs.
//
// The only supported target is x86-64 Linux SystemV; the struct still
// carries the triple explicitly (rather than being a singleton) so it can
// be threaded through function signatures instead of read from a global.
type Target struct {
	Arch Arch
	ABI  ABI
	OS   OS
}

// X86_64Linux returns the (and, for this backend, only) supported Target.
func X86_64Linux() Target {
	return Target{Arch: ArchX86_64, ABI: ABISystemV, OS: OSLinux}
}

// PointerSize is the size in bytes of a pointer on this target.
const PointerSize = 8

// SizeOf returns the size in bytes of ty. Integer widths round up to the
// next whole byte (an i1 occupies 1 byte of storage).
func (t Target) SizeOf(ty Type) uint64 {
	switch ty.LayoutKind() {
	case LayoutInteger:
		return (uint64(ty.IntegerWidth()) + 7) / 8
	case LayoutFloat:
		return uint64(ty.FloatWidth()) / 8
	case LayoutPointer, LayoutFunction:
		return PointerSize
	case LayoutArray:
		return t.SizeOf(ty.ArrayElem()) * ty.ArrayCount()
	case LayoutStruct:
		var size uint64
		for _, f := range ty.StructFields() {
			align := t.AlignOf(f)
			size = alignUp(size, align)
			size += t.SizeOf(f)
		}
		return alignUp(size, t.AlignOf(ty))
	default:
		panic("statim: invariant violated: unrecognized type layout kind")
	}
}

// SizeOfInBits returns SizeOf in bits.
func (t Target) SizeOfInBits(ty Type) uint64 {
	return t.SizeOf(ty) * 8
}

// AlignOf returns the natural alignment in bytes of ty.
func (t Target) AlignOf(ty Type) uint64 {
	switch ty.LayoutKind() {
	case LayoutInteger:
		sz := (uint64(ty.IntegerWidth()) + 7) / 8
		if sz == 0 {
			sz = 1
		}
		return sz
	case LayoutFloat:
		return uint64(ty.FloatWidth()) / 8
	case LayoutPointer, LayoutFunction:
		return PointerSize
	case LayoutArray:
		return t.AlignOf(ty.ArrayElem())
	case LayoutStruct:
		var max uint64 = 1
		for _, f := range ty.StructFields() {
			if a := t.AlignOf(f); a > max {
				max = a
			}
		}
		return max
	default:
		panic("statim: invariant violated: unrecognized type layout kind")
	}
}

// FieldOffset returns the byte offset of field index within struct type ty,
// accumulating rounded-up sizes according to each preceding field's
// alignment.
func (t Target) FieldOffset(ty Type, index int) uint64 {
	if ty.LayoutKind() != LayoutStruct {
		panic("statim: invariant violated: FieldOffset requires a struct type")
	}
	fields := ty.StructFields()
	if index < 0 || index >= len(fields) {
		panic("statim: invariant violated: struct field index out of range")
	}

	var offset uint64
	for i := 0; i < index; i++ {
		offset = alignUp(offset, t.AlignOf(fields[i]))
		offset += t.SizeOf(fields[i])
	}
	return alignUp(offset, t.AlignOf(fields[index]))
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
