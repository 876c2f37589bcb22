package siir

import "fmt"

// TypeKind discriminates the variants of Type.
type TypeKind uint8

const (
	TypeKindInteger TypeKind = iota
	TypeKindFloat
	TypeKindPointer
	TypeKindArray
	TypeKindStruct
	TypeKindFunction
)

// Type is a value interned by a CFG's type pool. Reference equality implies
// semantic equality: two calls that describe the same type return the same
// *IntegerType, *FloatType, and so on.
type Type interface {
	Kind() TypeKind
	String() string

	// unexported to keep Type a closed sum over this package's variants.
	isType()
}

// IntegerType is an integer of the given bit width. Width is one of
// 1, 8, 16, 32, 64. Signedness is not part of the type; it is selected by
// the opcode of the instruction that consumes or produces the value.
type IntegerType struct {
	Width uint8
}

func (*IntegerType) Kind() TypeKind { return TypeKindInteger }
func (t *IntegerType) String() string {
	return fmt.Sprintf("i%d", t.Width)
}
func (*IntegerType) isType() {}

// FloatType is an IEEE-754 float of the given bit width: 32 or 64.
type FloatType struct {
	Width uint8
}

func (*FloatType) Kind() TypeKind { return TypeKindFloat }
func (t *FloatType) String() string {
	return fmt.Sprintf("f%d", t.Width)
}
func (*FloatType) isType() {}

// PointerType is an opaque pointer to Pointee. Pointers are always
// target-pointer-sized regardless of the pointee.
type PointerType struct {
	Pointee Type
}

func (*PointerType) Kind() TypeKind { return TypeKindPointer }
func (t *PointerType) String() string {
	return t.Pointee.String() + "*"
}
func (*PointerType) isType() {}

// ArrayType is a fixed-length homogeneous sequence of Element.
type ArrayType struct {
	Element Type
	Count   uint64
}

func (*ArrayType) Kind() TypeKind { return TypeKindArray }
func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Count, t.Element.String())
}
func (*ArrayType) isType() {}

// StructType is identified by name; its fields are created after the shell
// type itself, since struct definitions may be mutually or self-referential
// through pointers.
type StructType struct {
	Name     string
	Fields   []Type
	complete bool
}

func (*StructType) Kind() TypeKind { return TypeKindStruct }
func (t *StructType) String() string {
	return "%" + t.Name
}
func (*StructType) isType() {}

// Complete reports whether SetFields has been called on this struct shell.
func (t *StructType) Complete() bool { return t.complete }

// SetFields populates a forward-declared struct shell with its field types.
// It may only be called once per struct.
func (t *StructType) SetFields(fields []Type) {
	if t.complete {
		panic("statim: invariant violated: struct type " + t.Name + " already has fields")
	}
	t.Fields = fields
	t.complete = true
}

// FunctionType is the signature of a callable: an ordered parameter list and
// an optional return type (nil means void).
type FunctionType struct {
	Params []Type
	Ret    Type
}

func (*FunctionType) Kind() TypeKind { return TypeKindFunction }
func (t *FunctionType) String() string {
	s := "("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	s += ") -> "
	if t.Ret == nil {
		s += "void"
	} else {
		s += t.Ret.String()
	}
	return s
}
func (*FunctionType) isType() {}

// IsInteger reports whether ty is an *IntegerType.
func IsInteger(ty Type) bool { _, ok := ty.(*IntegerType); return ok }

// IsFloat reports whether ty is a *FloatType.
func IsFloat(ty Type) bool { _, ok := ty.(*FloatType); return ok }

// IsPointer reports whether ty is a *PointerType.
func IsPointer(ty Type) bool { _, ok := ty.(*PointerType); return ok }

// arrayKey and structKey are only used as map keys for interning; they are
// not exported types.
type arrayKey struct {
	elem  Type
	count uint64
}
