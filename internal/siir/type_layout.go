package siir

import "github.com/nwmarino/statim/internal/target"

// The methods below let every Type variant satisfy target.Type, so the
// Target's size/alignment/offset queries can run directly over this
// package's types without target importing siir (which would cycle, since
// siir needs target.Target on CFG).

func (t *IntegerType) LayoutKind() target.LayoutKind  { return target.LayoutInteger }
func (t *IntegerType) IntegerWidth() uint8            { return t.Width }
func (t *IntegerType) FloatWidth() uint8              { return 0 }
func (t *IntegerType) ArrayElem() target.Type         { return nil }
func (t *IntegerType) ArrayCount() uint64             { return 0 }
func (t *IntegerType) StructFields() []target.Type    { return nil }

func (t *FloatType) LayoutKind() target.LayoutKind  { return target.LayoutFloat }
func (t *FloatType) IntegerWidth() uint8            { return 0 }
func (t *FloatType) FloatWidth() uint8              { return t.Width }
func (t *FloatType) ArrayElem() target.Type         { return nil }
func (t *FloatType) ArrayCount() uint64             { return 0 }
func (t *FloatType) StructFields() []target.Type    { return nil }

func (t *PointerType) LayoutKind() target.LayoutKind  { return target.LayoutPointer }
func (t *PointerType) IntegerWidth() uint8            { return 0 }
func (t *PointerType) FloatWidth() uint8              { return 0 }
func (t *PointerType) ArrayElem() target.Type         { return nil }
func (t *PointerType) ArrayCount() uint64             { return 0 }
func (t *PointerType) StructFields() []target.Type    { return nil }

func (t *ArrayType) LayoutKind() target.LayoutKind { return target.LayoutArray }
func (t *ArrayType) IntegerWidth() uint8           { return 0 }
func (t *ArrayType) FloatWidth() uint8             { return 0 }
func (t *ArrayType) ArrayElem() target.Type        { return t.Element.(target.Type) }
func (t *ArrayType) ArrayCount() uint64            { return t.Count }
func (t *ArrayType) StructFields() []target.Type   { return nil }

func (t *StructType) LayoutKind() target.LayoutKind { return target.LayoutStruct }
func (t *StructType) IntegerWidth() uint8           { return 0 }
func (t *StructType) FloatWidth() uint8             { return 0 }
func (t *StructType) ArrayElem() target.Type        { return nil }
func (t *StructType) ArrayCount() uint64            { return 0 }
func (t *StructType) StructFields() []target.Type {
	fs := make([]target.Type, len(t.Fields))
	for i, f := range t.Fields {
		fs[i] = f.(target.Type)
	}
	return fs
}

func (t *FunctionType) LayoutKind() target.LayoutKind { return target.LayoutFunction }
func (t *FunctionType) IntegerWidth() uint8           { return 0 }
func (t *FunctionType) FloatWidth() uint8             { return 0 }
func (t *FunctionType) ArrayElem() target.Type        { return nil }
func (t *FunctionType) ArrayCount() uint64            { return 0 }
func (t *FunctionType) StructFields() []target.Type   { return nil }
