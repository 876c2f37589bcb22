package mir

import (
	"strconv"

	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

// MachineObject is the target-dependent counterpart of a whole siir.CFG:
// every MachineFunction produced by instruction selection, plus the
// originating CFG's globals (carried through unselected, since data
// declarations need no instruction lowering) and the Target they were
// built for.
type MachineObject struct {
	Target target.Target
	CFG    *siir.CFG

	functions map[string]*MachineFunction
	order     []string

	strings      map[string]string
	stringOrder  []string
	nextStringID uint32
}

// NewMachineObject creates an empty object for the given CFG and target.
func NewMachineObject(cfg *siir.CFG, tgt target.Target) *MachineObject {
	return &MachineObject{
		Target:    tgt,
		CFG:       cfg,
		functions: make(map[string]*MachineFunction),
		strings:   make(map[string]string),
	}
}

// StringSymbol returns the read-only-data symbol backing the exact byte
// content of bytes, minting a fresh `.Lstr.N` label and recording the bytes
// under it the first time a given content is seen.
func (mo *MachineObject) StringSymbol(bytes []byte) string {
	key := string(bytes)
	if sym, ok := mo.strings[key]; ok {
		return sym
	}
	sym := ".Lstr." + strconv.FormatUint(uint64(mo.nextStringID), 10)
	mo.nextStringID++
	mo.strings[key] = sym
	mo.stringOrder = append(mo.stringOrder, key)
	return sym
}

// StringLiteral is one deduplicated string constant and the symbol it was
// assigned, in first-use order for deterministic emission.
type StringLiteral struct {
	Symbol string
	Bytes  []byte
}

// Strings returns every interned string literal in first-use order.
func (mo *MachineObject) Strings() []StringLiteral {
	lits := make([]StringLiteral, len(mo.stringOrder))
	for i, key := range mo.stringOrder {
		lits[i] = StringLiteral{Symbol: mo.strings[key], Bytes: []byte(key)}
	}
	return lits
}

// AddFunction registers mf under its own name, preserving insertion order
// for deterministic emission.
func (mo *MachineObject) AddFunction(mf *MachineFunction) {
	name := mf.Name()
	if _, exists := mo.functions[name]; !exists {
		mo.order = append(mo.order, name)
	}
	mo.functions[name] = mf
}

func (mo *MachineObject) GetFunction(name string) *MachineFunction { return mo.functions[name] }

// Functions returns every MachineFunction in insertion order.
func (mo *MachineObject) Functions() []*MachineFunction {
	fns := make([]*MachineFunction, len(mo.order))
	for i, name := range mo.order {
		fns[i] = mo.functions[name]
	}
	return fns
}
