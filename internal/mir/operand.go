package mir

// OperandKind discriminates the variants of Operand.
type OperandKind uint8

const (
	OpRegister OperandKind = iota
	OpMemory
	OpStackIndex
	OpImmediate
	OpBasicBlock
	OpConstantIndex
	OpSymbol
)

// Operand is a single operand of a MachineInst. Exactly one of its fields
// is meaningful, selected by Kind; register operands additionally carry
// subregister and def/use/kill/implicit flags used by the allocator and
// the assembly printer.
type Operand struct {
	kind OperandKind

	reg    Register
	subreg uint16

	isDef      bool
	isKillDead bool
	isImplicit bool

	memBase Register
	memDisp int32

	stackIdx uint32
	imm      int64
	block    *MachineBlock
	constIdx uint32
	symbol   string
}

// Reg builds a register operand. is_def, is_implicit, is_kill, and is_dead
// mirror the flags the allocator and asm writer need (is_kill and is_dead
// are mutually exclusive depending on whether the operand is a use or a
// def; callers set only the one that applies).
func Reg(reg Register, subreg uint16, isDef bool, opts ...func(*Operand)) Operand {
	o := Operand{kind: OpRegister, reg: reg, subreg: subreg, isDef: isDef}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Implicit marks a register operand as an implicit def/use (e.g. %rdx on a
// two-operand-producing idiv).
func Implicit(o *Operand) { o.isImplicit = true }

// Kill marks a use-register operand as the last use of that register.
func Kill(o *Operand) { o.isKillDead = true }

// Dead marks a def-register operand as never read.
func Dead(o *Operand) { o.isKillDead = true }

func Mem(base Register, disp int32) Operand {
	return Operand{kind: OpMemory, memBase: base, memDisp: disp}
}

func StackIndex(idx uint32) Operand { return Operand{kind: OpStackIndex, stackIdx: idx} }

func Imm(v int64) Operand { return Operand{kind: OpImmediate, imm: v} }

func Block(b *MachineBlock) Operand { return Operand{kind: OpBasicBlock, block: b} }

func ConstantIndex(idx uint32) Operand { return Operand{kind: OpConstantIndex, constIdx: idx} }

func Symbol(name string) Operand { return Operand{kind: OpSymbol, symbol: name} }

func (o Operand) Kind() OperandKind { return o.kind }

func (o Operand) IsReg() bool          { return o.kind == OpRegister }
func (o Operand) IsMem() bool          { return o.kind == OpMemory }
func (o Operand) IsStackIndex() bool   { return o.kind == OpStackIndex }
func (o Operand) IsImm() bool          { return o.kind == OpImmediate }
func (o Operand) IsBlock() bool        { return o.kind == OpBasicBlock }
func (o Operand) IsConstantIndex() bool { return o.kind == OpConstantIndex }
func (o Operand) IsSymbol() bool       { return o.kind == OpSymbol }

func (o Operand) Reg() Register { return o.reg }
func (o Operand) Subreg() uint16 { return o.subreg }
func (o Operand) IsDef() bool          { return o.isDef }
func (o Operand) IsUse() bool          { return !o.isDef }
func (o Operand) IsExplicitDef() bool  { return o.isDef && !o.isImplicit }
func (o Operand) IsImplicitDef() bool  { return o.isDef && o.isImplicit }
func (o Operand) IsExplicitUse() bool  { return !o.isDef && !o.isImplicit }
func (o Operand) IsImplicitUse() bool  { return !o.isDef && o.isImplicit }
func (o Operand) IsImplicit() bool     { return o.isImplicit }
func (o Operand) IsKill() bool         { return o.isKillDead && !o.isDef }
func (o Operand) IsDead() bool         { return o.isKillDead && o.isDef }

func (o *Operand) SetReg(r Register) { o.reg = r }

func (o Operand) MemBase() Register { return o.memBase }
func (o Operand) MemDisp() int32    { return o.memDisp }
func (o Operand) StackIdx() uint32  { return o.stackIdx }
func (o Operand) Imm() int64        { return o.imm }
func (o Operand) MBB() *MachineBlock { return o.block }
func (o Operand) ConstIdx() uint32  { return o.constIdx }
func (o Operand) SymbolName() string { return o.symbol }
