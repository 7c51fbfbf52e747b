package ir

import "strings"

// InstrKind is the top-level discriminator of the instruction sum type:
// an instruction is either an Expression (computes and assigns a value) or
// a Flow instruction (transfers control).
type InstrKind uint8

const (
	ExprKind InstrKind = iota
	FlowKind
)

// UnaryOp enumerates the unary expression operators.
type UnaryOp uint8

const (
	OpMov UnaryOp = iota
	OpSeqz
	OpSnez
	OpNeg
	OpBneg
	OpLnot
)

var unaryOpNames = [...]string{
	OpMov:  "MOV",
	OpSeqz: "SEQZ",
	OpSnez: "SNEZ",
	OpNeg:  "NEG",
	OpBneg: "BNEG",
	OpLnot: "LNOT",
}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// BinaryOp enumerates the binary expression operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpBand
	OpBor
	OpBxor
	OpLand
	OpLor
	OpSgt
	OpSle
	OpSlt
	OpSge
	OpSeq
	OpSne
	OpScs
	OpScc
)

var binaryOpNames = [...]string{
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD",
	OpShl: "SHL", OpShr: "SHR", OpBand: "BAND", OpBor: "BOR", OpBxor: "BXOR",
	OpLand: "LAND", OpLor: "LOR",
	OpSgt: "SGT", OpSle: "SLE", OpSlt: "SLT", OpSge: "SGE", OpSeq: "SEQ", OpSne: "SNE",
	OpScs: "SCS", OpScc: "SCC",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

func (op BinaryOp) isComparison() bool {
	switch op {
	case OpSgt, OpSle, OpSlt, OpSge, OpSeq, OpSne, OpScs, OpScc:
		return true
	default:
		return false
	}
}

func (op BinaryOp) isLogical() bool {
	return op == OpLand || op == OpLor
}

// Instruction is the common interface implemented by every concrete
// instruction variant: a single sum type, with ExprKind/FlowKind as the
// top-level tag and each concrete type as a further sub-variant.
type Instruction interface {
	Kind() InstrKind
	Block() *CodeBlock
	// Dest returns the instruction's destination variable, or nil if the
	// instruction has none (flow instructions).
	Dest() *Variable
	// IsTerminator reports whether this instruction ends its block (jump,
	// branch, or return -- call instructions are not terminators).
	IsTerminator() bool
	// IsPhi reports whether this is a Combinator instruction.
	IsPhi() bool
	// operandSlots returns pointers to every operand slot so that the
	// mutator can read and (for variable_replace) rewrite them in place.
	operandSlots() []*Operand
	setBlock(*CodeBlock)
	String() string
}

// PhiEntry is one (predecessor-block, operand) pair of a Combinator.
type PhiEntry struct {
	Pred  *CodeBlock
	Value Operand
}

// PhiInstr is the Combinator (φ) expression variant. Legal only at the head
// of a block, before any non-φ instruction.
type PhiInstr struct {
	block   *CodeBlock
	dest    *Variable
	Entries []PhiEntry
}

func (i *PhiInstr) Kind() InstrKind     { return ExprKind }
func (i *PhiInstr) Block() *CodeBlock   { return i.block }
func (i *PhiInstr) Dest() *Variable     { return i.dest }
func (i *PhiInstr) IsTerminator() bool  { return false }
func (i *PhiInstr) IsPhi() bool         { return true }
func (i *PhiInstr) setBlock(b *CodeBlock) { i.block = b }
func (i *PhiInstr) operandSlots() []*Operand {
	slots := make([]*Operand, len(i.Entries))
	for idx := range i.Entries {
		slots[idx] = &i.Entries[idx].Value
	}
	return slots
}

// entryFor returns the operand supplied for predecessor p, and whether an
// entry for p exists.
func (i *PhiInstr) entryFor(p *CodeBlock) (Operand, bool) {
	for _, e := range i.Entries {
		if e.Pred == p {
			return e.Value, true
		}
	}
	return Operand{}, false
}

// UnaryInstr applies a unary operator to one operand.
type UnaryInstr struct {
	block *CodeBlock
	dest  *Variable
	Op    UnaryOp
	Src   Operand
}

func (i *UnaryInstr) Kind() InstrKind       { return ExprKind }
func (i *UnaryInstr) Block() *CodeBlock     { return i.block }
func (i *UnaryInstr) Dest() *Variable       { return i.dest }
func (i *UnaryInstr) IsTerminator() bool    { return false }
func (i *UnaryInstr) IsPhi() bool           { return false }
func (i *UnaryInstr) setBlock(b *CodeBlock) { i.block = b }
func (i *UnaryInstr) operandSlots() []*Operand {
	return []*Operand{&i.Src}
}

// BinaryInstr applies a binary operator to two operands.
type BinaryInstr struct {
	block *CodeBlock
	dest  *Variable
	Op    BinaryOp
	Lhs   Operand
	Rhs   Operand
}

func (i *BinaryInstr) Kind() InstrKind       { return ExprKind }
func (i *BinaryInstr) Block() *CodeBlock     { return i.block }
func (i *BinaryInstr) Dest() *Variable       { return i.dest }
func (i *BinaryInstr) IsTerminator() bool    { return false }
func (i *BinaryInstr) IsPhi() bool           { return false }
func (i *BinaryInstr) setBlock(b *CodeBlock) { i.block = b }
func (i *BinaryInstr) operandSlots() []*Operand {
	return []*Operand{&i.Lhs, &i.Rhs}
}

// UndefInstr marks its destination as having an unspecified value.
type UndefInstr struct {
	block *CodeBlock
	dest  *Variable
}

func (i *UndefInstr) Kind() InstrKind          { return ExprKind }
func (i *UndefInstr) Block() *CodeBlock        { return i.block }
func (i *UndefInstr) Dest() *Variable          { return i.dest }
func (i *UndefInstr) IsTerminator() bool       { return false }
func (i *UndefInstr) IsPhi() bool              { return false }
func (i *UndefInstr) setBlock(b *CodeBlock)    { i.block = b }
func (i *UndefInstr) operandSlots() []*Operand { return nil }

// JumpInstr is an unconditional branch to a target block.
type JumpInstr struct {
	block  *CodeBlock
	Target *CodeBlock
}

func (i *JumpInstr) Kind() InstrKind          { return FlowKind }
func (i *JumpInstr) Block() *CodeBlock        { return i.block }
func (i *JumpInstr) Dest() *Variable          { return nil }
func (i *JumpInstr) IsTerminator() bool       { return true }
func (i *JumpInstr) IsPhi() bool              { return false }
func (i *JumpInstr) setBlock(b *CodeBlock)    { i.block = b }
func (i *JumpInstr) operandSlots() []*Operand { return nil }

// BranchInstr is a conditional branch on a BOOL operand: true transfers to
// Target, false falls through to the next block in the function's textual
// block order -- there is deliberately no explicit false-target field.
type BranchInstr struct {
	block  *CodeBlock
	Cond   Operand
	Target *CodeBlock
}

func (i *BranchInstr) Kind() InstrKind       { return FlowKind }
func (i *BranchInstr) Block() *CodeBlock     { return i.block }
func (i *BranchInstr) Dest() *Variable       { return nil }
func (i *BranchInstr) IsTerminator() bool    { return true }
func (i *BranchInstr) IsPhi() bool           { return false }
func (i *BranchInstr) setBlock(b *CodeBlock) { i.block = b }
func (i *BranchInstr) operandSlots() []*Operand {
	return []*Operand{&i.Cond}
}

// CallDirectInstr calls a function by symbolic label with argument operands.
// CallDirect and CallPtr each own their own Args slice; nothing is shared
// between the two variants.
type CallDirectInstr struct {
	block *CodeBlock
	Label string
	Args  []Operand
}

func (i *CallDirectInstr) Kind() InstrKind       { return FlowKind }
func (i *CallDirectInstr) Block() *CodeBlock     { return i.block }
func (i *CallDirectInstr) Dest() *Variable       { return nil }
func (i *CallDirectInstr) IsTerminator() bool    { return false }
func (i *CallDirectInstr) IsPhi() bool           { return false }
func (i *CallDirectInstr) setBlock(b *CodeBlock) { i.block = b }
func (i *CallDirectInstr) operandSlots() []*Operand {
	slots := make([]*Operand, len(i.Args))
	for idx := range i.Args {
		slots[idx] = &i.Args[idx]
	}
	return slots
}

// CallPtrInstr calls indirectly through a variable-held address.
type CallPtrInstr struct {
	block *CodeBlock
	Addr  *Variable
	Args  []Operand
}

func (i *CallPtrInstr) Kind() InstrKind       { return FlowKind }
func (i *CallPtrInstr) Block() *CodeBlock     { return i.block }
func (i *CallPtrInstr) Dest() *Variable       { return nil }
func (i *CallPtrInstr) IsTerminator() bool    { return false }
func (i *CallPtrInstr) IsPhi() bool           { return false }
func (i *CallPtrInstr) setBlock(b *CodeBlock) { i.block = b }
// operandSlots returns only the argument operands. Addr is a bare
// *Variable, not an Operand (an indirect call's address can never be a
// constant), so it is handled separately wherever use-set/replace logic
// needs to see it.
func (i *CallPtrInstr) operandSlots() []*Operand {
	slots := make([]*Operand, len(i.Args))
	for idx := range i.Args {
		slots[idx] = &i.Args[idx]
	}
	return slots
}

// addrSlot returns a pointer to Addr. The replace and use-tracking code in
// mutator.go and ssa.go reads and writes cp.Addr directly and does not call
// it.
func (i *CallPtrInstr) addrSlot() **Variable { return &i.Addr }

// ReturnInstr optionally carries a single operand.
type ReturnInstr struct {
	block *CodeBlock
	Value *Operand
}

func (i *ReturnInstr) Kind() InstrKind       { return FlowKind }
func (i *ReturnInstr) Block() *CodeBlock     { return i.block }
func (i *ReturnInstr) Dest() *Variable       { return nil }
func (i *ReturnInstr) IsTerminator() bool    { return true }
func (i *ReturnInstr) IsPhi() bool           { return false }
func (i *ReturnInstr) setBlock(b *CodeBlock) { i.block = b }
func (i *ReturnInstr) operandSlots() []*Operand {
	if i.Value == nil {
		return nil
	}
	return []*Operand{i.Value}
}

// ---- Textual rendering ---------------------------------------------------
//
// Each String() implementation renders one instruction line of the textual
// form. Block labels, var/arg declarations, and indentation are the
// printer's job (printer.go); an instruction only ever knows how to render
// itself.

func formatArgs(args []Operand) string {
	parts := make([]string, len(args))
	for idx, a := range args {
		parts[idx] = a.String()
	}
	return strings.Join(parts, ", ")
}

func (i *PhiInstr) String() string {
	parts := make([]string, len(i.Entries))
	for idx, e := range i.Entries {
		parts[idx] = "<" + e.Pred.Name() + "> " + e.Value.String()
	}
	return "phi %" + i.dest.Name() + ", " + strings.Join(parts, ", ")
}

func (i *UnaryInstr) String() string {
	return strings.ToLower(i.Op.String()) + " %" + i.dest.Name() + ", " + i.Src.String()
}

func (i *BinaryInstr) String() string {
	return strings.ToLower(i.Op.String()) + " %" + i.dest.Name() + ", " + i.Lhs.String() + ", " + i.Rhs.String()
}

func (i *UndefInstr) String() string {
	return "undef %" + i.dest.Name()
}

func (i *JumpInstr) String() string {
	return "jump <" + i.Target.Name() + ">"
}

func (i *BranchInstr) String() string {
	return "branch " + i.Cond.String() + ", <" + i.Target.Name() + ">"
}

func (i *CallDirectInstr) String() string {
	s := "call_direct <" + i.Label + ">"
	if len(i.Args) > 0 {
		s += ", " + formatArgs(i.Args)
	}
	return s
}

func (i *CallPtrInstr) String() string {
	s := "call_ptr %" + i.Addr.Name()
	if len(i.Args) > 0 {
		s += ", " + formatArgs(i.Args)
	}
	return s
}

func (i *ReturnInstr) String() string {
	if i.Value == nil {
		return "return"
	}
	return "return " + i.Value.String()
}
